package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/sumeet/acro-party/internal/domain"
)

// Config holds all application configuration
type Config struct {
	// Server
	Bind string
	Port int

	// Game rules
	Rounds        int
	MinPlayers    int
	MaxPlayers    int
	AcroMinLen    int
	AcroMaxLen    int
	AllowSelfVote bool
	PhaseTimeout  time.Duration // 0 waits for stragglers forever

	// Image generation backend
	RenderEndpoint string
	RenderKey      string
	RenderEngine   string
	RenderTimeout  time.Duration

	// Logging
	LogLevel  string
	LogFormat string // "json" or "text"
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.Rounds < 1 {
		return fmt.Errorf("invalid round count: %d", c.Rounds)
	}
	if c.AcroMinLen < 1 || c.AcroMaxLen < c.AcroMinLen {
		return fmt.Errorf("invalid acronym length range: [%d,%d]", c.AcroMinLen, c.AcroMaxLen)
	}
	if c.MinPlayers < 2 {
		return fmt.Errorf("invalid minimum player count: %d", c.MinPlayers)
	}
	if c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("max players %d below min players %d", c.MaxPlayers, c.MinPlayers)
	}
	if c.RenderKey != "" && c.RenderEndpoint == "" {
		return errors.New("render-key set without render-endpoint")
	}
	return nil
}

// Addr returns the listen address in host:port format
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// Rules returns the game rules derived from the configuration
func (c *Config) Rules() domain.Rules {
	return domain.Rules{
		NumRounds:     c.Rounds,
		MinPlayers:    c.MinPlayers,
		MaxPlayers:    c.MaxPlayers,
		AcroMinLen:    c.AcroMinLen,
		AcroMaxLen:    c.AcroMaxLen,
		AllowSelfVote: c.AllowSelfVote,
	}
}
