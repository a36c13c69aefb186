package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Bind:       "0.0.0.0",
		Port:       8080,
		Rounds:     2,
		MinPlayers: 2,
		MaxPlayers: 10,
		AcroMinLen: 3,
		AcroMaxLen: 6,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: "invalid port",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: "invalid port",
		},
		{
			name:    "zero rounds",
			mutate:  func(c *Config) { c.Rounds = 0 },
			wantErr: "invalid round count",
		},
		{
			name:    "acro range inverted",
			mutate:  func(c *Config) { c.AcroMinLen = 6; c.AcroMaxLen = 3 },
			wantErr: "invalid acronym length range",
		},
		{
			name:    "min players below two",
			mutate:  func(c *Config) { c.MinPlayers = 1 },
			wantErr: "invalid minimum player count",
		},
		{
			name:    "max players below min",
			mutate:  func(c *Config) { c.MaxPlayers = 1 },
			wantErr: "below min players",
		},
		{
			name:    "render key without endpoint",
			mutate:  func(c *Config) { c.RenderKey = "secret" },
			wantErr: "render-key set without render-endpoint",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Addr(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestConfig_Rules(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.AllowSelfVote = true

	rules := cfg.Rules()
	assert.Equal(t, 2, rules.NumRounds)
	assert.Equal(t, 2, rules.MinPlayers)
	assert.Equal(t, 10, rules.MaxPlayers)
	assert.Equal(t, 3, rules.AcroMinLen)
	assert.Equal(t, 6, rules.AcroMaxLen)
	assert.True(t, rules.AllowSelfVote)
}
