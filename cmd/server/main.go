package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sumeet/acro-party/internal/app"
	"github.com/sumeet/acro-party/internal/config"
	"github.com/sumeet/acro-party/internal/domain"
	"github.com/sumeet/acro-party/internal/render"
	httpTransport "github.com/sumeet/acro-party/internal/transport/http"
)

func main() {
	cfg := &config.Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ACROPARTY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "acro-party",
		Short:         "A multiplayer acronym party game with AI-rendered submissions.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	defaults := domain.DefaultRules()
	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: ACROPARTY_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: ACROPARTY_PORT)")
	fs.IntVar(&cfg.Rounds, "rounds", defaults.NumRounds, "rounds per game (env: ACROPARTY_ROUNDS)")
	fs.IntVar(&cfg.MinPlayers, "min-players", defaults.MinPlayers, "players required to start (env: ACROPARTY_MIN_PLAYERS)")
	fs.IntVar(&cfg.MaxPlayers, "max-players", defaults.MaxPlayers, "roster cap per game (env: ACROPARTY_MAX_PLAYERS)")
	fs.IntVar(&cfg.AcroMinLen, "acro-min-len", defaults.AcroMinLen, "shortest generated acronym (env: ACROPARTY_ACRO_MIN_LEN)")
	fs.IntVar(&cfg.AcroMaxLen, "acro-max-len", defaults.AcroMaxLen, "longest generated acronym (env: ACROPARTY_ACRO_MAX_LEN)")
	fs.BoolVar(&cfg.AllowSelfVote, "allow-self-vote", defaults.AllowSelfVote, "permit voting for your own submission, at a one point cost (env: ACROPARTY_ALLOW_SELF_VOTE)")
	fs.DurationVar(&cfg.PhaseTimeout, "phase-timeout", 0, "time to wait for stragglers per phase, 0 waits forever (env: ACROPARTY_PHASE_TIMEOUT)")
	fs.StringVar(&cfg.RenderEndpoint, "render-endpoint", "https://api.stability.ai", "image generation API base URL (env: ACROPARTY_RENDER_ENDPOINT)")
	fs.StringVar(&cfg.RenderKey, "render-key", "", "image generation API key, empty renders placeholders (env: ACROPARTY_RENDER_KEY)")
	fs.StringVar(&cfg.RenderEngine, "render-engine", "stable-diffusion-v1-6", "image generation engine (env: ACROPARTY_RENDER_ENGINE)")
	fs.DurationVar(&cfg.RenderTimeout, "render-timeout", 60*time.Second, "image generation request timeout (env: ACROPARTY_RENDER_TIMEOUT)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level: debug, info, warn, error (env: ACROPARTY_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", "text", "log format: text or json (env: ACROPARTY_LOG_FORMAT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

func run(cfg *config.Config) error {
	// Set up logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var logger *slog.Logger
	if cfg.LogFormat == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting acro party server",
		"addr", cfg.Addr(),
		"rounds", cfg.Rounds,
	)

	renderer := newRenderer(cfg, logger)

	// Create game hub
	hub := app.NewGameHub(cfg.Rules(), renderer, cfg.PhaseTimeout, logger)
	defer hub.Close()

	// Create HTTP server
	server := httpTransport.NewServer(cfg, hub, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

// newRenderer picks the image backend: the real API when a key is
// configured, otherwise a fixed placeholder so the game stays playable.
func newRenderer(cfg *config.Config, logger *slog.Logger) domain.Renderer {
	if cfg.RenderKey == "" {
		logger.Warn("no render key configured, serving placeholder images")
		return render.Static{Image: placeholderImage()}
	}

	return render.NewStabilityClient(render.Config{
		Endpoint: cfg.RenderEndpoint,
		APIKey:   cfg.RenderKey,
		Engine:   cfg.RenderEngine,
		Timeout:  cfg.RenderTimeout,
	}, logger)
}

func placeholderImage() []byte {
	var buf bytes.Buffer
	png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	return buf.Bytes()
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
