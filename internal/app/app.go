package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/neox5/doglessdata/emitter"
	"github.com/neox5/doglessdata/internal/config"
	"github.com/neox5/doglessdata/internal/generator"
)

// App holds the configuration and the emitter built from it.
type App struct {
	Config  *config.Config
	Emitter *emitter.Emitter
	Logger  *slog.Logger
}

// New initializes the application. Metric lines go to out; the emitter
// identity comes from cfg with the Lambda environment as fallback.
func New(cfg *config.Config, out io.Writer, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	opts := cfg.Emitter.Options(config.LookupLambdaEnv())
	opts.Output = out
	opts.Logger = logger

	return &App{
		Config:  cfg,
		Emitter: emitter.New(opts),
		Logger:  logger,
	}
}

// Generator creates the synthetic metric generator. clk may be nil.
func (a *App) Generator(clk clock.Clock) (*generator.Generator, error) {
	if len(a.Config.Generator.Metrics) == 0 {
		return nil, fmt.Errorf("no generator metrics configured")
	}

	gen, err := generator.New(a.Config.Generator, a.Emitter, clk, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	return gen, nil
}
