package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/neox5/doglessdata/internal/app"
	"github.com/neox5/doglessdata/internal/config"
	"github.com/neox5/doglessdata/internal/scrape"
	"github.com/neox5/doglessdata/internal/version"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "doglessdata.yaml"

func main() {
	cmd := &cli.Command{
		Name:    "doglessdata",
		Usage:   "Emit and collect Lambda MONITORING metric lines",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigPath,
				Usage:   "path to configuration file (optional unless set explicitly)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			emitCommand(),
			collectCommand(),
			generateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging sends logs to stderr so stdout carries only metric lines.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logLevel := slog.LevelInfo
	if cmd.Bool("debug") {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return ctx, nil
}

// newApp loads the configuration and builds an app writing metric lines to stdout.
func newApp(cmd *cli.Command) (*app.App, error) {
	configPath := cmd.String("config")

	slog.Debug("loading config", "path", configPath, "required", cmd.IsSet("config"))
	cfg, err := config.Load(configPath, cmd.IsSet("config"))
	if err != nil {
		return nil, err
	}

	return app.New(cfg, os.Stdout, slog.Default()), nil
}

func collectCommand() *cli.Command {
	return &cli.Command{
		Name:  "collect",
		Usage: "Read log lines from stdin and export the metrics they carry",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "passthrough",
				Value: true,
				Usage: "copy non-metric lines to stdout",
			},
			&cli.StringFlag{
				Name:  "json-field",
				Usage: "read metric lines from this field of JSON log records (e.g. message)",
			},
			&cli.BoolFlag{
				Name:  "exit-on-eof",
				Usage: "stop when stdin is closed instead of serving until interrupted",
			},
		},
		Action: collect,
	}
}

func collect(ctx context.Context, cmd *cli.Command) error {
	application, err := newApp(cmd)
	if err != nil {
		return err
	}

	var passthrough io.Writer
	if cmd.Bool("passthrough") {
		passthrough = os.Stdout
	}

	var opts []scrape.Option
	if field := cmd.String("json-field"); field != "" {
		opts = append(opts, scrape.WithJSONField(field))
	}

	c, err := application.Collector(passthrough, opts...)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting collector", "version", version.String(),
		"prometheus", c.PrometheusExporter != nil,
		"otel", c.OTELExporter != nil)

	// Setup graceful shutdown
	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Run(shutdownCtx, os.Stdin, cmd.Bool("exit-on-eof")); err != nil {
		return err
	}

	slog.Info("shutdown complete")
	return nil
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:   "generate",
		Usage:  "Emit synthetic metric lines from the generator configuration",
		Action: generate,
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	application, err := newApp(cmd)
	if err != nil {
		return err
	}

	gen, err := application.Generator(nil)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return gen.Run(shutdownCtx)
}
