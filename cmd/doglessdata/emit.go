package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/neox5/doglessdata/emitter"
	"github.com/urfave/cli/v3"
)

func tagFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "tag",
		Aliases: []string{"t"},
		Usage:   "tag to attach, repeatable (key:value or bare)",
	}
}

func emitCommand() *cli.Command {
	return &cli.Command{
		Name:  "emit",
		Usage: "Write a single metric line to stdout",
		Commands: []*cli.Command{
			{
				Name:      "count",
				Usage:     "Emit a count (default 1)",
				ArgsUsage: "<name> [value]",
				Flags:     []cli.Flag{tagFlag()},
				Action: withEmitter(func(e *emitter.Emitter, cmd *cli.Command) error {
					name, err := nameArg(cmd)
					if err != nil {
						return err
					}
					if cmd.Args().Len() < 2 {
						e.Increment(name, cmd.StringSlice("tag")...)
						return nil
					}
					v, err := strconv.ParseInt(cmd.Args().Get(1), 10, 64)
					if err != nil {
						return fmt.Errorf("invalid count value %q: %w", cmd.Args().Get(1), err)
					}
					e.Count(name, v, cmd.StringSlice("tag")...)
					return nil
				}),
			},
			{
				Name:      "gauge",
				Usage:     "Emit a gauge",
				ArgsUsage: "<name> <value>",
				Flags:     []cli.Flag{tagFlag()},
				Action: withEmitter(func(e *emitter.Emitter, cmd *cli.Command) error {
					name, v, err := floatArgs(cmd)
					if err != nil {
						return err
					}
					e.Gauge(name, v, cmd.StringSlice("tag")...)
					return nil
				}),
			},
			{
				Name:      "histogram",
				Usage:     "Emit a histogram sample",
				ArgsUsage: "<name> <value>",
				Flags:     []cli.Flag{tagFlag()},
				Action: withEmitter(func(e *emitter.Emitter, cmd *cli.Command) error {
					name, v, err := floatArgs(cmd)
					if err != nil {
						return err
					}
					e.Histogram(name, v, cmd.StringSlice("tag")...)
					return nil
				}),
			},
			{
				Name:      "timing",
				Usage:     "Emit a duration in milliseconds",
				ArgsUsage: "<name> <duration>",
				Flags:     []cli.Flag{tagFlag()},
				Action: withEmitter(func(e *emitter.Emitter, cmd *cli.Command) error {
					name, err := nameArg(cmd)
					if err != nil {
						return err
					}
					d, err := parseDuration(cmd.Args().Get(1))
					if err != nil {
						return err
					}
					e.Timing(name, d, cmd.StringSlice("tag")...)
					return nil
				}),
			},
			{
				Name:      "check",
				Usage:     "Emit a service check (ok, warning, critical, unknown or 0-3)",
				ArgsUsage: "<service> <status>",
				Flags: []cli.Flag{
					tagFlag(),
					&cli.StringFlag{
						Name:    "message",
						Aliases: []string{"m"},
						Usage:   "check message",
					},
				},
				Action: withEmitter(func(e *emitter.Emitter, cmd *cli.Command) error {
					if cmd.Args().Len() < 2 {
						return fmt.Errorf("service and status are required")
					}
					status, err := emitter.ParseStatus(cmd.Args().Get(1))
					if err != nil {
						return err
					}
					e.ServiceCheck(cmd.Args().Get(0), status, cmd.String("message"), cmd.StringSlice("tag")...)
					return nil
				}),
			},
		},
	}
}

// withEmitter builds the emitter from configuration before running fn.
func withEmitter(fn func(*emitter.Emitter, *cli.Command) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		application, err := newApp(cmd)
		if err != nil {
			return err
		}
		return fn(application.Emitter, cmd)
	}
}

func nameArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() < 1 {
		return "", fmt.Errorf("metric name is required")
	}
	return cmd.Args().Get(0), nil
}

func floatArgs(cmd *cli.Command) (string, float64, error) {
	if cmd.Args().Len() < 2 {
		return "", 0, fmt.Errorf("metric name and value are required")
	}
	v, err := strconv.ParseFloat(cmd.Args().Get(1), 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid value %q: %w", cmd.Args().Get(1), err)
	}
	return cmd.Args().Get(0), v, nil
}

// parseDuration accepts Go durations ("150ms", "1.5s") and bare milliseconds.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("duration is required")
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(ms * float64(time.Millisecond)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
