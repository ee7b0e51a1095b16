package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/local2stream/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	// Interrupts cancel the running transfer; its summary is still printed and saved.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		stop()
		runner.logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the root command; config is loaded before any subcommand runs.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "l2s",
		Usage:   "Match local audio files against a streaming catalog and fill a playlist",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.loadConfig,
		After:    r.close,
		Commands: r.register(),
	}
}
