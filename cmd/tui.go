package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/local2stream/internal/formatter"
	"github.com/desertthunder/local2stream/internal/shared"
	"github.com/desertthunder/local2stream/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/l2s-tui.log"

// TransferUI launches the interactive terminal UI for a transfer.
func (r *Runner) TransferUI(ctx context.Context, cmd *cli.Command) error {
	root, tracks, err := r.scan(ctx, cmd)
	if err != nil {
		return err
	}

	catalog, err := r.openCatalog(ctx)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	if r.config.Logging.File == "" {
		fileLogger, err := shared.NewFileLogger(tuiLogPath)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		shared.SetLogLevel(fileLogger, r.logger.GetLevel())
		r.SetLogger(fileLogger)
	}

	engine := r.newEngine(catalog, cmd.Bool("dry-run"))
	model := ui.NewModel(ctx, engine, tracks, cmd.String("playlist-id"), cmd.String("playlist-name"))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	summary := model.Summary()
	if summary == nil {
		return model.Err()
	}
	return r.finishTransfer(cmd, summary, root, formatter.FormatText)
}
