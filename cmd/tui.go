package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
	"github.com/desertthunder/wardrobe/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal board.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParsePageKind(cmd.String("board"))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	r.client = nil

	ctrl, err := r.controller(kind)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ctrl, fileLogger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
