package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/epheterson/mcp-applemusic/internal/shared"
	"github.com/epheterson/mcp-applemusic/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetLogger swaps the runner's logger, used when stderr is owned by the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// TUI launches the interactive terminal UI for browsing and exporting playlists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}
	if err := r.requireEngine(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join("tmp", "amctl-tui.log")
	if cacheDir, err := shared.CacheDir(); err == nil {
		logPath = filepath.Join(cacheDir, "tui.log")
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.catalog, r.engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
