package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Run shows the review screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, rows []model.EnrichedTransaction, opts Options, in io.Reader, out io.Writer) error {
	slog.Debug("Starting review screen", "rows", len(rows), "unclassified", countUnclassified(rows))

	programOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if in != nil {
		programOpts = append(programOpts, tea.WithInput(in))
	}
	if out != nil {
		programOpts = append(programOpts, tea.WithOutput(out))
	}

	p := tea.NewProgram(New(rows, opts), programOpts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("review screen failed: %w", err)
	}
	return nil
}
