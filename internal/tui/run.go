package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Run blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options, out io.Writer) error {
	model := NewModel(opts)
	defer model.Close()

	programOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if out != nil {
		programOpts = append(programOpts, tea.WithOutput(out))
	}

	_, err := tea.NewProgram(model, programOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}
