//go:build !gui

package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/metcalfc/narr/internal/tui"
)

func main() {
	execute(runTUI)
}

// runTUI shows the session in the terminal until the user quits.
func runTUI(ctx context.Context, s *readingSession) error {
	m := tui.New(tui.Options{
		Book:            s.Book,
		Coordinator:     s.Coordinator,
		Cues:            s.Cues,
		Track:           s.Track,
		Store:           s.Store,
		Key:             s.Key,
		Changes:         s.Changes,
		Reload:          s.Reload,
		ShowTOC:         s.ShowTOC,
		SentenceOptions: sentenceOptions(s),
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
