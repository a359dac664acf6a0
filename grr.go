//go:build gui

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/metcalfc/narr/internal/book"
	"github.com/metcalfc/narr/internal/playback"
)

func main() {
	execute(runGUI)
}

type guiModel struct {
	*readingSession
	sentences *playback.SentencePlayer
	spans     []book.Span
}

func (m *guiModel) cueFor(s book.Span) playback.Cue {
	if cue, ok := m.Cues[s.String()]; ok {
		return cue
	}
	return playback.Cue{Text: s.String()}
}

func (m *guiModel) savePosition() {
	if m.Store == nil || m.Key == "" {
		return
	}
	if err := m.Store.SetPage(m.Key, m.Book.Current); err != nil {
		slog.Warn("saving reading position", "key", m.Key, "error", err)
	}
}

// runGUI shows the session in a desktop window until it is closed.
func runGUI(ctx context.Context, s *readingSession) error {
	changed := make(chan struct{}, 1)
	notify := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	m := &guiModel{readingSession: s}
	m.sentences = s.Coordinator.NewSentencePlayer(
		append(sentenceOptions(s), playback.WithOnChange(notify))...,
	)
	defer m.sentences.Close()
	m.spans = m.Book.CurrentSpans()

	a := app.New()
	w := a.NewWindow("narr - " + m.Book.Title)

	statusLabel := widget.NewLabel("")
	statusLabel.Alignment = fyne.TextAlignCenter

	sentenceList := widget.NewList(
		func() int { return len(m.spans) },
		func() fyne.CanvasObject {
			l := widget.NewLabel("Sentence")
			l.Wrapping = fyne.TextWrapWord
			return l
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			span := m.spans[id]
			playing := m.sentences.IsPlaying(m.cueFor(span).Key())
			label.TextStyle.Bold = playing
			text := span.String()
			if playing {
				text = "▶ " + text
			}
			label.SetText(text)
		},
	)
	sentenceList.OnSelected = func(id widget.ListItemID) {
		if id < len(m.spans) {
			m.sentences.Click(m.cueFor(m.spans[id]))
		}
		sentenceList.UnselectAll()
	}

	trackTitle := widget.NewLabel("")
	clockLabel := widget.NewLabel("0:00 / 0:00")
	trackBar := widget.NewProgressBar()
	trackBar.Max = 100
	trackBar.TextFormatter = func() string { return "" }

	var refresh func()

	playPause := widget.NewButton("Pause", func() {
		m.Coordinator.TogglePlayPause()
		refresh()
	})
	hide := widget.NewButton("Hide", func() {
		m.Coordinator.HidePlayer()
		refresh()
	})
	back := widget.NewButton("-5%", func() {
		m.Coordinator.Seek(-5)
		refresh()
	})
	forward := widget.NewButton("+5%", func() {
		m.Coordinator.Seek(5)
		refresh()
	})
	playerRow := container.NewBorder(nil, nil,
		container.NewHBox(playPause, back, forward, trackTitle),
		container.NewHBox(clockLabel, hide),
		trackBar,
	)
	playerRow.Hide()

	goToPage := func(move func() bool) {
		if move() {
			m.sentences.Stop()
			m.savePosition()
			refresh()
		}
	}
	prevBtn := widget.NewButton("◀ Prev", func() { goToPage(m.Book.PrevPage) })
	nextBtn := widget.NewButton("Next ▶", func() { goToPage(m.Book.NextPage) })
	listen := widget.NewButton("Listen", func() {
		m.Coordinator.ShowPlayer(m.Track)
		refresh()
	})
	navRow := container.NewHBox(prevBtn, nextBtn, listen)

	refresh = func() {
		m.spans = m.Book.CurrentSpans()
		sentenceList.Refresh()

		current, total := m.Book.Progress()
		status := fmt.Sprintf("%s | Page %d/%d", m.Book.Title, current, total)
		if ch := m.Book.CurrentChapterTitle(); ch != "" {
			status = fmt.Sprintf("%s | %s | Page %d/%d", m.Book.Title, ch, current, total)
		}
		statusLabel.SetText(status)

		st := m.Coordinator.State()
		if !st.Visible || st.Track == nil {
			playerRow.Hide()
			return
		}
		playerRow.Show()
		trackTitle.SetText(st.Track.Title)
		trackBar.SetValue(st.Progress)
		clockLabel.SetText(st.CurrentTime + " / " + st.TotalTime)
		if st.Playing {
			playPause.SetText("Pause")
		} else {
			playPause.SetText("Play")
		}
	}

	controlsLabel := widget.NewLabel("←/→: page  SPACE: play/pause  [/]: seek  R: restart  T: TOC  Q: quit")
	controlsLabel.Alignment = fyne.TextAlignCenter

	readingContent := container.NewBorder(
		statusLabel,
		container.NewVBox(navRow, playerRow, controlsLabel),
		nil, nil,
		sentenceList,
	)

	var tocPanel *container.Split
	mainContainer := container.NewStack(readingContent)
	if len(m.Book.TOC) > 0 {
		tocList := widget.NewList(
			func() int { return len(m.Book.TOC) },
			func() fyne.CanvasObject {
				return container.NewVBox(widget.NewLabel("Title"), widget.NewLabel("Preview"))
			},
			func(id widget.ListItemID, obj fyne.CanvasObject) {
				entry := m.Book.TOC[id]
				vbox := obj.(*fyne.Container)
				indent := strings.Repeat("  ", entry.Level)
				titleLabel := vbox.Objects[0].(*widget.Label)
				titleLabel.TextStyle.Bold = true
				titleLabel.SetText(indent + entry.Title)
				vbox.Objects[1].(*widget.Label).SetText(indent + entry.Preview)
			},
		)
		tocContainer := container.NewBorder(
			widget.NewLabel("Table of Contents"),
			widget.NewLabel("Click to jump • T to close"),
			nil, nil,
			tocList,
		)
		tocList.OnSelected = func(id widget.ListItemID) {
			m.Book.JumpToOffset(m.Book.TOC[id].Offset)
			m.sentences.Stop()
			m.savePosition()
			tocContainer.Hide()
			tocPanel.Refresh()
			refresh()
		}

		tocPanel = container.NewHSplit(tocContainer, readingContent)
		tocPanel.Offset = 0.33
		if !m.ShowTOC {
			tocContainer.Hide()
		}
		mainContainer = container.NewStack(tocPanel)
	}

	done := make(chan struct{})
	var closeOnce sync.Once
	shutdown := func() {
		m.savePosition()
		closeOnce.Do(func() { close(done) })
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				fyne.Do(a.Quit)
				return
			case now := <-ticker.C:
				m.Coordinator.Tick(now.Sub(last))
				last = now
				fyne.Do(refresh)
			case <-changed:
				fyne.Do(refresh)
			}
		}
	}()

	if m.Changes != nil && m.Reload != nil {
		go func() {
			for {
				select {
				case <-done:
					return
				case _, ok := <-m.Changes:
					if !ok {
						return
					}
					text, err := m.Reload()
					if err != nil {
						slog.Warn("reloading source", "error", err)
						continue
					}
					fyne.Do(func() {
						m.Book.Reflow(text)
						m.sentences.Stop()
						refresh()
					})
				}
			}
		}()
	}

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeyLeft:
			goToPage(m.Book.PrevPage)
		case fyne.KeyRight:
			goToPage(m.Book.NextPage)
		case fyne.KeySpace:
			m.Coordinator.TogglePlayPause()
			refresh()
		case fyne.KeyQ:
			shutdown()
			a.Quit()
		}
	})

	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 't', 'T':
			if tocPanel != nil {
				if tocPanel.Leading.Visible() {
					tocPanel.Leading.Hide()
				} else {
					tocPanel.Leading.Show()
				}
				tocPanel.Refresh()
			}
		case 'r', 'R':
			m.Book.GoTo(0)
			m.sentences.Stop()
			if m.Store != nil && m.Key != "" {
				if err := m.Store.Clear(m.Key); err != nil {
					slog.Warn("clearing reading position", "key", m.Key, "error", err)
				}
			}
			refresh()
		case 'p', 'P':
			m.Coordinator.ShowPlayer(m.Track)
			refresh()
		case 'x', 'X':
			m.Coordinator.HidePlayer()
			refresh()
		case '[':
			m.Coordinator.Seek(-5)
			refresh()
		case ']':
			m.Coordinator.Seek(5)
			refresh()
		}
	})

	w.SetOnClosed(shutdown)
	w.Resize(fyne.NewSize(800, 600))
	w.SetContent(mainContainer)
	refresh()
	w.ShowAndRun()
	return nil
}
