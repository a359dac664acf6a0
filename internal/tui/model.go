// Package tui is the terminal reader: one page of sentences at a time, with
// the persistent player bar underneath.
package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/metcalfc/narr/internal/book"
	"github.com/metcalfc/narr/internal/playback"
	"github.com/metcalfc/narr/internal/state"
)

const seekStep = 5 // percent

// Options wires a Model to its collaborators. Book and Coordinator are required.
type Options struct {
	Book        *book.Book
	Coordinator *playback.Coordinator

	// Cues maps a displayed sentence (text plus terminator) to its audio.
	// Sentences without an entry play on the fallback timer.
	Cues map[string]playback.Cue

	// Track is what the player shows for this book.
	Track playback.Track

	// Store and Key persist the page index. Both optional.
	Store *state.StateStore
	Key   string

	// Changes signals that the source changed; Reload returns the new text.
	Changes <-chan struct{}
	Reload  func() (string, error)

	// SentenceOptions configure the page-local sentence player.
	SentenceOptions []playback.Option

	ShowTOC bool
}

// Model is the bubbletea model of the reader.
type Model struct {
	book      *book.Book
	coord     *playback.Coordinator
	sentences *playback.SentencePlayer
	sentenceC chan struct{}
	cues      map[string]playback.Cue
	track     playback.Track

	store *state.StateStore
	key   string

	changes <-chan struct{}
	reload  func() (string, error)

	selected  int
	tocOpen   bool
	tocCursor int

	keys keyMap
	help help.Model
	bar  progress.Model

	width    int
	height   int
	lastTick time.Time
	err      error
	quitting bool
}

type (
	tickMsg            time.Time
	sentenceChangedMsg struct{}
	sourceChangedMsg   struct{}
	sourceClosedMsg    struct{}
)

// New creates the reader model.
func New(opts Options) Model {
	changed := make(chan struct{}, 1)
	sentenceOpts := append([]playback.Option{
		playback.WithOnChange(func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		}),
	}, opts.SentenceOptions...)

	m := Model{
		book:      opts.Book,
		coord:     opts.Coordinator,
		sentences: opts.Coordinator.NewSentencePlayer(sentenceOpts...),
		sentenceC: changed,
		cues:      opts.Cues,
		track:     opts.Track,
		store:     opts.Store,
		key:       opts.Key,
		changes:   opts.Changes,
		reload:    opts.Reload,
		keys:      defaultKeyMap(),
		help:      help.New(),
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		width:     80,
		height:    24,
		tocOpen:   opts.ShowTOC && len(opts.Book.TOC) > 0,
	}
	if m.track.Title == "" {
		m.track.Title = m.book.Title
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick(), waitForSentence(m.sentenceC)}
	if m.changes != nil {
		cmds = append(cmds, waitForSource(m.changes))
	}
	return tea.Batch(cmds...)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForSentence(c <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-c
		return sentenceChangedMsg{}
	}
}

func waitForSource(c <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-c; !ok {
			return sourceClosedMsg{}
		}
		return sourceChangedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.tocOpen {
			return m.updateTOC(msg)
		}
		return m.updateReader(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		if !m.lastTick.IsZero() {
			m.coord.Tick(now.Sub(m.lastTick))
		}
		m.lastTick = now
		return m, tick()

	case sentenceChangedMsg:
		return m, waitForSentence(m.sentenceC)

	case sourceChangedMsg:
		m.reloadSource()
		return m, waitForSource(m.changes)

	case sourceClosedMsg:
		return m, nil
	}

	return m, nil
}

func (m Model) updateReader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.sentences.Close()
		m.savePosition()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Prev):
		if m.book.PrevPage() {
			m.pageChanged()
		}

	case key.Matches(msg, m.keys.Next):
		if m.book.NextPage() {
			m.pageChanged()
		}

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.book.CurrentSpans())-1 {
			m.selected++
		}

	case key.Matches(msg, m.keys.Play):
		spans := m.book.CurrentSpans()
		if m.selected < len(spans) {
			m.sentences.Click(m.cueFor(spans[m.selected]))
		}

	case key.Matches(msg, m.keys.Player):
		m.coord.ShowPlayer(m.track)

	case key.Matches(msg, m.keys.Toggle):
		m.coord.TogglePlayPause()

	case key.Matches(msg, m.keys.Back):
		m.coord.Seek(-seekStep)

	case key.Matches(msg, m.keys.Forward):
		m.coord.Seek(seekStep)

	case key.Matches(msg, m.keys.Hide):
		m.coord.HidePlayer()

	case key.Matches(msg, m.keys.TOC):
		if len(m.book.TOC) > 0 {
			m.tocOpen = true
			m.tocCursor = m.currentTOCEntry()
		}

	case key.Matches(msg, m.keys.Restart):
		m.book.GoTo(0)
		m.pageChanged()
		if m.store != nil && m.key != "" {
			if err := m.store.Clear(m.key); err != nil {
				slog.Warn("clearing reading position", "key", m.key, "error", err)
			}
		}
	}
	return m, nil
}

func (m Model) updateTOC(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.sentences.Close()
		m.savePosition()
		return m, tea.Quit

	case key.Matches(msg, m.keys.TOC), key.Matches(msg, m.keys.Close):
		m.tocOpen = false

	case key.Matches(msg, m.keys.Up):
		if m.tocCursor > 0 {
			m.tocCursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.tocCursor < len(m.book.TOC)-1 {
			m.tocCursor++
		}

	case key.Matches(msg, m.keys.Play):
		m.book.JumpToOffset(m.book.TOC[m.tocCursor].Offset)
		m.tocOpen = false
		m.pageChanged()
	}
	return m, nil
}

// pageChanged resets page-local state after navigation.
func (m *Model) pageChanged() {
	m.selected = 0
	m.sentences.Stop()
	m.savePosition()
}

func (m *Model) savePosition() {
	if m.store == nil || m.key == "" {
		return
	}
	if err := m.store.SetPage(m.key, m.book.Current); err != nil {
		slog.Warn("saving reading position", "key", m.key, "error", err)
	}
}

func (m *Model) reloadSource() {
	if m.reload == nil {
		return
	}
	text, err := m.reload()
	if err != nil {
		m.err = err
		slog.Warn("reloading source", "error", err)
		return
	}
	m.err = nil
	m.book.Reflow(text)
	m.sentences.Stop()
	if n := len(m.book.CurrentSpans()); m.selected >= n {
		m.selected = max(n-1, 0)
	}
	slog.Debug("source reloaded", "pages", m.book.PageCount(), "page", m.book.Current)
}

func (m Model) cueFor(s book.Span) playback.Cue {
	if cue, ok := m.cues[s.String()]; ok {
		return cue
	}
	return playback.Cue{Text: s.String()}
}

// currentTOCEntry returns the last entry starting at or before the current page.
func (m Model) currentTOCEntry() int {
	cur := 0
	for i, e := range m.book.TOC {
		if m.book.PageForOffset(e.Offset) <= m.book.Current {
			cur = i
		}
	}
	return cur
}
