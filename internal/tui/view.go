package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const maxTextWidth = 72

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.book.Empty() {
		return "No text to read."
	}

	var sb strings.Builder
	sb.WriteString(m.headerView())
	sb.WriteString("\n\n")

	if m.tocOpen {
		sb.WriteString(m.tocView())
	} else {
		sb.WriteString(m.pageView())
	}
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(errorStyle.Render("reload failed: " + m.err.Error()))
		sb.WriteString("\n")
	}
	if bar := m.playerView(); bar != "" {
		sb.WriteString(bar)
		sb.WriteString("\n")
	}
	sb.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return sb.String()
}

func (m Model) headerView() string {
	current, total := m.book.Progress()
	status := fmt.Sprintf("Page %d/%d", current, total)
	if ch := m.book.CurrentChapterTitle(); ch != "" {
		status = ch + " | " + status
	}
	status = statusStyle.Render(status)

	avail := m.width - lipgloss.Width(status) - 1
	title := runewidth.Truncate(m.book.Title, max(avail, 0), "…")
	return titleStyle.Render(title) + " " + status
}

func (m Model) textWidth() int {
	w := m.width - 4
	if w > maxTextWidth {
		w = maxTextWidth
	}
	if w < 10 {
		w = 10
	}
	return w
}

// pageView wraps the current page's spans, styling each span by whether it is
// selected or playing.
func (m Model) pageView() string {
	spans := m.book.CurrentSpans()
	width := m.textWidth()

	var lines []string
	var line strings.Builder
	lineWidth := 0

	for i, s := range spans {
		style := sentenceStyle
		switch {
		case m.sentences.IsPlaying(m.cueFor(s).Key()):
			style = playingStyle
		case i == m.selected:
			style = selectedStyle
		}
		for _, word := range strings.Fields(s.String()) {
			w := runewidth.StringWidth(word)
			if lineWidth > 0 && lineWidth+1+w > width {
				lines = append(lines, line.String())
				line.Reset()
				lineWidth = 0
			}
			if lineWidth > 0 {
				line.WriteString(" ")
				lineWidth++
			}
			line.WriteString(style.Render(word))
			lineWidth += w
		}
	}
	if lineWidth > 0 {
		lines = append(lines, line.String())
	}
	return "  " + strings.Join(lines, "\n  ")
}

func (m Model) tocView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Contents"))
	sb.WriteString("\n")

	width := m.textWidth()
	for i, e := range m.book.TOC {
		cursor := "  "
		title := strings.Repeat("  ", e.Level) + e.Title
		if i == m.tocCursor {
			cursor = tocCursorStyle.Render("> ")
			title = tocCursorStyle.Render(title)
		}
		sb.WriteString(cursor + title)
		if e.Preview != "" {
			sb.WriteString("  " + previewStyle.Render(runewidth.Truncate(e.Preview, width/2, "…")))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) playerView() string {
	s := m.coord.State()
	if !s.Visible || s.Track == nil {
		return ""
	}

	icon := "▶"
	if !s.Playing {
		icon = pausedStyle.Render("⏸")
	}
	title := runewidth.Truncate(s.Track.Title, 24, "…")
	clock := fmt.Sprintf("%s / %s", s.CurrentTime, s.TotalTime)

	bar := m.bar
	bar.Width = max(m.width-runewidth.StringWidth(title)-len(clock)-10, 10)
	return playerStyle.Render(fmt.Sprintf("%s %s %s %s", icon, title, bar.ViewAs(s.Progress/100), clock))
}
