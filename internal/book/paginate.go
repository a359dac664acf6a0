// Package book turns raw novel text into turnable pages of clickable sentences.
package book

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultMaxLinesPerPage = 20
	DefaultMaxCharsPerLine = 50
)

// terminators matches a run of sentence-ending punctuation.
var terminators = regexp.MustCompile(`[.!?]+`)

// Layout is the character budget of a single page.
type Layout struct {
	MaxLinesPerPage int
	MaxCharsPerLine int
}

// DefaultLayout returns the 20 x 50 layout.
func DefaultLayout() Layout {
	return Layout{
		MaxLinesPerPage: DefaultMaxLinesPerPage,
		MaxCharsPerLine: DefaultMaxCharsPerLine,
	}
}

func (l Layout) normalized() Layout {
	if l.MaxLinesPerPage <= 0 {
		l.MaxLinesPerPage = DefaultMaxLinesPerPage
	}
	if l.MaxCharsPerLine <= 0 {
		l.MaxCharsPerLine = DefaultMaxCharsPerLine
	}
	return l
}

// Lines estimates how many rendered lines s occupies.
func (l Layout) Lines(s string) int {
	l = l.normalized()
	n := utf8.RuneCountInString(s)
	return (n + l.MaxCharsPerLine - 1) / l.MaxCharsPerLine
}

// Sentence is one sentence of the source text with its terminator run.
type Sentence struct {
	Text   string // trimmed content without punctuation
	Punct  string // terminator run as found in the source, may be empty
	Offset int    // byte offset of Text in the source
}

// String returns the sentence with its punctuation reattached.
func (s Sentence) String() string {
	return s.Text + s.Punct
}

// Page is a budgeted run of consecutive sentences.
type Page struct {
	Index     int
	Text      string
	Sentences []Sentence
}

// Offset returns the source offset of the first sentence on the page.
func (p Page) Offset() int {
	if len(p.Sentences) == 0 {
		return 0
	}
	return p.Sentences[0].Offset
}

// SplitSentences splits text on runs of '.', '!' and '?', dropping blank pieces.
// The terminator run following each sentence is kept verbatim.
func SplitSentences(text string) []Sentence {
	var out []Sentence
	start := 0
	add := func(end int, punct string) {
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return
		}
		lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
		out = append(out, Sentence{
			Text:   trimmed,
			Punct:  punct,
			Offset: start + lead,
		})
	}
	for _, loc := range terminators.FindAllStringIndex(text, -1) {
		add(loc[0], text[loc[0]:loc[1]])
		start = loc[1]
	}
	if start < len(text) {
		add(len(text), "")
	}
	return out
}

// Paginate splits text into pages that fit the layout. A sentence that alone
// exceeds the page budget gets a page of its own; sentences are never split.
func Paginate(text string, layout Layout) []Page {
	layout = layout.normalized()

	var pages []Page
	var buf strings.Builder
	var pending []Sentence

	flush := func() {
		body := strings.TrimSpace(buf.String())
		if body != "" {
			pages = append(pages, Page{
				Index:     len(pages),
				Text:      body,
				Sentences: pending,
			})
		}
		buf.Reset()
		pending = nil
	}

	for _, s := range SplitSentences(text) {
		rendered := s.String()
		if buf.Len() > 0 && layout.Lines(buf.String())+layout.Lines(rendered) > layout.MaxLinesPerPage {
			flush()
		}
		buf.WriteString(rendered)
		buf.WriteString(" ")
		pending = append(pending, s)
	}
	flush()

	return pages
}

// Span is one clickable sentence within a rendered page.
type Span struct {
	Text  string
	Punct string
}

// String returns the span as displayed, without the separating space.
func (s Span) String() string {
	return s.Text + s.Punct
}

// Spans re-splits page text into clickable sentence spans. Each content token
// is paired with the terminator run that follows it, if any.
func Spans(pageText string) []Span {
	var out []Span
	start := 0
	for _, loc := range terminators.FindAllStringIndex(pageText, -1) {
		if t := strings.TrimSpace(pageText[start:loc[0]]); t != "" {
			out = append(out, Span{Text: t, Punct: pageText[loc[0]:loc[1]]})
		}
		start = loc[1]
	}
	if t := strings.TrimSpace(pageText[start:]); t != "" {
		out = append(out, Span{Text: t})
	}
	return out
}

// Render joins spans the way the reader displays them: one trailing space each.
func Render(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.String())
		b.WriteString(" ")
	}
	return b.String()
}
