package book

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  \n\t ", nil},
		{"terminators only", "...!?!", nil},
		{"no terminator", "just words", []string{"just words"}},
		{"mixed", "A. B? C! D", []string{"A.", "B?", "C!", "D"}},
		{"runs kept verbatim", "Really?! Yes... ok", []string{"Really?!", "Yes...", "ok"}},
		{"newlines", "One.\nTwo.\n\nThree.", []string{"One.", "Two.", "Three."}},
		{"korean", "해리 포터는 마법사였다. 그는 놀랐다!", []string{"해리 포터는 마법사였다.", "그는 놀랐다!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range SplitSentences(tt.input) {
				got = append(got, s.String())
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("SplitSentences(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSplitSentencesOffsets(t *testing.T) {
	text := "First one.   Second one!"
	got := SplitSentences(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(got))
	}
	for _, s := range got {
		if !strings.HasPrefix(text[s.Offset:], s.Text) {
			t.Errorf("offset %d does not point at %q", s.Offset, s.Text)
		}
	}
}

func TestPaginateEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "?!.", "\n\n"} {
		if pages := Paginate(in, DefaultLayout()); len(pages) != 0 {
			t.Errorf("Paginate(%q) = %d pages, want 0", in, len(pages))
		}
	}
}

func TestPaginateExample(t *testing.T) {
	pages := Paginate("A. B? C! D", DefaultLayout())
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	var got []string
	for _, s := range Spans(pages[0].Text) {
		got = append(got, s.String())
	}
	want := []string{"A.", "B?", "C!", "D"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("spans = %q, want %q", got, want)
	}
}

func TestPaginateBudget(t *testing.T) {
	layout := Layout{MaxLinesPerPage: 3, MaxCharsPerLine: 10}
	// Each sentence is 9 runes + trailing space, one line each.
	text := strings.Repeat("Abcdefgh. ", 10)
	pages := Paginate(text, layout)

	if len(pages) < 2 {
		t.Fatalf("expected several pages, got %d", len(pages))
	}
	for _, p := range pages {
		if lines := layout.Lines(p.Text); lines > layout.MaxLinesPerPage && len(p.Sentences) > 1 {
			t.Errorf("page %d has %d lines and %d sentences", p.Index, lines, len(p.Sentences))
		}
	}
}

func TestPaginateOversizeSentence(t *testing.T) {
	layout := Layout{MaxLinesPerPage: 2, MaxCharsPerLine: 10}
	long := strings.Repeat("x", 45)
	text := "Short. " + long + ". After."
	pages := Paginate(text, layout)

	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d: %+v", len(pages), pages)
	}
	if pages[1].Text != long+"." {
		t.Errorf("oversize page = %q, want the long sentence alone", pages[1].Text)
	}
	if len(pages[1].Sentences) != 1 {
		t.Errorf("oversize page holds %d sentences", len(pages[1].Sentences))
	}
}

func TestPaginateKeepsEverySentenceOnce(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog! Does it? It does. ", 40) + "Tail"
	want := SplitSentences(text)

	for _, layout := range []Layout{
		DefaultLayout(),
		{MaxLinesPerPage: 1, MaxCharsPerLine: 5},
		{MaxLinesPerPage: 4, MaxCharsPerLine: 30},
	} {
		var got []Sentence
		for i, p := range Paginate(text, layout) {
			if p.Index != i {
				t.Errorf("page index %d at position %d", p.Index, i)
			}
			got = append(got, p.Sentences...)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("layout %+v: sentences lost or reordered (%d vs %d)", layout, len(got), len(want))
		}
	}
}

func TestPaginateDeterministic(t *testing.T) {
	text := strings.Repeat("One. Two? Three! ", 200)
	a := Paginate(text, DefaultLayout())
	b := Paginate(text, DefaultLayout())
	if !reflect.DeepEqual(a, b) {
		t.Error("Paginate is not deterministic")
	}
}

func TestPaginateSpansMatchSentences(t *testing.T) {
	text := strings.Repeat("Where did it go?! Nowhere. Fine! ", 30)
	for _, p := range Paginate(text, DefaultLayout()) {
		spans := Spans(p.Text)
		if len(spans) != len(p.Sentences) {
			t.Fatalf("page %d: %d spans vs %d sentences", p.Index, len(spans), len(p.Sentences))
		}
		for i := range spans {
			if spans[i].String() != p.Sentences[i].String() {
				t.Errorf("page %d span %d = %q, want %q", p.Index, i, spans[i], p.Sentences[i])
			}
		}
		if !reflect.DeepEqual(spans, Spans(p.Text)) {
			t.Errorf("page %d: Spans is not stable", p.Index)
		}
	}
}

func TestLayoutLines(t *testing.T) {
	tests := []struct {
		name     string
		layout   Layout
		input    string
		expected int
	}{
		{"empty", DefaultLayout(), "", 0},
		{"one char", DefaultLayout(), "a", 1},
		{"exact line", Layout{MaxLinesPerPage: 1, MaxCharsPerLine: 5}, "abcde", 1},
		{"one over", Layout{MaxLinesPerPage: 1, MaxCharsPerLine: 5}, "abcdef", 2},
		{"runes not bytes", Layout{MaxLinesPerPage: 1, MaxCharsPerLine: 5}, "가나다라마", 1},
		{"zero layout uses defaults", Layout{}, strings.Repeat("a", 51), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.layout.Lines(tt.input); got != tt.expected {
				t.Errorf("Lines(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRender(t *testing.T) {
	got := Render([]Span{{Text: "A", Punct: "."}, {Text: "B"}})
	if got != "A. B " {
		t.Errorf("Render = %q", got)
	}
}
