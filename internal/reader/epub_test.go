package reader

import (
	"strings"
	"testing"
)

func TestExtractTextFromHTML(t *testing.T) {
	htmlContent := `
	<html>
		<head><title>Test</title><style>p { color: red; }</style></head>
		<body>
			<h1>Chapter 1</h1>
			<p>This is the <b>first</b> paragraph.</p>
			<p>
				This is the second paragraph
				with a newline.
			</p>
			<div>Some <span>nested</span> text.</div>
			<script>var x = 1;</script>
		</body>
	</html>
	`

	expectedWords := []string{"Test", "Chapter", "1", "This", "is", "the", "first", "paragraph.", "This", "is", "the", "second", "paragraph", "with", "a", "newline.", "Some", "nested", "text."}

	text := extractTextFromHTML(htmlContent)
	words := strings.Fields(text)

	if len(words) != len(expectedWords) {
		t.Errorf("Expected %d words, got %d: %q", len(expectedWords), len(words), words)
	}

	for i, word := range words {
		if i < len(expectedWords) && word != expectedWords[i] {
			t.Errorf("Word %d: expected %q, got %q", i, expectedWords[i], word)
		}
	}
}

func TestExtractTextFromHTMLBlocks(t *testing.T) {
	text := extractTextFromHTML(`<p>First line</p><p>Second line</p>`)
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), text)
	}
	if strings.TrimSpace(lines[0]) != "First line" || strings.TrimSpace(lines[1]) != "Second line" {
		t.Errorf("unexpected lines %q", lines)
	}
}

func TestLayoutSpine(t *testing.T) {
	sections := []spineSection{
		{index: 0, href: "a.xhtml", text: "Alpha."},
		{index: 2, href: "b.xhtml", text: "Beta."},
	}
	text, starts := layoutSpine(sections)
	if text != "Alpha.\n\nBeta." {
		t.Errorf("text = %q", text)
	}
	for i, s := range sections {
		if !strings.HasPrefix(text[starts[i]:], s.text) {
			t.Errorf("section %d start %d does not point at its text", i, starts[i])
		}
	}
}
