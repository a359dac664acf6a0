// Package reader extracts readable text from novels stored as plain text,
// Markdown or EPUB files.
package reader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Document is the text of a novel plus whatever structure its format exposes.
type Document struct {
	Title    string
	Text     string
	Chapters []Chapter
	TOC      []TOCEntry
}

// Open extracts a document from filename. Chapter and TOC extraction are best
// effort: a format that fails to provide them still yields its plain text.
func Open(filename string) (*Document, error) {
	doc := &Document{Title: titleFromPath(filename)}

	f := FormatFor(filename)
	if tp, ok := f.(TOCProvider); ok {
		if toc, err := tp.TOC(filename); err == nil {
			doc.TOC = toc
		}
	}
	if ce, ok := f.(ChapterExtractor); ok {
		if chapters, text, err := ce.ExtractChapters(filename); err == nil && strings.TrimSpace(text) != "" {
			doc.Chapters = chapters
			doc.Text = text
		}
	}

	if doc.Text == "" {
		text, err := ExtractText(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filename, err)
		}
		doc.Text = text
	}
	return doc, nil
}

// ReadAll builds a document from a stream, typically stdin.
func ReadAll(title string, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &Document{Title: title, Text: string(data)}, nil
}

// FromText wraps already loaded text, such as a novel fetched from the backend.
func FromText(title, text string) *Document {
	return &Document{Title: title, Text: text}
}

func titleFromPath(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
