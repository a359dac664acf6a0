package reader

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestOpenPlainText(t *testing.T) {
	path := writeTemp(t, "novel.txt", "It was a bright cold day. The clocks struck thirteen.")

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if doc.Title != "novel" {
		t.Errorf("Title = %q, want novel", doc.Title)
	}
	if !strings.HasPrefix(doc.Text, "It was a bright") {
		t.Errorf("Text = %q", doc.Text)
	}
	if len(doc.Chapters) != 0 || len(doc.TOC) != 0 {
		t.Errorf("plain text should have no structure: %+v", doc)
	}
}

func TestOpenMarkdownKeepsChapters(t *testing.T) {
	path := writeTemp(t, "story.md", "# One\nFirst.\n# Two\nSecond.\n")

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(doc.Chapters) != 2 || len(doc.TOC) != 2 {
		t.Fatalf("expected 2 chapters and 2 TOC entries, got %d and %d", len(doc.Chapters), len(doc.TOC))
	}
	if doc.TOC[1].Offset != doc.Chapters[1].Start {
		t.Errorf("TOC offset %d != chapter start %d", doc.TOC[1].Offset, doc.Chapters[1].Start)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/novel.txt"); err == nil {
		t.Error("expected error")
	}
}

func TestReadAll(t *testing.T) {
	doc, err := ReadAll("stdin", strings.NewReader("Piped text."))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if doc.Title != "stdin" || doc.Text != "Piped text." {
		t.Errorf("doc = %+v", doc)
	}
}

func TestWatch(t *testing.T) {
	path := writeTemp(t, "watched.txt", "Before.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed, err := Watch(ctx, path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("After."), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	cancel()
	select {
	case _, ok := <-changed:
		for ok {
			_, ok = <-changed
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
