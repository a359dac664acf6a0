package book

import (
	"sort"

	"github.com/metcalfc/narr/internal/reader"
	"github.com/samber/lo"
)

// Book holds the pages of a novel and the reader's position in them.
type Book struct {
	Title   string
	Layout  Layout
	Pages   []Page
	Current int

	// Chapter support
	Chapters []reader.Chapter
	TOC      []reader.TOCEntry
}

// New paginates text with the given layout.
func New(title, text string, layout Layout) *Book {
	layout = layout.normalized()
	return &Book{
		Title:  title,
		Layout: layout,
		Pages:  Paginate(text, layout),
	}
}

// FromDocument builds a book from an extracted document, keeping its chapters.
func FromDocument(doc *reader.Document, layout Layout) *Book {
	b := New(doc.Title, doc.Text, layout)
	b.Chapters = doc.Chapters
	b.TOC = doc.TOC
	return b
}

// Reflow re-paginates new text, keeping the current index in range.
func (b *Book) Reflow(text string) {
	b.Pages = Paginate(text, b.Layout)
	b.GoTo(b.Current)
}

// PageCount returns the number of pages.
func (b *Book) PageCount() int {
	return len(b.Pages)
}

// Empty reports whether the book has no pages.
func (b *Book) Empty() bool {
	return len(b.Pages) == 0
}

// CurrentPage returns the page at the current index.
func (b *Book) CurrentPage() (Page, bool) {
	if b.Current >= 0 && b.Current < len(b.Pages) {
		return b.Pages[b.Current], true
	}
	return Page{}, false
}

// CurrentSpans returns the clickable spans of the current page.
func (b *Book) CurrentSpans() []Span {
	p, ok := b.CurrentPage()
	if !ok {
		return nil
	}
	return Spans(p.Text)
}

// NextPage advances one page. Returns false at the last page.
func (b *Book) NextPage() bool {
	if b.Current < len(b.Pages)-1 {
		b.Current++
		return true
	}
	return false
}

// PrevPage goes back one page. Returns false at the first page.
func (b *Book) PrevPage() bool {
	if b.Current > 0 {
		b.Current--
		return true
	}
	return false
}

// GoTo moves to page i, clamped to the valid range.
func (b *Book) GoTo(i int) {
	if len(b.Pages) == 0 {
		b.Current = 0
		return
	}
	b.Current = lo.Clamp(i, 0, len(b.Pages)-1)
}

// AtEnd reports whether the current page is the last one.
func (b *Book) AtEnd() bool {
	return b.Current >= len(b.Pages)-1
}

// Progress returns the 1-based current page and the page count.
func (b *Book) Progress() (current, total int) {
	return b.Current + 1, len(b.Pages)
}

// PageForOffset returns the page holding the sentence at the given source offset.
func (b *Book) PageForOffset(offset int) int {
	i := sort.Search(len(b.Pages), func(i int) bool {
		return b.Pages[i].Offset() > offset
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// JumpToOffset moves to the page containing offset.
func (b *Book) JumpToOffset(offset int) {
	b.GoTo(b.PageForOffset(offset))
}

// CurrentChapterTitle returns the title of the chapter the current page starts in.
func (b *Book) CurrentChapterTitle() string {
	p, ok := b.CurrentPage()
	if !ok {
		return ""
	}
	off := p.Offset()
	for i := len(b.Chapters) - 1; i >= 0; i-- {
		if off >= b.Chapters[i].Start {
			return b.Chapters[i].Title
		}
	}
	return ""
}
