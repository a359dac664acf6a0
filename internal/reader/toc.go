package reader

// TOCEntry represents a single entry in a table of contents
type TOCEntry struct {
	Title   string
	Preview string
	Offset  int // byte offset into the document text
	Level   int
}

// Chapter marks a titled byte range of the document text
type Chapter struct {
	Title string
	Start int
	End   int // exclusive
}

// TOCProvider is an optional interface for formats that support TOC extraction
type TOCProvider interface {
	TOC(filename string) ([]TOCEntry, error)
}

// ChapterExtractor is an optional interface for chapter-aware extraction.
// The returned text is what chapter offsets refer to.
type ChapterExtractor interface {
	ExtractChapters(filename string) ([]Chapter, string, error)
}
