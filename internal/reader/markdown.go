package reader

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// MarkdownFormat implements Format for Markdown files.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

func (f *MarkdownFormat) Extract(filename string) (string, error) {
	_, text, err := f.ExtractChapters(filename)
	return text, err
}

// headerRegex matches markdown headers (# to ######)
var headerRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

type mdLine struct {
	text   string
	header bool
	level  int
}

// scan reads filename and returns its lines with header markers stripped,
// plus the byte offset of each line in the joined text.
func (f *MarkdownFormat) scan(filename string) ([]mdLine, []int, string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, "", err
	}
	defer file.Close()

	var lines []mdLine
	var offsets []int
	var out strings.Builder

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := mdLine{text: scanner.Text()}
		if match := headerRegex.FindStringSubmatch(line.text); match != nil {
			line.header = true
			line.level = len(match[1]) - 1 // h1 = level 0, h2 = level 1, etc.
			line.text = strings.TrimSpace(match[2])
		}
		offsets = append(offsets, out.Len())
		lines = append(lines, line)
		out.WriteString(line.text)
		out.WriteString("\n")
	}
	return lines, offsets, out.String(), scanner.Err()
}

// TOC extracts the table of contents from a Markdown file by parsing headers.
func (f *MarkdownFormat) TOC(filename string) ([]TOCEntry, error) {
	lines, offsets, _, err := f.scan(filename)
	if err != nil {
		return nil, err
	}

	var entries []TOCEntry
	for i, line := range lines {
		if !line.header {
			continue
		}
		entries = append(entries, TOCEntry{
			Title:   line.text,
			Preview: previewAfter(lines[i+1:]),
			Offset:  offsets[i],
			Level:   line.level,
		})
	}
	return entries, nil
}

// previewAfter returns the first non-empty body line before the next header.
func previewAfter(lines []mdLine) string {
	for _, l := range lines {
		if l.header {
			return ""
		}
		if t := strings.TrimSpace(l.text); t != "" {
			return preview(t)
		}
	}
	return ""
}

// ExtractChapters extracts text with chapter boundaries from headers.
func (f *MarkdownFormat) ExtractChapters(filename string) ([]Chapter, string, error) {
	lines, offsets, text, err := f.scan(filename)
	if err != nil {
		return nil, "", err
	}

	var chapters []Chapter
	for i, line := range lines {
		if !line.header {
			continue
		}
		if n := len(chapters); n > 0 {
			chapters[n-1].End = offsets[i]
		}
		chapters = append(chapters, Chapter{Title: line.text, Start: offsets[i]})
	}
	if n := len(chapters); n > 0 {
		chapters[n-1].End = len(text)
	}

	// If no chapters found, create a single chapter with all content
	if len(chapters) == 0 && strings.TrimSpace(text) != "" {
		chapters = append(chapters, Chapter{Title: "Document", Start: 0, End: len(text)})
	}

	return chapters, text, nil
}

// preview shortens s to roughly ten words.
func preview(s string) string {
	words := strings.Fields(s)
	if len(words) > 10 {
		return strings.Join(words[:10], " ") + "..."
	}
	return strings.Join(words, " ")
}
