package reader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

// NCX XML structures for parsing toc.ncx
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     navLabel   `xml:"navLabel"`
	Content   navContent `xml:"content"`
	Children  []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

const sectionSep = "\n\n"

// spineInfo locates a spine item inside the joined document text.
type spineInfo struct {
	offset  int
	preview string
}

// layoutSpine joins section texts and records where each one starts.
func layoutSpine(sections []spineSection) (string, []int) {
	var out strings.Builder
	starts := make([]int, len(sections))
	for i, s := range sections {
		if i > 0 {
			out.WriteString(sectionSep)
		}
		starts[i] = out.Len()
		out.WriteString(s.text)
	}
	return out.String(), starts
}

// TOC extracts the table of contents from an EPUB file.
func (f *EPUBFormat) TOC(filename string) ([]TOCEntry, error) {
	book, sections, closeFn, err := readSpine(filename)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	toc, err := readNCX(filename, book)
	if err != nil {
		return nil, err
	}

	_, starts := layoutSpine(sections)
	spineMap := make(map[string]spineInfo)
	for i, s := range sections {
		if s.href == "" {
			continue
		}
		info := spineInfo{offset: starts[i], preview: preview(s.text)}
		spineMap[s.href] = info
		spineMap[path.Base(s.href)] = info
	}

	return flattenNavPoints(toc.NavMap.NavPoints, spineMap, 0), nil
}

// ExtractChapters extracts text with one chapter per spine section.
func (f *EPUBFormat) ExtractChapters(filename string) ([]Chapter, string, error) {
	book, sections, closeFn, err := readSpine(filename)
	if err != nil {
		return nil, "", err
	}
	defer closeFn()

	titles := map[string]string{}
	if toc, err := readNCX(filename, book); err == nil {
		titles = hrefTitles(toc.NavMap.NavPoints)
	}

	text, starts := layoutSpine(sections)
	chapters := make([]Chapter, 0, len(sections))
	for i, s := range sections {
		title := fmt.Sprintf("Section %d", s.index+1)
		if t, ok := titles[s.href]; ok {
			title = t
		} else if t, ok := titles[path.Base(s.href)]; ok {
			title = t
		}
		chapters = append(chapters, Chapter{
			Title: title,
			Start: starts[i],
			End:   starts[i] + len(s.text),
		})
	}

	return chapters, text, nil
}

// hrefTitles maps every href form (full, without fragment, base name) to the
// first nav label that points at it.
func hrefTitles(points []navPoint) map[string]string {
	result := make(map[string]string)
	put := func(k, v string) {
		if _, exists := result[k]; !exists {
			result[k] = v
		}
	}

	var extract func(points []navPoint)
	extract = func(points []navPoint) {
		for _, np := range points {
			href := np.Content.Src
			title := strings.TrimSpace(np.Label.Text)
			base := stripFragment(href)

			put(href, title)
			put(base, title)
			put(path.Base(base), title)

			extract(np.Children)
		}
	}
	extract(points)

	return result
}

func stripFragment(href string) string {
	if idx := strings.Index(href, "#"); idx != -1 {
		return href[:idx]
	}
	return href
}

func readNCX(filename string, book *epub.Rootfile) (*ncx, error) {
	data, err := findAndReadNCX(filename, book)
	if err != nil {
		return nil, err
	}
	var toc ncx
	if err := xml.Unmarshal(data, &toc); err != nil {
		return nil, fmt.Errorf("failed to parse NCX: %w", err)
	}
	return &toc, nil
}

func findAndReadNCX(filename string, book *epub.Rootfile) ([]byte, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var ncxPath string
	for _, item := range book.Manifest.Items {
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = item.HREF
			break
		}
	}
	if ncxPath == "" {
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".ncx") {
				ncxPath = f.Name
				break
			}
		}
	}

	if ncxPath == "" {
		return nil, fmt.Errorf("no NCX file found in EPUB")
	}

	for _, f := range zr.File {
		if f.Name == ncxPath || strings.HasSuffix(f.Name, "/"+ncxPath) || path.Base(f.Name) == path.Base(ncxPath) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}

	return nil, fmt.Errorf("NCX file %s not found in archive", ncxPath)
}

func flattenNavPoints(points []navPoint, spineMap map[string]spineInfo, level int) []TOCEntry {
	var entries []TOCEntry

	for _, np := range points {
		base := stripFragment(np.Content.Src)

		info, ok := spineMap[base]
		if !ok {
			info = spineMap[path.Base(base)]
		}

		entries = append(entries, TOCEntry{
			Title:   strings.TrimSpace(np.Label.Text),
			Preview: info.preview,
			Offset:  info.offset,
			Level:   level,
		})
		if len(np.Children) > 0 {
			entries = append(entries, flattenNavPoints(np.Children, spineMap, level+1)...)
		}
	}

	return entries
}
