package reader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// Format is a file type the reader can pull text out of. Files with an
// extension no format claims are read as plain text.
type Format interface {
	Name() string
	Extensions() []string
	Extract(filename string) (string, error)
}

var formats []Format

// Register makes f available to Open. Formats call it from init.
func Register(f Format) {
	formats = append(formats, f)
}

// FormatFor returns the format claiming filename's extension, or nil.
func FormatFor(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	f, _ := lo.Find(formats, func(f Format) bool {
		return lo.Contains(f.Extensions(), ext)
	})
	return f
}

// ExtractText returns the text of filename.
func ExtractText(filename string) (string, error) {
	if f := FormatFor(filename); f != nil {
		return f.Extract(filename)
	}
	raw, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// SupportedFormats describes the registered formats, e.g. "EPUB (.epub)".
func SupportedFormats() []string {
	return lo.Map(formats, func(f Format, _ int) string {
		return fmt.Sprintf("%s (%s)", f.Name(), strings.Join(f.Extensions(), ", "))
	})
}
