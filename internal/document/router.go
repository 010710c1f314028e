package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the input format of a CDS file.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindHTML    Kind = "html"
	KindUnknown Kind = "unknown"
)

// DetectType classifies a file by extension.
func DetectType(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".html", ".htm":
		return KindHTML
	default:
		return KindUnknown
	}
}

// Parse dispatches raw bytes to the loader for the file's kind. The Source of
// the result is the base name, so documents do not depend on where the file
// was read from.
func Parse(name string, data []byte) (Document, error) {
	source := filepath.Base(name)
	switch DetectType(name) {
	case KindPDF:
		return LoadPDF(data, source)
	case KindHTML:
		return LoadHTML(data, source)
	default:
		return Document{}, fmt.Errorf("%w: %s: unsupported file type", ErrUnreadable, source)
	}
}

// Load reads and parses the file at path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return Parse(path, data)
}

// List returns the supported CDS files in dir, sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || DetectType(e.Name()) == KindUnknown {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}
