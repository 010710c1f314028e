// Package store persists one JSON dataset file per school. Writes are a
// read-merge-write of the whole file, serialized per path and committed with
// a rename so readers never observe a partial file.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hyperifyio/cdsextract/internal/cds"
)

// FS is a directory of <slug>.json dataset files.
type FS struct {
	Root string
	// Validate, when set, checks the encoded dataset before it is written.
	Validate func([]byte) error

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a store rooted at root, creating the directory.
func New(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FS{Root: root}, nil
}

// Path is the dataset file of slug.
func (s *FS) Path(slug string) string { return filepath.Join(s.Root, slug+".json") }

func (s *FS) lock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = map[string]*sync.Mutex{}
	}
	m, ok := s.locks[path]
	if !ok {
		m = &sync.Mutex{}
		s.locks[path] = m
	}
	return m
}

// Load reads slug's dataset. ok is false when no file exists yet.
func (s *FS) Load(slug string) (cds.Dataset, bool, error) {
	b, err := os.ReadFile(s.Path(slug))
	if errors.Is(err, fs.ErrNotExist) {
		return cds.Dataset{}, false, nil
	}
	if err != nil {
		return cds.Dataset{}, false, err
	}
	d, err := cds.Decode(b)
	if err != nil {
		return cds.Dataset{}, true, fmt.Errorf("%s: %w", s.Path(slug), err)
	}
	return d, true, nil
}

// Meta is the school identity written into a dataset.
type Meta struct {
	Name  string
	Color string
}

// Merge adds recs to slug's dataset, replacing only their year keys, and
// writes the file. Years already on disk and not in recs keep their exact
// bytes. A corrupt existing file is an error rather than being overwritten.
func (s *FS) Merge(slug string, meta Meta, recs ...cds.YearRecord) (cds.Dataset, error) {
	path := s.Path(slug)
	m := s.lock(path)
	m.Lock()
	defer m.Unlock()

	d, ok, err := s.Load(slug)
	if err != nil {
		return cds.Dataset{}, err
	}
	if !ok {
		d = cds.NewDataset(meta.Name, slug, meta.Color)
	}
	d.Slug = slug
	if meta.Name != "" {
		d.Name = meta.Name
	}
	if meta.Color != "" {
		d.Color = meta.Color
	}
	for _, r := range recs {
		if err := d.Put(r); err != nil {
			return cds.Dataset{}, err
		}
	}
	b, err := cds.Encode(d)
	if err != nil {
		return cds.Dataset{}, err
	}
	if s.Validate != nil {
		if err := s.Validate(b); err != nil {
			return cds.Dataset{}, fmt.Errorf("%s: %w", slug, err)
		}
	}
	if err := WriteFileAtomic(path, b); err != nil {
		return cds.Dataset{}, err
	}
	return d, nil
}

// List returns the slugs that have a dataset file, sorted.
func (s *FS) List() ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(out)
	return out, nil
}

// WriteFileAtomic writes data to a temp file in path's directory and renames
// it over path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
