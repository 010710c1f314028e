// Package cache keeps parsed CDS documents on disk so that re-running the
// batch does not re-parse unchanged PDFs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/cdsextract/internal/document"
)

// ParserVersion is mixed into every key. Bump it when document parsing
// changes so stale entries are not served.
const ParserVersion = "cds-doc-1"

// DocCache stores parsed documents keyed by a digest of the file bytes.
type DocCache struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the cache directory and 0600
	// on entries.
	StrictPerms bool
}

func (c *DocCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// KeyFrom builds a cache key from the file kind and its bytes.
func KeyFrom(name string, data []byte) string {
	kind := document.DetectType(name)
	h := sha256.New()
	h.Write([]byte(ParserVersion + "\n" + string(kind) + "\n"))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *DocCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached document for key. Unreadable or malformed entries
// are reported as misses.
func (c *DocCache) Get(_ context.Context, key string) (document.Document, bool, error) {
	if err := c.ensureDir(); err != nil {
		return document.Document{}, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return document.Document{}, false, nil
	}
	var doc document.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return document.Document{}, false, nil
	}
	// Touch mtime on access for LRU eviction.
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return doc, true, nil
}

// Save writes doc under key via a uniquely named temp file and rename, so
// concurrent saves of the same key never share a temp path.
func (c *DocCache) Save(_ context.Context, key string, doc document.Document) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	f, err := os.CreateTemp(c.Dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)
	if _, err := f.Write(b); err != nil {
		f.Close()
		return fmt.Errorf("write entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close entry: %w", err)
	}
	if err := os.Chmod(tmp, mode); err != nil {
		return fmt.Errorf("chmod entry: %w", err)
	}
	return os.Rename(tmp, c.pathFor(key))
}

// Load returns the parsed document at path, from the cache when the file's
// bytes were seen before. A nil cache always parses. The second result is
// the digest of the file bytes.
func (c *DocCache) Load(ctx context.Context, path string) (document.Document, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document.Document{}, "", fmt.Errorf("%w: %v", document.ErrUnreadable, err)
	}
	digest := Digest(data)
	if c == nil || strings.TrimSpace(c.Dir) == "" {
		doc, err := document.Parse(path, data)
		return doc, digest, err
	}
	key := KeyFrom(path, data)
	if doc, ok, err := c.Get(ctx, key); err == nil && ok {
		doc.Source = filepath.Base(path)
		log.Debug().Str("file", doc.Source).Str("key", key[:12]).Msg("document cache hit")
		return doc, digest, nil
	}
	doc, err := document.Parse(path, data)
	if err != nil {
		return doc, digest, err
	}
	if err := c.Save(ctx, key, doc); err != nil {
		log.Warn().Err(err).Str("file", doc.Source).Msg("document cache save failed")
	}
	return doc, digest, nil
}
