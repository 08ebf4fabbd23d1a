// Package manifest builds the per-run record of every tracked source file:
// its modification time, its size and, unless excluded, the content hash that
// names its cache-busted copy.
package manifest

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	errs "github.com/conneroisu/cachebust/internal/errors"
	"github.com/conneroisu/cachebust/internal/scanner"
)

// Entry is the manifest record for one source file.
type Entry struct {
	Path    string `json:"-"`
	ModTime int64  `json:"ts"`
	Size    int64  `json:"size"`
	Hash    string `json:"hash,omitempty"`
}

// Hashed reports whether the entry carries a content hash.
func (e Entry) Hashed() bool {
	return e.Hash != ""
}

// Target is the slash-separated destination path of the entry relative to
// the destination root.
func (e Entry) Target() string {
	if e.Hashed() {
		return Hashify(e.Path, e.Hash)
	}
	return e.Path
}

// Manifest maps relative source paths to their entries.
type Manifest map[string]Entry

// HashPolicy decides whether the file at a relative path is content hashed.
type HashPolicy func(rel string) bool

// SkipMatching hashes every path except those matching one of patterns.
func SkipMatching(patterns []*regexp.Regexp) HashPolicy {
	return func(rel string) bool {
		for _, re := range patterns {
			if re.MatchString(rel) {
				return false
			}
		}
		return true
	}
}

// NeverHash records metadata only.
func NeverHash(string) bool { return false }

// Build walks the tree and records every file. Files accepted by policy are
// hashed from their full contents.
func Build(ctx context.Context, walker *scanner.Walker, policy HashPolicy) (Manifest, error) {
	records, err := walker.Walk(ctx)
	if err != nil {
		return nil, err
	}

	m := make(Manifest, len(records))
	for _, rec := range records {
		entry := Entry{Path: rec.Path, ModTime: rec.ModTime, Size: rec.Size}
		if policy(rec.Path) {
			src := filepath.Join(walker.Root(), filepath.FromSlash(rec.Path))
			hash, err := HashFile(src)
			if err != nil {
				return nil, errs.ReadFailed(src, err)
			}
			entry.Hash = hash
		}
		m[rec.Path] = entry
	}
	return m, nil
}

// Paths returns the manifest keys in lexical order.
func (m Manifest) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Lookup finds the entry for a site URL such as /js/app.js.
func (m Manifest) Lookup(url string) (Entry, bool) {
	e, ok := m[strings.TrimPrefix(url, "/")]
	return e, ok
}

// URLMapping pairs a source URL with the URL of its hashed copy.
type URLMapping struct {
	Original string
	Hashed   string
}

// URLMappings returns one mapping per hashed entry. Longer URLs come first so
// that a URL that is a prefix of another never rewrites part of it.
func (m Manifest) URLMappings() []URLMapping {
	mappings := make([]URLMapping, 0, len(m))
	for _, p := range m.Paths() {
		e := m[p]
		if !e.Hashed() {
			continue
		}
		mappings = append(mappings, URLMapping{
			Original: "/" + p,
			Hashed:   "/" + e.Target(),
		})
	}
	slices.SortStableFunc(mappings, func(a, b URLMapping) int {
		return len(b.Original) - len(a.Original)
	})
	return mappings
}

// Write encodes the manifest as indented JSON. Keys are emitted in sorted
// order.
func (m Manifest) Write(w io.Writer) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Read decodes a manifest produced by Write.
func Read(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	for p, e := range m {
		e.Path = p
		m[p] = e
	}
	return m, nil
}
