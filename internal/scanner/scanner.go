// Package scanner walks a source tree and reports the files a build pass
// should consider.
//
// Every regular file below the root is reported with its path relative to the
// root, its modification time in whole seconds and its size. A file is skipped
// when any ignore pattern matches anywhere in its slash-separated relative
// path. Hidden files are excluded the same way, through a default pattern, so
// the walker itself has no special cases.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	errs "github.com/conneroisu/cachebust/internal/errors"
)

// FileRecord describes one source file found during a walk.
type FileRecord struct {
	// Path is relative to the walked root and always uses forward slashes.
	Path    string
	ModTime int64
	Size    int64
}

// Walker scans one root directory.
type Walker struct {
	root   string
	ignore []*regexp.Regexp
}

// NewWalker creates a walker over root that skips files matching any of the
// ignore patterns.
func NewWalker(root string, ignore []*regexp.Regexp) *Walker {
	return &Walker{root: root, ignore: ignore}
}

// Root returns the directory being walked.
func (w *Walker) Root() string {
	return w.root
}

// Ignored reports whether rel, a slash-separated path relative to the root,
// matches an ignore pattern.
func (w *Walker) Ignored(rel string) bool {
	for _, re := range w.ignore {
		if re.MatchString(rel) {
			return true
		}
	}
	return false
}

// Walk returns every file below the root that is not ignored, sorted by path.
// A missing root yields no records.
func (w *Walker) Walk(ctx context.Context) ([]FileRecord, error) {
	if _, err := os.Stat(w.root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var records []FileRecord
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if w.Ignored(rel) {
			return nil
		}

		// Symlinks are followed; anything that is not a regular file is skipped.
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		records = append(records, FileRecord{
			Path:    rel,
			ModTime: info.ModTime().Unix(),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errs.NewIOError(errs.ErrCodeWalk, "walk failed", err).WithPath(w.root)
	}

	slices.SortFunc(records, func(a, b FileRecord) int {
		return strings.Compare(a.Path, b.Path)
	})
	return records, nil
}
