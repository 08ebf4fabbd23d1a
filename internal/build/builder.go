// Package build turns source trees into their cache-busted destination trees.
//
// StaticBuilder copies assets under hashed names and removes stale hashed
// variants. TemplateBuilder runs a StaticBuilder first and then rewrites
// templates against the resulting asset manifest. Both memoize their manifest
// for the lifetime of the instance: a new build run needs a new builder or an
// explicit Invalidate. Builders are not safe for concurrent use.
package build

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	errs "github.com/conneroisu/cachebust/internal/errors"
	"github.com/conneroisu/cachebust/internal/manifest"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Outcome is the result of a build pass.
type Outcome int

const (
	// Failed means the pass could not run or aborted.
	Failed Outcome = iota
	// NoChange means every destination was up to date.
	NoChange
	// Rebuilt means at least one destination was written.
	Rebuilt
)

func (o Outcome) String() string {
	switch o {
	case Failed:
		return "failed"
	case NoChange:
		return "no change"
	case Rebuilt:
		return "rebuilt"
	default:
		return "unknown"
	}
}

// Builder is the contract shared by the static and template builders.
type Builder interface {
	// Manifest returns the memoized manifest of the source tree.
	Manifest(ctx context.Context) (manifest.Manifest, error)
	// Changed lists the manifest keys of the source files whose destinations
	// are missing or stale.
	Changed(ctx context.Context) ([]string, error)
	// Build brings the destination tree up to date.
	Build(ctx context.Context) (Outcome, error)
	// Invalidate drops the memoized manifests.
	Invalidate()
}

var (
	_ Builder = (*StaticBuilder)(nil)
	_ Builder = (*TemplateBuilder)(nil)
)

// HasChanges reports whether the destination of e under dstRoot is missing or
// older, in whole seconds, than the recorded source modification time.
func HasChanges(e manifest.Entry, dstRoot string) (bool, error) {
	dst := filepath.Join(dstRoot, filepath.FromSlash(e.Target()))

	info, err := os.Stat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, errs.ReadFailed(dst, err)
	}

	return e.ModTime > info.ModTime().Unix(), nil
}

// changedPaths lists the manifest keys HasChanges flags.
func changedPaths(m manifest.Manifest, dstRoot string) ([]string, error) {
	var changed []string
	for _, p := range m.Paths() {
		stale, err := HasChanges(m[p], dstRoot)
		if err != nil {
			return nil, err
		}
		if stale {
			changed = append(changed, p)
		}
	}
	return changed, nil
}

// copyFile copies src to dst, creating missing parent directories.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errs.ReadFailed(src, err)
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return errs.WriteFailed(dst, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return errs.WriteFailed(dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errs.WriteFailed(dst, err)
	}

	if err := out.Close(); err != nil {
		return errs.WriteFailed(dst, err)
	}
	return nil
}
