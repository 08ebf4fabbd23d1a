package build

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	errs "github.com/conneroisu/cachebust/internal/errors"
	"github.com/conneroisu/cachebust/internal/manifest"
)

var globMeta = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
)

// StaleVariants lists the hashed variants of e in dir other than the current
// one. Names are returned relative to dir.
func StaleVariants(dir string, e manifest.Entry) ([]string, error) {
	stem, ext := manifest.SplitExt(path.Base(e.Path))
	current := path.Base(e.Target())

	pattern := globMeta.Replace(stem) + manifest.HashSeparator + "*" + globMeta.Replace(ext)
	exact := regexp.MustCompile("^" + regexp.QuoteMeta(stem+manifest.HashSeparator) +
		manifest.HashPattern + regexp.QuoteMeta(ext) + "$")

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	var stale []string
	for _, name := range matches {
		if name != current && exact.MatchString(name) {
			stale = append(stale, name)
		}
	}
	return stale, nil
}

// removeStale deletes every other hashed variant of e, along with its
// precompressed sibling.
func (b *StaticBuilder) removeStale(ctx context.Context, e manifest.Entry) error {
	dir := filepath.Dir(b.target(e))

	stale, err := StaleVariants(dir, e)
	if err != nil {
		return errs.NewIOError(errs.ErrCodeWalk, "listing hashed variants failed", err).WithPath(dir)
	}

	for _, name := range stale {
		victim := filepath.Join(dir, name)
		b.logger.Info(ctx, "deleting stale variant", "path", victim)
		if err := os.Remove(victim); err != nil {
			return errs.WriteFailed(victim, err)
		}
		if err := os.Remove(victim + brotliExt); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errs.WriteFailed(victim+brotliExt, err)
		}
	}
	return nil
}
