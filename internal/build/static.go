package build

import (
	"context"
	"path/filepath"
	"regexp"

	errs "github.com/conneroisu/cachebust/internal/errors"
	"github.com/conneroisu/cachebust/internal/logging"
	"github.com/conneroisu/cachebust/internal/manifest"
	"github.com/conneroisu/cachebust/internal/scanner"
)

// StaticOptions configures a StaticBuilder.
type StaticOptions struct {
	Src      string
	Dst      string
	Ignore   []*regexp.Regexp
	SkipHash []*regexp.Regexp
	// Cleanup removes stale hashed variants of every copied asset.
	Cleanup bool
	// Brotli writes a .br sibling next to every copied text asset.
	Brotli bool
	Logger logging.Logger
}

// StaticBuilder copies assets into the destination tree under hashed names.
type StaticBuilder struct {
	src, dst string
	cleanup  bool
	brotli   bool
	cache    *manifest.Cache
	logger   logging.Logger
}

// NewStaticBuilder creates a static asset builder.
func NewStaticBuilder(opts StaticOptions) *StaticBuilder {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	walker := scanner.NewWalker(opts.Src, opts.Ignore)
	policy := manifest.SkipMatching(opts.SkipHash)

	return &StaticBuilder{
		src:     opts.Src,
		dst:     opts.Dst,
		cleanup: opts.Cleanup,
		brotli:  opts.Brotli,
		cache: manifest.NewCache(func(ctx context.Context) (manifest.Manifest, error) {
			return manifest.Build(ctx, walker, policy)
		}),
		logger: logger.WithComponent("static"),
	}
}

// Src returns the source root.
func (b *StaticBuilder) Src() string { return b.src }

// Dst returns the destination root.
func (b *StaticBuilder) Dst() string { return b.dst }

// Manifest implements Builder.
func (b *StaticBuilder) Manifest(ctx context.Context) (manifest.Manifest, error) {
	return b.cache.Get(ctx)
}

// Invalidate implements Builder.
func (b *StaticBuilder) Invalidate() {
	b.cache.Invalidate()
}

// Changed implements Builder.
func (b *StaticBuilder) Changed(ctx context.Context) ([]string, error) {
	m, err := b.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	return changedPaths(m, b.dst)
}

// Build copies every changed asset, then, once all copies succeeded,
// precompresses and cleans up. A failed copy aborts before anything is
// deleted.
func (b *StaticBuilder) Build(ctx context.Context) (Outcome, error) {
	m, err := b.Manifest(ctx)
	if err != nil {
		return Failed, err
	}
	if len(m) == 0 {
		return Failed, errs.NewBuildError(errs.ErrCodeNoAssets, "no assets found", nil).WithPath(b.src)
	}

	b.logger.Info(ctx, "building static assets", "src", b.src, "dst", b.dst)

	var copied []manifest.Entry
	for _, p := range m.Paths() {
		if err := ctx.Err(); err != nil {
			return Failed, err
		}

		e := m[p]
		stale, err := HasChanges(e, b.dst)
		if err != nil {
			return Failed, err
		}
		if !stale {
			continue
		}

		src := filepath.Join(b.src, filepath.FromSlash(e.Path))
		dst := b.target(e)
		b.logger.Info(ctx, "copying asset", "path", e.Path, "target", e.Target())
		if err := copyFile(src, dst); err != nil {
			return Failed, err
		}
		copied = append(copied, e)
	}

	if len(copied) == 0 {
		b.logger.Debug(ctx, "static assets up to date")
		return NoChange, nil
	}

	if b.brotli {
		for _, e := range copied {
			if !Compressible(e.Path) {
				continue
			}
			if err := precompress(b.target(e)); err != nil {
				return Failed, err
			}
		}
	}

	if b.cleanup {
		for _, e := range copied {
			if !e.Hashed() {
				continue
			}
			if err := b.removeStale(ctx, e); err != nil {
				return Failed, err
			}
		}
	}

	return Rebuilt, nil
}

func (b *StaticBuilder) target(e manifest.Entry) string {
	return filepath.Join(b.dst, filepath.FromSlash(e.Target()))
}
