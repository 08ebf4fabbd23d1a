package build

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/conneroisu/cachebust/internal/compress"
	errs "github.com/conneroisu/cachebust/internal/errors"
	"github.com/conneroisu/cachebust/internal/logging"
	"github.com/conneroisu/cachebust/internal/manifest"
	"github.com/conneroisu/cachebust/internal/rewrite"
	"github.com/conneroisu/cachebust/internal/scanner"
)

// TemplateOptions configures a TemplateBuilder.
type TemplateOptions struct {
	Src    string
	Dst    string
	Ignore []*regexp.Regexp
	// Static is the asset builder run before any template is touched.
	Static     *StaticBuilder
	Attribute  string
	RemoveTags []string
	Compressor compress.Compressor
	Logger     logging.Logger
}

// TemplateBuilder rewrites templates so they reference hashed assets.
// Templates keep their names; their manifest carries no hashes.
type TemplateBuilder struct {
	src, dst   string
	static     *StaticBuilder
	attribute  string
	removeTags []string
	compressor compress.Compressor
	cache      *manifest.Cache
	logger     logging.Logger
}

// NewTemplateBuilder creates a template builder around opts.Static.
func NewTemplateBuilder(opts TemplateOptions) *TemplateBuilder {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	walker := scanner.NewWalker(opts.Src, opts.Ignore)

	return &TemplateBuilder{
		src:        opts.Src,
		dst:        opts.Dst,
		static:     opts.Static,
		attribute:  opts.Attribute,
		removeTags: opts.RemoveTags,
		compressor: opts.Compressor,
		cache: manifest.NewCache(func(ctx context.Context) (manifest.Manifest, error) {
			return manifest.Build(ctx, walker, manifest.NeverHash)
		}),
		logger: logger.WithComponent("templates"),
	}
}

// Static returns the composed asset builder.
func (b *TemplateBuilder) Static() *StaticBuilder { return b.static }

// Manifest implements Builder and returns the template manifest.
func (b *TemplateBuilder) Manifest(ctx context.Context) (manifest.Manifest, error) {
	return b.cache.Get(ctx)
}

// Invalidate implements Builder. The asset builder is invalidated too.
func (b *TemplateBuilder) Invalidate() {
	b.cache.Invalidate()
	b.static.Invalidate()
}

// Changed implements Builder. Stale assets are listed before stale
// templates.
func (b *TemplateBuilder) Changed(ctx context.Context) ([]string, error) {
	assets, err := b.static.Changed(ctx)
	if err != nil {
		return nil, err
	}

	m, err := b.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	templates, err := changedPaths(m, b.dst)
	if err != nil {
		return nil, err
	}

	return append(assets, templates...), nil
}

// Build runs the asset pass and then rewrites templates. When assets were
// rebuilt every template is processed, since any of them may reference a
// new hash; otherwise only stale templates are.
func (b *TemplateBuilder) Build(ctx context.Context) (Outcome, error) {
	assetOutcome, err := b.static.Build(ctx)
	if assetOutcome == Failed {
		return Failed, err
	}

	assets, err := b.static.Manifest(ctx)
	if err != nil {
		return Failed, err
	}
	m, err := b.Manifest(ctx)
	if err != nil {
		return Failed, err
	}

	rw, err := rewrite.New(rewrite.Options{
		Attribute:  b.attribute,
		RemoveTags: b.removeTags,
		Assets:     assets,
		Compressor: b.compressor,
		Logger:     b.logger,
	})
	if err != nil {
		return Failed, errs.NewConfigError(errs.ErrCodeInvalidConfig, "invalid rewrite configuration", err)
	}

	b.logger.Info(ctx, "building templates", "src", b.src, "dst", b.dst, "assets", assetOutcome.String())

	processed := 0
	for _, p := range m.Paths() {
		if err := ctx.Err(); err != nil {
			return Failed, err
		}

		e := m[p]
		if assetOutcome != Rebuilt {
			stale, err := HasChanges(e, b.dst)
			if err != nil {
				return Failed, err
			}
			if !stale {
				continue
			}
		}

		src := filepath.Join(b.src, filepath.FromSlash(e.Path))
		dst := filepath.Join(b.dst, filepath.FromSlash(e.Path))
		b.logger.Info(ctx, "processing template", "path", e.Path)
		if err := b.processTemplate(ctx, rw, src, dst); err != nil {
			return Failed, err
		}
		processed++
	}

	if assetOutcome == Rebuilt || processed > 0 {
		return Rebuilt, nil
	}
	return NoChange, nil
}

func (b *TemplateBuilder) processTemplate(ctx context.Context, rw *rewrite.Rewriter, src, dst string) error {
	text, err := readUTF8(src)
	if err != nil {
		return errs.ReadFailed(src, err)
	}

	out, err := rw.Rewrite(ctx, text)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeBuild, errs.ErrCodeBuildFailed, "template rewrite failed").WithPath(src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return errs.WriteFailed(dst, err)
	}
	if err := os.WriteFile(dst, []byte(out), filePerm); err != nil {
		return errs.WriteFailed(dst, err)
	}
	return nil
}

// readUTF8 reads a template as UTF-8. A leading byte order mark is dropped,
// and a UTF-16 one switches decoding to UTF-16.
func readUTF8(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(f, dec))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
