package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/conneroisu/cachebust/internal/errors"
)

type templateFixture struct {
	fixture
	tplSrc, tplDst string
}

func newTemplateFixture(t *testing.T) templateFixture {
	t.Helper()
	f := newFixture(t)
	root := filepath.Dir(f.src)
	return templateFixture{
		fixture: f,
		tplSrc:  filepath.Join(root, "templates"),
		tplDst:  filepath.Join(root, ".templates-build"),
	}
}

type prefixCompressor struct{ calls int }

func (c *prefixCompressor) Compress(_ context.Context, script string) (string, error) {
	c.calls++
	return "min:" + script, nil
}

func (f templateFixture) templates(opts ...func(*TemplateOptions)) *TemplateBuilder {
	o := TemplateOptions{
		Src:        f.tplSrc,
		Dst:        f.tplDst,
		Static:     f.static(),
		RemoveTags: []string{"script", "a", "div"},
		Compressor: &prefixCompressor{},
	}
	for _, fn := range opts {
		fn(&o)
	}
	return NewTemplateBuilder(o)
}

func TestTemplateBuild(t *testing.T) {
	f := newTemplateFixture(t)
	writeFile(t, f.src, "js/app.js", "app")
	writeFile(t, f.tplSrc, "index.html",
		`<script src="/js/closure/base.js" data-build="remove"></script><script src="/js/app.js"></script>`)

	outcome, err := f.templates().Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Rebuilt, outcome)

	out := readFile(t, filepath.Join(f.tplDst, "index.html"))
	assert.Equal(t, `<script src="/`+hashedName("js/app.js", "app")+`"></script>`, out)
}

func TestTemplateBuildIdempotent(t *testing.T) {
	f := newTemplateFixture(t)
	writeFile(t, f.src, "js/app.js", "app")
	writeFile(t, f.tplSrc, "index.html", `<script src="/js/app.js"></script>`)

	_, err := f.templates().Build(context.Background())
	require.NoError(t, err)

	outcome, err := f.templates().Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NoChange, outcome)
}

func TestTemplateBuildOnlyStaleTemplates(t *testing.T) {
	f := newTemplateFixture(t)
	writeFile(t, f.src, "js/app.js", "app")
	writeFile(t, f.tplSrc, "a.html", "a")
	writeFile(t, f.tplSrc, "b.html", "b")

	_, err := f.templates().Build(context.Background())
	require.NoError(t, err)

	// Assets are unchanged, so an up-to-date output is left alone.
	marker := filepath.Join(f.tplDst, "a.html")
	require.NoError(t, os.WriteFile(marker, []byte("untouched"), 0o644))
	writeFileAt(t, f.tplSrc, "b.html", "b2", time.Now().Add(time.Hour))

	outcome, err := f.templates().Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Rebuilt, outcome)
	assert.Equal(t, "untouched", readFile(t, marker))
	assert.Equal(t, "b2", readFile(t, filepath.Join(f.tplDst, "b.html")))
}

func TestTemplateBuildRebuiltAssetsReprocessEverything(t *testing.T) {
	f := newTemplateFixture(t)
	writeFile(t, f.src, "js/app.js", "v1")
	writeFile(t, f.tplSrc, "index.html", `<script src="/js/app.js"></script>`)

	_, err := f.templates().Build(context.Background())
	require.NoError(t, err)

	out := filepath.Join(f.tplDst, "index.html")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o644))
	writeFileAt(t, f.src, "js/app.js", "v2", past.Add(time.Minute))

	outcome, err := f.templates().Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Rebuilt, outcome)
	assert.Equal(t, `<script src="/`+hashedName("js/app.js", "v2")+`"></script>`, readFile(t, out))
}

func TestTemplateBuildAbortsWhenAssetsFail(t *testing.T) {
	f := newTemplateFixture(t)
	writeFile(t, f.tplSrc, "index.html", "<p>x</p>")

	outcome, err := f.templates().Build(context.Background())
	assert.Equal(t, Failed, outcome)
	require.Error(t, err)
	assert.NoDirExists(t, f.tplDst)
}

func TestTemplateBuildCompress(t *testing.T) {
	f := newTemplateFixture(t)
	writeFile(t, f.src, "js/app.js", "app")
	writeFile(t, f.tplSrc, "page.html", `<script data-build="compress">go()</script>`)

	c := &prefixCompressor{}
	_, err := f.templates(func(o *TemplateOptions) { o.Compressor = c }).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, c.calls)
	assert.Equal(t, `<script>min:go()</script>`, readFile(t, filepath.Join(f.tplDst, "page.html")))
}

func TestTemplateBuildMissingCompressor(t *testing.T) {
	f := newTemplateFixture(t)
	writeFile(t, f.src, "js/app.js", "app")
	writeFile(t, f.tplSrc, "page.html", `<script data-build="compress">go()</script>`)

	outcome, err := f.templates(func(o *TemplateOptions) { o.Compressor = nil }).Build(context.Background())
	assert.Equal(t, Failed, outcome)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCompressorUnavailable)
	assert.NoFileExists(t, filepath.Join(f.tplDst, "page.html"))
}

func TestTemplateBuildStripsBOM(t *testing.T) {
	f := newTemplateFixture(t)
	writeFile(t, f.src, "js/app.js", "app")
	writeFile(t, f.tplSrc, "bom.html", "\xef\xbb\xbf<p>ok</p>")

	_, err := f.templates().Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", readFile(t, filepath.Join(f.tplDst, "bom.html")))
}

func TestTemplateManifestHasNoHashes(t *testing.T) {
	f := newTemplateFixture(t)
	writeFile(t, f.tplSrc, "index.html", "x")

	m, err := f.templates().Manifest(context.Background())
	require.NoError(t, err)
	require.Contains(t, m, "index.html")
	assert.False(t, m["index.html"].Hashed())
}

func TestTemplateChanged(t *testing.T) {
	f := newTemplateFixture(t)
	writeFile(t, f.src, "js/app.js", "app")
	writeFile(t, f.tplSrc, "index.html", "x")

	changed, err := f.templates().Changed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"js/app.js", "index.html"}, changed)
}

func TestTemplateInvalidateReachesAssets(t *testing.T) {
	f := newTemplateFixture(t)
	writeFile(t, f.src, "js/app.js", "app")

	b := f.templates()
	_, err := b.Static().Manifest(context.Background())
	require.NoError(t, err)

	b.Invalidate()
	assert.False(t, b.Static().cache.Loaded())
	assert.False(t, b.cache.Loaded())
}
