package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/cachebust/internal/build"
	"github.com/conneroisu/cachebust/internal/compress"
	"github.com/conneroisu/cachebust/internal/config"
	"github.com/conneroisu/cachebust/internal/manifest"
)

type project struct {
	root string
	cfg  *config.Config
	pats *config.Patterns
}

func newProject(t *testing.T) *project {
	t.Helper()
	root := t.TempDir()

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("static.src", filepath.Join(root, "assets"))
	viper.Set("static.dst", filepath.Join(root, "public", "static"))
	viper.Set("templates.src", filepath.Join(root, "templates"))
	viper.Set("templates.dst", filepath.Join(root, "public", "templates"))
	viper.Set("compressor.engine", config.EngineEsbuild)

	cfg, err := config.Load()
	require.NoError(t, err)
	pats, err := cfg.Compile()
	require.NoError(t, err)

	return &project{root: root, cfg: cfg, pats: pats}
}

func (p *project) write(t *testing.T, rel, body string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(p.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func (p *project) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(p.root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// builder returns a fresh template builder, as every command invocation does.
func (p *project) builder() *build.TemplateBuilder {
	static := build.NewStaticBuilder(build.StaticOptions{
		Src:      p.cfg.Static.Src,
		Dst:      p.cfg.Static.Dst,
		Ignore:   p.pats.Ignore,
		SkipHash: p.pats.SkipHash,
		Cleanup:  p.cfg.Build.Cleanup,
	})
	return build.NewTemplateBuilder(build.TemplateOptions{
		Src:        p.cfg.Templates.Src,
		Dst:        p.cfg.Templates.Dst,
		Ignore:     p.pats.Ignore,
		Static:     static,
		Attribute:  p.cfg.Rewrite.Attribute,
		RemoveTags: p.cfg.Rewrite.RemoveTags,
		Compressor: compress.New(p.cfg.Compressor, nil),
	})
}

func TestIntegration_FullPipeline(t *testing.T) {
	p := newProject(t)
	past := time.Now().Add(-time.Hour).Truncate(time.Second)

	p.write(t, "assets/js/app.js", "v1", past)
	p.write(t, "assets/css/site.css", "body{}", past)
	p.write(t, "assets/css/site_debug.css", "body{outline:1px}", past)
	p.write(t, "assets/favicon.ico", "icon", past)
	p.write(t, "assets/.DS_Store", "junk", past)
	p.write(t, "templates/index.html", `<html>
<head>
  <link rel="icon" href="/favicon.ico">
  <link rel="stylesheet" href="/css/site_debug.css" data-build="tr:/css/site.css">
  <!-- dev only -->
  <script src="/js/debug-tools.js" data-build="remove"></script>
  <script src="/js/app.js"></script>
  <script data-build="compress">
    var greeting = "hi";
    console.log(greeting);
  </script>
</head>
</html>
`, past)

	ctx := context.Background()

	outcome, err := p.builder().Build(ctx)
	require.NoError(t, err)
	require.Equal(t, build.Rebuilt, outcome)

	appV1 := manifest.Hashify("js/app.js", manifest.HashBytes([]byte("v1")))
	site := manifest.Hashify("css/site.css", manifest.HashBytes([]byte("body{}")))

	assert.FileExists(t, filepath.Join(p.cfg.Static.Dst, filepath.FromSlash(appV1)))
	assert.FileExists(t, filepath.Join(p.cfg.Static.Dst, "favicon.ico"))
	assert.NoFileExists(t, filepath.Join(p.cfg.Static.Dst, ".DS_Store"))
	debug, err := filepath.Glob(filepath.Join(p.cfg.Static.Dst, "css", "site_debug*"))
	require.NoError(t, err)
	assert.Empty(t, debug)

	out := p.read(t, "public/templates/index.html")
	assert.Contains(t, out, `href="/favicon.ico"`)
	assert.Contains(t, out, `<link rel="stylesheet" href="/`+site+`">`)
	assert.Contains(t, out, `<script src="/`+appV1+`"></script>`)
	assert.NotContains(t, out, "debug-tools")
	assert.NotContains(t, out, "dev only")
	assert.NotContains(t, out, "data-build")
	assert.Contains(t, out, "console.log(")
	assert.NotContains(t, out, "\n    var greeting")

	// Nothing changed: no copies, no template writes.
	outcome, err = p.builder().Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, build.NoChange, outcome)

	// New content: one hashed variant survives and the template follows it.
	p.write(t, "assets/js/app.js", "v2", past.Add(time.Minute))

	changed, err := p.builder().Changed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"js/app.js"}, changed)

	outcome, err = p.builder().Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, build.Rebuilt, outcome)

	appV2 := manifest.Hashify("js/app.js", manifest.HashBytes([]byte("v2")))
	variants, err := filepath.Glob(filepath.Join(p.cfg.Static.Dst, "js", "app_*.js"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(p.cfg.Static.Dst, filepath.FromSlash(appV2))}, variants)
	assert.Contains(t, p.read(t, "public/templates/index.html"), `<script src="/`+appV2+`"></script>`)
}

func TestIntegration_ManifestRoundTrip(t *testing.T) {
	p := newProject(t)
	now := time.Now().Truncate(time.Second)
	p.write(t, "assets/js/app.js", "app", now)
	p.write(t, "assets/img/apple-touch-icon.png", "png", now)

	m, err := p.builder().Static().Manifest(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \""))

	decoded, err := manifest.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
	assert.False(t, decoded["img/apple-touch-icon.png"].Hashed())
	assert.Equal(t, now.Unix(), decoded["js/app.js"].ModTime)
}
