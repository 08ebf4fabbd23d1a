package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/conneroisu/cachebust/internal/errors"
	"github.com/conneroisu/cachebust/internal/manifest"
)

// execute runs the command line in a fresh tree and returns what it wrote.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func inTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestStaticManifestCommand(t *testing.T) {
	inTempDir(t)
	writeFile(t, "assets/js/app.js", "console.log(1)")
	writeFile(t, "assets/favicon.ico", "icon")

	stdout, _, err := execute(t, "static", "manifest")
	require.NoError(t, err)

	m, err := manifest.Read(bytes.NewBufferString(stdout))
	require.NoError(t, err)
	assert.Equal(t, []string{"favicon.ico", "js/app.js"}, m.Paths())
	assert.Equal(t, manifest.HashBytes([]byte("console.log(1)")), m["js/app.js"].Hash)
	assert.Empty(t, m["favicon.ico"].Hash)
}

func TestStaticCheckAndBuild(t *testing.T) {
	inTempDir(t)
	body := "console.log(1)"
	writeFile(t, "assets/js/app.js", body)

	_, stderr, err := execute(t, "static", "check")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrChangesDetected)
	assert.Contains(t, stderr, "** js/app.js\n")

	_, _, err = execute(t, "static", "build")
	require.NoError(t, err)

	hashed := manifest.Hashify("js/app.js", manifest.HashBytes([]byte(body)))
	assert.FileExists(t, filepath.Join(".assets-build", filepath.FromSlash(hashed)))

	_, stderr, err = execute(t, "static", "check")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "**")
}

func TestStaticBuildFailure(t *testing.T) {
	inTempDir(t)

	_, stderr, err := execute(t, "static", "build")
	require.Error(t, err)
	assert.True(t, errs.IsBuildError(err))
	assert.Contains(t, stderr, "** Build failed")
}

func TestTreeFlags(t *testing.T) {
	inTempDir(t)
	writeFile(t, "web/site.css", "body{}")

	_, _, err := execute(t, "static", "build", "--static-src", "web", "--static-dst", "out", "--skip-hash", `\.css$`)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join("out", "site.css"))
}

func TestIgnoreFlagRejectsBadPattern(t *testing.T) {
	inTempDir(t)
	writeFile(t, "assets/app.js", "x")

	_, _, err := execute(t, "static", "manifest", "--ignore", "(unclosed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), errs.ErrCodeInvalidPattern)
}

func TestIgnoreFlag(t *testing.T) {
	inTempDir(t)
	writeFile(t, "assets/app.js", "x")
	writeFile(t, "assets/app.js.map", "{}")

	stdout, _, err := execute(t, "static", "manifest", "--ignore", `\.map$`)
	require.NoError(t, err)

	m, err := manifest.Read(bytes.NewBufferString(stdout))
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, m.Paths())
}

func TestConfigFileAndEnv(t *testing.T) {
	inTempDir(t)
	writeFile(t, "src/app.js", "x")
	writeFile(t, "custom.yml", "static:\n  src: src\n  dst: dist\n")

	_, _, err := execute(t, "--config", "custom.yml", "static", "build")
	require.NoError(t, err)
	assert.DirExists(t, "dist")

	t.Setenv("CACHEBUST_STATIC_DST", "from-env")
	_, _, err = execute(t, "--config", "custom.yml", "static", "build")
	require.NoError(t, err)
	assert.DirExists(t, "from-env")
}

func TestTemplatesBuild(t *testing.T) {
	inTempDir(t)
	css := "body{color:red}"
	writeFile(t, "assets/css/site.css", css)
	writeFile(t, "templates/index.html", `<link rel="stylesheet" href="/css/site.css">`+"\n"+
		`<script data-build="remove" src="/dev.js"></script>`+"\n")

	_, _, err := execute(t, "templates", "build")
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(".templates-build", "index.html"))
	require.NoError(t, err)

	hashed := manifest.Hashify("css/site.css", manifest.HashBytes([]byte(css)))
	assert.Contains(t, string(out), `href="/`+hashed+`"`)
	assert.NotContains(t, string(out), "dev.js")

	_, stderr, err := execute(t, "templates", "check")
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

func TestTemplatesCompressWithoutCompressor(t *testing.T) {
	inTempDir(t)
	writeFile(t, "assets/app.js", "x")
	writeFile(t, "templates/index.html", `<script data-build="compress">var a = 1;</script>`)

	_, stderr, err := execute(t, "templates", "build")
	require.Error(t, err)
	assert.Contains(t, stderr, "** Build failed")
	assert.ErrorIs(t, err, errs.ErrCompressorUnavailable)
}

func TestInitCommand(t *testing.T) {
	inTempDir(t)

	stdout, _, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, ".cachebust.yml")
	assert.FileExists(t, ".cachebust.yml")

	_, _, err = execute(t, "init")
	assert.Error(t, err)

	_, _, err = execute(t, "init", "--force")
	require.NoError(t, err)

	writeFile(t, "assets/app.js", "x")
	_, _, err = execute(t, "static", "build")
	require.NoError(t, err)
	assert.DirExists(t, ".assets-build")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")

	stdout, _, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "cachebust ")

	_, _, err = execute(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestRegexList(t *testing.T) {
	var v regexList
	require.NoError(t, v.Set(`\.map$`))
	require.NoError(t, v.Set(`^tmp/`))
	assert.Equal(t, "regex", v.Type())
	assert.Equal(t, `[\.map$,^tmp/]`, v.String())

	err := v.Set("[z-a]")
	require.Error(t, err)
	assert.True(t, errs.IsConfigError(err))
	assert.Len(t, v.exprs, 2)
}
