package build

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/cachebust/internal/manifest"
)

// past is well before anything a build writes.
var past = time.Now().Add(-time.Hour).Truncate(time.Second)

func writeFileAt(t *testing.T, root, rel, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	return writeFileAt(t, root, rel, content, past)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func hashedName(rel, content string) string {
	return manifest.Hashify(rel, manifest.HashBytes([]byte(content)))
}

var testSkipHash = []*regexp.Regexp{
	regexp.MustCompile(`^(.*/)?favicon.*\..+$`),
}

type fixture struct {
	src, dst string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	return fixture{
		src: filepath.Join(root, "assets"),
		dst: filepath.Join(root, ".assets-build"),
	}
}

func (f fixture) static(opts ...func(*StaticOptions)) *StaticBuilder {
	o := StaticOptions{
		Src:      f.src,
		Dst:      f.dst,
		SkipHash: testSkipHash,
		Cleanup:  true,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return NewStaticBuilder(o)
}

func variants(t *testing.T, dir, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	require.NoError(t, err)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names
}
