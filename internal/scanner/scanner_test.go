package scanner

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func paths(records []FileRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Path)
	}
	return out
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "js/app.js", "console.log(1)")
	writeFile(t, root, "css/site.css", "body{}")
	writeFile(t, root, "img/logo.png", "png")
	writeFile(t, root, ".hidden", "x")
	writeFile(t, root, "js/.cache/tmp.js", "x")
	writeFile(t, root, "js/app_test.js", "x")

	ignore := []*regexp.Regexp{
		regexp.MustCompile(`^(.*/)?\.`),
		regexp.MustCompile(`_tests?\.(html|js)$`),
	}

	records, err := NewWalker(root, ignore).Walk(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"css/site.css", "img/logo.png", "js/app.js"}, paths(records))
}

func TestWalkRecordsMetadata(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.txt", "hello")
	mtime := time.Unix(1700000000, 0)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	records, err := NewWalker(root, nil).Walk(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, FileRecord{Path: "a.txt", ModTime: 1700000000, Size: 5}, records[0])
}

func TestWalkPatternSearchesWholePath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "vendor/closure-lib/base.js", "x")
	writeFile(t, root, "js/main.js", "x")

	ignore := []*regexp.Regexp{regexp.MustCompile(`closure(-lib)?`)}
	records, err := NewWalker(root, ignore).Walk(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"js/main.js"}, paths(records))
}

func TestWalkMissingRoot(t *testing.T) {
	records, err := NewWalker(filepath.Join(t.TempDir(), "missing"), nil).Walk(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestWalkFollowsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := writeFile(t, t.TempDir(), "shared.css", "x")
	if err := os.Symlink(target, filepath.Join(root, "linked.css")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	records, err := NewWalker(root, nil).Walk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"linked.css"}, paths(records))
}

func TestWalkCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.js", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWalker(root, nil).Walk(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIgnored(t *testing.T) {
	w := NewWalker(".", []*regexp.Regexp{regexp.MustCompile(`\.soy$`)})
	assert.True(t, w.Ignored("templates/menu.soy"))
	assert.False(t, w.Ignored("templates/menu.html"))
}
