package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestSearch_Literal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n// TODO: fix\nfunc F() {}\n")
	writeFile(t, dir, "b.go", "package b\nfunc G() {}\n")

	matches, err := Search(dir, []string{"a.go", "b.go"}, Query{Pattern: "TODO"})
	require.NoError(t, err)
	require.Contains(t, matches, "a.go")
	assert.NotContains(t, matches, "b.go")
	assert.Equal(t, 2, matches["a.go"][0].Line)
}

func TestSearch_Regex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "func Add(a, b int) int {\nfunc Sub(a, b int) int {\n")

	matches, err := Search(dir, []string{"a.go"}, Query{Pattern: `^func \w+\(`, IsRegex: true})
	require.NoError(t, err)
	assert.Len(t, matches["a.go"], 2)
}

func TestSearch_SkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	matches, err := Search(dir, []string{"missing.go"}, Query{Pattern: "x"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearch_InvalidRegex(t *testing.T) {
	dir := t.TempDir()
	_, err := Search(dir, nil, Query{Pattern: "(", IsRegex: true})
	assert.Error(t, err)
}
