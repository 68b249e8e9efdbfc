package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-go/codeindex/internal/model"
	"github.com/codeindex-go/codeindex/internal/search"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n\n// Add returns a plus b.\nfunc Add(a, b int) int {\n\treturn a + b\n}\n")
	return dir
}

func TestEngine_BuildThenQuery(t *testing.T) {
	dir := newProject(t)
	eng := New(Config{})
	require.NoError(t, eng.SetProjectPath(dir))
	defer eng.Close()

	_, err := eng.BuildIndex(context.Background())
	require.NoError(t, err)

	stats, err := eng.GetIndexStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.IndexedFiles)
	assert.Equal(t, 1, stats.SymbolCount)

	summary, err := eng.GetFileSummary(context.Background(), "main.go")
	require.NoError(t, err)
	require.NotNil(t, summary)
	require.Len(t, summary.Symbols, 1)
	assert.Equal(t, "Add", summary.Symbols[0].Name)

	result, err := eng.FindFiles("main.go", nil)
	require.NoError(t, err)
	assert.Equal(t, model.MatchExact, result.MatchType)

	list, err := eng.GetFileList()
	require.NoError(t, err)
	assert.Contains(t, list, "main.go")

	rows, info, err := eng.Search(search.Query{Pattern: "Add"}, nil, 0, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, rows)
	assert.Equal(t, len(rows), info.TotalMatches)
}

func TestEngine_QueriesFailBeforeInitialized(t *testing.T) {
	eng := New(Config{})
	_, err := eng.GetIndexStats(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = eng.FindFiles("*.go", nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestEngine_LoadIndex_WithoutPriorBuildFails(t *testing.T) {
	dir := newProject(t)
	eng := New(Config{})
	require.NoError(t, eng.SetProjectPath(dir))
	defer eng.Close()

	err := eng.LoadIndex(context.Background())
	assert.Error(t, err)
}

func TestEngine_SetProjectPath_RejectsRelativePath(t *testing.T) {
	eng := New(Config{})
	err := eng.SetProjectPath("relative/path")
	assert.Error(t, err)
}

func TestEngine_BuildThenLoad_SameStats(t *testing.T) {
	dir := newProject(t)
	eng := New(Config{})
	require.NoError(t, eng.SetProjectPath(dir))
	defer eng.Close()

	_, err := eng.BuildIndex(context.Background())
	require.NoError(t, err)
	before, err := eng.GetIndexStats(context.Background())
	require.NoError(t, err)

	require.NoError(t, eng.SetProjectPath(dir))
	require.NoError(t, eng.LoadIndex(context.Background()))
	after, err := eng.GetIndexStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before, after)
}
