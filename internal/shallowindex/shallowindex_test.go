package shallowindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-go/codeindex/internal/model"
)

func buildFixture(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	files := []string{
		"src/users.go",
		"src/USER.GO",
		"vendor/ignored.go",
		"node_modules/pkg/index.js",
		"README.md",
	}
	for _, f := range files {
		full := filepath.Join(dir, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}
	m, err := Build(dir, nil)
	require.NoError(t, err)
	return m
}

func TestBuild_ExcludesVendorAndNodeModules(t *testing.T) {
	m := buildFixture(t)
	for _, f := range m.Files() {
		assert.NotContains(t, f, "vendor/")
		assert.NotContains(t, f, "node_modules/")
	}
}

func TestFindFiles_Exact(t *testing.T) {
	m := buildFixture(t)
	result := m.FindFiles("src/users.go")
	assert.Equal(t, model.MatchExact, result.MatchType)
	assert.Equal(t, []string{"src/users.go"}, result.Files)
}

func TestFindFiles_RecursiveFallback(t *testing.T) {
	m := buildFixture(t)
	// "users.go" has no exact match at root but matches via **/ fallback.
	result := m.FindFiles("users.go")
	assert.Equal(t, model.MatchRecursive, result.MatchType)
	assert.Equal(t, []string{"src/users.go"}, result.Files)
}

func TestFindFiles_CaseInsensitiveRecursive(t *testing.T) {
	m := buildFixture(t)
	// "user.go" (lowercase) only matches src/USER.GO case-insensitively.
	result := m.FindFiles("user.go")
	assert.Equal(t, model.MatchCaseInsensitiveRecursive, result.MatchType)
	assert.Equal(t, []string{"src/USER.GO"}, result.Files)
}

func TestFindFiles_PathSeparatorBypassesCaseInsensitiveFallback(t *testing.T) {
	m := buildFixture(t)
	// "src/Users.go" has a separator and the wrong case; case-insensitive
	// fallbacks only apply to separator-free patterns, so this must miss
	// even though "src/users.go" exists.
	result := m.FindFiles("src/Users.go")
	assert.Equal(t, model.MatchNone, result.MatchType)
	assert.Empty(t, result.Files)
}

func TestFindFiles_NoMatch(t *testing.T) {
	m := buildFixture(t)
	result := m.FindFiles("nonexistent-xyz.rb")
	assert.Equal(t, model.MatchNone, result.MatchType)
	assert.Empty(t, result.Files)
}

func TestFindFiles_All(t *testing.T) {
	m := buildFixture(t)
	result := m.FindFiles("*")
	assert.Equal(t, model.MatchAll, result.MatchType)
	assert.Equal(t, m.Files(), result.Files)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	m := buildFixture(t)
	path := filepath.Join(t.TempDir(), "shallow.json")
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Files(), loaded.Files())
}
