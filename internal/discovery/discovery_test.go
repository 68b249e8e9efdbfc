package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-go/codeindex/internal/shallowindex"
)

func intp(n int) *int { return &n }

func TestNewService_RejectsNilShallowIndex(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}

func TestFindFiles_ValidatesAndTruncates(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"a.go", "b.go", "c.go"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
	}
	shallow, err := shallowindex.Build(dir, nil)
	require.NoError(t, err)
	svc, err := NewService(shallow)
	require.NoError(t, err)

	_, err = svc.FindFiles("  ", nil)
	assert.Error(t, err)

	result, err := svc.FindFiles("*", intp(2))
	require.NoError(t, err)
	assert.Len(t, result.Files, 2)
}

func TestGetFileList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("x"), 0o644))
	shallow, err := shallowindex.Build(dir, nil)
	require.NoError(t, err)
	svc, err := NewService(shallow)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.go"}, svc.GetFileList())
}
