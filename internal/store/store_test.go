package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-go/codeindex/internal/model"
)

func open(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen_InitializesSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer st.Close()

	v, ok, err := st.GetMetadata(context.Background(), "schema_version")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, SchemaVersion, v)
}

func TestOpen_RejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, st.SetMetadata(context.Background(), "schema_version", "999"))
	require.NoError(t, st.Close())

	_, err = Open(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestReplaceAll_RoundTrip(t *testing.T) {
	st := open(t)
	ctx := context.Background()

	files := []FileRow{{Path: "a.go", Language: "go", LineCount: 3, MTime: 1, ContentHash: "h1"}}
	symbols := []SymbolRow{{ID: "a.go::F", File: "a.go", Name: "F", Kind: model.KindFunction, Line: 1, CalledBy: []string{}}}

	require.NoError(t, st.ReplaceAll(ctx, files, symbols, "/proj"))

	n, err := st.CountFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, ok, err := st.FileByPath(ctx, "a.go")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "go", got.Language)

	syms, err := st.SymbolsByFile(ctx, "a.go")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "a.go::F", syms[0].ID)
}

func TestReplaceAll_ClearsPriorContents(t *testing.T) {
	st := open(t)
	ctx := context.Background()

	require.NoError(t, st.ReplaceAll(ctx,
		[]FileRow{{Path: "old.go", Language: "go", MTime: 1, ContentHash: "h"}},
		nil, "/proj"))
	require.NoError(t, st.ReplaceAll(ctx,
		[]FileRow{{Path: "new.go", Language: "go", MTime: 1, ContentHash: "h"}},
		nil, "/proj"))

	_, ok, err := st.FileByPath(ctx, "old.go")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = st.FileByPath(ctx, "new.go")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateFiles_RemovesAndInserts(t *testing.T) {
	st := open(t)
	ctx := context.Background()

	require.NoError(t, st.ReplaceAll(ctx, []FileRow{
		{Path: "a.go", Language: "go", MTime: 1, ContentHash: "h1"},
		{Path: "b.go", Language: "go", MTime: 1, ContentHash: "h2"},
	}, nil, "/proj"))

	require.NoError(t, st.UpdateFiles(ctx, []string{"b.go"},
		[]FileRow{{Path: "c.go", Language: "go", MTime: 1, ContentHash: "h3"}}, nil))

	n, err := st.CountFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err := st.FileByPath(ctx, "b.go")
	require.NoError(t, err)
	assert.False(t, ok)
}
