package golang

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-go/codeindex/internal/model"
)

const addSource = `package mathutil

// Add returns the sum of a and b.
func Add(a, b int) int {
	return a + b
}

func Caller() int {
	return Add(1, 2)
}
`

func TestParseFile_DocstringAndSignature(t *testing.T) {
	s := New()
	symbols, info, err := s.ParseFile(context.Background(), "test.go", []byte(addSource))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "go", info.Language)

	id := "test.go::Add"
	sym, ok := symbols[id]
	require.True(t, ok, "expected symbol %q in %v", id, keys(symbols))
	assert.Equal(t, model.KindFunction, sym.Kind)
	require.NotNil(t, sym.Docstring)
	assert.Equal(t, "Add returns the sum of a and b.", *sym.Docstring)
	require.NotNil(t, sym.Signature)
	assert.Equal(t, "func Add(a, b int) int", *sym.Signature)
}

func TestParseFile_IntraFileCallResolved(t *testing.T) {
	s := New()
	symbols, _, err := s.ParseFile(context.Background(), "test.go", []byte(addSource))
	require.NoError(t, err)

	add, ok := symbols["test.go::Add"]
	require.True(t, ok)
	assert.Contains(t, add.CalledBy, "test.go::Caller")
}

func TestParseFile_RejectsOversizedContent(t *testing.T) {
	s := &Strategy{MaxFileSize: 4}
	_, _, err := s.ParseFile(context.Background(), "test.go", []byte(addSource))
	assert.Error(t, err)
}

func keys(m map[string]*model.SymbolInfo) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
