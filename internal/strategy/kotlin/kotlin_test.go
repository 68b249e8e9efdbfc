package kotlin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-go/codeindex/internal/model"
)

const greeterSource = `package com.acme.greeter

class Greeter {
    fun greet(name: String): String {
        return "hi " + name
    }
}

interface Named {
    fun name(): String
}
`

func TestParseFile_NoPackagePrefixOnQualifiedNames(t *testing.T) {
	s := New()
	symbols, info, err := s.ParseFile(context.Background(), "Greeter.kt", []byte(greeterSource))
	require.NoError(t, err)
	require.NotNil(t, info.Package)
	assert.Equal(t, "com.acme.greeter", *info.Package)

	// Kotlin qualified names use lexical nesting only, no package prefix.
	id := "Greeter.kt::Greeter.greet"
	sym, ok := symbols[id]
	require.True(t, ok, "expected %q among %v", id, keys(symbols))
	assert.Equal(t, model.KindMethod, sym.Kind)
}

func TestParseFile_ReclassifiesInterface(t *testing.T) {
	s := New()
	symbols, _, err := s.ParseFile(context.Background(), "Greeter.kt", []byte(greeterSource))
	require.NoError(t, err)

	id := "Greeter.kt::Named"
	sym, ok := symbols[id]
	require.True(t, ok, "expected %q among %v", id, keys(symbols))
	assert.Equal(t, model.KindInterface, sym.Kind)
}

func keys(m map[string]*model.SymbolInfo) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
