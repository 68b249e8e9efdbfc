package python

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-go/codeindex/internal/model"
)

const greeterSource = `class Greeter:
    """Greets a person."""

    def __init__(self, name):
        self.name = name

    def greet(self):
        return say(self.name)


def say(msg: str = "hi") -> None:
    """Say something."""
    print(msg)
`

func TestParseFile_ClassAndInitNaming(t *testing.T) {
	s := New()
	symbols, info, err := s.ParseFile(context.Background(), "test.py", []byte(greeterSource))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "python", info.Language)

	cls, ok := symbols["test.py::Greeter"]
	require.True(t, ok, "expected symbol among %v", keys(symbols))
	assert.Equal(t, model.KindClass, cls.Kind)
	require.NotNil(t, cls.Docstring)
	assert.Equal(t, "Greets a person.", *cls.Docstring)

	ctor, ok := symbols["test.py::Greeter.__init__"]
	require.True(t, ok, "expected __init__ among %v", keys(symbols))
	assert.Equal(t, model.KindConstructor, ctor.Kind)
	require.NotNil(t, ctor.Signature)
	assert.Equal(t, "def __init__(self, name):", *ctor.Signature)
}

func TestParseFile_BareSignatureStripsTypesAndDefaults(t *testing.T) {
	s := New()
	symbols, _, err := s.ParseFile(context.Background(), "test.py", []byte(greeterSource))
	require.NoError(t, err)

	say, ok := symbols["test.py::say"]
	require.True(t, ok, "expected symbol among %v", keys(symbols))
	assert.Equal(t, model.KindFunction, say.Kind)
	require.NotNil(t, say.Signature)
	assert.Equal(t, "def say(msg):", *say.Signature)
	require.NotNil(t, say.Docstring)
	assert.Equal(t, "Say something.", *say.Docstring)
}

func TestParseFile_CrossMethodCallResolved(t *testing.T) {
	s := New()
	symbols, _, err := s.ParseFile(context.Background(), "test.py", []byte(greeterSource))
	require.NoError(t, err)

	say, ok := symbols["test.py::say"]
	require.True(t, ok)
	assert.Contains(t, say.CalledBy, "test.py::Greeter.greet")
}

func TestParseFile_RejectsOversizedContent(t *testing.T) {
	s := &Strategy{MaxFileSize: 4}
	_, _, err := s.ParseFile(context.Background(), "test.py", []byte(greeterSource))
	assert.Error(t, err)
}

func keys(m map[string]*model.SymbolInfo) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
