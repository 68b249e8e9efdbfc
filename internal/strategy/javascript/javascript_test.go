package javascript

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-go/codeindex/internal/model"
)

const greeterJS = `import { helper } from "./helper";

class Greeter {
  greet(name) {
    return shout(name);
  }
}

function shout(msg) {
  return msg.toUpperCase();
}
`

func TestJavaScript_ParseFile_ClassMethodAndFunction(t *testing.T) {
	s := NewJavaScript()
	symbols, info, err := s.ParseFile(context.Background(), "test.js", []byte(greeterJS))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "javascript", info.Language)
	assert.Contains(t, info.Imports, "./helper")

	cls, ok := symbols["test.js::Greeter"]
	require.True(t, ok, "expected symbol among %v", keys(symbols))
	assert.Equal(t, model.KindClass, cls.Kind)

	method, ok := symbols["test.js::Greeter.greet"]
	require.True(t, ok, "expected symbol among %v", keys(symbols))
	assert.Equal(t, model.KindMethod, method.Kind)

	fn, ok := symbols["test.js::shout"]
	require.True(t, ok, "expected symbol among %v", keys(symbols))
	assert.Equal(t, model.KindFunction, fn.Kind)
}

func TestJavaScript_ParseFile_CrossMethodCallResolved(t *testing.T) {
	s := NewJavaScript()
	symbols, _, err := s.ParseFile(context.Background(), "test.js", []byte(greeterJS))
	require.NoError(t, err)

	fn, ok := symbols["test.js::shout"]
	require.True(t, ok)
	assert.Contains(t, fn.CalledBy, "test.js::Greeter.greet")
}

func TestJavaScript_ParseFile_RejectsOversizedContent(t *testing.T) {
	s := NewJavaScript()
	s.MaxFileSize = 4
	_, _, err := s.ParseFile(context.Background(), "test.js", []byte(greeterJS))
	assert.Error(t, err)
}

const greeterTS = `interface Named {
  label(): string;
}

class Greeter implements Named {
  label(): string {
    return "hi";
  }

  greet(): string {
    return shout(this.label());
  }
}

function shout(msg: string): string {
  return msg.toUpperCase();
}
`

func TestTypeScript_ParseFile_InterfaceClassAndFunction(t *testing.T) {
	s := NewTypeScript()
	symbols, info, err := s.ParseFile(context.Background(), "test.ts", []byte(greeterTS))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "typescript", info.Language)

	iface, ok := symbols["test.ts::Named"]
	require.True(t, ok, "expected symbol among %v", keys(symbols))
	assert.Equal(t, model.KindInterface, iface.Kind)

	cls, ok := symbols["test.ts::Greeter"]
	require.True(t, ok, "expected symbol among %v", keys(symbols))
	assert.Equal(t, model.KindClass, cls.Kind)

	fn, ok := symbols["test.ts::shout"]
	require.True(t, ok, "expected symbol among %v", keys(symbols))
	assert.Equal(t, model.KindFunction, fn.Kind)
	assert.Contains(t, fn.CalledBy, "test.ts::Greeter.greet")
}

func keys(m map[string]*model.SymbolInfo) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
