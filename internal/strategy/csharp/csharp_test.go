package csharp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-go/codeindex/internal/model"
)

const widgetSource = `namespace Acme.Widgets
{
    public class Widget
    {
        public Widget()
        {
        }

        public int Area(int w, int h)
        {
            return w * h;
        }
    }
}
`

func TestParseFile_NamespacePrefixedConstructor(t *testing.T) {
	s := New()
	symbols, info, err := s.ParseFile(context.Background(), "Widget.cs", []byte(widgetSource))
	require.NoError(t, err)
	require.NotNil(t, info)
	require.NotNil(t, info.Package)
	assert.Equal(t, "Acme.Widgets", *info.Package)

	ctorID := "Widget.cs::Acme.Widgets.Widget.#ctor"
	ctor, ok := symbols[ctorID]
	require.True(t, ok, "expected %q in %v", ctorID, keys(symbols))
	assert.Equal(t, model.KindConstructor, ctor.Kind)

	methodID := "Widget.cs::Acme.Widgets.Widget.Area"
	_, ok = symbols[methodID]
	require.True(t, ok, "expected %q in %v", methodID, keys(symbols))
}

func keys(m map[string]*model.SymbolInfo) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
