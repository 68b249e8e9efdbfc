package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(n int) *int { return &n }

// TestPaginate_OrderingAndWindowing mirrors the spec's concrete example:
// two files, out-of-order line matches, flattened and sorted by
// (path, line).
func TestPaginate_OrderingAndWindowing(t *testing.T) {
	raw := map[string][]LineMatch{
		"b/file.py": {{Line: 12, Text: "second"}, {Line: 3, Text: "first"}},
		"a/file.py": {{Line: 8, Text: "other"}},
	}

	rows, info := Paginate(raw, 0, nil)

	assert.Equal(t, []Row{
		{Path: "a/file.py", Line: 8, Text: "other"},
		{Path: "b/file.py", Line: 3, Text: "first"},
		{Path: "b/file.py", Line: 12, Text: "second"},
	}, rows)
	assert.Equal(t, 3, info.TotalMatches)
	assert.Equal(t, 3, info.Returned)
	assert.False(t, info.HasMore)
}

func TestPaginate_Windowing(t *testing.T) {
	raw := map[string][]LineMatch{
		"a.go": {{Line: 1, Text: "x"}, {Line: 2, Text: "y"}, {Line: 3, Text: "z"}},
	}

	rows, info := Paginate(raw, 1, intp(1))
	assert.Equal(t, []Row{{Path: "a.go", Line: 2, Text: "y"}}, rows)
	assert.Equal(t, 3, info.TotalMatches)
	assert.Equal(t, 1, info.Returned)
	assert.Equal(t, 1, info.StartIndex)
	assert.Equal(t, 2, info.EndIndex)
	assert.True(t, info.HasMore)
}

func TestPaginate_StartIndexBeyondTotal(t *testing.T) {
	raw := map[string][]LineMatch{"a.go": {{Line: 1, Text: "x"}}}

	rows, info := Paginate(raw, 5, nil)
	assert.Empty(t, rows)
	assert.Equal(t, 1, info.StartIndex)
	assert.Equal(t, 1, info.EndIndex)
	assert.False(t, info.HasMore)
}

func TestPaginate_Empty(t *testing.T) {
	rows, info := Paginate(map[string][]LineMatch{}, 0, nil)
	assert.Empty(t, rows)
	assert.Equal(t, 0, info.TotalMatches)
	assert.False(t, info.HasMore)
}
