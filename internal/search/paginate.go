// Package search implements the pagination helper the spec names directly
// (deterministic ordering and windowing of a raw result map) plus content
// search over a file list — literal substring or regex — that produces the
// rows Paginate consumes.
package search

import (
	"sort"

	"github.com/codeindex-go/codeindex/internal/model"
)

// Row is one matched line, ready for display.
type Row struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Paginate flattens raw (a map of path to (line, text) matches) into rows
// ordered by (path, line) ascending, then slices
// [startIndex, startIndex+maxResults).
func Paginate(raw map[string][]LineMatch, startIndex int, maxResults *int) ([]Row, model.PaginationInfo) {
	var rows []Row
	for path, matches := range raw {
		for _, m := range matches {
			rows = append(rows, Row{Path: path, Line: m.Line, Text: m.Text})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Path != rows[j].Path {
			return rows[i].Path < rows[j].Path
		}
		return rows[i].Line < rows[j].Line
	})

	total := len(rows)
	if startIndex < 0 {
		startIndex = 0
	}
	if startIndex > total {
		startIndex = total
	}

	end := total
	if maxResults != nil && *maxResults > 0 {
		end = startIndex + *maxResults
		if end > total {
			end = total
		}
	}

	var windowed []Row
	if startIndex < end {
		windowed = append(windowed, rows[startIndex:end]...)
	}

	info := model.PaginationInfo{
		TotalMatches: total,
		Returned:     len(windowed),
		StartIndex:   startIndex,
		EndIndex:     end,
		HasMore:      end < total,
		MaxResults:   maxResults,
	}
	return windowed, info
}

// LineMatch is one matching line within a file.
type LineMatch struct {
	Line int
	Text string
}
