package deepindex

import (
	"context"
	"fmt"

	"github.com/codeindex-go/codeindex/internal/model"
	"github.com/codeindex-go/codeindex/internal/store"
)

// FileSummary is the get_file_summary response: language, symbol count,
// and one record per declared symbol.
type FileSummary struct {
	Path        string              `json:"path"`
	Language    string              `json:"language"`
	LineCount   int                 `json:"line_count"`
	SymbolCount int                 `json:"symbol_count"`
	Symbols     []SymbolRecord      `json:"symbols"`
}

// SymbolRecord is one symbol entry within a FileSummary.
type SymbolRecord struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Kind      model.SymbolKind `json:"kind"`
	Line      int              `json:"line"`
	Signature *string          `json:"signature,omitempty"`
	Docstring *string          `json:"docstring,omitempty"`
	CalledBy  []string         `json:"called_by"`
}

// IndexStats is the get_index_stats response.
type IndexStats struct {
	Status       string `json:"status"`
	IndexedFiles int    `json:"indexed_files"`
	SymbolCount  int    `json:"symbol_count"`
}

// Manager answers read-only queries against a built store.Store.
type Manager struct {
	Store *store.Store
}

// NewManager wraps st for querying.
func NewManager(st *store.Store) *Manager {
	return &Manager{Store: st}
}

// GetFileSummary returns the summary for relativePath, or (nil, nil) if the
// file is not in the index.
func (m *Manager) GetFileSummary(ctx context.Context, relativePath string) (*FileSummary, error) {
	file, ok, err := m.Store.FileByPath(ctx, relativePath)
	if err != nil {
		return nil, fmt.Errorf("deepindex: get file summary for %s: %w", relativePath, err)
	}
	if !ok {
		return nil, nil
	}

	rows, err := m.Store.SymbolsByFile(ctx, relativePath)
	if err != nil {
		return nil, fmt.Errorf("deepindex: get symbols for %s: %w", relativePath, err)
	}

	symbols := make([]SymbolRecord, 0, len(rows))
	for _, r := range rows {
		symbols = append(symbols, SymbolRecord{
			ID:        r.ID,
			Name:      r.Name,
			Kind:      r.Kind,
			Line:      r.Line,
			Signature: r.Signature,
			Docstring: r.Docstring,
			CalledBy:  r.CalledBy,
		})
	}

	return &FileSummary{
		Path:        file.Path,
		Language:    file.Language,
		LineCount:   file.LineCount,
		SymbolCount: len(symbols),
		Symbols:     symbols,
	}, nil
}

// GetIndexStats returns aggregate counts over the index.
func (m *Manager) GetIndexStats(ctx context.Context) (*IndexStats, error) {
	files, err := m.Store.CountFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("deepindex: count files: %w", err)
	}
	symbols, err := m.Store.CountSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("deepindex: count symbols: %w", err)
	}
	status := "loaded"
	if files == 0 {
		status = "empty"
	}
	return &IndexStats{Status: status, IndexedFiles: files, SymbolCount: symbols}, nil
}
