// Package strategy defines the parsing-strategy contract that every
// per-language extractor implements, plus the extension-keyed registry that
// dispatches a file to its strategy.
//
// Each strategy turns source text into a symbol map (keyed by symbol ID)
// and a FileInfo summary. The contract is intentionally narrow — one parsing
// method plus two descriptors (language name and extensions) — so new
// languages can be added without touching the builder.
package strategy

import (
	"context"
	"errors"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/codeindex-go/codeindex/internal/model"
)

// ErrFileTooLarge is returned when source content exceeds a strategy's
// configured size limit.
var ErrFileTooLarge = errors.New("strategy: file exceeds maximum size limit")

// ErrInvalidContent is returned when source content is not valid UTF-8.
var ErrInvalidContent = errors.New("strategy: content is not valid UTF-8")

// DefaultMaxFileSize is the size limit new strategies use unless
// configured otherwise (10MiB, matching the project's size-guard
// convention for parser input).
const DefaultMaxFileSize = 10 * 1024 * 1024

// Strategy is the parsing contract a language extractor implements.
//
// ParseFile must not mutate relativePath or content, must return symbol IDs
// of the form "<relativePath>::<qualifiedName>", and must never record a
// symbol calling itself from its own declaration line.
type Strategy interface {
	// Language is the canonical language name recorded on FileInfo.
	Language() string

	// Extensions lists the lowercase, dot-prefixed file extensions this
	// strategy handles, e.g. []string{".go"}.
	Extensions() []string

	// ParseFile extracts symbols and a file summary from content.
	ParseFile(ctx context.Context, relativePath string, content []byte) (map[string]*model.SymbolInfo, *model.FileInfo, error)
}

// Registry maps file extensions to the strategy that handles them.
type Registry struct {
	byExt map[string]Strategy
}

// NewRegistry builds a registry from the given strategies, indexing each by
// every extension it declares. A later strategy overwrites an earlier one
// registered for the same extension.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{byExt: make(map[string]Strategy)}
	for _, s := range strategies {
		for _, ext := range s.Extensions() {
			r.byExt[strings.ToLower(ext)] = s
		}
	}
	return r
}

// Lookup returns the strategy registered for relativePath's extension, and
// whether one was found.
func (r *Registry) Lookup(relativePath string) (Strategy, bool) {
	ext := strings.ToLower(path.Ext(relativePath))
	s, ok := r.byExt[ext]
	return s, ok
}

// ValidateUTF8Size enforces the shared pre-parse guard: content must be
// valid UTF-8 and no larger than maxSize.
func ValidateUTF8Size(content []byte, maxSize int64) error {
	if int64(len(content)) > maxSize {
		return ErrFileTooLarge
	}
	if !utf8.Valid(content) {
		return ErrInvalidContent
	}
	return nil
}

// SymbolID builds the spec's canonical symbol identifier:
// "<relative_path>::<qualified_name>".
func SymbolID(relativePath, qualifiedName string) string {
	return relativePath + "::" + qualifiedName
}

// DedupPreserveOrder removes duplicate strings while preserving the index
// of each value's first occurrence. Used for import lists.
func DedupPreserveOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// TrimSignature trims a captured declaration-header signature of
// surrounding whitespace and a trailing opening brace, matching the
// spec's "one-line textual signature... trimmed" rule.
func TrimSignature(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimSuffix(line, "{")
	return strings.TrimSpace(line)
}
