// Package shallowindex implements the fast file-list index: a walk of the
// project tree persisted as a small JSON document, and the lenient
// find_files glob fallback that is the package's distinctive algorithm.
package shallowindex

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codeindex-go/codeindex/internal/model"
	"github.com/codeindex-go/codeindex/internal/pathnorm"
)

// Manager builds, persists, and queries the shallow file list for one
// project.
type Manager struct {
	files []string
}

// Build walks projectPath (same exclusion rules as the deep builder) and
// records every accepted file's project-relative, normalized path.
func Build(projectPath string, additionalExcludes []string) (*Manager, error) {
	excludes := newExclusionSet(additionalExcludes)
	var files []string

	err := filepath.WalkDir(projectPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == projectPath {
			return nil
		}
		if d.IsDir() {
			if _, excluded := excludes[d.Name()]; excluded {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(projectPath, path)
		if err != nil {
			return nil
		}
		files = append(files, pathnorm.Normalize(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Manager{files: files}, nil
}

// DefaultExcludes mirrors deepindex.DefaultExcludes; duplicated here
// (rather than imported) to keep shallowindex free of a dependency on the
// deep-index package — the two walks are independent collaborators that
// happen to agree on exclusion rules, not a shared implementation.
var DefaultExcludes = []string{
	".git", ".svn", ".hg",
	"node_modules", "vendor", ".venv", "venv", "__pycache__",
	"dist", "build", ".idea", ".vscode", "target", "bin", "obj",
}

func newExclusionSet(additional []string) map[string]struct{} {
	set := make(map[string]struct{}, len(DefaultExcludes)+len(additional))
	for _, n := range DefaultExcludes {
		set[n] = struct{}{}
	}
	for _, n := range additional {
		set[n] = struct{}{}
	}
	return set
}

// Save persists the file list document to path as a plain JSON array.
func (m *Manager) Save(path string) error {
	data, err := json.Marshal(m.files)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a previously-saved document, normalizing paths defensively on
// ingress.
func Load(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var files []string
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, err
	}
	for i, f := range files {
		files[i] = pathnorm.Normalize(f)
	}
	return &Manager{files: files}, nil
}

// Files returns the ordered file list, mirroring directory-walk order.
func (m *Manager) Files() []string {
	out := make([]string, len(m.files))
	copy(out, m.files)
	return out
}

// FindFiles implements the lenient glob fallback: exact, then (if the
// pattern has no separator) recursive, then case-insensitive root, then
// case-insensitive recursive — stopping at the first nonempty result.
func (m *Manager) FindFiles(pattern string) model.FileSearchResult {
	original := pattern
	normalized := pathnorm.Normalize(strings.TrimSpace(pattern))

	if normalized == "" || normalized == "*" {
		return model.FileSearchResult{
			Files:           m.Files(),
			MatchType:       model.MatchAll,
			OriginalPattern: original,
			AppliedPattern:  normalized,
		}
	}

	if re, err := compileGlob(normalized); err == nil {
		if files := m.matchAll(re); len(files) > 0 {
			return model.FileSearchResult{
				Files: files, MatchType: model.MatchExact,
				OriginalPattern: original, AppliedPattern: normalized,
			}
		}
	} else {
		return model.FileSearchResult{
			Files: nil, MatchType: model.MatchInvalid,
			OriginalPattern: original, AppliedPattern: normalized,
		}
	}

	if !strings.Contains(normalized, "/") {
		recursive := "**/" + normalized
		if re, err := compileGlob(recursive); err == nil {
			if files := m.matchAll(re); len(files) > 0 {
				return model.FileSearchResult{
					Files: files, MatchType: model.MatchRecursive,
					OriginalPattern: original, AppliedPattern: recursive,
				}
			}
		}

		if re, err := compileGlobCaseInsensitive(normalized); err == nil {
			if files := m.matchAll(re); len(files) > 0 {
				return model.FileSearchResult{
					Files: files, MatchType: model.MatchCaseInsensitiveRoot,
					OriginalPattern: original, AppliedPattern: normalized,
				}
			}
		}

		if re, err := compileGlobCaseInsensitive(recursive); err == nil {
			if files := m.matchAll(re); len(files) > 0 {
				return model.FileSearchResult{
					Files: files, MatchType: model.MatchCaseInsensitiveRecursive,
					OriginalPattern: original, AppliedPattern: recursive,
				}
			}
		}
	}

	return model.FileSearchResult{
		Files: nil, MatchType: model.MatchNone,
		OriginalPattern: original, AppliedPattern: normalized,
	}
}

// matchAll returns every file matching re, in the index's stored order.
func (m *Manager) matchAll(re *regexp.Regexp) []string {
	var out []string
	for _, f := range m.files {
		if re.MatchString(f) {
			out = append(out, f)
		}
	}
	return out
}

// compileGlob compiles a lenient-glob pattern to an anchored regular
// expression: "**" crosses "/", "*" stays within a path segment, "?"
// matches one non-separator rune, and every other regex metacharacter is
// literal.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^" + globToRegexBody(pattern) + "$")
}

func compileGlobCaseInsensitive(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)^" + globToRegexBody(pattern) + "$")
}

func globToRegexBody(pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch {
		case runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '*':
			b.WriteString(".*")
			i++
		case runes[i] == '*':
			b.WriteString("[^/]*")
		case runes[i] == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}
	return b.String()
}
