// Package deepindex implements the deep symbol index: the builder that
// walks a project, dispatches files to parsing strategies, resolves
// cross-file call edges, and persists the result; and the manager that
// answers file-summary and index-stats queries against the persisted
// store.
package deepindex

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeindex-go/codeindex/internal/model"
	"github.com/codeindex-go/codeindex/internal/obslog"
	"github.com/codeindex-go/codeindex/internal/pathnorm"
	"github.com/codeindex-go/codeindex/internal/store"
	"github.com/codeindex-go/codeindex/internal/strategy"
)

// DefaultMaxFileSize is the size above which enumerate skips a file when
// Builder.MaxFileSize is unset.
const DefaultMaxFileSize = strategy.DefaultMaxFileSize

// binarySniffWindow is how many leading bytes are scanned for a NUL byte.
const binarySniffWindow = 8 * 1024

// Stats summarizes one build or incremental update.
type Stats struct {
	FilesScanned int
	FilesIndexed int
	FilesSkipped int
	ParseErrors  int
	Duration     time.Duration
}

// Builder walks a project tree and populates a store.Store.
type Builder struct {
	Registry    *strategy.Registry
	MaxFileSize int64
	Parallel    bool
	Logger      *obslog.Logger
	Metrics     *obslog.Metrics
}

// NewBuilder returns a Builder with the default size guard and the default
// Info-level logger.
func NewBuilder(registry *strategy.Registry) *Builder {
	return &Builder{
		Registry:    registry,
		MaxFileSize: DefaultMaxFileSize,
		Logger:      obslog.Default(),
	}
}

type parsedFile struct {
	relPath string
	info    *model.FileInfo
	symbols map[string]*model.SymbolInfo
	mtime   int64
	hash    string
}

// Build performs a full index build of projectPath into st, replacing any
// prior contents. additionalExcludes are directory basenames skipped at
// every nesting level in addition to DefaultExcludes.
func (b *Builder) Build(ctx context.Context, projectPath string, additionalExcludes []string, st *store.Store) (Stats, error) {
	started := time.Now()
	candidates, scanned, err := b.enumerate(projectPath, additionalExcludes)
	if err != nil {
		return Stats{}, fmt.Errorf("deepindex: enumerate %s: %w", projectPath, err)
	}

	parsed, stats, err := b.parseAll(ctx, projectPath, candidates)
	if err != nil {
		return Stats{}, err
	}
	stats.FilesScanned = scanned

	fileRows, symbolRows := assembleRows(parsed)
	if err := st.ReplaceAll(ctx, fileRows, symbolRows, projectPath); err != nil {
		return Stats{}, fmt.Errorf("deepindex: persist build: %w", err)
	}

	stats.Duration = time.Since(started)
	if b.Metrics != nil {
		b.Metrics.FilesIndexed.Add(float64(stats.FilesIndexed))
		b.Metrics.ParseErrors.Add(float64(stats.ParseErrors))
		b.Metrics.BuildDuration.Observe(stats.Duration.Seconds())
	}
	b.Logger.Info("deep index build complete",
		"project_path", projectPath,
		"files_indexed", stats.FilesIndexed,
		"files_skipped", stats.FilesSkipped,
		"parse_errors", stats.ParseErrors,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	return stats, nil
}

// Update performs an incremental rebuild: only files whose mtime or content
// hash changed since the last build are reparsed; files no longer present
// are removed.
func (b *Builder) Update(ctx context.Context, projectPath string, additionalExcludes []string, st *store.Store) (Stats, error) {
	started := time.Now()
	candidates, scanned, err := b.enumerate(projectPath, additionalExcludes)
	if err != nil {
		return Stats{}, fmt.Errorf("deepindex: enumerate %s: %w", projectPath, err)
	}

	existing, err := st.AllFiles(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("deepindex: read existing files: %w", err)
	}
	existingByPath := make(map[string]store.FileRow, len(existing))
	for _, f := range existing {
		existingByPath[f.Path] = f
	}

	seen := make(map[string]struct{}, len(candidates))
	var toParse []candidateFile
	for _, c := range candidates {
		seen[c.relPath] = struct{}{}
		prior, ok := existingByPath[c.relPath]
		changed := !ok || prior.MTime != c.mtime
		if !changed {
			content, err := os.ReadFile(c.absPath)
			if err != nil {
				changed = true
			} else {
				sum := sha256.Sum256(content)
				changed = hex.EncodeToString(sum[:]) != prior.ContentHash
			}
		}
		if changed {
			toParse = append(toParse, c)
		}
	}
	var removed []string
	for path := range existingByPath {
		if _, ok := seen[path]; !ok {
			removed = append(removed, path)
		}
	}
	sort.Strings(removed)

	parsed, stats, err := b.parseAll(ctx, projectPath, toParse)
	if err != nil {
		return Stats{}, err
	}
	stats.FilesScanned = scanned

	if len(removed) == 0 && len(parsed) == 0 {
		stats.Duration = time.Since(started)
		return stats, nil
	}

	fileRows, symbolRows := assembleRows(parsed)
	if err := st.UpdateFiles(ctx, removed, fileRows, symbolRows); err != nil {
		return Stats{}, fmt.Errorf("deepindex: persist update: %w", err)
	}

	stats.Duration = time.Since(started)
	b.Logger.Info("deep index incremental update complete",
		"project_path", projectPath,
		"files_changed", len(parsed),
		"files_removed", len(removed),
		"parse_errors", stats.ParseErrors,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	return stats, nil
}

type candidateFile struct {
	relPath string
	absPath string
	mtime   int64
}

// enumerate walks projectPath depth-first, applying exclusion and
// binary/size rejection, and returns the accepted candidate files plus the
// total number of regular files scanned (accepted or not).
func (b *Builder) enumerate(projectPath string, additionalExcludes []string) ([]candidateFile, int, error) {
	excludes := newExclusionSet(additionalExcludes)
	maxSize := b.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var candidates []candidateFile
	scanned := 0

	err := filepath.WalkDir(projectPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == projectPath {
			return nil
		}
		if d.IsDir() {
			if excludes.excludes(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		scanned++
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxSize {
			return nil
		}
		if looksBinary(path) {
			return nil
		}

		rel, err := filepath.Rel(projectPath, path)
		if err != nil {
			return nil
		}
		candidates = append(candidates, candidateFile{
			relPath: pathnorm.Normalize(rel),
			absPath: path,
			mtime:   info.ModTime().UnixNano(),
		})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return candidates, scanned, nil
}

// looksBinary reports whether the first binarySniffWindow bytes of path
// contain a NUL byte.
func looksBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, binarySniffWindow)
	n, _ := f.Read(buf)
	return bytes.IndexByte(buf[:n], 0) >= 0
}

// parseAll dispatches every candidate to its strategy, optionally in
// parallel, then performs the single-threaded aggregation and cross-file
// call resolution pass.
func (b *Builder) parseAll(ctx context.Context, projectPath string, candidates []candidateFile) ([]parsedFile, Stats, error) {
	results := make([]*parsedFile, len(candidates))
	stats := Stats{}

	parseOne := func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := candidates[i]
		content, err := os.ReadFile(c.absPath)
		if err != nil {
			b.Logger.Warn("skipping unreadable file", "path", c.relPath, "error", err)
			return nil
		}
		hash := sha256.Sum256(content)

		strat, ok := b.Registry.Lookup(c.relPath)
		var symbols map[string]*model.SymbolInfo
		var info *model.FileInfo
		if !ok {
			info = &model.FileInfo{Language: "unknown", LineCount: bytes.Count(content, []byte("\n")) + 1}
		} else {
			parseStart := time.Now()
			symbols, info, err = strat.ParseFile(ctx, c.relPath, content)
			if b.Metrics != nil {
				b.Metrics.ParsesByLanguage.WithLabelValues(strat.Language()).Inc()
				b.Metrics.ParseDuration.WithLabelValues(strat.Language()).Observe(time.Since(parseStart).Seconds())
			}
			if err != nil {
				b.Logger.Warn("parse error", "path", c.relPath, "error", err, "language", strat.Language())
				if b.Metrics != nil {
					b.Metrics.ParseErrorsByLanguage.WithLabelValues(strat.Language()).Inc()
				}
				info = &model.FileInfo{Language: strat.Language(), LineCount: bytes.Count(content, []byte("\n")) + 1}
			}
		}
		results[i] = &parsedFile{
			relPath: c.relPath,
			info:    info,
			symbols: symbols,
			mtime:   c.mtime,
			hash:    hex.EncodeToString(hash[:]),
		}
		return nil
	}

	if b.Parallel && len(candidates) > 1 {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i := range candidates {
			i := i
			g.Go(func() error { return parseOne(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, Stats{}, err
		}
	} else {
		for i := range candidates {
			if err := parseOne(i); err != nil {
				return nil, Stats{}, err
			}
		}
	}

	var parsed []parsedFile
	for _, r := range results {
		if r == nil {
			stats.FilesSkipped++
			continue
		}
		parsed = append(parsed, *r)
		stats.FilesIndexed++
		if r.symbols == nil && r.info.Language != "unknown" {
			stats.ParseErrors++
		}
	}

	resolveCrossFileCalls(parsed)
	return parsed, stats, nil
}

// resolveCrossFileCalls builds a global simple-name→symbol-id index across
// every parsed file and resolves each file's pending_calls against it,
// mutating the callee's CalledBy list in place. Resolution is deterministic:
// files are processed in path order, and within a file pending calls are
// processed sorted by caller ID, then callee name.
func resolveCrossFileCalls(parsed []parsedFile) {
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].relPath < parsed[j].relPath })

	global := make(map[string]*model.SymbolInfo)
	bySimpleName := make(map[string][]string)
	for _, pf := range parsed {
		for id, sym := range pf.symbols {
			global[id] = sym
			simple := simpleName(id)
			bySimpleName[simple] = append(bySimpleName[simple], id)
		}
	}
	for _, ids := range bySimpleName {
		sort.Strings(ids)
	}

	for _, pf := range parsed {
		if pf.info == nil {
			continue
		}
		pending := append([]model.PendingCall(nil), pf.info.PendingCalls...)
		sort.Slice(pending, func(i, j int) bool {
			if pending[i].CallerID != pending[j].CallerID {
				return pending[i].CallerID < pending[j].CallerID
			}
			return pending[i].Callee < pending[j].Callee
		})
		for _, pc := range pending {
			candidates := resolveCandidates(pc.Callee, bySimpleName, global)
			for _, targetID := range candidates {
				if targetID == pc.CallerID {
					continue
				}
				global[targetID].AddCaller(pc.CallerID)
			}
		}
	}
}

// resolveCandidates implements the spec's tie-break: exact simple-name
// match wins outright; otherwise an unambiguous ".<simple_name>" suffix
// match is used; anything else is dropped.
func resolveCandidates(simpleName string, bySimpleName map[string][]string, global map[string]*model.SymbolInfo) []string {
	var exact, suffixed []string
	for _, id := range bySimpleName[simpleName] {
		if id[strings.LastIndex(id, "::")+2:] == simpleName {
			exact = append(exact, id)
		} else {
			suffixed = append(suffixed, id)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	if len(suffixed) == 1 {
		return suffixed
	}
	return nil
}

func simpleName(symbolID string) string {
	qualified := symbolID[strings.LastIndex(symbolID, "::")+2:]
	if dot := strings.LastIndex(qualified, "."); dot >= 0 {
		return qualified[dot+1:]
	}
	return qualified
}

func assembleRows(parsed []parsedFile) ([]store.FileRow, []store.SymbolRow) {
	fileRows := make([]store.FileRow, 0, len(parsed))
	var symbolRows []store.SymbolRow

	for _, pf := range parsed {
		fileRows = append(fileRows, store.FileRow{
			Path:        pf.relPath,
			Language:    pf.info.Language,
			LineCount:   pf.info.LineCount,
			Package:     pf.info.Package,
			Imports:     pf.info.Imports,
			MTime:       pf.mtime,
			ContentHash: pf.hash,
		})
		for id, sym := range pf.symbols {
			symbolRows = append(symbolRows, store.SymbolRow{
				ID:        id,
				File:      sym.File,
				Name:      simpleName(id),
				Kind:      sym.Kind,
				Line:      sym.Line,
				Signature: sym.Signature,
				Docstring: sym.Docstring,
				CalledBy:  sym.CalledBy,
			})
		}
	}
	sort.Slice(symbolRows, func(i, j int) bool { return symbolRows[i].ID < symbolRows[j].ID })
	return fileRows, symbolRows
}
