// Package engine wires the shallow index, deep index, search, and discovery
// packages into the single façade a CLI or service front-end drives: one
// SetProjectPath/BuildIndex per project, then read-only queries against
// whatever was last built or loaded.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/codeindex-go/codeindex/internal/deepindex"
	"github.com/codeindex-go/codeindex/internal/discovery"
	"github.com/codeindex-go/codeindex/internal/model"
	"github.com/codeindex-go/codeindex/internal/obslog"
	"github.com/codeindex-go/codeindex/internal/search"
	"github.com/codeindex-go/codeindex/internal/settings"
	"github.com/codeindex-go/codeindex/internal/shallowindex"
	"github.com/codeindex-go/codeindex/internal/store"
	"github.com/codeindex-go/codeindex/internal/strategy"
	"github.com/codeindex-go/codeindex/internal/strategy/csharp"
	"github.com/codeindex-go/codeindex/internal/strategy/golang"
	"github.com/codeindex-go/codeindex/internal/strategy/javascript"
	"github.com/codeindex-go/codeindex/internal/strategy/kotlin"
	"github.com/codeindex-go/codeindex/internal/strategy/python"
	"github.com/codeindex-go/codeindex/internal/validate"
)

// ErrNotInitialized is returned by every query method when no project has
// been set, built, or loaded yet.
var ErrNotInitialized = fmt.Errorf("engine: no project initialized; call SetProjectPath and BuildIndex or LoadIndex first")

// shallowFileName is the shallow index document's filename within a
// project's settings directory.
const shallowFileName = "shallow_index.json"

// dbFileName is the deep index's SQLite database filename within a
// project's settings directory.
const dbFileName = "deep_index.db"

// Config configures an Engine's build behavior.
type Config struct {
	// Parallel enables concurrent file parsing during BuildIndex.
	Parallel bool

	// AdditionalExcludes are directory basenames skipped in addition to
	// the default exclusion set.
	AdditionalExcludes []string

	// Logger receives build and query diagnostics. Defaults to
	// obslog.Default() when nil.
	Logger *obslog.Logger

	// Metrics, if set, is updated by every BuildIndex/RefreshIndex call.
	Metrics *obslog.Metrics
}

// Engine is the project-scoped façade over every index and query package.
// Thread Safety: Engine is safe for concurrent use. Queries may run
// concurrently with each other; SetProjectPath/BuildIndex/LoadIndex are
// serialized against both queries and each other.
type Engine struct {
	cfg Config
	reg *strategy.Registry

	mu          sync.RWMutex
	projectPath string
	tempDir     string
	shallow     *shallowindex.Manager
	deepStore   *store.Store
	deepMgr     *deepindex.Manager
	discoverSvc *discovery.Service
}

// New returns an Engine with every bundled language strategy registered.
// Call SetProjectPath before any other method.
func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = obslog.Default()
	}
	reg := strategy.NewRegistry(
		golang.New(),
		python.New(),
		javascript.NewTypeScript(),
		javascript.NewJavaScript(),
		kotlin.New(),
		csharp.New(),
	)
	return &Engine{cfg: cfg, reg: reg}
}

// SetProjectPath validates and records the active project root, closing any
// previously open deep-index store. It does not itself build or load an
// index; callers must follow with BuildIndex or LoadIndex.
func (e *Engine) SetProjectPath(projectPath string) error {
	abs, err := validateProjectRoot(projectPath)
	if err != nil {
		return err
	}
	tempDir, err := settings.ProjectTempDir(abs)
	if err != nil {
		return fmt.Errorf("engine: resolve project state dir: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
	e.projectPath = abs
	e.tempDir = tempDir
	e.shallow = nil
	e.deepStore = nil
	e.deepMgr = nil
	e.discoverSvc = nil
	return nil
}

// BuildIndex performs a full shallow and deep index build of the active
// project, persisting both to the project's settings directory.
func (e *Engine) BuildIndex(ctx context.Context) (deepindex.Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.projectPath == "" {
		return deepindex.Stats{}, ErrNotInitialized
	}

	buildID := uuid.NewString()
	log := e.cfg.Logger.With("build_id", buildID)
	log.Info("build started", "project_path", e.projectPath)

	shallow, err := shallowindex.Build(e.projectPath, e.cfg.AdditionalExcludes)
	if err != nil {
		return deepindex.Stats{}, fmt.Errorf("engine: build shallow index: %w", err)
	}
	if err := shallow.Save(filepath.Join(e.tempDir, shallowFileName)); err != nil {
		return deepindex.Stats{}, fmt.Errorf("engine: persist shallow index: %w", err)
	}

	st, err := store.Open(ctx, filepath.Join(e.tempDir, dbFileName))
	if err != nil {
		return deepindex.Stats{}, fmt.Errorf("engine: open deep index store: %w", err)
	}

	builder := &deepindex.Builder{
		Registry: e.reg,
		Parallel: e.cfg.Parallel,
		Logger:   log,
		Metrics:  e.cfg.Metrics,
	}
	stats, err := builder.Build(ctx, e.projectPath, e.cfg.AdditionalExcludes, st)
	if err != nil {
		st.Close()
		return deepindex.Stats{}, err
	}
	log.Info("build finished", "files_indexed", stats.FilesIndexed, "parse_errors", stats.ParseErrors)

	discoverSvc, err := discovery.NewService(shallow)
	if err != nil {
		st.Close()
		return deepindex.Stats{}, err
	}

	e.closeLocked()
	e.shallow = shallow
	e.deepStore = st
	e.deepMgr = deepindex.NewManager(st)
	e.discoverSvc = discoverSvc
	return stats, nil
}

// LoadIndex loads a previously-built shallow document and deep index store
// from the project's settings directory, without reparsing anything. It
// fails if BuildIndex has never run for this project.
func (e *Engine) LoadIndex(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.projectPath == "" {
		return ErrNotInitialized
	}

	shallow, err := shallowindex.Load(filepath.Join(e.tempDir, shallowFileName))
	if err != nil {
		return fmt.Errorf("engine: load shallow index: %w", err)
	}
	st, err := store.Open(ctx, filepath.Join(e.tempDir, dbFileName))
	if err != nil {
		return fmt.Errorf("engine: open deep index store: %w", err)
	}
	discoverSvc, err := discovery.NewService(shallow)
	if err != nil {
		st.Close()
		return err
	}

	e.closeLocked()
	e.shallow = shallow
	e.deepStore = st
	e.deepMgr = deepindex.NewManager(st)
	e.discoverSvc = discoverSvc
	return nil
}

// RefreshIndex performs an incremental deep-index update plus a shallow
// index rebuild, reusing whatever was previously built or loaded.
func (e *Engine) RefreshIndex(ctx context.Context) (deepindex.Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deepStore == nil {
		return deepindex.Stats{}, ErrNotInitialized
	}

	refreshID := uuid.NewString()
	log := e.cfg.Logger.With("build_id", refreshID)
	log.Info("refresh started", "project_path", e.projectPath)

	shallow, err := shallowindex.Build(e.projectPath, e.cfg.AdditionalExcludes)
	if err != nil {
		return deepindex.Stats{}, fmt.Errorf("engine: rebuild shallow index: %w", err)
	}
	if err := shallow.Save(filepath.Join(e.tempDir, shallowFileName)); err != nil {
		return deepindex.Stats{}, fmt.Errorf("engine: persist shallow index: %w", err)
	}

	builder := &deepindex.Builder{
		Registry: e.reg,
		Parallel: e.cfg.Parallel,
		Logger:   log,
		Metrics:  e.cfg.Metrics,
	}
	stats, err := builder.Update(ctx, e.projectPath, e.cfg.AdditionalExcludes, e.deepStore)
	if err != nil {
		return deepindex.Stats{}, err
	}
	log.Info("refresh finished", "files_indexed", stats.FilesIndexed, "parse_errors", stats.ParseErrors)

	discoverSvc, err := discovery.NewService(shallow)
	if err != nil {
		return deepindex.Stats{}, err
	}
	e.shallow = shallow
	e.discoverSvc = discoverSvc
	return stats, nil
}

// GetFileSummary returns the deep-index summary for relativePath, or
// (nil, nil) if the file isn't indexed.
func (e *Engine) GetFileSummary(ctx context.Context, relativePath string) (*deepindex.FileSummary, error) {
	mgr, err := e.deepManager()
	if err != nil {
		return nil, err
	}
	return mgr.GetFileSummary(ctx, relativePath)
}

// GetIndexStats returns aggregate counts over the deep index.
func (e *Engine) GetIndexStats(ctx context.Context) (*deepindex.IndexStats, error) {
	mgr, err := e.deepManager()
	if err != nil {
		return nil, err
	}
	return mgr.GetIndexStats(ctx)
}

// FindFiles runs the shallow index's lenient glob search.
func (e *Engine) FindFiles(pattern string, maxResults *int) (model.FileSearchResult, error) {
	svc, err := e.discoveryService()
	if err != nil {
		return model.FileSearchResult{}, err
	}
	return svc.FindFiles(pattern, maxResults)
}

// GetFileList returns every file the shallow index knows about.
func (e *Engine) GetFileList() ([]string, error) {
	svc, err := e.discoveryService()
	if err != nil {
		return nil, err
	}
	return svc.GetFileList(), nil
}

// Search runs a content search over every file the shallow index knows
// about (or, if relativePaths is non-empty, just those), then paginates
// the result.
func (e *Engine) Search(q search.Query, relativePaths []string, startIndex int, maxResults *int) ([]search.Row, model.PaginationInfo, error) {
	e.mu.RLock()
	shallow := e.shallow
	projectPath := e.projectPath
	e.mu.RUnlock()

	if shallow == nil {
		return nil, model.PaginationInfo{}, ErrNotInitialized
	}
	if err := validate.NonEmptyPattern(q.Pattern); err != nil {
		return nil, model.PaginationInfo{}, err
	}
	if err := validate.Pagination(startIndex, maxResults); err != nil {
		return nil, model.PaginationInfo{}, err
	}

	targets := relativePaths
	if len(targets) == 0 {
		targets = shallow.Files()
	}

	raw, err := search.Search(projectPath, targets, q)
	if err != nil {
		return nil, model.PaginationInfo{}, fmt.Errorf("engine: search: %w", err)
	}
	rows, info := search.Paginate(raw, startIndex, maxResults)
	return rows, info, nil
}

// Close releases the active deep-index store handle, if any.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeLocked()
}

func (e *Engine) closeLocked() error {
	if e.deepStore == nil {
		return nil
	}
	err := e.deepStore.Close()
	e.deepStore = nil
	e.deepMgr = nil
	return err
}

func (e *Engine) deepManager() (*deepindex.Manager, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.deepMgr == nil {
		return nil, ErrNotInitialized
	}
	return e.deepMgr, nil
}

func (e *Engine) discoveryService() (*discovery.Service, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.discoverSvc == nil {
		return nil, ErrNotInitialized
	}
	return e.discoverSvc, nil
}

// validateProjectRoot mirrors the teacher's path-traversal guard: the root
// must be absolute and contain no ".." segment, with symlinks resolved
// before use.
func validateProjectRoot(projectPath string) (string, error) {
	if !filepath.IsAbs(projectPath) {
		return "", &validate.Error{Message: "project path must be absolute: " + projectPath}
	}
	if strings.Contains(projectPath, "..") {
		return "", &validate.Error{Message: "project path must not contain '..': " + projectPath}
	}
	resolved, err := filepath.EvalSymlinks(projectPath)
	if err != nil {
		return "", fmt.Errorf("engine: resolve project path: %w", err)
	}
	return resolved, nil
}
