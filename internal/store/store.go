// Package store implements the deep index's relational persistence layer
// over modernc.org/sqlite, the pure-Go, cgo-free SQLite driver. The schema
// is three tables — metadata, files, symbols — schema-versioned with no
// auto-migration: a version mismatch is fatal.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codeindex-go/codeindex/internal/model"
)

// SchemaVersion is the current schema's version string, written to
// metadata on first open and checked on every subsequent open.
const SchemaVersion = "1"

// ErrSchemaMismatch is returned by Open when an existing store's
// schema_version does not match SchemaVersion. The store must not be used;
// callers may recover by deleting the underlying file and rebuilding.
var ErrSchemaMismatch = errors.New("store: schema version mismatch")

// FileRow is one row of the files table.
type FileRow struct {
	Path        string
	Language    string
	LineCount   int
	Package     *string
	Imports     []string
	MTime       int64
	ContentHash string
}

// SymbolRow is one row of the symbols table, keyed by its full symbol ID.
type SymbolRow struct {
	ID        string
	File      string
	Name      string
	Kind      model.SymbolKind
	Line      int
	Signature *string
	Docstring *string
	CalledBy  []string
}

// Store wraps a single SQLite database file. Writes are serialized by mu;
// modernc.org/sqlite otherwise serializes writers internally, but mu also
// protects the read-then-write sequences the builder performs (e.g.
// incremental update's delete-then-insert).
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if absent) the SQLite database at path, verifying
// or initializing its schema_version.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("store: create metadata table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS files (
		path         TEXT PRIMARY KEY,
		language     TEXT NOT NULL,
		line_count   INTEGER NOT NULL,
		package      TEXT,
		imports_json TEXT NOT NULL,
		mtime        INTEGER NOT NULL,
		content_hash TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("store: create files table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS symbols (
		id             TEXT PRIMARY KEY,
		file           TEXT NOT NULL REFERENCES files(path),
		name           TEXT NOT NULL,
		kind           TEXT NOT NULL,
		line           INTEGER NOT NULL,
		signature      TEXT,
		docstring      TEXT,
		called_by_json TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("store: create symbols table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file)`); err != nil {
		return fmt.Errorf("store: create symbols file index: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'schema_version'`)
	var version string
	switch err := row.Scan(&version); {
	case errors.Is(err, sql.ErrNoRows):
		_, err := s.db.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES ('schema_version', ?)`, SchemaVersion)
		if err != nil {
			return fmt.Errorf("store: write schema_version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("store: read schema_version: %w", err)
	case version != SchemaVersion:
		return fmt.Errorf("%w: store has %q, code expects %q", ErrSchemaMismatch, version, SchemaVersion)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetMetadata upserts a metadata key/value pair (e.g. "project_path",
// "built_at").
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata(key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// GetMetadata reads a metadata value, returning ("", false) if absent.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// ReplaceAll atomically clears and repopulates the files and symbols
// tables, so a failed build never leaves a partially-written index
// visible.
func (s *Store) ReplaceAll(ctx context.Context, files []FileRow, symbols []SymbolRow, projectPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM symbols`); err != nil {
		return fmt.Errorf("store: clear symbols: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return fmt.Errorf("store: clear files: %w", err)
	}
	if err := insertFiles(ctx, tx, files); err != nil {
		return err
	}
	if err := insertSymbols(ctx, tx, symbols); err != nil {
		return err
	}
	if err := upsertMetadataTx(ctx, tx, "project_path", projectPath); err != nil {
		return err
	}
	if err := upsertMetadataTx(ctx, tx, "built_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateFiles applies an incremental update: deletes the rows for
// removedFiles and their symbols, then (re)inserts changedFiles and
// newSymbols, all within one transaction.
func (s *Store) UpdateFiles(ctx context.Context, removedFiles []string, changedFiles []FileRow, newSymbols []SymbolRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, path := range removedFiles {
		if _, err := tx.ExecContext(ctx, `DELETE FROM symbols WHERE file = ?`, path); err != nil {
			return fmt.Errorf("store: delete symbols for %s: %w", path, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
			return fmt.Errorf("store: delete file %s: %w", path, err)
		}
	}
	for _, f := range changedFiles {
		if _, err := tx.ExecContext(ctx, `DELETE FROM symbols WHERE file = ?`, f.Path); err != nil {
			return fmt.Errorf("store: delete stale symbols for %s: %w", f.Path, err)
		}
	}
	if err := insertFiles(ctx, tx, changedFiles); err != nil {
		return err
	}
	if err := insertSymbols(ctx, tx, newSymbols); err != nil {
		return err
	}
	if err := upsertMetadataTx(ctx, tx, "built_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

func insertFiles(ctx context.Context, tx *sql.Tx, files []FileRow) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO files
		(path, language, line_count, package, imports_json, mtime, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language = excluded.language,
			line_count = excluded.line_count,
			package = excluded.package,
			imports_json = excluded.imports_json,
			mtime = excluded.mtime,
			content_hash = excluded.content_hash`)
	if err != nil {
		return fmt.Errorf("store: prepare file insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		importsJSON, err := json.Marshal(f.Imports)
		if err != nil {
			return fmt.Errorf("store: marshal imports for %s: %w", f.Path, err)
		}
		if _, err := stmt.ExecContext(ctx, f.Path, f.Language, f.LineCount, f.Package, string(importsJSON), f.MTime, f.ContentHash); err != nil {
			return fmt.Errorf("store: insert file %s: %w", f.Path, err)
		}
	}
	return nil
}

func insertSymbols(ctx context.Context, tx *sql.Tx, symbols []SymbolRow) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO symbols
		(id, file, name, kind, line, signature, docstring, called_by_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file = excluded.file,
			name = excluded.name,
			kind = excluded.kind,
			line = excluded.line,
			signature = excluded.signature,
			docstring = excluded.docstring,
			called_by_json = excluded.called_by_json`)
	if err != nil {
		return fmt.Errorf("store: prepare symbol insert: %w", err)
	}
	defer stmt.Close()

	for _, sym := range symbols {
		calledByJSON, err := json.Marshal(sym.CalledBy)
		if err != nil {
			return fmt.Errorf("store: marshal called_by for %s: %w", sym.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, sym.ID, sym.File, sym.Name, string(sym.Kind), sym.Line, sym.Signature, sym.Docstring, string(calledByJSON)); err != nil {
			return fmt.Errorf("store: insert symbol %s: %w", sym.ID, err)
		}
	}
	return nil
}

func upsertMetadataTx(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO metadata(key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("store: upsert metadata %s: %w", key, err)
	}
	return nil
}

// AllFiles returns every row of the files table, ordered by path.
func (s *Store) AllFiles(ctx context.Context) ([]FileRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT path, language, line_count, package, imports_json, mtime, content_hash FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("store: query files: %w", err)
	}
	defer rows.Close()

	var out []FileRow
	for rows.Next() {
		var f FileRow
		var importsJSON string
		if err := rows.Scan(&f.Path, &f.Language, &f.LineCount, &f.Package, &importsJSON, &f.MTime, &f.ContentHash); err != nil {
			return nil, fmt.Errorf("store: scan file row: %w", err)
		}
		if err := json.Unmarshal([]byte(importsJSON), &f.Imports); err != nil {
			return nil, fmt.Errorf("store: unmarshal imports for %s: %w", f.Path, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FileByPath returns the single files row for path, or (zero, false) if
// absent.
func (s *Store) FileByPath(ctx context.Context, path string) (FileRow, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT path, language, line_count, package, imports_json, mtime, content_hash FROM files WHERE path = ?`, path)
	var f FileRow
	var importsJSON string
	err := row.Scan(&f.Path, &f.Language, &f.LineCount, &f.Package, &importsJSON, &f.MTime, &f.ContentHash)
	if errors.Is(err, sql.ErrNoRows) {
		return FileRow{}, false, nil
	}
	if err != nil {
		return FileRow{}, false, fmt.Errorf("store: query file %s: %w", path, err)
	}
	if err := json.Unmarshal([]byte(importsJSON), &f.Imports); err != nil {
		return FileRow{}, false, fmt.Errorf("store: unmarshal imports for %s: %w", path, err)
	}
	return f, true, nil
}

// SymbolsByFile returns every symbol declared in path, ordered by line.
func (s *Store) SymbolsByFile(ctx context.Context, path string) ([]SymbolRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, file, name, kind, line, signature, docstring, called_by_json
		FROM symbols WHERE file = ? ORDER BY line`, path)
	if err != nil {
		return nil, fmt.Errorf("store: query symbols for %s: %w", path, err)
	}
	defer rows.Close()
	return scanSymbolRows(rows)
}

// CountFiles returns the number of rows in the files table.
func (s *Store) CountFiles(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n)
	return n, err
}

// CountSymbols returns the number of rows in the symbols table.
func (s *Store) CountSymbols(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols`).Scan(&n)
	return n, err
}

func scanSymbolRows(rows *sql.Rows) ([]SymbolRow, error) {
	var out []SymbolRow
	for rows.Next() {
		var sym SymbolRow
		var kind string
		var calledByJSON string
		if err := rows.Scan(&sym.ID, &sym.File, &sym.Name, &kind, &sym.Line, &sym.Signature, &sym.Docstring, &calledByJSON); err != nil {
			return nil, fmt.Errorf("store: scan symbol row: %w", err)
		}
		sym.Kind = model.SymbolKind(kind)
		if err := json.Unmarshal([]byte(calledByJSON), &sym.CalledBy); err != nil {
			return nil, fmt.Errorf("store: unmarshal called_by for %s: %w", sym.ID, err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}
