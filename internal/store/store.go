package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	uerrors "github.com/unidocs/unidocs/internal/errors"
)

const schemaVersion = 1

// Store owns the SQLite document database and the attached fulltext index.
type Store struct {
	db     *sql.DB
	path   string
	idx    FulltextIndex
	logger *slog.Logger
}

// Options configures Open.
type Options struct {
	// Backend selects the fulltext index: "fts5" or "bleve".
	Backend string

	// BlevePath is the Bleve index directory. Defaults to <dbpath>.bleve.
	BlevePath string

	// SnippetTokens is the approximate snippet context size.
	SnippetTokens int

	Logger *slog.Logger
}

// Open opens (creating if needed) the document database at path and wires
// the configured fulltext backend.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Backend == "" {
		opts.Backend = "fts5"
	}
	if opts.SnippetTokens <= 0 {
		opts.SnippetTokens = 64
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, uerrors.StoreError("failed to create data directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, uerrors.StoreError("failed to open database", err)
	}

	// modernc.org/sqlite ignores some DSN parameters, so pragmas are set
	// explicitly after open. Single connection keeps WAL writers serialized.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, uerrors.StoreError(fmt.Sprintf("failed to apply %s", p), err)
		}
	}

	s := &Store{db: db, path: path, logger: opts.Logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	idx, err := newFulltextIndex(ctx, opts, db, path)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.idx = idx

	opts.Logger.Debug("document store opened",
		slog.String("path", path),
		slog.String("backend", idx.Backend()))
	return s, nil
}

// newFulltextIndex constructs the configured backend.
func newFulltextIndex(ctx context.Context, opts Options, db *sql.DB, dbPath string) (FulltextIndex, error) {
	switch opts.Backend {
	case "fts5":
		return newFTS5Index(ctx, db, opts.SnippetTokens)
	case "bleve":
		blevePath := opts.BlevePath
		if blevePath == "" {
			blevePath = dbPath + ".bleve"
		}
		return newBleveIndex(blevePath, opts.Logger)
	default:
		return nil, uerrors.ValidationError(
			fmt.Sprintf("unknown fulltext backend: %s", opts.Backend), nil).
			WithSuggestion("set search.backend to 'fts5' or 'bleve'")
	}
}

// migrate creates the schema if absent.
func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS schema_info (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	id              TEXT PRIMARY KEY,
	version         TEXT NOT NULL,
	type            TEXT NOT NULL CHECK (type IN ('manual', 'api-reference', 'package-docs')),
	title           TEXT NOT NULL,
	content         TEXT NOT NULL,
	raw_markup      TEXT NOT NULL DEFAULT '',
	file_path       TEXT NOT NULL,
	url             TEXT NOT NULL DEFAULT '',
	package_name    TEXT,
	package_version TEXT,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_version_type_path
	ON documents(version, type, file_path)
	WHERE package_name IS NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_package_path
	ON documents(package_name, package_version, file_path)
	WHERE package_name IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_documents_version ON documents(version);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(type);

CREATE TABLE IF NOT EXISTS corpus_meta (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return uerrors.StoreError("failed to create schema", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_info`).Scan(&count); err != nil {
		return uerrors.StoreError("failed to read schema version", err)
	}
	if count == 0 {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO schema_info (version) VALUES (?)`, schemaVersion); err != nil {
			return uerrors.StoreError("failed to record schema version", err)
		}
	}
	return nil
}

// Index returns the attached fulltext index.
func (s *Store) Index() FulltextIndex {
	return s.idx
}

// DB exposes the underlying handle for backends sharing the database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the fulltext index and the database.
func (s *Store) Close() error {
	var first error
	if s.idx != nil {
		if err := s.idx.Close(); err != nil {
			first = err
		}
	}
	if err := s.db.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
