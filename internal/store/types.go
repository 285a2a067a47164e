// Package store provides the persisted document table and the fulltext
// index backends (SQLite FTS5 by default, Bleve as an alternative).
// This is the persistence layer for all indexed documentation.
package store

import (
	"context"
	"time"
)

// DocType classifies an indexed documentation page.
type DocType string

const (
	DocTypeManual      DocType = "manual"
	DocTypeAPI         DocType = "api-reference"
	DocTypePackageDocs DocType = "package-docs"
)

// Valid reports whether t is a member of the closed type set.
func (t DocType) Valid() bool {
	switch t {
	case DocTypeManual, DocTypeAPI, DocTypePackageDocs:
		return true
	}
	return false
}

// Document is a single indexed documentation page.
type Document struct {
	ID             string    // hex(sha256(scope|relative_path))[:16]
	Version        string    // documentation release tag, e.g. "6000.1"
	Type           DocType   // manual, api-reference, package-docs
	Title          string    // page title
	Content        string    // plain text, entity-decoded, whitespace-normalized
	RawMarkup      string    // original HTML, kept for section extraction
	FilePath       string    // corpus-relative path, external lookup key
	URL            string    // optional human-reference URL
	PackageName    string    // set only for package-docs
	PackageVersion string    // set only for package-docs
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Scope identifies the purge/reinsert unit of an indexing run: either one
// documentation version or one package release.
type Scope struct {
	Version        string
	PackageName    string
	PackageVersion string
}

// IsPackage reports whether the scope targets a package corpus.
func (s Scope) IsPackage() bool {
	return s.PackageName != ""
}

// Key returns the deterministic prefix used for document ID derivation.
func (s Scope) Key() string {
	if s.IsPackage() {
		return s.PackageName + "@" + s.PackageVersion
	}
	return s.Version
}

// Filters narrows a fulltext search.
type Filters struct {
	Version        string // required
	Type           DocType // empty means all types
	PackageName    string
	PackageVersion string
	Limit          int
	Offset         int
}

// Hit is one ranked fulltext match.
//
// Rank follows a single convention across backends: ascending order is
// best-first. FTS5 reports its native bm25 rank (negative, more negative is
// better); the Bleve backend negates its native positive score to match.
// Callers surface the non-negative magnitude as the relevance score.
type Hit struct {
	DocID   string
	Rank    float64
	Snippet string
}

// FulltextIndex executes ranked queries over the document corpus and mirrors
// document store writes into its derived index. UpsertDocuments and the
// delete paths on Store are the only callers of Sync, so the index can never
// drift from the base table.
type FulltextIndex interface {
	// Backend returns the backend name ("fts5" or "bleve").
	Backend() string

	// Sync mirrors a committed store write. The FTS5 backend maintains its
	// rows inside the store transaction and treats this as a no-op.
	Sync(ctx context.Context, upserted []*Document, deletedIDs []string) error

	// Search returns ranked hits for a sanitized match string.
	Search(ctx context.Context, match string, f Filters) ([]*Hit, error)

	// Optimize merges index segments after a batch indexing run.
	Optimize(ctx context.Context) error

	Close() error
}

// CorpusStats summarizes the indexed corpus.
type CorpusStats struct {
	Version       string
	CountsByType  map[DocType]int
	TotalCount    int
	SizeBytes     int64
	LastUpdatedAt time.Time
}

// PackageInfo describes one indexed package corpus.
type PackageInfo struct {
	Name          string
	Version       string
	DocumentCount int
}

// Keys for the corpus_meta key-value table.
const (
	MetaKeyCurrentVersion = "current_version"
	MetaKeyReleaseDate    = "release_date"
	MetaKeySourceURL      = "source_url"
	MetaKeyLastDownload   = "last_download_at"
	MetaKeyLastIndex      = "last_index_at"
)
