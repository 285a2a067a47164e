package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	uerrors "github.com/unidocs/unidocs/internal/errors"
)

// fts5Index is the default fulltext backend. It shares the document
// database: a contentless-style FTS5 table keyed by doc_id, with rows
// maintained inside the same transaction as the documents table, so base
// and index can never disagree.
type fts5Index struct {
	db            *sql.DB
	snippetTokens int
}

func newFTS5Index(ctx context.Context, db *sql.DB, snippetTokens int) (*fts5Index, error) {
	_, err := db.ExecContext(ctx, `
		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			title,
			content,
			doc_id UNINDEXED,
			tokenize = 'unicode61'
		)`)
	if err != nil {
		return nil, uerrors.StoreError("failed to create fts5 table", err)
	}
	return &fts5Index{db: db, snippetTokens: snippetTokens}, nil
}

func (f *fts5Index) Backend() string { return "fts5" }

// Sync is a no-op: FTS5 rows are written inside the store transaction.
func (f *fts5Index) Sync(ctx context.Context, upserted []*Document, deletedIDs []string) error {
	return nil
}

// Search runs a ranked MATCH query joined against the documents table for
// filtering. FTS5's bm25 rank is negative with better matches more
// negative, so ascending ORDER BY rank returns best-first.
func (f *fts5Index) Search(ctx context.Context, match string, filters Filters) ([]*Hit, error) {
	if strings.TrimSpace(match) == "" {
		return nil, nil
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 10
	}

	var sb strings.Builder
	args := []any{match, filters.Version}
	sb.WriteString(fmt.Sprintf(`
		SELECT documents_fts.doc_id,
		       documents_fts.rank,
		       snippet(documents_fts, 1, '<b>', '</b>', '...', %d)
		FROM documents_fts
		JOIN documents d ON d.id = documents_fts.doc_id
		WHERE documents_fts MATCH ?
		  AND d.version = ?`, f.snippetTokens))
	if filters.Type != "" {
		sb.WriteString(` AND d.type = ?`)
		args = append(args, string(filters.Type))
	}
	if filters.PackageName != "" {
		sb.WriteString(` AND d.package_name = ?`)
		args = append(args, filters.PackageName)
	}
	if filters.PackageVersion != "" {
		sb.WriteString(` AND d.package_version = ?`)
		args = append(args, filters.PackageVersion)
	}
	sb.WriteString(` ORDER BY documents_fts.rank LIMIT ? OFFSET ?`)
	args = append(args, limit, filters.Offset)

	rows, err := f.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		// FTS5 reports unparseable match strings as query errors. The
		// sanitizer keeps these rare; treat the leftovers as no results.
		if isFTS5SyntaxError(err) {
			return nil, nil
		}
		return nil, uerrors.New(uerrors.ErrCodeSearchFailed,
			"fulltext query failed", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []*Hit
	for rows.Next() {
		hit := &Hit{}
		if err := rows.Scan(&hit.DocID, &hit.Rank, &hit.Snippet); err != nil {
			return nil, uerrors.New(uerrors.ErrCodeSearchFailed,
				"failed to scan search hit", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, uerrors.New(uerrors.ErrCodeSearchFailed,
			"failed to iterate search hits", err)
	}
	return hits, nil
}

// Optimize merges the FTS5 b-tree segments after a batch indexing run.
func (f *fts5Index) Optimize(ctx context.Context) error {
	_, err := f.db.ExecContext(ctx,
		`INSERT INTO documents_fts(documents_fts) VALUES('optimize')`)
	if err != nil {
		return uerrors.New(uerrors.ErrCodeIndexFailed,
			"failed to optimize fulltext index", err)
	}
	return nil
}

// Close is a no-op: the database handle belongs to the store.
func (f *fts5Index) Close() error { return nil }

func isFTS5SyntaxError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "fts5: syntax error") ||
		strings.Contains(msg, "unknown special query") ||
		strings.Contains(msg, "malformed MATCH expression")
}

// fts5ReplaceRows refreshes the FTS5 rows for a document batch inside the
// caller's transaction.
func fts5ReplaceRows(ctx context.Context, tx *sql.Tx, docs []*Document) error {
	del, err := tx.PrepareContext(ctx,
		`DELETE FROM documents_fts WHERE doc_id = ?`)
	if err != nil {
		return uerrors.New(uerrors.ErrCodeIndexFailed,
			"failed to prepare fts delete", err)
	}
	defer func() { _ = del.Close() }()

	ins, err := tx.PrepareContext(ctx,
		`INSERT INTO documents_fts (title, content, doc_id) VALUES (?, ?, ?)`)
	if err != nil {
		return uerrors.New(uerrors.ErrCodeIndexFailed,
			"failed to prepare fts insert", err)
	}
	defer func() { _ = ins.Close() }()

	for _, doc := range docs {
		if _, err := del.ExecContext(ctx, doc.ID); err != nil {
			return uerrors.New(uerrors.ErrCodeIndexFailed,
				fmt.Sprintf("failed to replace fts row for %s", doc.ID), err)
		}
		if _, err := ins.ExecContext(ctx, doc.Title, doc.Content, doc.ID); err != nil {
			return uerrors.New(uerrors.ErrCodeIndexFailed,
				fmt.Sprintf("failed to insert fts row for %s", doc.ID), err)
		}
	}
	return nil
}

// fts5DeleteRows removes FTS5 rows inside the caller's transaction.
func fts5DeleteRows(ctx context.Context, tx *sql.Tx, ids []string) error {
	del, err := tx.PrepareContext(ctx,
		`DELETE FROM documents_fts WHERE doc_id = ?`)
	if err != nil {
		return uerrors.New(uerrors.ErrCodeIndexFailed,
			"failed to prepare fts delete", err)
	}
	defer func() { _ = del.Close() }()

	for _, id := range ids {
		if _, err := del.ExecContext(ctx, id); err != nil {
			return uerrors.New(uerrors.ErrCodeIndexFailed,
				fmt.Sprintf("failed to delete fts row %s", id), err)
		}
	}
	return nil
}
