package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	uerrors "github.com/unidocs/unidocs/internal/errors"
)

// DocumentID derives the deterministic document ID for a scope and a
// corpus-relative path. The same page always maps to the same ID, so
// re-indexing updates rows in place.
func DocumentID(scopeKey, relPath string) string {
	sum := sha256.Sum256([]byte(scopeKey + "|" + relPath))
	return hex.EncodeToString(sum[:])[:16]
}

// UpsertDocuments writes a batch of documents in one transaction. Existing
// rows (matched by ID) are updated and keep their created_at. FTS5 rows are
// maintained inside the same transaction; the Bleve backend is synced after
// commit.
func (s *Store) UpsertDocuments(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uerrors.StoreError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertDocumentsTx(ctx, tx, docs); err != nil {
		return err
	}

	if s.idx.Backend() == "fts5" {
		if err := fts5ReplaceRows(ctx, tx, docs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return uerrors.StoreError("failed to commit upsert", err)
	}

	return s.idx.Sync(ctx, docs, nil)
}

// upsertDocumentsTx writes the batch inside the caller's transaction.
// Existing rows keep their created_at.
func upsertDocumentsTx(ctx context.Context, tx *sql.Tx, docs []*Document) error {
	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO documents
			(id, version, type, title, content, raw_markup, file_path, url,
			 package_name, package_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			type = excluded.type,
			title = excluded.title,
			content = excluded.content,
			raw_markup = excluded.raw_markup,
			file_path = excluded.file_path,
			url = excluded.url,
			package_name = excluded.package_name,
			package_version = excluded.package_version,
			updated_at = excluded.updated_at`)
	if err != nil {
		return uerrors.StoreError("failed to prepare upsert", err)
	}
	defer func() { _ = upsert.Close() }()

	now := time.Now().UTC()
	for _, doc := range docs {
		if !doc.Type.Valid() {
			return uerrors.New(uerrors.ErrCodeInvalidDocType,
				fmt.Sprintf("invalid document type: %s", doc.Type), nil)
		}
		_, err := upsert.ExecContext(ctx,
			doc.ID, doc.Version, string(doc.Type), doc.Title, doc.Content,
			doc.RawMarkup, doc.FilePath, doc.URL,
			nullable(doc.PackageName), nullable(doc.PackageVersion),
			now, now)
		if err != nil {
			return uerrors.StoreError(
				fmt.Sprintf("failed to upsert document %s", doc.FilePath), err)
		}
	}
	return nil
}

// ReplaceScope atomically swaps a scope's corpus: every existing document
// in the scope is purged and the new batch inserted inside one
// transaction, so a crash mid-index never leaves a half-replaced version.
func (s *Store) ReplaceScope(ctx context.Context, scope Scope, docs []*Document) error {
	where, args := scopeClause(scope)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM documents WHERE `+where, args...)
	if err != nil {
		return uerrors.StoreError("failed to select scope documents", err)
	}
	var oldIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return uerrors.StoreError("failed to scan document id", err)
		}
		oldIDs = append(oldIDs, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return uerrors.StoreError("failed to iterate document ids", err)
	}
	_ = rows.Close()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uerrors.StoreError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE `+where, args...); err != nil {
		return uerrors.StoreError("failed to purge scope", err)
	}
	if s.idx.Backend() == "fts5" {
		if err := fts5DeleteRows(ctx, tx, oldIDs); err != nil {
			return err
		}
	}
	if err := upsertDocumentsTx(ctx, tx, docs); err != nil {
		return err
	}
	if s.idx.Backend() == "fts5" {
		if err := fts5ReplaceRows(ctx, tx, docs); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return uerrors.StoreError("failed to commit scope replacement", err)
	}

	// IDs absent from the new batch are deletions for out-of-db backends.
	kept := make(map[string]bool, len(docs))
	for _, doc := range docs {
		kept[doc.ID] = true
	}
	var deleted []string
	for _, id := range oldIDs {
		if !kept[id] {
			deleted = append(deleted, id)
		}
	}
	return s.idx.Sync(ctx, docs, deleted)
}

func scopeClause(scope Scope) (string, []any) {
	if scope.IsPackage() {
		return `package_name = ? AND package_version = ?`,
			[]any{scope.PackageName, scope.PackageVersion}
	}
	return `version = ? AND package_name IS NULL`, []any{scope.Version}
}

// DeleteByVersion removes all non-package documents for a version and the
// matching fulltext rows.
func (s *Store) DeleteByVersion(ctx context.Context, version string) (int, error) {
	return s.deleteWhere(ctx,
		`version = ? AND package_name IS NULL`, version)
}

// DeleteByPackage removes all documents of one package release.
func (s *Store) DeleteByPackage(ctx context.Context, name, packageVersion string) (int, error) {
	return s.deleteWhere(ctx,
		`package_name = ? AND package_version = ?`, name, packageVersion)
}

// deleteWhere collects matching IDs, deletes base and FTS rows in one
// transaction, and syncs backends that live outside the database.
func (s *Store) deleteWhere(ctx context.Context, where string, args ...any) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM documents WHERE `+where, args...)
	if err != nil {
		return 0, uerrors.StoreError("failed to select documents for deletion", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, uerrors.StoreError("failed to scan document id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, uerrors.StoreError("failed to iterate document ids", err)
	}
	_ = rows.Close()

	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, uerrors.StoreError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE `+where, args...); err != nil {
		return 0, uerrors.StoreError("failed to delete documents", err)
	}
	if s.idx.Backend() == "fts5" {
		if err := fts5DeleteRows(ctx, tx, ids); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, uerrors.StoreError("failed to commit deletion", err)
	}

	if err := s.idx.Sync(ctx, nil, ids); err != nil {
		return len(ids), err
	}
	return len(ids), nil
}

// GetDocument fetches one document by ID. Returns (nil, nil) when absent.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	doc, err := s.scanOne(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocumentByPath fetches a document by corpus-relative path, preferring
// the given version. When the path exists only under other versions, the
// most recently updated match is returned so stale clients still resolve.
// Returns (nil, nil) when the path is unknown entirely.
func (s *Store) GetDocumentByPath(ctx context.Context, path, version string) (*Document, error) {
	doc, err := s.scanOne(ctx,
		`WHERE file_path = ? AND version = ?`, path, version)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		return doc, nil
	}
	return s.scanOne(ctx,
		`WHERE file_path = ? ORDER BY updated_at DESC LIMIT 1`, path)
}

// GetDocuments hydrates a batch of IDs, preserving the input order.
// Unknown IDs are skipped.
func (s *Store) GetDocuments(ctx context.Context, ids []string) ([]*Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, uerrors.StoreError("failed to query documents", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[string]*Document, len(ids))
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		byID[doc.ID] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, uerrors.StoreError("failed to iterate documents", err)
	}

	out := make([]*Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Stats summarizes the corpus for one version.
func (s *Store) Stats(ctx context.Context, version string) (*CorpusStats, error) {
	stats := &CorpusStats{
		Version:      version,
		CountsByType: make(map[DocType]int),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT type, COUNT(*) FROM documents WHERE version = ? GROUP BY type`,
		version)
	if err != nil {
		return nil, uerrors.StoreError("failed to count documents", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, uerrors.StoreError("failed to scan count", err)
		}
		stats.CountsByType[DocType(typ)] = n
		stats.TotalCount += n
	}
	if err := rows.Err(); err != nil {
		return nil, uerrors.StoreError("failed to iterate counts", err)
	}

	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(updated_at) FROM documents WHERE version = ?`, version).
		Scan(&last); err == nil && last.Valid {
		stats.LastUpdatedAt = last.Time
	}

	if info, err := os.Stat(s.path); err == nil {
		stats.SizeBytes = info.Size()
	}

	return stats, nil
}

// ListPackages lists indexed package corpora with document counts.
func (s *Store) ListPackages(ctx context.Context) ([]*PackageInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT package_name, package_version, COUNT(*)
		FROM documents
		WHERE package_name IS NOT NULL
		GROUP BY package_name, package_version
		ORDER BY package_name, package_version`)
	if err != nil {
		return nil, uerrors.StoreError("failed to list packages", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*PackageInfo
	for rows.Next() {
		info := &PackageInfo{}
		if err := rows.Scan(&info.Name, &info.Version, &info.DocumentCount); err != nil {
			return nil, uerrors.StoreError("failed to scan package row", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, uerrors.StoreError("failed to iterate packages", err)
	}
	return out, nil
}

const selectColumns = `
	SELECT id, version, type, title, content, raw_markup, file_path, url,
	       package_name, package_version, created_at, updated_at
	FROM documents`

// scanOne runs a single-row document query. Returns (nil, nil) on no rows.
func (s *Store) scanOne(ctx context.Context, clause string, args ...any) (*Document, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" "+clause, args...)
	if err != nil {
		return nil, uerrors.StoreError("failed to query document", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, uerrors.StoreError("failed to read document", err)
		}
		return nil, nil
	}
	return scanDocument(rows)
}

func scanDocument(rows *sql.Rows) (*Document, error) {
	doc := &Document{}
	var typ string
	var pkgName, pkgVersion sql.NullString
	err := rows.Scan(&doc.ID, &doc.Version, &typ, &doc.Title, &doc.Content,
		&doc.RawMarkup, &doc.FilePath, &doc.URL,
		&pkgName, &pkgVersion, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, uerrors.StoreError("failed to scan document", err)
	}
	doc.Type = DocType(typ)
	doc.PackageName = pkgName.String
	doc.PackageVersion = pkgVersion.String
	return doc, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

