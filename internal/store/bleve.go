package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	uerrors "github.com/unidocs/unidocs/internal/errors"
)

// bleveIndex is the alternative fulltext backend. It keeps its own on-disk
// index next to the database and is kept in step with the documents table
// through Sync calls after each committed store write.
type bleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	logger *slog.Logger
	closed bool
}

// bleveDoc is the indexed projection of a Document. Filter fields use the
// keyword analyzer so term queries match exact values.
type bleveDoc struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	Version        string `json:"version"`
	Type           string `json:"type"`
	PackageName    string `json:"package_name"`
	PackageVersion string `json:"package_version"`
}

func newBleveIndex(path string, logger *slog.Logger) (*bleveIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, uerrors.StoreError("failed to create index directory", err)
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildBleveMapping())
	} else if err != nil && isBleveCorruption(err) {
		// A half-written index cannot be repaired in place. Clear it and
		// rebuild empty; the next indexing run repopulates it.
		logger.Warn("fulltext index corrupted, rebuilding",
			slog.String("path", path),
			slog.String("error", err.Error()))
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return nil, uerrors.New(uerrors.ErrCodeCorruptIndex,
				"corrupted index could not be cleared", rmErr)
		}
		idx, err = bleve.New(path, buildBleveMapping())
	}
	if err != nil {
		return nil, uerrors.StoreError("failed to open bleve index", err)
	}

	return &bleveIndex{index: idx, path: path, logger: logger}, nil
}

func buildBleveMapping() *mapping.IndexMappingImpl {
	textField := bleve.NewTextFieldMapping()

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name
	keywordField.IncludeInAll = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("title", textField)
	docMapping.AddFieldMappingsAt("content", textField)
	docMapping.AddFieldMappingsAt("version", keywordField)
	docMapping.AddFieldMappingsAt("type", keywordField)
	docMapping.AddFieldMappingsAt("package_name", keywordField)
	docMapping.AddFieldMappingsAt("package_version", keywordField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = docMapping
	return m
}

func (b *bleveIndex) Backend() string { return "bleve" }

// Sync mirrors a committed store write into the index.
func (b *bleveIndex) Sync(ctx context.Context, upserted []*Document, deletedIDs []string) error {
	if len(upserted) == 0 && len(deletedIDs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return uerrors.StoreError("bleve index is closed", nil)
	}

	batch := b.index.NewBatch()
	for _, doc := range upserted {
		err := batch.Index(doc.ID, bleveDoc{
			Title:          doc.Title,
			Content:        doc.Content,
			Version:        doc.Version,
			Type:           string(doc.Type),
			PackageName:    doc.PackageName,
			PackageVersion: doc.PackageVersion,
		})
		if err != nil {
			return uerrors.New(uerrors.ErrCodeIndexFailed,
				"failed to stage document for indexing", err)
		}
	}
	for _, id := range deletedIDs {
		batch.Delete(id)
	}

	if err := b.index.Batch(batch); err != nil {
		return uerrors.New(uerrors.ErrCodeIndexFailed,
			"failed to apply index batch", err)
	}
	return nil
}

// Search runs a match query over title and content, filtered by exact term
// queries on the metadata fields. Bleve scores are positive with higher
// better; Rank is the negated score so ascending order is best-first, the
// same convention the FTS5 backend reports natively.
func (b *bleveIndex) Search(ctx context.Context, match string, filters Filters) ([]*Hit, error) {
	if strings.TrimSpace(match) == "" {
		return nil, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, uerrors.StoreError("bleve index is closed", nil)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 10
	}

	titleQuery := bleve.NewMatchQuery(match)
	titleQuery.SetField("title")
	contentQuery := bleve.NewMatchQuery(match)
	contentQuery.SetField("content")
	textQuery := bleve.NewDisjunctionQuery(titleQuery, contentQuery)

	conj := bleve.NewConjunctionQuery(textQuery)
	if filters.Version != "" {
		q := bleve.NewTermQuery(filters.Version)
		q.SetField("version")
		conj.AddQuery(q)
	}
	if filters.Type != "" {
		q := bleve.NewTermQuery(string(filters.Type))
		q.SetField("type")
		conj.AddQuery(q)
	}
	if filters.PackageName != "" {
		q := bleve.NewTermQuery(filters.PackageName)
		q.SetField("package_name")
		conj.AddQuery(q)
	}
	if filters.PackageVersion != "" {
		q := bleve.NewTermQuery(filters.PackageVersion)
		q.SetField("package_version")
		conj.AddQuery(q)
	}

	req := bleve.NewSearchRequestOptions(conj, limit, filters.Offset, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Highlight.AddField("content")

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, uerrors.New(uerrors.ErrCodeSearchFailed,
			"fulltext query failed", err)
	}

	hits := make([]*Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		snippet := ""
		if frags, ok := hit.Fragments["content"]; ok && len(frags) > 0 {
			snippet = normalizeHighlight(frags[0])
		}
		hits = append(hits, &Hit{
			DocID:   hit.ID,
			Rank:    -hit.Score,
			Snippet: snippet,
		})
	}
	return hits, nil
}

// Optimize is a no-op: scorch merges segments in the background.
func (b *bleveIndex) Optimize(ctx context.Context) error { return nil }

func (b *bleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

// normalizeHighlight rewrites bleve's <mark> highlight tags to the <b>
// tags all search responses use.
func normalizeHighlight(s string) string {
	s = strings.ReplaceAll(s, "<mark>", "<b>")
	s = strings.ReplaceAll(s, "</mark>", "</b>")
	return s
}

func isBleveCorruption(err error) bool {
	if err == nil {
		return false
	}
	if err == bleve.ErrorIndexMetaCorrupt {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON") ||
		strings.Contains(msg, "error parsing mapping JSON") ||
		strings.Contains(msg, "failed to load segment") ||
		strings.Contains(msg, "error opening bolt")
}
