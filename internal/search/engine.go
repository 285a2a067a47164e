package search

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/unidocs/unidocs/internal/store"
)

// Options narrows a search call.
type Options struct {
	Version        string
	Type           store.DocType // empty means all types
	PackageName    string
	PackageVersion string
	Limit          int
	Offset         int
}

// Result is one ranked search result with the document metadata a client
// needs to render and follow up on the hit.
type Result struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Type           string  `json:"type"`
	FilePath       string  `json:"file_path"`
	URL            string  `json:"url,omitempty"`
	PackageName    string  `json:"package_name,omitempty"`
	PackageVersion string  `json:"package_version,omitempty"`
	Snippet        string  `json:"snippet"`
	Score          float64 `json:"score"`
}

// Engine runs sanitized fulltext queries and hydrates hits from the store.
type Engine struct {
	store      *store.Store
	maxResults int
	logger     *slog.Logger
}

// NewEngine creates a search engine over an open store. maxResults caps a
// single call's result count.
func NewEngine(s *store.Store, maxResults int, logger *slog.Logger) *Engine {
	if maxResults <= 0 {
		maxResults = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: s, maxResults: maxResults, logger: logger}
}

// Search sanitizes the query and returns ranked results. A query that
// sanitizes to nothing returns the empty slice without touching storage.
// Storage faults propagate to the caller.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]*Result, error) {
	match := Sanitize(query)
	if match == "" {
		return []*Result{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > e.maxResults {
		limit = e.maxResults
	}

	hits, err := e.store.Index().Search(ctx, match, store.Filters{
		Version:        opts.Version,
		Type:           opts.Type,
		PackageName:    opts.PackageName,
		PackageVersion: opts.PackageVersion,
		Limit:          limit,
		Offset:         opts.Offset,
	})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []*Result{}, nil
	}

	ids := make([]string, len(hits))
	snippets := make(map[string]string, len(hits))
	scores := make(map[string]float64, len(hits))
	for i, hit := range hits {
		ids[i] = hit.DocID
		snippets[hit.DocID] = hit.Snippet
		scores[hit.DocID] = math.Abs(hit.Rank)
	}

	docs, err := e.store.GetDocuments(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(docs))
	for _, doc := range docs {
		results = append(results, &Result{
			ID:             doc.ID,
			Title:          doc.Title,
			Type:           string(doc.Type),
			FilePath:       doc.FilePath,
			URL:            doc.URL,
			PackageName:    doc.PackageName,
			PackageVersion: doc.PackageVersion,
			Snippet:        snippets[doc.ID],
			Score:          scores[doc.ID],
		})
	}

	e.logger.Debug("search completed",
		slog.String("match", match),
		slog.Int("results", len(results)))
	return results, nil
}

// FindSimilar returns documents related to the given one, found by
// re-running a fulltext search for the first few long words of its title
// within the same version and type. The source document is excluded from
// the results. Lookup problems degrade to an empty list rather than
// failing the caller.
func (e *Engine) FindSimilar(ctx context.Context, docID string, limit int) []*Result {
	if limit <= 0 {
		limit = 5
	}

	doc, err := e.store.GetDocument(ctx, docID)
	if err != nil || doc == nil {
		return []*Result{}
	}

	tokens := titleTokens(doc.Title)
	if len(tokens) == 0 {
		return []*Result{}
	}

	// One extra slot absorbs the source document matching its own title.
	hits, err := e.Search(ctx, strings.Join(tokens, " "), Options{
		Version: doc.Version,
		Type:    doc.Type,
		Limit:   limit + 1,
	})
	if err != nil {
		e.logger.Debug("similarity search failed",
			slog.String("doc_id", docID),
			slog.String("error", err.Error()))
		return []*Result{}
	}

	results := make([]*Result, 0, limit)
	for _, hit := range hits {
		if hit.ID == doc.ID {
			continue
		}
		results = append(results, hit)
		if len(results) == limit {
			break
		}
	}
	return results
}

// titleTokens picks at most the first three words longer than three
// characters. Short words are too common in documentation titles to
// discriminate anything.
func titleTokens(title string) []string {
	var tokens []string
	for _, word := range strings.Fields(title) {
		if len(word) > 3 {
			tokens = append(tokens, word)
			if len(tokens) == 3 {
				break
			}
		}
	}
	return tokens
}
