package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidocs/unidocs/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(context.Background(),
		filepath.Join(t.TempDir(), "docs.db"),
		store.Options{Backend: "fts5"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewEngine(s, 50, nil), s
}

func seedEngineCorpus(t *testing.T, s *store.Store) {
	t.Helper()
	docs := []*store.Document{
		{
			ID: "id-rb", Version: "6000.1", Type: store.DocTypeManual,
			Title:    "Rigidbody overview",
			Content:  "A Rigidbody gives a GameObject physics behaviour. Rigidbody mass and Rigidbody drag live here.",
			FilePath: "Manual/RigidbodiesOverview.html",
		},
		{
			ID: "id-joints", Version: "6000.1", Type: store.DocTypeManual,
			Title:    "Rigidbody joints",
			Content:  "Joints attach a Rigidbody to another body.",
			FilePath: "Manual/Joints.html",
		},
		{
			ID: "id-api", Version: "6000.1", Type: store.DocTypeAPI,
			Title:    "Rigidbody.AddForce",
			Content:  "Adds a force to the Rigidbody.",
			FilePath: "ScriptReference/Rigidbody.AddForce.html",
		},
	}
	require.NoError(t, s.UpsertDocuments(context.Background(), docs))
}

func TestEngineSearch_ReturnsHydratedResults(t *testing.T) {
	// Given: an indexed corpus
	e, s := newTestEngine(t)
	seedEngineCorpus(t, s)

	// When: searching
	results, err := e.Search(context.Background(), "rigidbody physics",
		Options{Version: "6000.1"})

	// Then: results carry metadata, snippet, and a non-negative score
	require.NoError(t, err)
	require.NotEmpty(t, results)
	top := results[0]
	assert.Equal(t, "id-rb", top.ID)
	assert.Equal(t, "Rigidbody overview", top.Title)
	assert.Equal(t, "Manual/RigidbodiesOverview.html", top.FilePath)
	assert.Contains(t, top.Snippet, "<b>")
	assert.GreaterOrEqual(t, top.Score, 0.0)
}

func TestEngineSearch_EmptySanitizedQueryShortCircuits(t *testing.T) {
	// Given: an indexed corpus
	e, s := newTestEngine(t)
	seedEngineCorpus(t, s)

	// When: the query sanitizes to nothing
	results, err := e.Search(context.Background(), "()[]*?.",
		Options{Version: "6000.1"})

	// Then: empty slice, no error
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngineSearch_PunctuatedAPIQueryStillMatches(t *testing.T) {
	// Given: an API reference page
	e, s := newTestEngine(t)
	seedEngineCorpus(t, s)

	// When: querying with C# style punctuation
	results, err := e.Search(context.Background(), "Rigidbody.AddForce()",
		Options{Version: "6000.1", Type: store.DocTypeAPI})

	// Then: sanitization keeps the searchable words
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "id-api", results[0].ID)
}

func TestEngineSearch_ClampsLimitToMax(t *testing.T) {
	// Given: an engine capped at 2 results
	_, s := newTestEngine(t)
	seedEngineCorpus(t, s)
	e := NewEngine(s, 2, nil)

	// When: asking for more than the cap
	results, err := e.Search(context.Background(), "rigidbody",
		Options{Version: "6000.1", Limit: 100})

	// Then: the cap wins
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)
}

func TestFindSimilar_MatchesOnTitleWords(t *testing.T) {
	// Given: manual pages sharing a long title word
	e, s := newTestEngine(t)
	seedEngineCorpus(t, s)

	// When: asking for documents similar to the overview page
	similar := e.FindSimilar(context.Background(), "id-rb", 5)

	// Then: the same-type page with a shared title word is found,
	// the source document is not
	require.NotEmpty(t, similar)
	for _, r := range similar {
		assert.NotEqual(t, "id-rb", r.ID)
		assert.Equal(t, string(store.DocTypeManual), r.Type)
	}
}

func TestFindSimilar_MatchesOnContentToo(t *testing.T) {
	// Given: a page whose content, but not title, carries the source
	// document's title words
	e, s := newTestEngine(t)
	require.NoError(t, s.UpsertDocuments(context.Background(), []*store.Document{
		{
			ID: "id-rb", Version: "6000.1", Type: store.DocTypeManual,
			Title:    "Rigidbody overview",
			Content:  "A Rigidbody gives a GameObject physics behaviour.",
			FilePath: "Manual/RigidbodiesOverview.html",
		},
		{
			ID: "id-practices", Version: "6000.1", Type: store.DocTypeManual,
			Title:    "Physics best practices",
			Content:  "Keep Rigidbody overview pages in mind: a kinematic Rigidbody never sleeps.",
			FilePath: "Manual/PhysicsBestPractices.html",
		},
	}))

	// When: asking for similar documents
	similar := e.FindSimilar(context.Background(), "id-rb", 5)

	// Then: the fulltext match on content is found and the source excluded
	require.Len(t, similar, 1)
	assert.Equal(t, "id-practices", similar[0].ID)
}

func TestFindSimilar_RespectsLimit(t *testing.T) {
	// Given: many related pages
	e, s := newTestEngine(t)
	docs := make([]*store.Document, 0, 6)
	for _, suffix := range []string{"a", "b", "c", "d", "e", "f"} {
		docs = append(docs, &store.Document{
			ID: "id-" + suffix, Version: "6000.1", Type: store.DocTypeManual,
			Title:    "Rigidbody notes " + suffix,
			Content:  "Notes about Rigidbody behaviour.",
			FilePath: "Manual/Notes-" + suffix + ".html",
		})
	}
	require.NoError(t, s.UpsertDocuments(context.Background(), docs))

	// When: capping the result count
	similar := e.FindSimilar(context.Background(), "id-a", 2)

	// Then: at most the cap comes back, source excluded
	require.Len(t, similar, 2)
	for _, r := range similar {
		assert.NotEqual(t, "id-a", r.ID)
	}
}

func TestFindSimilar_UnknownDocumentIsEmpty(t *testing.T) {
	e, s := newTestEngine(t)
	seedEngineCorpus(t, s)

	similar := e.FindSimilar(context.Background(), "no-such-id", 5)
	assert.Empty(t, similar)
}

func TestTitleTokens_FirstThreeLongWords(t *testing.T) {
	assert.Equal(t, []string{"Creating", "destroying", "GameObjects"},
		titleTokens("Creating and destroying GameObjects at run time"))
	assert.Empty(t, titleTokens("a an the"))
}
