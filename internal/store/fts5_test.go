package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPhysicsCorpus(t *testing.T, s *Store) {
	t.Helper()
	docs := []*Document{
		testDoc("id-rb", "6000.1", DocTypeManual, "Rigidbody overview",
			"A Rigidbody component gives a GameObject physics behaviour. "+
				"Rigidbody forces, Rigidbody mass, and Rigidbody drag are configured here.",
			"Manual/RigidbodiesOverview.html"),
		testDoc("id-joints", "6000.1", DocTypeManual, "Joints",
			"Joints attach a Rigidbody to another Rigidbody or a fixed point.",
			"Manual/Joints.html"),
		testDoc("id-api", "6000.1", DocTypeAPI, "Rigidbody.AddForce",
			"Adds a force to the Rigidbody.",
			"ScriptReference/Rigidbody.AddForce.html"),
		testDoc("id-old", "2022.3", DocTypeManual, "Rigidbody overview",
			"Legacy Rigidbody physics page.",
			"Manual/RigidbodiesOverview.html"),
	}
	require.NoError(t, s.UpsertDocuments(context.Background(), docs))
}

func TestFTS5Search_RanksByRelevance(t *testing.T) {
	// Given: a corpus where one page mentions the term far more often
	s := newTestStore(t, "fts5")
	seedPhysicsCorpus(t, s)

	// When: searching within one version
	hits, err := s.Index().Search(context.Background(), "rigidbody",
		Filters{Version: "6000.1", Limit: 10})

	// Then: ranks are negative, ascending order is best-first, and the
	// term-dense page wins
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(hits), 2)
	assert.Equal(t, "id-rb", hits[0].DocID)
	for i, hit := range hits {
		assert.Negative(t, hit.Rank)
		if i > 0 {
			assert.LessOrEqual(t, hits[i-1].Rank, hit.Rank)
		}
	}
}

func TestFTS5Search_SnippetHighlightsMatch(t *testing.T) {
	// Given: an indexed corpus
	s := newTestStore(t, "fts5")
	seedPhysicsCorpus(t, s)

	// When: searching
	hits, err := s.Index().Search(context.Background(), "joints",
		Filters{Version: "6000.1", Limit: 10})

	// Then: the snippet wraps matches in <b> tags
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Contains(t, hits[0].Snippet, "<b>")
	assert.Contains(t, hits[0].Snippet, "</b>")
}

func TestFTS5Search_VersionFilterIsScoped(t *testing.T) {
	// Given: the same page under two versions
	s := newTestStore(t, "fts5")
	seedPhysicsCorpus(t, s)

	// When: searching the old version
	hits, err := s.Index().Search(context.Background(), "rigidbody",
		Filters{Version: "2022.3", Limit: 10})

	// Then: only the old version's page matches
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "id-old", hits[0].DocID)
}

func TestFTS5Search_TypeFilter(t *testing.T) {
	s := newTestStore(t, "fts5")
	seedPhysicsCorpus(t, s)

	hits, err := s.Index().Search(context.Background(), "rigidbody",
		Filters{Version: "6000.1", Type: DocTypeAPI, Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "id-api", hits[0].DocID)
}

func TestFTS5Search_EmptyMatchShortCircuits(t *testing.T) {
	// Given: an indexed corpus
	s := newTestStore(t, "fts5")
	seedPhysicsCorpus(t, s)

	// When: searching with an empty match string
	hits, err := s.Index().Search(context.Background(), "   ",
		Filters{Version: "6000.1", Limit: 10})

	// Then: no error and no hits
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFTS5Search_DeletedDocumentsDisappear(t *testing.T) {
	// Given: an indexed corpus
	s := newTestStore(t, "fts5")
	seedPhysicsCorpus(t, s)
	ctx := context.Background()

	// When: deleting a version
	_, err := s.DeleteByVersion(ctx, "6000.1")
	require.NoError(t, err)

	// Then: its pages no longer match
	hits, err := s.Index().Search(ctx, "rigidbody",
		Filters{Version: "6000.1", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFTS5Search_PaginationOffset(t *testing.T) {
	// Given: a corpus with several matches
	s := newTestStore(t, "fts5")
	seedPhysicsCorpus(t, s)
	ctx := context.Background()

	// When: fetching page one and page two
	page1, err := s.Index().Search(ctx, "rigidbody",
		Filters{Version: "6000.1", Limit: 2, Offset: 0})
	require.NoError(t, err)
	page2, err := s.Index().Search(ctx, "rigidbody",
		Filters{Version: "6000.1", Limit: 2, Offset: 2})
	require.NoError(t, err)

	// Then: pages do not overlap
	require.NotEmpty(t, page1)
	for _, h2 := range page2 {
		for _, h1 := range page1 {
			assert.NotEqual(t, h1.DocID, h2.DocID)
		}
	}
}

func TestFTS5Optimize_Succeeds(t *testing.T) {
	s := newTestStore(t, "fts5")
	seedPhysicsCorpus(t, s)
	assert.NoError(t, s.Index().Optimize(context.Background()))
}
