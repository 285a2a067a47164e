package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidocs/unidocs/internal/config"
	uerrors "github.com/unidocs/unidocs/internal/errors"
	"github.com/unidocs/unidocs/internal/fetch"
	"github.com/unidocs/unidocs/internal/indexer"
	"github.com/unidocs/unidocs/internal/search"
	"github.com/unidocs/unidocs/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	dataDir := t.TempDir()

	cfg := config.NewConfig()
	cfg.Paths.DataDir = dataDir

	st, err := store.Open(context.Background(), cfg.DatabasePath(),
		store.Options{Backend: "fts5"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	engine := search.NewEngine(st, cfg.Search.MaxResults, nil)
	fetcher := fetch.New(5*time.Second, nil)
	ix := indexer.New(st, dataDir, nil)

	srv, err := NewServer(cfg, st, engine, fetcher, ix, nil)
	require.NoError(t, err)
	return srv, st
}

func seedServerCorpus(t *testing.T, st *store.Store) {
	t.Helper()
	rigidbodyMarkup := `<html><head><title>Rigidbody overview</title></head><body>
<h1>Rigidbody overview</h1><p>A Rigidbody gives a GameObject physics behaviour.</p>
<h2>Mass</h2><p>Mass controls inertia.</p>
</body></html>`
	docs := []*store.Document{
		{
			ID: "id-rb", Version: "6000.1", Type: store.DocTypeManual,
			Title:     "Rigidbody overview",
			Content:   "A Rigidbody gives a GameObject physics behaviour. Mass controls inertia.",
			RawMarkup: rigidbodyMarkup,
			FilePath:  "Manual/RigidbodiesOverview.html",
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
	ctx := context.Background()
	require.NoError(t, st.UpsertDocuments(ctx, docs))
	require.NoError(t, st.SetMeta(ctx, store.MetaKeyCurrentVersion, "6000.1"))
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestHandleSearch_ReturnsRankedMarkdown(t *testing.T) {
	// Given: a server over a seeded corpus
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	// When: searching
	result, _, err := srv.handleSearch(context.Background(), nil,
		SearchInput{Query: "rigidbody physics"})

	// Then: the response lists matches with path and score
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Rigidbody overview")
	assert.Contains(t, text, "Manual/RigidbodiesOverview.html")
	assert.Contains(t, text, "Score:")
}

func TestHandleSearch_NoResultsText(t *testing.T) {
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	result, _, err := srv.handleSearch(context.Background(), nil,
		SearchInput{Query: "quaternion slerp nonsense"})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No results found")
}

func TestHandleSearch_EmptyQueryIsInvalidParams(t *testing.T) {
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	_, _, err := srv.handleSearch(context.Background(), nil, SearchInput{})
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestHandleSearch_UnknownTypeIsErrorText(t *testing.T) {
	// Given: a server
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	// When: passing a bogus type filter
	result, _, err := srv.handleSearch(context.Background(), nil,
		SearchInput{Query: "rigidbody", Type: "tutorial"})

	// Then: the error renders as text, not as a protocol fault
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Error: unknown type")
	assert.Contains(t, text, "script-reference")
}

func TestHandleSearch_ScriptReferenceFilter(t *testing.T) {
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	result, _, err := srv.handleSearch(context.Background(), nil,
		SearchInput{Query: "rigidbody", Type: "script-reference"})
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Rigidbody.AddForce")
	assert.NotContains(t, text, "Manual/RigidbodiesOverview.html")
}

func TestHandleRead_PaginatesContent(t *testing.T) {
	// Given: a seeded corpus
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	// When: reading a small window
	result, _, err := srv.handleRead(context.Background(), nil,
		ReadDocInput{Path: "Manual/RigidbodiesOverview.html", Offset: 0, Limit: 20})

	// Then: the page shows pagination metadata and a continue hint
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "# Rigidbody overview")
	assert.Contains(t, text, "Showing characters 0-20")
	assert.Contains(t, text, "offset=20")
}

func TestHandleRead_OffsetPastEndClampsMetadata(t *testing.T) {
	// Given: a seeded corpus
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	// When: reading far past the document's end
	result, _, err := srv.handleRead(context.Background(), nil,
		ReadDocInput{Path: "Manual/Joints.html", Offset: 100000, Limit: 20})

	// Then: the shown range clamps to the document length
	require.NoError(t, err)
	text := resultText(t, result)
	doc, err := st.GetDocumentByPath(context.Background(), "Manual/Joints.html", "6000.1")
	require.NoError(t, err)
	total := len(doc.Content)
	assert.Contains(t, text, fmt.Sprintf("Showing characters %d-%d of %d.", total, total, total))
	assert.NotContains(t, text, "100000")
}

func TestHandleRead_FallsBackToOtherVersionAndSaysSo(t *testing.T) {
	// Given: a page that exists only under an older release
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)
	require.NoError(t, st.UpsertDocuments(context.Background(), []*store.Document{{
		ID: "id-legacy", Version: "2022.3", Type: store.DocTypeManual,
		Title:    "Legacy shaders",
		Content:  "Shader pipeline before the render graph.",
		FilePath: "Manual/LegacyShaders.html",
	}}))

	// When: reading it while the current version is newer
	result, _, err := srv.handleRead(context.Background(), nil,
		ReadDocInput{Path: "Manual/LegacyShaders.html"})

	// Then: the fallback resolves and the header names the served version
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Legacy shaders")
	assert.Contains(t, text, "Version: 2022.3")
}

func TestHandleRead_UnknownPathIsNotFoundText(t *testing.T) {
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	result, _, err := srv.handleRead(context.Background(), nil,
		ReadDocInput{Path: "Manual/Nope.html"})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Document not found")
}

func TestHandleListSections_ListsHeadings(t *testing.T) {
	// Given: a page with sections in its raw markup
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	// When: listing
	result, _, err := srv.handleListSections(context.Background(), nil,
		SectionsInput{Path: "Manual/RigidbodiesOverview.html"})

	// Then: section ids and titles appear
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "section-0")
	assert.Contains(t, text, "section-1")
	assert.Contains(t, text, "Mass")
}

func TestHandleReadSection_ReturnsSectionContent(t *testing.T) {
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	result, _, err := srv.handleReadSection(context.Background(), nil,
		ReadSectionInput{Path: "Manual/RigidbodiesOverview.html", SectionID: "section-1"})
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Mass controls inertia.")
}

func TestHandleReadSection_UnknownIDListsValidOnes(t *testing.T) {
	// Given: a sectioned page
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	// When: requesting a bogus section id
	result, _, err := srv.handleReadSection(context.Background(), nil,
		ReadSectionInput{Path: "Manual/RigidbodiesOverview.html", SectionID: "section-99"})

	// Then: the error text names the valid ids
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "section-99")
	assert.Contains(t, text, "Valid section ids")
	assert.Contains(t, text, "section-0")
}

func TestHandleVersionInfo_ReportsCorpus(t *testing.T) {
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	result, _, err := srv.handleVersionInfo(context.Background(), nil, VersionInfoInput{})
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Version: 6000.1")
	assert.Contains(t, text, "3 total")
	assert.Contains(t, text, "manual")
}

func TestHandleFindSimilar_ReturnsRelatedPages(t *testing.T) {
	srv, st := newTestServer(t)
	seedServerCorpus(t, st)

	result, _, err := srv.handleFindSimilar(context.Background(), nil,
		FindSimilarInput{Path: "Manual/RigidbodiesOverview.html"})
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Rigidbody joints")
	assert.NotContains(t, text, "RigidbodiesOverview.html`\n") // source excluded from list body
}

func TestClampLimit_Bounds(t *testing.T) {
	assert.Equal(t, 10, clampLimit(0, 10, 50))
	assert.Equal(t, 10, clampLimit(-3, 10, 50))
	assert.Equal(t, 25, clampLimit(25, 10, 50))
	assert.Equal(t, 50, clampLimit(500, 10, 50))
}

func TestErrorText_IncludesSuggestion(t *testing.T) {
	err := uerrors.New(uerrors.ErrCodeFileNotFound, "no documentation indexed", nil).
		WithSuggestion("run the fetch command first")
	assert.Equal(t, "Error: no documentation indexed. run the fetch command first.",
		errorText(err))
}

func TestMapError_Categories(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidParams,
		MapError(uerrors.ValidationError("bad input", nil)).Code)
	assert.Equal(t, ErrCodeDownloadFailed,
		MapError(uerrors.NetworkError("download failed", nil)).Code)
	assert.Equal(t, ErrCodeCorpusNotIndexed,
		MapError(uerrors.New(uerrors.ErrCodeCorruptIndex, "corrupt", nil)).Code)
	assert.Equal(t, ErrCodeInternalError,
		MapError(assertAnError()).Code)
	assert.Nil(t, MapError(nil))
}

func assertAnError() error {
	return uerrors.InternalError("boom", nil)
}

func TestNewServer_RequiresStoreAndEngine(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Paths.DataDir = filepath.Join(t.TempDir())

	_, err := NewServer(cfg, nil, nil, nil, nil, nil)
	require.Error(t, err)
}
