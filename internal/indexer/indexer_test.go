package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidocs/unidocs/internal/store"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func page(title, body string) string {
	return `<html><head><title>` + title + `</title></head><body><p>` + body + `</p></body></html>`
}

func newTestIndexer(t *testing.T) (*Indexer, *store.Store) {
	t.Helper()
	dataDir := t.TempDir()
	s, err := store.Open(context.Background(),
		filepath.Join(dataDir, "docs.db"), store.Options{Backend: "fts5"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s, dataDir, nil), s
}

func TestRun_IndexesTreeWithTypesFromPath(t *testing.T) {
	// Given: a documentation tree with manual and API pages
	root := writeTree(t, map[string]string{
		"Manual/RigidbodiesOverview.html":        page("Rigidbody overview", "Physics for GameObjects."),
		"Manual/Joints.html":                     page("Joints", "Attach rigidbodies together."),
		"ScriptReference/Rigidbody.AddForce.html": page("Rigidbody.AddForce", "Adds a force."),
		"Manual/notes.txt":                       "not html, ignored",
	})
	ix, s := newTestIndexer(t)

	// When: indexing
	result, err := ix.Run(context.Background(), root, store.Scope{Version: "6000.1"})

	// Then: all .html files are indexed with path-derived types
	require.NoError(t, err)
	assert.Equal(t, 3, result.Indexed)
	assert.Zero(t, result.Failed)

	stats, err := s.Stats(context.Background(), "6000.1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CountsByType[store.DocTypeManual])
	assert.Equal(t, 1, stats.CountsByType[store.DocTypeAPI])

	doc, err := s.GetDocumentByPath(context.Background(),
		"ScriptReference/Rigidbody.AddForce.html", "6000.1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, store.DocTypeAPI, doc.Type)
	assert.NotEmpty(t, doc.RawMarkup)
}

func TestRun_RerunIsIdempotent(t *testing.T) {
	// Given: an already indexed tree
	root := writeTree(t, map[string]string{
		"Manual/One.html": page("One", "first page"),
		"Manual/Two.html": page("Two", "second page"),
	})
	ix, s := newTestIndexer(t)
	ctx := context.Background()
	_, err := ix.Run(ctx, root, store.Scope{Version: "6000.1"})
	require.NoError(t, err)

	// When: running again over the same tree
	result, err := ix.Run(ctx, root, store.Scope{Version: "6000.1"})

	// Then: same count, no duplicates
	require.NoError(t, err)
	assert.Equal(t, 2, result.Indexed)
	stats, err := s.Stats(ctx, "6000.1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCount)
}

func TestRun_RemovedFilesDisappearOnReindex(t *testing.T) {
	// Given: an indexed tree
	root := writeTree(t, map[string]string{
		"Manual/Keep.html": page("Keep", "kept page"),
		"Manual/Gone.html": page("Gone", "removed page"),
	})
	ix, s := newTestIndexer(t)
	ctx := context.Background()
	_, err := ix.Run(ctx, root, store.Scope{Version: "6000.1"})
	require.NoError(t, err)

	// When: a file vanishes and the tree is re-indexed
	require.NoError(t, os.Remove(filepath.Join(root, "Manual", "Gone.html")))
	result, err := ix.Run(ctx, root, store.Scope{Version: "6000.1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)

	// Then: the removed page is gone from the store
	doc, err := s.GetDocumentByPath(ctx, "Manual/Gone.html", "6000.1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestRun_PackageScopeSetsPackageFields(t *testing.T) {
	// Given: a package documentation tree
	root := writeTree(t, map[string]string{
		"index.html": page("Burst User Guide", "Compile with Burst."),
	})
	ix, s := newTestIndexer(t)
	scope := store.Scope{PackageName: "com.unity.burst", PackageVersion: "1.8.9"}

	// When: indexing under the package scope
	result, err := ix.Run(context.Background(), root, scope)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)

	// Then: documents carry package metadata and the package-docs type
	pkgs, err := s.ListPackages(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "com.unity.burst", pkgs[0].Name)
	assert.Equal(t, "1.8.9", pkgs[0].Version)
}

func TestRun_MissingRootFails(t *testing.T) {
	ix, _ := newTestIndexer(t)
	_, err := ix.Run(context.Background(),
		filepath.Join(t.TempDir(), "absent"), store.Scope{Version: "6000.1"})
	require.Error(t, err)
}

func TestRun_EmptyTreeFails(t *testing.T) {
	ix, _ := newTestIndexer(t)
	_, err := ix.Run(context.Background(), t.TempDir(), store.Scope{Version: "6000.1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .html files")
}

func TestRun_ProgressCallbackFires(t *testing.T) {
	// Given: a small tree and a registered callback
	root := writeTree(t, map[string]string{
		"Manual/A.html": page("A", "a"),
		"Manual/B.html": page("B", "b"),
	})
	ix, _ := newTestIndexer(t)
	var events []Progress
	ix.OnProgress(func(p Progress) { events = append(events, p) })

	// When: indexing
	_, err := ix.Run(context.Background(), root, store.Scope{Version: "6000.1"})

	// Then: at least the completion event fired with the full total
	require.NoError(t, err)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, 2, last.Parsed)
	assert.Equal(t, 2, last.Total)
}
