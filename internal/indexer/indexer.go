// Package indexer walks an extracted documentation tree and loads it into
// the document store as one scope replacement.
package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	uerrors "github.com/unidocs/unidocs/internal/errors"
	"github.com/unidocs/unidocs/internal/htmldoc"
	"github.com/unidocs/unidocs/internal/store"
)

// progressEvery is how many parsed files pass between progress callbacks.
const progressEvery = 100

// Progress reports indexing progress: files parsed so far and, when
// known, the total file count.
type Progress struct {
	Parsed int
	Total  int
}

// Result summarizes one indexing run.
type Result struct {
	Scope    store.Scope
	Indexed  int
	Failed   int
	Duration time.Duration
}

// Indexer builds a document corpus from an HTML tree on disk.
type Indexer struct {
	store      *store.Store
	dataDir    string
	logger     *slog.Logger
	onProgress func(Progress)
}

// New creates an indexer writing into the given store. dataDir hosts the
// cross-process lock file.
func New(s *store.Store, dataDir string, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: s, dataDir: dataDir, logger: logger}
}

// OnProgress registers a callback invoked every hundred parsed files and
// once at completion.
func (ix *Indexer) OnProgress(fn func(Progress)) {
	ix.onProgress = fn
}

// Run indexes every .html file under root into the given scope. The scope's
// previous corpus is replaced in one transaction, so a re-run over the same
// tree yields the same document count with no duplicates.
//
// Individual files that fail to parse are logged, counted, and skipped.
// A failing post-run index optimize aborts with an error, since a
// half-merged index would degrade every later query.
func (ix *Indexer) Run(ctx context.Context, root string, scope store.Scope) (*Result, error) {
	lock := newRunLock(ix.dataDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, uerrors.New(uerrors.ErrCodeIndexFailed,
			"failed to acquire index lock", err)
	}
	if !acquired {
		return nil, uerrors.New(uerrors.ErrCodeIndexFailed,
			"another indexing run is in progress", nil).
			WithSuggestion("wait for the running index command to finish")
	}
	defer func() { _ = lock.Unlock() }()

	start := time.Now()

	paths, err := collectHTMLFiles(root)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, uerrors.New(uerrors.ErrCodeFileNotFound,
			fmt.Sprintf("no .html files under %s", root), nil).
			WithSuggestion("run the fetch command first to download documentation")
	}

	ix.logger.Info("indexing started",
		slog.String("root", root),
		slog.String("scope", scope.Key()),
		slog.Int("files", len(paths)))

	docs := make([]*store.Document, 0, len(paths))
	failed := 0
	for i, relPath := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := ix.parseFile(root, relPath, scope)
		if err != nil {
			failed++
			ix.logger.Warn("skipping unparseable file",
				slog.String("path", relPath),
				slog.String("error", err.Error()))
			continue
		}
		docs = append(docs, doc)

		if ix.onProgress != nil && (i+1)%progressEvery == 0 {
			ix.onProgress(Progress{Parsed: i + 1, Total: len(paths)})
		}
	}
	if ix.onProgress != nil {
		ix.onProgress(Progress{Parsed: len(paths), Total: len(paths)})
	}

	if err := ix.store.ReplaceScope(ctx, scope, docs); err != nil {
		return nil, err
	}

	if err := ix.store.Index().Optimize(ctx); err != nil {
		return nil, err
	}

	if err := ix.recordRun(ctx, scope); err != nil {
		return nil, err
	}

	result := &Result{
		Scope:    scope,
		Indexed:  len(docs),
		Failed:   failed,
		Duration: time.Since(start),
	}
	ix.logger.Info("indexing finished",
		slog.String("scope", scope.Key()),
		slog.Int("indexed", result.Indexed),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// parseFile reads and parses one page into a Document.
func (ix *Indexer) parseFile(root, relPath string, scope store.Scope) (*store.Document, error) {
	raw, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		return nil, err
	}

	parsed, err := htmldoc.Parse(string(raw), relPath)
	if err != nil {
		return nil, err
	}

	docType := htmldoc.ClassifyPath(relPath)
	version := scope.Version
	if scope.IsPackage() {
		docType = store.DocTypePackageDocs
		version = scope.PackageVersion
	}

	return &store.Document{
		ID:             store.DocumentID(scope.Key(), relPath),
		Version:        version,
		Type:           docType,
		Title:          parsed.Title,
		Content:        parsed.Content,
		RawMarkup:      string(raw),
		FilePath:       relPath,
		PackageName:    scope.PackageName,
		PackageVersion: scope.PackageVersion,
	}, nil
}

// recordRun stamps the run in corpus metadata.
func (ix *Indexer) recordRun(ctx context.Context, scope store.Scope) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := ix.store.SetMeta(ctx, store.MetaKeyLastIndex, now); err != nil {
		return err
	}
	if !scope.IsPackage() {
		return ix.store.SetMeta(ctx, store.MetaKeyCurrentVersion, scope.Version)
	}
	return nil
}

// collectHTMLFiles walks root and returns sorted corpus-relative paths of
// all .html files.
func collectHTMLFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, uerrors.New(uerrors.ErrCodeFileNotFound,
				fmt.Sprintf("documentation root %s does not exist", root), err).
				WithSuggestion("run the fetch command first to download documentation")
		}
		return nil, uerrors.New(uerrors.ErrCodeIndexFailed,
			"failed to walk documentation tree", err)
	}
	return paths, nil
}
