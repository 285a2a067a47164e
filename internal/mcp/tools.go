package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/unidocs/unidocs/internal/fetch"
	"github.com/unidocs/unidocs/internal/htmldoc"
	"github.com/unidocs/unidocs/internal/reader"
	"github.com/unidocs/unidocs/internal/search"
	"github.com/unidocs/unidocs/internal/store"
)

// SearchInput is the input schema of search_unity_docs.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query, e.g. 'rigidbody physics' or 'Rigidbody.AddForce'"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Type  string `json:"type,omitempty" jsonschema:"filter by documentation type: all, manual, script-reference, package-docs"`
}

// ReadDocInput is the input schema of read_unity_doc.
type ReadDocInput struct {
	Path   string `json:"path" jsonschema:"documentation page path, e.g. Manual/RigidbodiesOverview.html"`
	Offset int    `json:"offset,omitempty" jsonschema:"character offset to start reading from, default 0"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum characters to return, default 2000"`
}

// SectionsInput is the input schema of list_unity_doc_sections.
type SectionsInput struct {
	Path string `json:"path" jsonschema:"documentation page path"`
}

// ReadSectionInput is the input schema of read_unity_doc_section.
type ReadSectionInput struct {
	Path      string `json:"path" jsonschema:"documentation page path"`
	SectionID string `json:"section_id" jsonschema:"section id from list_unity_doc_sections, e.g. section-2"`
}

// VersionInfoInput is the (empty) input schema of get_unity_version_info.
type VersionInfoInput struct{}

// ListPackagesInput is the (empty) input schema of list_unity_packages.
type ListPackagesInput struct{}

// DownloadPackageInput is the input schema of download_unity_package_docs.
type DownloadPackageInput struct {
	PackageName string `json:"package_name" jsonschema:"package identifier, e.g. com.unity.burst"`
}

// FindSimilarInput is the input schema of find_similar_unity_docs.
type FindSimilarInput struct {
	Path  string `json:"path" jsonschema:"documentation page path to find related pages for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of related pages, default 5"`
}

// typeFilter maps the tool-facing type names onto stored document types.
func typeFilter(t string) (store.DocType, bool) {
	switch t {
	case "", "all":
		return "", true
	case "manual":
		return store.DocTypeManual, true
	case "script-reference":
		return store.DocTypeAPI, true
	case "package-docs":
		return store.DocTypePackageDocs, true
	}
	return "", false
}

// currentVersion resolves the served documentation version: the last
// indexed version when known, the configured default otherwise.
func (s *Server) currentVersion(ctx context.Context) string {
	if v, err := s.store.GetMeta(ctx, store.MetaKeyCurrentVersion); err == nil && v != "" {
		return v
	}
	return s.cfg.Unity.DefaultVersion
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if input.Query == "" {
		return nil, nil, NewInvalidParamsError("query parameter is required")
	}
	docType, ok := typeFilter(input.Type)
	if !ok {
		return textResult(fmt.Sprintf(
			"Error: unknown type %q. Valid types: all, manual, script-reference, package-docs.",
			input.Type)), nil, nil
	}

	results, err := s.engine.Search(ctx, input.Query, search.Options{
		Version: s.currentVersion(ctx),
		Type:    docType,
		Limit:   clampLimit(input.Limit, 10, s.cfg.Search.MaxResults),
	})
	if err != nil {
		return textResult(errorText(err)), nil, nil
	}

	s.logRequest("search_unity_docs", start,
		slog.String("query", input.Query),
		slog.Int("results", len(results)))
	return textResult(formatSearchResults(input.Query, results)), nil, nil
}

func (s *Server) handleRead(ctx context.Context, _ *mcp.CallToolRequest, input ReadDocInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if input.Path == "" {
		return nil, nil, NewInvalidParamsError("path parameter is required")
	}

	// Lookup prefers the current version but falls back to the path's
	// newest match under any version; the page header names the version
	// actually served.
	doc, err := s.store.GetDocumentByPath(ctx, input.Path, s.currentVersion(ctx))
	if err != nil {
		return textResult(errorText(err)), nil, nil
	}
	if doc == nil {
		return textResult(fmt.Sprintf(
			"Document not found: `%s`. Use search_unity_docs to locate pages.",
			input.Path)), nil, nil
	}

	page := reader.Page(doc.Content, input.Offset, input.Limit)

	s.logRequest("read_unity_doc", start, slog.String("path", input.Path))
	return textResult(formatDocPage(doc, page)), nil, nil
}

func (s *Server) handleListSections(ctx context.Context, _ *mcp.CallToolRequest, input SectionsInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	doc, result := s.resolveDoc(ctx, input.Path)
	if result != nil {
		return result, nil, nil
	}

	sections, err := htmldoc.ExtractSections(doc.RawMarkup)
	if err != nil {
		return textResult(errorText(err)), nil, nil
	}

	s.logRequest("list_unity_doc_sections", start,
		slog.String("path", input.Path),
		slog.Int("sections", len(sections)))
	return textResult(formatSections(doc, sections)), nil, nil
}

func (s *Server) handleReadSection(ctx context.Context, _ *mcp.CallToolRequest, input ReadSectionInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if input.SectionID == "" {
		return nil, nil, NewInvalidParamsError("section_id parameter is required")
	}
	doc, result := s.resolveDoc(ctx, input.Path)
	if result != nil {
		return result, nil, nil
	}

	sections, err := htmldoc.ExtractSections(doc.RawMarkup)
	if err != nil {
		return textResult(errorText(err)), nil, nil
	}
	section := htmldoc.FindSection(sections, input.SectionID)
	if section == nil {
		return textResult(formatUnknownSection(doc, input.SectionID, sections)), nil, nil
	}

	s.logRequest("read_unity_doc_section", start,
		slog.String("path", input.Path),
		slog.String("section", input.SectionID))
	return textResult(formatSection(doc, section)), nil, nil
}

func (s *Server) handleVersionInfo(ctx context.Context, _ *mcp.CallToolRequest, _ VersionInfoInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	stats, err := s.store.Stats(ctx, s.currentVersion(ctx))
	if err != nil {
		return textResult(errorText(err)), nil, nil
	}
	meta, err := s.store.AllMeta(ctx)
	if err != nil {
		return textResult(errorText(err)), nil, nil
	}

	s.logRequest("get_unity_version_info", start)
	return textResult(formatVersionInfo(stats, meta)), nil, nil
}

func (s *Server) handleListPackages(ctx context.Context, _ *mcp.CallToolRequest, _ ListPackagesInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	indexed, err := s.store.ListPackages(ctx)
	if err != nil {
		return textResult(errorText(err)), nil, nil
	}

	// Discovery needs the network; an offline server still lists what is
	// indexed.
	available, err := s.fetcher.DiscoverPackages(ctx, s.cfg.Unity.PackagesURL)
	if err != nil {
		s.logger.Warn("package discovery failed",
			slog.String("error", err.Error()))
		available = nil
	}

	s.logRequest("list_unity_packages", start,
		slog.Int("indexed", len(indexed)),
		slog.Int("available", len(available)))
	return textResult(formatPackages(indexed, available)), nil, nil
}

func (s *Server) handleDownloadPackage(ctx context.Context, _ *mcp.CallToolRequest, input DownloadPackageInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if input.PackageName == "" {
		return nil, nil, NewInvalidParamsError("package_name parameter is required")
	}

	available, err := s.fetcher.DiscoverPackages(ctx, s.cfg.Unity.PackagesURL)
	if err != nil {
		return textResult(errorText(err)), nil, nil
	}
	var ref *fetch.PackageRef
	for _, p := range available {
		if p.Name == input.PackageName {
			ref = p
			break
		}
	}
	if ref == nil {
		return textResult(fmt.Sprintf(
			"Error: package %q not found. Use list_unity_packages to see available packages.",
			input.PackageName)), nil, nil
	}

	dest := filepath.Join(s.cfg.DocsDir(), "packages", ref.Name+"@"+ref.Version)
	pages, err := s.fetcher.DownloadPackageDocs(ctx, ref, dest)
	if err != nil {
		return textResult(errorText(err)), nil, nil
	}

	result, err := s.indexer.Run(ctx, dest, store.Scope{
		PackageName:    ref.Name,
		PackageVersion: ref.Version,
	})
	if err != nil {
		return textResult(errorText(err)), nil, nil
	}

	s.logRequest("download_unity_package_docs", start,
		slog.String("package", ref.Name),
		slog.Int("pages", pages))
	return textResult(fmt.Sprintf(
		"Downloaded and indexed %s@%s: %d documents. Search them with type \"package-docs\".",
		ref.Name, ref.Version, result.Indexed)), nil, nil
}

func (s *Server) handleFindSimilar(ctx context.Context, _ *mcp.CallToolRequest, input FindSimilarInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	doc, result := s.resolveDoc(ctx, input.Path)
	if result != nil {
		return result, nil, nil
	}

	similar := s.engine.FindSimilar(ctx, doc.ID, clampLimit(input.Limit, 5, 20))

	s.logRequest("find_similar_unity_docs", start,
		slog.String("path", input.Path),
		slog.Int("results", len(similar)))
	return textResult(formatSimilar(doc, similar)), nil, nil
}

// resolveDoc looks a document up by path, preferring the current version
// and falling back to the path's newest match under any version. The
// second return value is non-nil when resolution failed and already holds
// the response to send.
func (s *Server) resolveDoc(ctx context.Context, path string) (*store.Document, *mcp.CallToolResult) {
	if path == "" {
		return nil, textResult("Error: path parameter is required.")
	}
	doc, err := s.store.GetDocumentByPath(ctx, path, s.currentVersion(ctx))
	if err != nil {
		return nil, textResult(errorText(err))
	}
	if doc == nil {
		return nil, textResult(fmt.Sprintf(
			"Document not found: `%s`. Use search_unity_docs to locate pages.", path))
	}
	return doc, nil
}
