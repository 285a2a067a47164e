package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/unidocs/unidocs/internal/config"
	"github.com/unidocs/unidocs/internal/fetch"
	"github.com/unidocs/unidocs/internal/indexer"
	"github.com/unidocs/unidocs/internal/search"
	"github.com/unidocs/unidocs/internal/store"
	"github.com/unidocs/unidocs/pkg/version"
)

// Server bridges MCP clients with the documentation store and search
// engine over stdio.
type Server struct {
	mcp     *mcp.Server
	cfg     *config.Config
	store   *store.Store
	engine  *search.Engine
	fetcher *fetch.Fetcher
	indexer *indexer.Indexer
	logger  *slog.Logger
}

// NewServer creates the MCP server and registers the documentation tools.
func NewServer(cfg *config.Config, st *store.Store, engine *search.Engine, fetcher *fetch.Fetcher, ix *indexer.Indexer, logger *slog.Logger) (*Server, error) {
	if st == nil {
		return nil, errors.New("document store is required")
	}
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		store:   st,
		engine:  engine,
		fetcher: fetcher,
		indexer: ix,
		logger:  logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "unidocs",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()

	return s, nil
}

// registerTools wires every documentation tool into the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_unity_docs",
		Description: "Search the offline Unity documentation. Returns ranked matches with title, path, highlighted snippet, and relevance score. Filter by type: all, manual, script-reference, or package-docs.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "read_unity_doc",
		Description: "Read a documentation page by its path (as returned by search_unity_docs). Long pages are paginated; pass offset to continue reading.",
	}, s.handleRead)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_unity_doc_sections",
		Description: "List the heading-delimited sections of a documentation page with their ids, levels, and sizes. Use read_unity_doc_section to read one.",
	}, s.handleListSections)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "read_unity_doc_section",
		Description: "Read a single section of a documentation page by section id (from list_unity_doc_sections).",
	}, s.handleReadSection)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_unity_version_info",
		Description: "Report the indexed Unity documentation version, document counts by type, database size, and last update time.",
	}, s.handleVersionInfo)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_unity_packages",
		Description: "List indexed Unity package documentation and packages available for download.",
	}, s.handleListPackages)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "download_unity_package_docs",
		Description: "Download and index the documentation of a Unity package by name, e.g. com.unity.burst.",
	}, s.handleDownloadPackage)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_similar_unity_docs",
		Description: "Find documentation pages related to a given page, matched on title words within the same version and type.",
	}, s.handleFindSimilar)

	s.logger.Info("MCP tools registered", slog.Int("count", 8))
}

// Serve runs the server over the configured transport until the context
// ends or the client disconnects. Only stdio is supported; stdout carries
// JSON-RPC frames, so nothing else may write to it while serving.
func (s *Server) Serve(ctx context.Context) error {
	if s.cfg.Server.Transport != "stdio" {
		return fmt.Errorf("unsupported transport: %s", s.cfg.Server.Transport)
	}

	s.logger.Info("MCP server starting",
		slog.String("transport", "stdio"),
		slog.String("version", version.Version))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}

// logRequest records one tool invocation.
func (s *Server) logRequest(tool string, start time.Time, attrs ...slog.Attr) {
	base := []slog.Attr{
		slog.String("tool", tool),
		slog.Duration("duration", time.Since(start)),
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug,
		"tool call completed", append(base, attrs...)...)
}

// textResult wraps markdown text as a tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
