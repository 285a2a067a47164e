package mcp

import (
	"fmt"
	"strings"

	"github.com/unidocs/unidocs/internal/fetch"
	"github.com/unidocs/unidocs/internal/htmldoc"
	"github.com/unidocs/unidocs/internal/reader"
	"github.com/unidocs/unidocs/internal/search"
	"github.com/unidocs/unidocs/internal/store"
)

// clampLimit bounds a client-supplied limit into [1, max], applying def
// when the client sent nothing.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func formatSearchResults(query string, results []*search.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Search results for %q\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. **%s** (%s)\n", i+1, r.Title, r.Type)
		fmt.Fprintf(&sb, "   Path: `%s`\n", r.FilePath)
		if r.PackageName != "" {
			fmt.Fprintf(&sb, "   Package: %s@%s\n", r.PackageName, r.PackageVersion)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		}
		fmt.Fprintf(&sb, "   Score: %.4f\n\n", r.Score)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatDocPage(doc *store.Document, page reader.PageResult) string {
	// The window actually served may differ from the requested offset
	// (negative, past-the-end, and mid-rune offsets are clamped), so the
	// shown range is derived from the page itself.
	start := page.NextOffset - len(page.Text)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", doc.Title)
	fmt.Fprintf(&sb, "Path: `%s` | Type: %s | Version: %s\n\n",
		doc.FilePath, doc.Type, doc.Version)
	sb.WriteString(page.Text)
	sb.WriteString("\n\n---\n")
	fmt.Fprintf(&sb, "Showing characters %d-%d of %d.",
		start, page.NextOffset, page.TotalLength)
	if page.HasMore {
		fmt.Fprintf(&sb, " More content available: pass offset=%d to continue.",
			page.NextOffset)
	}
	return sb.String()
}

func formatSections(doc *store.Document, sections []htmldoc.Section) string {
	if len(sections) == 0 {
		return fmt.Sprintf("No sections found in `%s`.", doc.FilePath)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Sections of %s\n\n", doc.Title)
	for _, s := range sections {
		indent := strings.Repeat("  ", s.Level-1)
		fmt.Fprintf(&sb, "%s- `%s` (h%d) %s — %d chars\n",
			indent, s.ID, s.Level, s.Title, len(s.Content))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatSection(doc *store.Document, section *htmldoc.Section) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s — %s\n\n", doc.Title, section.Title)
	fmt.Fprintf(&sb, "Path: `%s` | Section: %s (h%d)\n\n",
		doc.FilePath, section.ID, section.Level)
	sb.WriteString(section.Content)
	return sb.String()
}

func formatUnknownSection(doc *store.Document, id string, sections []htmldoc.Section) string {
	ids := make([]string, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
	}
	return fmt.Sprintf("Error: section %q not found in `%s`. Valid section ids: %s.",
		id, doc.FilePath, strings.Join(ids, ", "))
}

func formatVersionInfo(stats *store.CorpusStats, meta map[string]string) string {
	var sb strings.Builder
	sb.WriteString("# Unity documentation corpus\n\n")
	fmt.Fprintf(&sb, "Version: %s\n", stats.Version)
	if v := meta[store.MetaKeyReleaseDate]; v != "" {
		fmt.Fprintf(&sb, "Release date: %s\n", v)
	}
	if v := meta[store.MetaKeySourceURL]; v != "" {
		fmt.Fprintf(&sb, "Source: %s\n", v)
	}
	fmt.Fprintf(&sb, "Documents: %d total", stats.TotalCount)
	if stats.TotalCount > 0 {
		parts := make([]string, 0, len(stats.CountsByType))
		for _, typ := range []store.DocType{store.DocTypeManual, store.DocTypeAPI, store.DocTypePackageDocs} {
			if n := stats.CountsByType[typ]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, typ))
			}
		}
		fmt.Fprintf(&sb, " (%s)", strings.Join(parts, ", "))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Database size: %.1f MB\n", float64(stats.SizeBytes)/(1024*1024))
	if !stats.LastUpdatedAt.IsZero() {
		fmt.Fprintf(&sb, "Last updated: %s\n", stats.LastUpdatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatPackages(indexed []*store.PackageInfo, available []*fetch.PackageRef) string {
	var sb strings.Builder
	sb.WriteString("# Unity packages\n\n")

	sb.WriteString("## Indexed\n")
	if len(indexed) == 0 {
		sb.WriteString("No package documentation indexed yet.\n")
	}
	for _, p := range indexed {
		fmt.Fprintf(&sb, "- %s@%s (%d documents)\n", p.Name, p.Version, p.DocumentCount)
	}

	if len(available) > 0 {
		sb.WriteString("\n## Available for download\n")
		for _, p := range available {
			fmt.Fprintf(&sb, "- %s@%s\n", p.Name, p.Version)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatSimilar(source *store.Document, results []*search.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No similar documents found for `%s`.", source.FilePath)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Documents similar to %s\n\n", source.Title)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. **%s** — `%s`\n", i+1, r.Title, r.FilePath)
	}
	return strings.TrimRight(sb.String(), "\n")
}
