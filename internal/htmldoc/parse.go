// Package htmldoc parses documentation pages: title and plain-text content
// for indexing, heading-based sections for structured reading.
package htmldoc

import (
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	uerrors "github.com/unidocs/unidocs/internal/errors"
	"github.com/unidocs/unidocs/internal/store"
)

// ParsedDoc is the indexable extraction of one HTML page.
type ParsedDoc struct {
	Title   string
	Content string
}

// skippedElements contribute no readable text.
var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Head:     true,
	atom.Svg:      true,
	atom.Iframe:   true,
}

// blockElements get a separating space so adjacent blocks don't run
// together in the extracted text.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Li: true, atom.Tr: true,
	atom.Td: true, atom.Th: true, atom.Blockquote: true, atom.Pre: true,
	atom.Table: true, atom.Section: true, atom.Article: true,
}

// Parse extracts the title and plain-text content of an HTML page.
// fallbackName (usually the file name) supplies the title when the page
// has neither a usable <title> nor an <h1>.
func Parse(rawHTML, fallbackName string) (*ParsedDoc, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, uerrors.New(uerrors.ErrCodeInvalidInput,
			"failed to parse HTML", err)
	}

	title := firstText(root, atom.Title)
	if title == "" {
		title = firstText(root, atom.H1)
	}
	if title == "" {
		title = titleFromFilename(fallbackName)
	}

	var sb strings.Builder
	collectText(root, &sb)
	content := strings.Join(strings.Fields(sb.String()), " ")

	return &ParsedDoc{Title: title, Content: content}, nil
}

// ClassifyPath maps a corpus-relative path to a document type.
// Unity's offline archive keeps API pages under ScriptReference/ and
// everything else under Manual/.
func ClassifyPath(relPath string) store.DocType {
	norm := filepath.ToSlash(relPath)
	for _, part := range strings.Split(norm, "/") {
		if strings.EqualFold(part, "ScriptReference") {
			return store.DocTypeAPI
		}
	}
	return store.DocTypeManual
}

// firstText returns the trimmed text of the first element with the given
// tag, or "".
func firstText(n *html.Node, tag atom.Atom) string {
	if n.Type == html.ElementNode && n.DataAtom == tag {
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collectText(c, &sb)
		}
		return strings.Join(strings.Fields(sb.String()), " ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := firstText(c, tag); t != "" {
			return t
		}
	}
	return ""
}

// collectText appends the readable text under n, skipping non-content
// elements. The html package decodes entities during parsing, so text
// nodes arrive already unescaped.
func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedElements[n.DataAtom] {
			return
		}
		if blockElements[n.DataAtom] {
			sb.WriteByte(' ')
		}
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
	if n.Type == html.ElementNode && blockElements[n.DataAtom] {
		sb.WriteByte(' ')
	}
}

// titleFromFilename turns "RigidbodiesOverview.html" into
// "RigidbodiesOverview" with separators spaced out.
func titleFromFilename(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}
