package htmldoc

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	uerrors "github.com/unidocs/unidocs/internal/errors"
)

// Section is one heading-delimited region of a page.
type Section struct {
	// ID is "section-<n>", zero-based in document order. IDs are stable
	// for a given markup, so clients can list sections once and read
	// them individually afterwards.
	ID      string
	Title   string
	Level   int // heading level 1..6
	Content string
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3,
	atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// ExtractSections splits raw markup into heading-delimited sections.
// Headings h1 through h6 are collected in document order; a section's
// content is the text between its heading and the next heading of any
// level, regardless of DOM nesting. Markup without headings yields an
// empty slice.
func ExtractSections(rawMarkup string) ([]Section, error) {
	root, err := html.Parse(strings.NewReader(rawMarkup))
	if err != nil {
		return nil, uerrors.New(uerrors.ErrCodeInvalidInput,
			"failed to parse HTML", err)
	}

	sections := collectHeadings(root)
	if len(sections) == 0 {
		return []Section{}, nil
	}

	builders := make([]strings.Builder, len(sections))
	idx := -1

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, ok := headingLevels[n.DataAtom]; ok {
				// The heading's own text belongs to its title, not to
				// any section's content.
				idx++
				return
			}
			if skippedElements[n.DataAtom] {
				return
			}
			if blockElements[n.DataAtom] && idx >= 0 {
				builders[idx].WriteByte(' ')
			}
		}
		if n.Type == html.TextNode && idx >= 0 {
			builders[idx].WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.DataAtom] && idx >= 0 {
			builders[idx].WriteByte(' ')
		}
	}
	walk(root)

	for i := range sections {
		sections[i].Content = strings.Join(strings.Fields(builders[i].String()), " ")
	}
	return sections, nil
}

// collectHeadings gathers h1..h6 titles and levels in document order.
func collectHeadings(root *html.Node) []Section {
	var sections []Section

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level, ok := headingLevels[n.DataAtom]; ok {
				var title strings.Builder
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					collectText(c, &title)
				}
				sections = append(sections, Section{
					ID:    fmt.Sprintf("section-%d", len(sections)),
					Title: strings.Join(strings.Fields(title.String()), " "),
					Level: level,
				})
				return
			}
			if skippedElements[n.DataAtom] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return sections
}

// FindSection resolves a section ID against extracted sections.
// Returns nil when the ID is unknown.
func FindSection(sections []Section, id string) *Section {
	for i := range sections {
		if sections[i].ID == id {
			return &sections[i]
		}
	}
	return nil
}
