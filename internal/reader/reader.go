// Package reader paginates document content by byte offset so large
// pages can be read in bounded chunks. Page boundaries are aligned to
// UTF-8 rune starts, so no page ever splits a multi-byte character.
package reader

import "unicode/utf8"

// DefaultLimit is the page size used when a caller passes limit <= 0.
const DefaultLimit = 2000

// PageResult is one window into a document's content.
type PageResult struct {
	// Text is the content slice [offset, offset+limit), clamped to the
	// document bounds and aligned to rune boundaries.
	Text string

	// TotalLength is the full content length in bytes.
	TotalLength int

	// HasMore reports whether content remains past this page.
	HasMore bool

	// NextOffset is the offset just past this page, i.e. where the
	// following page starts when HasMore is true.
	NextOffset int
}

// Page slices content at a byte offset. Negative offsets clamp to the
// start; offsets past the end yield an empty page. An offset landing
// inside a multi-byte rune shifts back to the rune's start, and a page
// runs over the limit by up to three bytes to complete its final rune.
// Concatenating consecutive pages reconstructs the content exactly.
func Page(content string, offset, limit int) PageResult {
	total := len(content)

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := offset
	if start > total {
		start = total
	}
	for start > 0 && start < total && !utf8.RuneStart(content[start]) {
		start--
	}

	end := start + limit
	if end > total {
		end = total
	}
	for end < total && !utf8.RuneStart(content[end]) {
		end++
	}

	return PageResult{
		Text:        content[start:end],
		TotalLength: total,
		HasMore:     end < total,
		NextOffset:  end,
	}
}
