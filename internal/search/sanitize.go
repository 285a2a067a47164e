// Package search sanitizes queries and runs ranked fulltext searches over
// the document store.
package search

import "strings"

// fts5Specials are stripped outright before the character allowlist runs.
// Each of these carries operator meaning inside an FTS5 MATCH expression.
var fts5Specials = []string{".", "(", ")", "*", "?", "{", "}", "[", "]"}

// Sanitize normalizes a raw user query into a safe match string.
//
// Steps, in order: strip FTS5 operator characters, replace everything
// outside [A-Za-z0-9 _-] with a space, collapse runs of whitespace, trim.
// The function is idempotent. An empty result means the query had no
// searchable content and the engine short-circuits without touching
// storage.
func Sanitize(query string) string {
	for _, ch := range fts5Specials {
		query = strings.ReplaceAll(query, ch, "")
	}

	var sb strings.Builder
	sb.Grow(len(query))
	for _, r := range query {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == ' ', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}
