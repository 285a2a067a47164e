package htmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sectionedPage = `<html><body>
<h1>Rigidbody overview</h1>
<p>Intro paragraph.</p>
<h2>Mass</h2>
<p>Mass controls inertia.</p>
<h3>Drag</h3>
<p>Drag slows movement.</p>
<h2>Constraints</h2>
<p>Freeze position or rotation.</p>
</body></html>`

func TestExtractSections_DocumentOrderAndIDs(t *testing.T) {
	// Given: a page with nested heading levels
	sections, err := ExtractSections(sectionedPage)

	// Then: sections appear in document order with zero-based ids
	require.NoError(t, err)
	require.Len(t, sections, 4)
	assert.Equal(t, "section-0", sections[0].ID)
	assert.Equal(t, "Rigidbody overview", sections[0].Title)
	assert.Equal(t, 1, sections[0].Level)
	assert.Equal(t, "section-2", sections[2].ID)
	assert.Equal(t, "Drag", sections[2].Title)
	assert.Equal(t, 3, sections[2].Level)
}

func TestExtractSections_ContentEndsAtNextHeading(t *testing.T) {
	// Given: the sectioned page
	sections, err := ExtractSections(sectionedPage)
	require.NoError(t, err)

	// Then: each section holds only its own text
	assert.Equal(t, "Intro paragraph.", sections[0].Content)
	assert.Equal(t, "Mass controls inertia.", sections[1].Content)
	assert.Equal(t, "Drag slows movement.", sections[2].Content)
	assert.Equal(t, "Freeze position or rotation.", sections[3].Content)
}

func TestExtractSections_HeadingInsideDivStillTerminates(t *testing.T) {
	// Given: a heading nested in a wrapper element
	raw := `<html><body>
		<h2>First</h2><p>alpha</p>
		<div><h2>Second</h2></div><p>beta</p>
	</body></html>`

	// When: extracting
	sections, err := ExtractSections(raw)

	// Then: the nested heading ends the first section's content
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "alpha", sections[0].Content)
	assert.Equal(t, "beta", sections[1].Content)
}

func TestExtractSections_NoHeadingsIsEmpty(t *testing.T) {
	sections, err := ExtractSections(`<html><body><p>plain text</p></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestExtractSections_TextBeforeFirstHeadingIsDropped(t *testing.T) {
	// Given: preamble text before any heading
	raw := `<html><body><p>preamble</p><h1>Start</h1><p>body</p></body></html>`
	sections, err := ExtractSections(raw)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.NotContains(t, sections[0].Content, "preamble")
	assert.Equal(t, "body", sections[0].Content)
}

func TestFindSection_ResolvesKnownID(t *testing.T) {
	sections, err := ExtractSections(sectionedPage)
	require.NoError(t, err)

	got := FindSection(sections, "section-1")
	require.NotNil(t, got)
	assert.Equal(t, "Mass", got.Title)

	assert.Nil(t, FindSection(sections, "section-99"))
}
