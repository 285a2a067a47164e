package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainPrinter_NoEscapeSequences(t *testing.T) {
	// Given: a plain printer over a buffer
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	// When: printing each line kind
	p.Headerf("Unity Documentation")
	p.Successf("indexed %d documents", 42)
	p.Warnf("skipped %d files", 3)
	p.Errorf("download failed")
	p.Labelf("Version", "%s", "6000.1")
	p.Progressf(100, 900, "parsing")

	// Then: output is plain text with no ANSI escapes
	out := buf.String()
	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "Unity Documentation")
	assert.Contains(t, out, "indexed 42 documents")
	assert.Contains(t, out, "WARN: skipped 3 files")
	assert.Contains(t, out, "ERROR: download failed")
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, "[100/900] parsing")
}

func TestNewPrinter_NonFileWriterIsPlain(t *testing.T) {
	// Given: a non-file writer (never a terminal)
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	// When: printing styled output
	p.Successf("done")

	// Then: no color codes leak into the buffer
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestGetStyles_TogglesOnNoColor(t *testing.T) {
	colored := GetStyles(false)
	plain := GetStyles(true)
	assert.NotEqual(t, colored.Header.Render("x"), "")
	assert.Equal(t, "x", plain.Header.Render("x"))
}
