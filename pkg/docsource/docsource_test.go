package docsource_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/tier0/pkg/docsource"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_TextAndYearExtraction(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "annual_report_2024.txt", "Safety statistics for the year.")
	writeFile(t, dir, "notes.md", "# Operations\nDrilling procedures.")

	src, err := docsource.NewDirSource(docsource.DirSourceConfig{Path: dir}, nil)
	require.NoError(t, err)

	docs, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// Filename order is stable.
	assert.Equal(t, "annual_report_2024", docs[0].ID)
	assert.Equal(t, "annual_report_2024.txt", docs[0].Filename)
	assert.Equal(t, 2024, docs[0].Year)
	assert.Equal(t, 0, docs[1].Year)
}

func TestLoad_HTMLIsStripped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.html",
		`<html><head><script>var x=1;</script></head><body><h1>Spill report</h1><p>14 barrels recovered.</p></body></html>`)

	src, err := docsource.NewDirSource(docsource.DirSourceConfig{Path: dir}, nil)
	require.NoError(t, err)

	docs, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Contains(t, docs[0].Text, "Spill report")
	assert.Contains(t, docs[0].Text, "14 barrels recovered.")
	assert.NotContains(t, docs[0].Text, "var x=1;")
}

func TestLoad_SkipsEmptyAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.txt", "   \n  ")
	writeFile(t, dir, "binary.pdf", "%PDF-1.4")

	src, err := docsource.NewDirSource(docsource.DirSourceConfig{Path: dir}, nil)
	require.NoError(t, err)

	docs, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}
