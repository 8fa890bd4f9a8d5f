package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Aman-CERP/booksearch/internal/errors"
	"github.com/Aman-CERP/booksearch/internal/index"
	"github.com/Aman-CERP/booksearch/internal/store"
	"github.com/Aman-CERP/booksearch/internal/ui"
)

func TestIndexCmd_BuildsIndex(t *testing.T) {
	// Given: a three-row catalog
	dir := t.TempDir()
	t.Chdir(dir)
	source := writeCatalog(t, dir, 3)

	// When: indexing with plain output
	out, err := execute(t, "index", source, "--no-tui")

	// Then: every row is indexed into the configured default path
	require.NoError(t, err)
	assert.Contains(t, out, "Complete: 3 documents indexed from 3 rows")
	assert.DirExists(t, filepath.Join(dir, "index"))

	reader, err := store.OpenReader(filepath.Join(dir, "index"))
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()
	count, err := reader.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestIndexCmd_Background(t *testing.T) {
	// Given: a catalog and an explicit index path
	dir := t.TempDir()
	t.Chdir(dir)
	source := writeCatalog(t, dir, 50)
	indexPath := filepath.Join(dir, "books-index")

	// When: building in background mode
	out, err := execute(t, "index", source, "--index", indexPath, "--background", "--no-tui")

	// Then: the build completes and removes its marker
	require.NoError(t, err)
	assert.Contains(t, out, "Complete: 50 documents indexed from 50 rows")
	assert.NoFileExists(t, index.MarkerPath(indexPath))
}

func TestIndexCmd_MergePolicyFlag(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	source := writeCatalog(t, dir, 2)

	_, err := execute(t, "index", source, "--merge-policy", "default", "--no-tui")
	require.NoError(t, err)

	_, err = execute(t, "index", source, "--merge-policy", "sometimes", "--no-tui")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown merge policy")
}

func TestIndexCmd_MissingSource(t *testing.T) {
	// Given: no catalog file
	dir := t.TempDir()
	t.Chdir(dir)

	// When: indexing it
	_, err := execute(t, "index", filepath.Join(dir, "missing.csv"), "--no-tui")

	// Then: the error is a source error and no index is created
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeFileNotFound, apperrors.GetCode(err))
	assert.NoDirExists(t, filepath.Join(dir, "index"))
}

func TestIndexCmd_RequiresSource(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "index")

	assert.Error(t, err)
}

func TestIndexCmd_CountsBadRows(t *testing.T) {
	// Given: a catalog with one row that has a non-numeric year
	dir := t.TempDir()
	t.Chdir(dir)
	source := filepath.Join(dir, "books.csv")
	require.NoError(t, os.WriteFile(source, []byte(
		"1,Dune,Herbert,Chilton,epub,100,en,1965,412,9780441013593,bafy1\n"+
			"2,Bad,Row,,pdf,100,en,nineteen,10,,bafy2\n"),
		0o644))

	// When: indexing it
	out, err := execute(t, "index", source, "--no-tui")

	// Then: the build succeeds and reports the skipped row
	require.NoError(t, err)
	assert.Contains(t, out, "Complete: 1 documents indexed from 2 rows")
	assert.Contains(t, out, "1 decode errors")
}

func TestInfoCmd(t *testing.T) {
	// Given: an index built from three rows
	dir := t.TempDir()
	t.Chdir(dir)
	source := writeCatalog(t, dir, 3)
	_, err := execute(t, "index", source, "--no-tui")
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "info")

		require.NoError(t, err)
		assert.Contains(t, out, "Documents:     3")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "info", "--json")
		require.NoError(t, err)

		var info ui.IndexInfo
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Equal(t, uint64(3), info.Documents)
		assert.Greater(t, info.SizeBytes, int64(0))
	})

	t.Run("document", func(t *testing.T) {
		out, err := execute(t, "info", "--doc", "2")
		require.NoError(t, err)

		var doc store.Document
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		assert.Equal(t, "Title 2", doc.Title)
		assert.True(t, doc.PublisherExist)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := execute(t, "info", "--doc", "99")

		assert.Error(t, err)
	})
}

func TestInfoCmd_WarnsOnIncompleteBuild(t *testing.T) {
	// Given: an index with a marker left by an interrupted background build
	dir := t.TempDir()
	t.Chdir(dir)
	source := writeCatalog(t, dir, 1)
	_, err := execute(t, "index", source, "--no-tui")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(index.MarkerPath("index"), []byte("x"), 0o644))

	// When: reading info
	out, err := execute(t, "info")

	// Then: a warning precedes the report
	require.NoError(t, err)
	assert.Contains(t, out, "did not finish")
}

func TestInfoCmd_MissingIndex(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "info", "--index", "nowhere")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeFileNotFound, apperrors.GetCode(err))
}
