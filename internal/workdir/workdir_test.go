package workdir_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alkime/pagenotes/internal/workdir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	root, err := workdir.Root()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Documents", "Alkime", "PageNotes"), root)

	notesDir, err := workdir.NotesDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "notes"), notesDir)

	exportPath, err := workdir.ExportPath("../doc-1", "memo.webm")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "exports", "doc-1", "memo.webm"), exportPath)

	require.NoError(t, workdir.Prep(exportPath))
	info, err := os.Stat(filepath.Dir(exportPath))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
