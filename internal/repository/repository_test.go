package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alkime/pagenotes/internal/note"
	"github.com/alkime/pagenotes/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type service interface {
	List(ctx context.Context, documentID string) ([]note.Note, error)
	Create(ctx context.Context, draft note.Draft) (note.Note, error)
	Update(ctx context.Context, id string, patch note.Patch) error
	Delete(ctx context.Context, id string) error
}

func implementations(t *testing.T) map[string]service {
	t.Helper()

	file, err := repository.OpenFile(t.TempDir(), nil)
	require.NoError(t, err)

	return map[string]service{
		"memory": repository.NewMemory(),
		"file":   file,
	}
}

func textDraft(doc string, page int, content string) note.Draft {
	return note.Draft{Type: note.TypeText, Content: content, Page: page, DocumentID: doc}
}

func TestRepository_Contract(t *testing.T) {
	t.Parallel()

	for name, svc := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := t.Context()

			a, err := svc.Create(ctx, textDraft("doc-1", 1, "first"))
			require.NoError(t, err)
			assert.NotEmpty(t, a.ID)
			assert.False(t, a.CreatedAt.IsZero())

			b, err := svc.Create(ctx, note.Draft{
				Type: note.TypeAudio, Content: "data:audio/ogg;base64,AA==", Page: 2, DocumentID: "doc-1",
			})
			require.NoError(t, err)

			_, err = svc.Create(ctx, textDraft("doc-2", 1, "elsewhere"))
			require.NoError(t, err)

			listed, err := svc.List(ctx, "doc-1")
			require.NoError(t, err)
			require.Len(t, listed, 2)
			assert.Equal(t, []string{b.ID, a.ID}, []string{listed[0].ID, listed[1].ID}, "newest first")

			require.NoError(t, svc.Update(ctx, a.ID, note.Patch{Content: "edited"}))
			require.ErrorIs(t, svc.Update(ctx, b.ID, note.Patch{Content: "nope"}), note.ErrNotEditable)
			require.ErrorIs(t, svc.Update(ctx, a.ID, note.Patch{Content: strings.Repeat("x", 1501)}), note.ErrContentTooLong)
			require.ErrorIs(t, svc.Update(ctx, "missing", note.Patch{Content: "x"}), repository.ErrNotFound)

			listed, err = svc.List(ctx, "doc-1")
			require.NoError(t, err)
			assert.Equal(t, "edited", listed[1].Content)

			require.NoError(t, svc.Delete(ctx, b.ID))
			require.ErrorIs(t, svc.Delete(ctx, b.ID), repository.ErrNotFound)

			listed, err = svc.List(ctx, "doc-1")
			require.NoError(t, err)
			require.Len(t, listed, 1)
			assert.Equal(t, a.ID, listed[0].ID)

			empty, err := svc.List(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestRepository_RejectsInvalidDrafts(t *testing.T) {
	t.Parallel()

	for name, svc := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Create(t.Context(), textDraft("doc", 1, strings.Repeat("é", 1501)))
			require.ErrorIs(t, err, note.ErrContentTooLong)

			_, err = svc.Create(t.Context(), textDraft("doc", 0, "hi"))
			require.ErrorIs(t, err, note.ErrInvalidPage)

			_, err = svc.Create(t.Context(), note.Draft{Type: "video", Content: "x", Page: 1, DocumentID: "doc"})
			require.ErrorIs(t, err, note.ErrInvalidType)
		})
	}
}

func TestFile_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	first, err := repository.OpenFile(dir, nil)
	require.NoError(t, err)

	older, err := first.Create(t.Context(), textDraft("doc", 3, "kept"))
	require.NoError(t, err)

	second, err := repository.OpenFile(dir, nil)
	require.NoError(t, err)

	newer, err := second.Create(t.Context(), textDraft("doc", 3, "added later"))
	require.NoError(t, err)

	listed, err := second.List(t.Context(), "doc")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, newer.ID, listed[0].ID)
	assert.Equal(t, older.ID, listed[1].ID)
	assert.Equal(t, "kept", listed[1].Content)
	assert.True(t, older.CreatedAt.Equal(listed[1].CreatedAt))

	_, err = os.Stat(filepath.Join(dir, older.ID+".yaml"))
	require.NoError(t, err)
}

func TestFile_SkipsStrayFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("{not yaml"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o600))

	repo, err := repository.OpenFile(dir, nil)
	require.NoError(t, err)

	listed, err := repo.List(t.Context(), "doc")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestFile_RejectsPathLikeIDs(t *testing.T) {
	t.Parallel()

	repo, err := repository.OpenFile(t.TempDir(), nil)
	require.NoError(t, err)

	for _, id := range []string{"../escape", ".hidden", "a/b", ""} {
		require.ErrorIs(t, repo.Delete(t.Context(), id), repository.ErrNotFound, id)
	}
}
