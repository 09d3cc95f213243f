package notes_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alkime/pagenotes/internal/note"
	"github.com/alkime/pagenotes/internal/notes"
	"github.com/alkime/pagenotes/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend unavailable")

// flakyService fails every call once fail is set.
type flakyService struct {
	*repository.Memory
	fail  bool
	calls int
}

func (f *flakyService) List(ctx context.Context, doc string) ([]note.Note, error) {
	f.calls++
	if f.fail {
		return nil, errBackend
	}
	return f.Memory.List(ctx, doc)
}

func (f *flakyService) Create(ctx context.Context, d note.Draft) (note.Note, error) {
	f.calls++
	if f.fail {
		return note.Note{}, errBackend
	}
	return f.Memory.Create(ctx, d)
}

func (f *flakyService) Update(ctx context.Context, id string, p note.Patch) error {
	f.calls++
	if f.fail {
		return errBackend
	}
	return f.Memory.Update(ctx, id, p)
}

func (f *flakyService) Delete(ctx context.Context, id string) error {
	f.calls++
	if f.fail {
		return errBackend
	}
	return f.Memory.Delete(ctx, id)
}

func newStore(t *testing.T) (*notes.Store, *flakyService) {
	t.Helper()

	svc := &flakyService{Memory: repository.NewMemory()}
	store := notes.NewStore(svc, nil)
	require.NoError(t, store.Load(t.Context(), "doc"))

	return store, svc
}

func text(page int, content string) note.Draft {
	return note.Draft{Type: note.TypeText, Content: content, Page: page}
}

func TestStore_FilteredViewScenario(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	ctx := t.Context()

	audio, err := store.Create(ctx, note.Draft{Type: note.TypeAudio, Content: "data:audio/ogg;base64,AA==", Page: 2})
	require.NoError(t, err)
	txt, err := store.Create(ctx, text(1, "on page one"))
	require.NoError(t, err)

	onPage1 := store.FilteredView(1, notes.CurrentPageOnly)
	require.Len(t, onPage1, 1)
	assert.Equal(t, txt.ID, onPage1[0].ID)
	assert.Equal(t, note.TypeText, onPage1[0].Type)

	all := store.FilteredView(99, notes.AllPages)
	assert.Equal(t, []string{txt.ID, audio.ID}, []string{all[0].ID, all[1].ID})
	assert.Equal(t, 2, store.Count(1, notes.AllPages))
	assert.Equal(t, 1, store.Count(1, notes.CurrentPageOnly))
	assert.Equal(t, 0, store.Count(3, notes.CurrentPageOnly))
}

func TestStore_FilterNeverMutatesItems(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	for i, page := range []int{1, 2, 1, 3, 2, 1} {
		_, err := store.Create(t.Context(), text(page, strings.Repeat("n", i+1)))
		require.NoError(t, err)
	}

	before := store.Items()
	mode := notes.CurrentPageOnly
	for range 5 {
		mode = mode.Toggle()
		_ = store.FilteredView(1, mode)
	}
	assert.Equal(t, before, store.Items())

	// The filtered view is exactly the matching subset in store order.
	var want []string
	for _, n := range before {
		if n.Page == 1 {
			want = append(want, n.ID)
		}
	}
	var got []string
	for _, n := range store.FilteredView(1, notes.CurrentPageOnly) {
		got = append(got, n.ID)
	}
	assert.Equal(t, want, got)
}

func TestStore_CreateValidatesBeforePersisting(t *testing.T) {
	t.Parallel()

	store, svc := newStore(t)
	calls := svc.calls

	created, err := store.Create(t.Context(), text(1, strings.Repeat("a", note.MaxTextLength)))
	require.NoError(t, err)
	assert.Equal(t, "doc", created.DocumentID)

	_, err = store.Create(t.Context(), text(1, strings.Repeat("a", note.MaxTextLength+1)))
	require.ErrorIs(t, err, note.ErrContentTooLong)

	assert.Equal(t, calls+1, svc.calls, "rejected draft must not reach the service")
	assert.Len(t, store.Items(), 1)
}

func TestStore_PersistenceFailuresLeaveItemsUnchanged(t *testing.T) {
	t.Parallel()

	store, svc := newStore(t)
	kept, err := store.Create(t.Context(), text(1, "kept"))
	require.NoError(t, err)

	svc.fail = true

	_, err = store.Create(t.Context(), text(1, "lost"))
	require.ErrorIs(t, err, notes.ErrPersistence)
	require.ErrorIs(t, err, errBackend)

	require.ErrorIs(t, store.Update(t.Context(), kept.ID, note.Patch{Content: "changed"}), notes.ErrPersistence)
	require.ErrorIs(t, store.Delete(t.Context(), kept.ID), notes.ErrPersistence)
	require.ErrorIs(t, store.Load(t.Context(), "other"), notes.ErrPersistence)

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "kept", items[0].Content)
	assert.Equal(t, "doc", store.DocumentID())
}

func TestStore_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	first, err := store.Create(t.Context(), text(1, "one"))
	require.NoError(t, err)
	second, err := store.Create(t.Context(), text(2, "two"))
	require.NoError(t, err)

	require.NoError(t, store.Update(t.Context(), first.ID, note.Patch{Content: "uno"}))
	got, ok := store.Get(first.ID)
	require.True(t, ok)
	assert.Equal(t, "uno", got.Content)

	require.NoError(t, store.Delete(t.Context(), second.ID))
	_, ok = store.Get(second.ID)
	assert.False(t, ok)
	assert.Len(t, store.Items(), 1)
}

func TestStore_UpdateOfAudioNoteIsLeftToTheService(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	memo, err := store.Create(t.Context(), note.Draft{Type: note.TypeAudio, Content: "data:audio/ogg;base64,AA==", Page: 1})
	require.NoError(t, err)

	err = store.Update(t.Context(), memo.ID, note.Patch{Content: "text"})
	require.ErrorIs(t, err, notes.ErrPersistence)
	require.ErrorIs(t, err, note.ErrNotEditable)

	got, _ := store.Get(memo.ID)
	assert.Equal(t, memo.Content, got.Content)
}

func TestStore_LoadReplaces(t *testing.T) {
	t.Parallel()

	svc := repository.NewMemory()
	_, err := svc.Create(t.Context(), note.Draft{Type: note.TypeText, Content: "a", Page: 1, DocumentID: "a"})
	require.NoError(t, err)
	_, err = svc.Create(t.Context(), note.Draft{Type: note.TypeText, Content: "b", Page: 1, DocumentID: "b"})
	require.NoError(t, err)

	store := notes.NewStore(svc, nil)
	require.NoError(t, store.Load(t.Context(), "a"))
	require.Len(t, store.Items(), 1)

	require.NoError(t, store.Load(t.Context(), "b"))
	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Content)
}

func TestFilterMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, notes.AllPages, notes.CurrentPageOnly.Toggle())
	assert.Equal(t, notes.CurrentPageOnly, notes.AllPages.Toggle())
	assert.Equal(t, "current page", notes.CurrentPageOnly.String())
	assert.Equal(t, "all pages", notes.AllPages.String())
}
