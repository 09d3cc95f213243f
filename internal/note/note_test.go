package note_test

import (
	"strings"
	"testing"

	"github.com/alkime/pagenotes/internal/note"
	"github.com/stretchr/testify/require"
)

func TestValidateText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "short", content: "remember this", wantErr: nil},
		{name: "exactly max", content: strings.Repeat("a", note.MaxTextLength), wantErr: nil},
		{name: "one over max", content: strings.Repeat("a", note.MaxTextLength+1), wantErr: note.ErrContentTooLong},
		{name: "multibyte at max", content: strings.Repeat("é", note.MaxTextLength), wantErr: nil},
		{name: "blank", content: "  \n\t", wantErr: note.ErrEmptyContent},
		{name: "empty", content: "", wantErr: note.ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := note.ValidateText(tt.content)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDraft_Validate(t *testing.T) {
	t.Parallel()

	valid := note.Draft{Type: note.TypeText, Content: "hi", Page: 1, DocumentID: "doc-1"}

	tests := []struct {
		name    string
		mutate  func(d *note.Draft)
		wantErr error
	}{
		{name: "valid text", mutate: func(*note.Draft) {}, wantErr: nil},
		{name: "valid audio", mutate: func(d *note.Draft) {
			d.Type = note.TypeAudio
			d.Content = "data:audio/webm;base64,AAAA"
		}, wantErr: nil},
		{name: "unknown type", mutate: func(d *note.Draft) { d.Type = "video" }, wantErr: note.ErrInvalidType},
		{name: "zero page", mutate: func(d *note.Draft) { d.Page = 0 }, wantErr: note.ErrInvalidPage},
		{name: "no document", mutate: func(d *note.Draft) { d.DocumentID = " " }, wantErr: note.ErrMissingDocument},
		{name: "empty audio", mutate: func(d *note.Draft) {
			d.Type = note.TypeAudio
			d.Content = ""
		}, wantErr: note.ErrEmptyContent},
		{name: "text too long", mutate: func(d *note.Draft) {
			d.Content = strings.Repeat("x", note.MaxTextLength+1)
		}, wantErr: note.ErrContentTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := valid
			tt.mutate(&d)

			err := d.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNote_ApplyAndEditable(t *testing.T) {
	t.Parallel()

	n := note.Note{ID: "1", Type: note.TypeText, Content: "old", Page: 2}
	patched := n.Apply(note.Patch{Content: "new"})

	require.Equal(t, "new", patched.Content)
	require.Equal(t, "old", n.Content, "apply must not mutate the receiver's copy")
	require.True(t, n.Editable())
	require.False(t, note.Note{Type: note.TypeAudio}.Editable())
}
