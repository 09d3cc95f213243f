// Package repository provides backing note services: an in-memory one for
// tests and demos, and a YAML file store the HTTP server persists to.
package repository

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/alkime/pagenotes/internal/note"
	"github.com/google/uuid"
)

// ErrNotFound is returned for an unknown note id.
var ErrNotFound = errors.New("note not found")

// record is a stored note plus its insertion sequence, which breaks
// CreatedAt ties so listing stays newest first.
type record struct {
	note.Note `yaml:",inline"`
	Seq       uint64 `yaml:"seq"`
}

// fromDraft stamps a draft with an id and creation time.
func fromDraft(d note.Draft, now time.Time, seq uint64) record {
	return record{
		Note: note.Note{
			ID:         uuid.NewString(),
			Type:       d.Type,
			Content:    d.Content,
			Page:       d.Page,
			DocumentID: d.DocumentID,
			CreatedAt:  now.UTC(),
		},
		Seq: seq,
	}
}

// checkPatch rejects edits of audio notes and invalid text.
func checkPatch(n note.Note, p note.Patch) error {
	if !n.Editable() {
		return fmt.Errorf("note %s: %w", n.ID, note.ErrNotEditable)
	}

	if err := note.ValidateText(p.Content); err != nil {
		return fmt.Errorf("note %s: %w", n.ID, err)
	}

	return nil
}

// newestFirst orders records by creation time, then insertion, descending.
func newestFirst(records []record) []note.Note {
	slices.SortFunc(records, func(a, b record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(b.Seq, a.Seq)
	})

	out := make([]note.Note, len(records))
	for i, r := range records {
		out[i] = r.Note
	}

	return out
}
