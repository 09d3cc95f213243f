// Package note defines the page-scoped annotation model shared by the store,
// the add-note flow, the repositories and the HTTP API.
package note

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextLength is the maximum number of characters in a text note.
const MaxTextLength = 1500

// Type is the kind of a note. It never changes after creation.
type Type string

const (
	// TypeText is a typed note whose content is plain UTF-8 text.
	TypeText Type = "text"
	// TypeAudio is a voice memo whose content is a self-contained data URL.
	TypeAudio Type = "audio"
)

// Valid reports whether t is a known note type.
func (t Type) Valid() bool {
	return t == TypeText || t == TypeAudio
}

// Sentinel errors for note validation.
var (
	ErrInvalidType     = errors.New("invalid note type")
	ErrEmptyContent    = errors.New("note content is empty")
	ErrContentTooLong  = fmt.Errorf("note content exceeds %d characters", MaxTextLength)
	ErrInvalidPage     = errors.New("page must be a positive integer")
	ErrMissingDocument = errors.New("document id is required")
	ErrNotEditable     = errors.New("only text notes can be edited")
)

// Note is a persisted annotation attached to one page of a document.
type Note struct {
	ID         string    `json:"id"         yaml:"id"`
	Type       Type      `json:"type"       yaml:"type"`
	Content    string    `json:"content"    yaml:"content"`
	Page       int       `json:"page"       yaml:"page"`
	DocumentID string    `json:"documentId" yaml:"documentId"`
	CreatedAt  time.Time `json:"createdAt"  yaml:"createdAt"`
}

// Editable reports whether the note's content may be patched.
func (n Note) Editable() bool {
	return n.Type == TypeText
}

// Apply returns a copy of n with the patch applied.
func (n Note) Apply(p Patch) Note {
	n.Content = p.Content
	return n
}

// Draft is a note that has not been persisted yet.
type Draft struct {
	Type       Type   `json:"type"`
	Content    string `json:"content"`
	Page       int    `json:"page"`
	DocumentID string `json:"documentId"`
}

// Validate checks the draft before it is sent to a backing service.
func (d Draft) Validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	}

	if d.Page < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, d.Page)
	}

	if strings.TrimSpace(d.DocumentID) == "" {
		return ErrMissingDocument
	}

	if d.Type == TypeText {
		return ValidateText(d.Content)
	}

	if d.Content == "" {
		return ErrEmptyContent
	}

	return nil
}

// Patch is the only mutation a persisted note accepts.
type Patch struct {
	Content string `json:"content"`
}

// ValidateText checks the content of a text note: not blank and at most
// MaxTextLength characters.
func ValidateText(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}

	if n := utf8.RuneCountInString(content); n > MaxTextLength {
		return fmt.Errorf("%w (got %d)", ErrContentTooLong, n)
	}

	return nil
}
