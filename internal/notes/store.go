// Package notes holds the client-side list of a document's notes, kept
// consistent with a backing service.
package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/alkime/pagenotes/internal/note"
	"github.com/alkime/pagenotes/pkg/collections"
)

// ErrPersistence wraps every failure of the backing service.
var ErrPersistence = errors.New("note persistence failed")

// Service is the backing note service.
type Service interface {
	List(ctx context.Context, documentID string) ([]note.Note, error)
	Create(ctx context.Context, draft note.Draft) (note.Note, error)
	Update(ctx context.Context, id string, patch note.Patch) error
	Delete(ctx context.Context, id string) error
}

// FilterMode selects which notes are visible.
type FilterMode int

const (
	CurrentPageOnly FilterMode = iota
	AllPages
)

func (m FilterMode) String() string {
	if m == AllPages {
		return "all pages"
	}

	return "current page"
}

// Toggle returns the other mode.
func (m FilterMode) Toggle() FilterMode {
	if m == AllPages {
		return CurrentPageOnly
	}

	return AllPages
}

// Store is the ordered, most-recent-first list of one document's notes.
// Every mutation is persisted before the local list changes.
type Store struct {
	svc    Service
	logger *slog.Logger

	mu         sync.RWMutex
	documentID string
	items      []note.Note
}

func NewStore(svc Service, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		svc:    svc,
		logger: logger.With("component", "notes"),
	}
}

// Load replaces the items with the service's list for documentID.
func (s *Store) Load(ctx context.Context, documentID string) error {
	items, err := s.svc.List(ctx, documentID)
	if err != nil {
		return fmt.Errorf("%w: list notes for %q: %w", ErrPersistence, documentID, err)
	}

	s.mu.Lock()
	s.documentID = documentID
	s.items = slices.Clone(items)
	s.mu.Unlock()

	s.logger.Debug("notes loaded", "documentId", documentID, "count", len(items))

	return nil
}

// Create validates and persists the draft, then prepends the stored note.
func (s *Store) Create(ctx context.Context, draft note.Draft) (note.Note, error) {
	if draft.DocumentID == "" {
		draft.DocumentID = s.DocumentID()
	}

	if err := draft.Validate(); err != nil {
		return note.Note{}, fmt.Errorf("invalid draft: %w", err)
	}

	created, err := s.svc.Create(ctx, draft)
	if err != nil {
		return note.Note{}, fmt.Errorf("%w: create note: %w", ErrPersistence, err)
	}

	s.mu.Lock()
	s.items = slices.Insert(s.items, 0, created)
	s.mu.Unlock()

	s.logger.Info("note created", "id", created.ID, "type", created.Type, "page", created.Page)

	return created, nil
}

// Update persists patch for id, then applies it to the local item.
//
// The store does not enforce which notes may be edited. Patching an audio
// note is allowed here and only logged; callers own that restriction.
func (s *Store) Update(ctx context.Context, id string, patch note.Patch) error {
	if existing, ok := s.Get(id); ok && !existing.Editable() {
		s.logger.Warn("patching a non-text note", "id", id, "type", existing.Type)
	}

	if err := s.svc.Update(ctx, id, patch); err != nil {
		return fmt.Errorf("%w: update note %s: %w", ErrPersistence, id, err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items[i] = s.items[i].Apply(patch)
	}
	s.mu.Unlock()

	return nil
}

// Delete persists the removal of id, then drops it locally.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: delete note %s: %w", ErrPersistence, id, err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	s.mu.Unlock()

	s.logger.Info("note deleted", "id", id)

	return nil
}

// FilteredView returns the visible notes in store order.
func (s *Store) FilteredView(page int, mode FilterMode) []note.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if mode == AllPages {
		return slices.Clone(s.items)
	}

	return collections.Filter(s.items, func(n note.Note) bool {
		return n.Page == page
	})
}

// Count is the length of FilteredView.
func (s *Store) Count(page int, mode FilterMode) int {
	return len(s.FilteredView(page, mode))
}

// Items returns a copy of every loaded note.
func (s *Store) Items() []note.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.items)
}

// Get looks a note up by id.
func (s *Store) Get(id string) (note.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}

	return note.Note{}, false
}

// DocumentID is the document last loaded.
func (s *Store) DocumentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.documentID
}

// indexOf requires s.mu.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(n note.Note) bool { return n.ID == id })
}
