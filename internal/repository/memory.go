package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alkime/pagenotes/internal/note"
)

// Memory keeps notes in a map. Safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	records map[string]record
	seq     uint64
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]record),
		now:     time.Now,
	}
}

func (m *Memory) List(_ context.Context, documentID string) ([]note.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []record
	for _, r := range m.records {
		if r.DocumentID == documentID {
			matched = append(matched, r)
		}
	}

	return newestFirst(matched), nil
}

func (m *Memory) Create(_ context.Context, draft note.Draft) (note.Note, error) {
	if err := draft.Validate(); err != nil {
		return note.Note{}, fmt.Errorf("invalid draft: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	r := fromDraft(draft, m.now(), m.seq)
	m.records[r.ID] = r

	return r.Note, nil
}

func (m *Memory) Update(_ context.Context, id string, patch note.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := checkPatch(r.Note, patch); err != nil {
		return err
	}

	r.Note = r.Apply(patch)
	m.records[id] = r

	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(m.records, id)

	return nil
}
