package panel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alkime/pagenotes/internal/note"
	"github.com/alkime/pagenotes/internal/notes"
)

type inlineEdit struct {
	id   string
	text string
}

// Panel is the note list for one document: current page, filter mode,
// inline editing of text notes and the add-note flow.
type Panel struct {
	store  *notes.Store
	flow   *Flow
	logger *slog.Logger

	mu     sync.Mutex
	page   int
	filter notes.FilterMode
	edit   *inlineEdit
}

func New(store *notes.Store, flow *Flow, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}

	return &Panel{
		store:  store,
		flow:   flow,
		logger: logger.With("component", "panel"),
		page:   1,
		filter: notes.CurrentPageOnly,
	}
}

func (p *Panel) Flow() *Flow { return p.flow }

// Load fetches every note of documentID.
func (p *Panel) Load(ctx context.Context, documentID string) error {
	return p.store.Load(ctx, documentID)
}

func (p *Panel) DocumentID() string { return p.store.DocumentID() }

func (p *Panel) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.page
}

// SetPage moves to page; values below 1 become 1.
func (p *Panel) SetPage(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.page = max(page, 1)
}

func (p *Panel) Filter() notes.FilterMode {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.filter
}

func (p *Panel) SetFilter(mode notes.FilterMode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filter = mode
}

func (p *Panel) ToggleFilter() notes.FilterMode {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filter = p.filter.Toggle()

	return p.filter
}

// Visible is the list the panel shows.
func (p *Panel) Visible() []note.Note {
	page, filter := p.view()
	return p.store.FilteredView(page, filter)
}

// Count is len(Visible()).
func (p *Panel) Count() int {
	page, filter := p.view()
	return p.store.Count(page, filter)
}

func (p *Panel) view() (int, notes.FilterMode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.page, p.filter
}

// StartEdit opens the inline editor on a text note.
func (p *Panel) StartEdit(id string) error {
	n, ok := p.store.Get(id)
	if !ok {
		return fmt.Errorf("edit note %s: not loaded", id)
	}

	if !n.Editable() {
		return fmt.Errorf("edit note %s: %w", id, note.ErrNotEditable)
	}

	p.mu.Lock()
	p.edit = &inlineEdit{id: id, text: n.Content}
	p.mu.Unlock()

	return nil
}

// Editing reports the note under edit and its pending text.
func (p *Panel) Editing() (id, text string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.edit == nil {
		return "", "", false
	}

	return p.edit.id, p.edit.text, true
}

func (p *Panel) SetEditText(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.edit == nil {
		return fmt.Errorf("%w: no note is being edited", ErrInvalidTransition)
	}

	p.edit.text = text

	return nil
}

// SaveEdit persists the pending text. The editor stays open on failure.
func (p *Panel) SaveEdit(ctx context.Context) error {
	p.mu.Lock()
	edit := p.edit
	p.mu.Unlock()

	if edit == nil {
		return fmt.Errorf("%w: no note is being edited", ErrInvalidTransition)
	}

	if err := note.ValidateText(edit.text); err != nil {
		return err
	}

	if err := p.store.Update(ctx, edit.id, note.Patch{Content: edit.text}); err != nil {
		return err
	}

	p.mu.Lock()
	if p.edit == edit {
		p.edit = nil
	}
	p.mu.Unlock()

	return nil
}

func (p *Panel) CancelEdit() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.edit = nil
}

// Delete removes a note. There is no undo.
func (p *Panel) Delete(ctx context.Context, id string) error {
	if err := p.store.Delete(ctx, id); err != nil {
		return err
	}

	p.mu.Lock()
	if p.edit != nil && p.edit.id == id {
		p.edit = nil
	}
	p.mu.Unlock()

	return nil
}

// SaveText saves the add-note text draft on the current page.
func (p *Panel) SaveText(ctx context.Context) (note.Note, error) {
	return p.flow.SaveText(ctx, p.Page())
}

// StartRecording starts a voice note on the current page.
func (p *Panel) StartRecording(ctx context.Context) error {
	return p.flow.StartRecording(ctx, p.Page())
}
