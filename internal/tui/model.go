// Package tui is the terminal notes panel: a filtered note list for one
// document, an add-note dialog driven by panel.Flow and inline editing of
// text notes.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alkime/pagenotes/internal/note"
	"github.com/alkime/pagenotes/internal/panel"
	"github.com/alkime/pagenotes/internal/recording"
	"github.com/alkime/pagenotes/internal/tui/components/labeledspinner"
	"github.com/alkime/pagenotes/pkg/uictl"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	DefaultRefreshInterval = 250 * time.Millisecond

	defaultEditorWidth = 60
	maxEditorWidth     = 76
)

var (
	errNoTranscriber = errors.New("transcription is not configured")
	errNotVoice      = errors.New("only voice notes can be transcribed")
)

// Transcriber turns a voice note into text.
// *transcription.Transcriber implements it.
type Transcriber interface {
	TranscribeNote(ctx context.Context, n note.Note) (string, error)
}

type Config struct {
	DocumentID string
	// Transcriber is optional; without it the transcribe key reports an error.
	Transcriber Transcriber
	// RefreshInterval paces indicator redraws while recording.
	RefreshInterval time.Duration
	// Cancel is called on quit.
	Cancel context.CancelFunc
	Logger *slog.Logger
}

// Model is the bubbletea model for the notes panel. The panel owns all
// note and flow state; Model only tracks what is specific to the terminal.
type Model struct {
	ctx    context.Context
	panel  *panel.Panel
	config Config
	keys   KeyMap
	logger *slog.Logger

	cursor      int
	loaded      bool
	editor      textarea.Model
	indicator   labeledspinner.Model
	busy        labeledspinner.Model
	working     string
	status      string
	err         error
	transcripts map[string]string
}

func New(ctx context.Context, p *panel.Panel, conf Config) *Model {
	if conf.RefreshInterval <= 0 {
		conf.RefreshInterval = DefaultRefreshInterval
	}

	logger := conf.Logger
	if logger == nil {
		logger = slog.Default()
	}

	editor := textarea.New()
	editor.CharLimit = note.MaxTextLength
	editor.Placeholder = "Write a note for this page..."
	editor.ShowLineNumbers = false
	editor.SetWidth(defaultEditorWidth)
	editor.SetHeight(5)

	elapsed := uictl.DialFunc[int](p.Flow().Elapsed)

	return &Model{
		ctx:         ctx,
		panel:       p,
		config:      conf,
		keys:        DefaultKeyMap(),
		logger:      logger.With("component", "tui"),
		editor:      editor,
		indicator:   labeledspinner.New(spinner.Dot, "Recording", elapsed, ""),
		busy:        labeledspinner.New(spinner.Points, "", nil, ""),
		transcripts: make(map[string]string),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadCmd(),
		m.indicator.Init(),
		m.busy.Init(),
	)
}

func (m *Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.editor.SetWidth(min(max(msg.Width-6, 20), maxEditorWidth))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, m.quit()
		}

		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd1, cmd2 tea.Cmd
		m.indicator, cmd1 = m.indicator.Update(msg)
		m.busy, cmd2 = m.busy.Update(msg)

		return m, tea.Batch(cmd1, cmd2)

	case refreshMsg:
		if m.panel.Flow().RecordingState() == recording.StateRecording {
			return m, m.refreshCmd()
		}

		return m, nil

	case loadedMsg:
		m.loaded = true
		m.setErr(msg.err)
		m.clampCursor()

	case recordingStartedMsg:
		m.working = ""
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}

		m.err = nil

		return m, m.refreshCmd()

	case noteSavedMsg:
		m.working = ""
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}

		m.err = nil
		m.status = savedLabel(msg.note.Type)
		m.editor.Reset()
		m.editor.Blur()
		m.selectNote(msg.note.ID)

	case editSavedMsg:
		m.working = ""
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}

		m.err = nil
		m.status = "Note updated"
		m.editor.Reset()
		m.editor.Blur()

	case deletedMsg:
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}

		delete(m.transcripts, msg.id)
		m.err = nil
		m.status = "Note deleted"
		m.clampCursor()

	case transcribedMsg:
		m.working = ""
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}

		m.err = nil
		m.transcripts[msg.id] = msg.text
		m.status = "Transcribed"
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.panel.Flow().Phase() {
	case panel.PhaseChoosingType:
		return m.handleChooserKey(msg)
	case panel.PhaseEditingText:
		return m.handleDraftKey(msg)
	case panel.PhaseCapturingAudio:
		return m.handleCaptureKey(msg)
	case panel.PhaseClosed:
	}

	if _, _, ok := m.panel.Editing(); ok {
		return m.handleEditKey(msg)
	}

	return m.handleListKey(msg)
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.working != "" {
		if key.Matches(msg, m.keys.Quit) {
			return m, m.quit()
		}

		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)

	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()

	case key.Matches(msg, m.keys.PrevPage):
		m.panel.SetPage(m.panel.Page() - 1)
		m.cursor = 0

	case key.Matches(msg, m.keys.NextPage):
		m.panel.SetPage(m.panel.Page() + 1)
		m.cursor = 0

	case key.Matches(msg, m.keys.Filter):
		m.panel.ToggleFilter()
		m.clampCursor()

	case key.Matches(msg, m.keys.Add):
		m.clearStatus()
		m.setErr(m.panel.Flow().Open())

	case key.Matches(msg, m.keys.Edit):
		n, ok := m.selected()
		if !ok {
			return m, nil
		}

		m.clearStatus()
		if err := m.panel.StartEdit(n.ID); err != nil {
			m.setErr(err)
			return m, nil
		}

		m.editor.SetValue(n.Content)

		return m, m.editor.Focus()

	case key.Matches(msg, m.keys.Delete):
		n, ok := m.selected()
		if !ok {
			return m, nil
		}

		m.clearStatus()

		return m, m.deleteCmd(n.ID)

	case key.Matches(msg, m.keys.Transcribe):
		n, ok := m.selected()
		if !ok {
			return m, nil
		}

		m.clearStatus()

		switch {
		case n.Type != note.TypeAudio:
			m.err = errNotVoice
		case m.config.Transcriber == nil:
			m.err = errNoTranscriber
		default:
			m.working = "Transcribing"
			return m, m.transcribeCmd(n)
		}
	}

	return m, nil
}

func (m *Model) handleChooserKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	flow := m.panel.Flow()

	switch {
	case key.Matches(msg, m.keys.Cancel):
		flow.Cancel()

	case key.Matches(msg, m.keys.PickText):
		if err := flow.PickType(note.TypeText); err != nil {
			m.setErr(err)
			return m, nil
		}

		m.editor.Reset()

		return m, m.editor.Focus()

	case key.Matches(msg, m.keys.PickVoice):
		m.setErr(flow.PickType(note.TypeAudio))
	}

	return m, nil
}

func (m *Model) handleDraftKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	flow := m.panel.Flow()

	switch {
	case key.Matches(msg, m.keys.Cancel):
		flow.Cancel()
		m.working = ""
		m.err = nil
		m.editor.Reset()
		m.editor.Blur()

		return m, nil

	case m.working != "":
		return m, nil

	case key.Matches(msg, m.keys.Save):
		if err := flow.SetText(m.editor.Value()); err != nil {
			m.setErr(err)
			return m, nil
		}

		m.working = "Saving note"

		return m, m.saveTextCmd()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)

	if err := flow.SetText(m.editor.Value()); err != nil {
		m.logger.Debug("draft out of sync", "error", err)
	}

	return m, cmd
}

func (m *Model) handleCaptureKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	flow := m.panel.Flow()

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if flow.RecordingState() != recording.StateIdle {
			m.status = "Recording discarded"
		}

		flow.Cancel()
		m.working = ""
		m.err = nil

	case m.working != "":

	case key.Matches(msg, m.keys.Record):
		if flow.RecordingState() != recording.StateIdle {
			return m, nil
		}

		m.err = nil
		m.working = "Waiting for microphone"

		return m, m.startRecordingCmd()

	case key.Matches(msg, m.keys.StopSave):
		if flow.RecordingState() != recording.StateRecording {
			return m, nil
		}

		m.working = "Saving voice note"

		return m, m.stopAndSaveCmd()
	}

	return m, nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.panel.CancelEdit()
		m.working = ""
		m.err = nil
		m.editor.Reset()
		m.editor.Blur()

		return m, nil

	case m.working != "":
		return m, nil

	case key.Matches(msg, m.keys.Save):
		if err := m.panel.SetEditText(m.editor.Value()); err != nil {
			m.setErr(err)
			return m, nil
		}

		m.working = "Saving note"

		return m, m.saveEditCmd()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)

	return m, cmd
}

func (m *Model) quit() tea.Cmd {
	m.panel.Flow().Cancel()
	m.panel.CancelEdit()

	if m.config.Cancel != nil {
		m.config.Cancel()
	}

	return tea.Quit
}

// setErr records err for display. Cancellations are the user's own doing
// and are not shown.
func (m *Model) setErr(err error) {
	if err == nil || errors.Is(err, recording.ErrCancelled) {
		return
	}

	m.logger.Warn("panel action failed", "error", err)
	m.err = err
}

func (m *Model) clearStatus() {
	m.status = ""
	m.err = nil
}

func (m *Model) selected() (note.Note, bool) {
	visible := m.panel.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return note.Note{}, false
	}

	return visible[m.cursor], true
}

func (m *Model) selectNote(id string) {
	for i, n := range m.panel.Visible() {
		if n.ID == id {
			m.cursor = i
			return
		}
	}

	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := m.panel.Count()
	if m.cursor >= n {
		m.cursor = n - 1
	}

	m.cursor = max(m.cursor, 0)
}

func savedLabel(t note.Type) string {
	if t == note.TypeAudio {
		return "Saved voice note"
	}

	return "Saved text note"
}
