package tui

import (
	"time"

	"github.com/alkime/pagenotes/internal/note"
	tea "github.com/charmbracelet/bubbletea"
)

type loadedMsg struct {
	err error
}

// noteSavedMsg reports the end of an add-note save, text or voice.
type noteSavedMsg struct {
	note note.Note
	err  error
}

type recordingStartedMsg struct {
	err error
}

type editSavedMsg struct {
	err error
}

type deletedMsg struct {
	id  string
	err error
}

type transcribedMsg struct {
	id   string
	text string
	err  error
}

// refreshMsg redraws the recording indicator while a session is live.
type refreshMsg struct{}

func (m *Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.panel.Load(m.ctx, m.config.DocumentID)}
	}
}

func (m *Model) saveTextCmd() tea.Cmd {
	return func() tea.Msg {
		n, err := m.panel.SaveText(m.ctx)
		return noteSavedMsg{note: n, err: err}
	}
}

func (m *Model) startRecordingCmd() tea.Cmd {
	return func() tea.Msg {
		return recordingStartedMsg{err: m.panel.StartRecording(m.ctx)}
	}
}

func (m *Model) stopAndSaveCmd() tea.Cmd {
	return func() tea.Msg {
		n, err := m.panel.Flow().StopAndSave(m.ctx)
		return noteSavedMsg{note: n, err: err}
	}
}

func (m *Model) saveEditCmd() tea.Cmd {
	return func() tea.Msg {
		return editSavedMsg{err: m.panel.SaveEdit(m.ctx)}
	}
}

func (m *Model) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{id: id, err: m.panel.Delete(m.ctx, id)}
	}
}

func (m *Model) transcribeCmd(n note.Note) tea.Cmd {
	return func() tea.Msg {
		text, err := m.config.Transcriber.TranscribeNote(m.ctx, n)
		return transcribedMsg{id: n.ID, text: text, err: err}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	return tea.Tick(m.config.RefreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}
