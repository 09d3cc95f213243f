package tui

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alkime/pagenotes/internal/note"
	"github.com/alkime/pagenotes/internal/notes"
	"github.com/alkime/pagenotes/internal/panel"
	"github.com/alkime/pagenotes/internal/recording"
	"github.com/alkime/pagenotes/internal/tui/style"
)

const previewWidth = 60

func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.headerView())
	sb.WriteString("\n\n")

	switch {
	case m.panel.Flow().Phase() != panel.PhaseClosed:
		sb.WriteString(m.dialogView())
	case m.isEditing():
		sb.WriteString(m.inlineEditView())
	default:
		sb.WriteString(m.listView())
		sb.WriteString("\n")
		sb.WriteString(renderHelpLine(m.keys.ListHelp()...))
	}

	sb.WriteString("\n")
	sb.WriteString(m.statusView())

	return sb.String()
}

func (m *Model) headerView() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Page notes"))

	if doc := m.panel.DocumentID(); doc != "" {
		sb.WriteString(" ")
		sb.WriteString(style.Muted.Render(doc))
	}

	sb.WriteString("\n")
	sb.WriteString(style.Subtitle.Render(fmt.Sprintf("Page %d · %s · %s",
		m.panel.Page(), m.panel.Filter(), countLabel(m.panel.Count()))))

	return sb.String()
}

func (m *Model) listView() string {
	if !m.loaded {
		return style.Muted.Render("Loading notes...") + "\n"
	}

	visible := m.panel.Visible()
	if len(visible) == 0 {
		return style.Muted.Render(emptyLabel(m.panel.Filter(), m.panel.Page())) + "\n"
	}

	var sb strings.Builder

	for i, n := range visible {
		if i == m.cursor {
			sb.WriteString(style.Cursor.Render("> "))
		} else {
			sb.WriteString("  ")
		}

		sb.WriteString(style.Badge.Render(fmt.Sprintf("p.%d %s", n.Page, typeLabel(n.Type))))
		sb.WriteString(" ")
		sb.WriteString(preview(n))
		sb.WriteString("\n")

		if text, ok := m.transcripts[n.ID]; ok {
			sb.WriteString("    ")
			sb.WriteString(style.Muted.Render(`"` + text + `"`))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (m *Model) dialogView() string {
	var sb strings.Builder

	switch m.panel.Flow().Phase() {
	case panel.PhaseChoosingType:
		sb.WriteString(style.Title.Render("Add a note"))
		sb.WriteString("\n\n")
		sb.WriteString(renderHelpLine(m.keys.PickText, m.keys.PickVoice, m.keys.Cancel))

	case panel.PhaseEditingText:
		sb.WriteString(style.Title.Render("New text note"))
		sb.WriteString("\n\n")
		sb.WriteString(m.editorView())

	case panel.PhaseCapturingAudio:
		sb.WriteString(style.Title.Render("New voice note"))
		sb.WriteString("\n\n")
		sb.WriteString(m.captureView())

	case panel.PhaseClosed:
	}

	return style.Modal.Render(sb.String())
}

func (m *Model) captureView() string {
	flow := m.panel.Flow()

	var sb strings.Builder

	switch {
	case m.working != "" || flow.Saving():
		sb.WriteString(m.busyView(m.workingLabel()))
		sb.WriteString("\n\n")
		sb.WriteString(renderHelpLine(m.keys.Cancel))

	case flow.RecordingState() == recording.StateRecording:
		sb.WriteString(m.indicator.View())
		sb.WriteString("\n\n")
		sb.WriteString(renderHelpLine(m.keys.StopSave, m.keys.Cancel))

	default:
		sb.WriteString(style.Subtitle.Render(fmt.Sprintf("Voice note for page %d", m.panel.Page())))
		sb.WriteString("\n\n")
		sb.WriteString(renderHelpLine(m.keys.Record, m.keys.Cancel))
	}

	if err := flow.CaptureErr(); err != nil {
		sb.WriteString("\n")
		sb.WriteString(style.Warning.Render("Microphone error: " + err.Error()))
	}

	return sb.String()
}

func (m *Model) inlineEditView() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Edit note"))
	sb.WriteString("\n\n")
	sb.WriteString(m.editorView())

	return style.Modal.Render(sb.String())
}

func (m *Model) editorView() string {
	var sb strings.Builder

	sb.WriteString(m.editor.View())
	sb.WriteString("\n")
	sb.WriteString(style.Muted.Render(fmt.Sprintf("%d/%d",
		utf8.RuneCountInString(m.editor.Value()), note.MaxTextLength)))
	sb.WriteString("\n\n")

	if m.working != "" {
		sb.WriteString(m.busyView(m.working))
		sb.WriteString("\n")
	}

	sb.WriteString(renderHelpLine(m.keys.Save, m.keys.Cancel))

	return sb.String()
}

func (m *Model) statusView() string {
	switch {
	case m.err != nil:
		return style.Error.Render("Error: " + errorText(m.err))
	case m.working != "" && m.panel.Flow().Phase() == panel.PhaseClosed && !m.isEditing():
		return m.busyView(m.working)
	case m.status != "":
		return style.Success.Render(m.status)
	default:
		return ""
	}
}

func (m *Model) workingLabel() string {
	if m.working == "" {
		return "Saving voice note"
	}

	return m.working
}

func (m *Model) busyView(title string) string {
	busy := m.busy
	busy.Title = title

	return busy.View()
}

func (m *Model) isEditing() bool {
	_, _, ok := m.panel.Editing()
	return ok
}

func errorText(err error) string {
	if errors.Is(err, recording.ErrPermission) {
		return "microphone unavailable (" + err.Error() + ")"
	}

	return err.Error()
}

func countLabel(n int) string {
	if n == 1 {
		return "1 note"
	}

	return fmt.Sprintf("%d notes", n)
}

func emptyLabel(mode notes.FilterMode, page int) string {
	if mode == notes.AllPages {
		return "No notes yet"
	}

	return fmt.Sprintf("No notes on page %d", page)
}

func typeLabel(t note.Type) string {
	if t == note.TypeAudio {
		return "[voice]"
	}

	return "[text]"
}

func preview(n note.Note) string {
	if n.Type == note.TypeAudio {
		return "voice memo · " + payloadSize(n.Content)
	}

	line, _, _ := strings.Cut(n.Content, "\n")
	if utf8.RuneCountInString(line) > previewWidth {
		line = string([]rune(line)[:previewWidth]) + "..."
	} else if line != n.Content {
		line += " ..."
	}

	return line
}

// payloadSize estimates the decoded size of a data URL without decoding it.
func payloadSize(dataURL string) string {
	_, payload, ok := strings.Cut(dataURL, ",")
	if !ok {
		return "unknown size"
	}

	size := base64.StdEncoding.DecodedLen(len(payload))
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}

	return fmt.Sprintf("%.1f KB", float64(size)/1024)
}
