package tui

import (
	"strings"

	"github.com/alkime/pagenotes/internal/tui/style"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the panel's bindings. List bindings apply while no dialog
// or editor is open.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding
	Filter     key.Binding
	Add        key.Binding
	Edit       key.Binding
	Delete     key.Binding
	Transcribe key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding

	PickText  key.Binding
	PickVoice key.Binding
	Record    key.Binding
	StopSave  key.Binding
	Save      key.Binding
	Cancel    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "prev page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "next page"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "toggle filter"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Transcribe: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "transcribe"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		PickText: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "text note"),
		),
		PickVoice: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "voice note"),
		),
		Record: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "start recording"),
		),
		StopSave: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop and save"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ListHelp returns the bindings shown under the note list.
func (k KeyMap) ListHelp() []key.Binding {
	return []key.Binding{k.PrevPage, k.NextPage, k.Filter, k.Add, k.Edit, k.Delete, k.Transcribe, k.Quit}
}

func renderKeyHelp(keyBinding key.Binding, suffix ...string) string {
	s := style.Help.Render("[") + style.Key.Render(keyBinding.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(keyBinding.Help().Desc)

	s += strings.Join(suffix, "")

	return s
}

func renderHelpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, renderKeyHelp(b))
	}

	return strings.Join(parts, " ")
}
