// Package labeledspinner renders a spinner with a title, a live elapsed
// clock and a hint line.
package labeledspinner

import (
	"fmt"
	"strings"

	"github.com/alkime/pagenotes/internal/tui/style"
	"github.com/alkime/pagenotes/pkg/uictl"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is used for the recording indicator and for busy states such as
// saving or transcribing. Elapsed is optional.
type Model struct {
	Spinner spinner.Model
	Title   string
	Elapsed uictl.Dial[int]
	Help    string
}

func New(s spinner.Spinner, title string, elapsed uictl.Dial[int], help string) Model {
	sp := spinner.New()
	sp.Spinner = s

	return Model{
		Spinner: sp,
		Title:   title,
		Elapsed: elapsed,
		Help:    help,
	}
}

// Init returns the first spinner tick.
func (ls Model) Init() tea.Cmd {
	return ls.Spinner.Tick
}

// Update handles spinner tick messages.
func (ls Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	if tickMsg, ok := teaMsg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		ls.Spinner, cmd = ls.Spinner.Update(tickMsg)

		return ls, cmd
	}

	return ls, nil
}

func (ls Model) View() string {
	var sb strings.Builder

	sb.WriteString(ls.Spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render(ls.Title))

	if ls.Elapsed != nil {
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render(Clock(ls.Elapsed.Read())))
	}

	if ls.Help != "" {
		sb.WriteString("\n\n")
		sb.WriteString(style.Help.Render(ls.Help))
	}

	return sb.String()
}

// Clock formats seconds as mm:ss. Minutes keep counting past 59.
func Clock(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
