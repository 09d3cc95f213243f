package tui_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alkime/pagenotes/internal/audio"
	"github.com/alkime/pagenotes/internal/capture"
	"github.com/alkime/pagenotes/internal/capture/capturetest"
	"github.com/alkime/pagenotes/internal/codec"
	"github.com/alkime/pagenotes/internal/note"
	"github.com/alkime/pagenotes/internal/notes"
	"github.com/alkime/pagenotes/internal/panel"
	"github.com/alkime/pagenotes/internal/recording"
	"github.com/alkime/pagenotes/internal/repository"
	"github.com/alkime/pagenotes/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

const docID = "doc"

// outputChecker provides helpers for testing teatest output.
type outputChecker struct {
	intervl, timeout time.Duration
}

func defaultChecker() outputChecker {
	return outputChecker{
		intervl: 50 * time.Millisecond,
		timeout: 3 * time.Second,
	}
}

func (o outputChecker) checkString(t *testing.T, tm *teatest.TestModel, substr string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(buf []byte) bool {
		return bytes.Contains(buf, []byte(substr))
	},
		teatest.WithCheckInterval(o.intervl),
		teatest.WithDuration(o.timeout))
}

type fixture struct {
	repo  *repository.Memory
	mic   *capturetest.Microphone
	panel *panel.Panel
	tm    *teatest.TestModel
}

type fixtureOpts struct {
	mic         *capturetest.Microphone
	transcriber tui.Transcriber
	seed        []note.Draft
}

func newFixture(t *testing.T, opts fixtureOpts) fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewMemory()

	for _, d := range opts.seed {
		d.DocumentID = docID
		_, err := repo.Create(t.Context(), d)
		require.NoError(t, err)
	}

	var mic capture.Microphone
	if opts.mic != nil {
		mic = opts.mic
	}

	store := notes.NewStore(repo, logger)
	flow := panel.NewFlow(store, mic, audio.NewEncoder(logger), panel.FlowConfig{
		Recording: recording.Config{TickInterval: 20 * time.Millisecond},
		Logger:    logger,
	})
	p := panel.New(store, flow, logger)

	m := tui.New(t.Context(), p, tui.Config{
		DocumentID:      docID,
		Transcriber:     opts.transcriber,
		RefreshInterval: 20 * time.Millisecond,
		Logger:          logger,
	})

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))
	t.Cleanup(func() { flow.Cancel() })

	return fixture{repo: repo, mic: opts.mic, panel: p, tm: tm}
}

func (f fixture) press(keys ...string) {
	for _, k := range keys {
		switch k {
		case "esc":
			f.tm.Send(tea.KeyMsg{Type: tea.KeyEsc})
		case "ctrl+s":
			f.tm.Send(tea.KeyMsg{Type: tea.KeyCtrlS})
		case "ctrl+u":
			f.tm.Send(tea.KeyMsg{Type: tea.KeyCtrlU})
		case "right":
			f.tm.Send(tea.KeyMsg{Type: tea.KeyRight})
		case "left":
			f.tm.Send(tea.KeyMsg{Type: tea.KeyLeft})
		case "down":
			f.tm.Send(tea.KeyMsg{Type: tea.KeyDown})
		default:
			f.tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		}
	}
}

func (f fixture) stored(t *testing.T) []note.Note {
	t.Helper()

	list, err := f.repo.List(t.Context(), docID)
	require.NoError(t, err)

	return list
}

func (f fixture) quit(t *testing.T) {
	t.Helper()

	f.press("q")
	f.tm.WaitFinished(t, teatest.WithFinalTimeout(defaultChecker().timeout))
}

func TestTUI_EmptyState(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, fixtureOpts{})
	checker := defaultChecker()

	checker.checkString(t, fx.tm, "No notes on page 1")

	fx.press("f")
	checker.checkString(t, fx.tm, "No notes yet")

	fx.quit(t)
}

func TestTUI_FilterAndPages(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, fixtureOpts{seed: []note.Draft{
		{Type: note.TypeText, Content: "first page thought", Page: 1},
		{Type: note.TypeText, Content: "second page thought", Page: 2},
	}})
	checker := defaultChecker()

	checker.checkString(t, fx.tm, "first page thought")

	fx.press("right")
	checker.checkString(t, fx.tm, "second page thought")

	fx.press("right")
	checker.checkString(t, fx.tm, "No notes on page 3")

	fx.press("f")
	checker.checkString(t, fx.tm, "all pages · 2 notes")
	assert.Equal(t, notes.AllPages, fx.panel.Filter())

	fx.press("left", "left", "left")
	require.Eventually(t, func() bool { return fx.panel.Page() == 1 }, time.Second, 10*time.Millisecond,
		"page never drops below 1")

	fx.quit(t)
}

func TestTUI_AddTextNote(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, fixtureOpts{})
	checker := defaultChecker()

	checker.checkString(t, fx.tm, "No notes on page 1")

	fx.press("a")
	checker.checkString(t, fx.tm, "Add a note")

	fx.press("t")
	checker.checkString(t, fx.tm, "New text note")

	fx.tm.Type("remember this")
	checker.checkString(t, fx.tm, "13/1500")

	fx.press("ctrl+s")
	checker.checkString(t, fx.tm, "Saved text note")

	stored := fx.stored(t)
	require.Len(t, stored, 1)
	assert.Equal(t, "remember this", stored[0].Content)
	assert.Equal(t, 1, stored[0].Page)
	assert.Equal(t, panel.PhaseClosed, fx.panel.Flow().Phase())

	fx.quit(t)
}

func TestTUI_CancelTextDraft(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, fixtureOpts{})
	checker := defaultChecker()

	fx.press("a")
	checker.checkString(t, fx.tm, "Add a note")

	fx.press("t")
	fx.tm.Type("draft")
	checker.checkString(t, fx.tm, "5/1500")

	fx.press("esc")
	checker.checkString(t, fx.tm, "No notes on page 1")

	assert.Equal(t, panel.PhaseClosed, fx.panel.Flow().Phase())
	assert.Empty(t, fx.panel.Flow().Draft())
	assert.Empty(t, fx.stored(t))

	fx.quit(t)
}

func TestTUI_RecordVoiceNote(t *testing.T) {
	t.Parallel()

	mic := &capturetest.Microphone{Supported: []string{codec.WebM}}
	fx := newFixture(t, fixtureOpts{mic: mic})
	checker := defaultChecker()

	fx.press("a")
	checker.checkString(t, fx.tm, "Add a note")

	fx.press("v")
	checker.checkString(t, fx.tm, "Voice note for page 1")

	fx.press("r")
	checker.checkString(t, fx.tm, "Recording")

	require.Eventually(t, func() bool { return mic.LastRecorder() != nil }, time.Second, 10*time.Millisecond)
	mic.LastRecorder().Emit([]byte("hello"))

	fx.press("s")
	checker.checkString(t, fx.tm, "Saved voice note")

	stored := fx.stored(t)
	require.Len(t, stored, 1)
	assert.Equal(t, note.TypeAudio, stored[0].Type)
	assert.Equal(t, "data:audio/webm;base64,aGVsbG8=", stored[0].Content)

	require.Eventually(t, func() bool { return mic.Streams()[0].Stopped() }, time.Second, 10*time.Millisecond)

	fx.quit(t)
}

func TestTUI_MicrophoneDenied(t *testing.T) {
	t.Parallel()

	mic := &capturetest.Microphone{AcquireErr: capture.ErrDenied}
	fx := newFixture(t, fixtureOpts{mic: mic})
	checker := defaultChecker()

	fx.press("a", "v")
	checker.checkString(t, fx.tm, "Voice note for page 1")

	fx.press("r")
	checker.checkString(t, fx.tm, "microphone unavailable")

	assert.Equal(t, panel.PhaseCapturingAudio, fx.panel.Flow().Phase())
	assert.Equal(t, recording.StateIdle, fx.panel.Flow().RecordingState())

	fx.press("esc")
	checker.checkString(t, fx.tm, "No notes on page 1")

	fx.quit(t)
}

func TestTUI_CancelRecording(t *testing.T) {
	t.Parallel()

	mic := &capturetest.Microphone{Supported: []string{codec.Ogg}}
	fx := newFixture(t, fixtureOpts{mic: mic})
	checker := defaultChecker()

	fx.press("a", "v")
	checker.checkString(t, fx.tm, "Voice note for page 1")

	fx.press("r")
	checker.checkString(t, fx.tm, "Recording")

	require.Eventually(t, func() bool { return len(mic.Streams()) == 1 }, time.Second, 10*time.Millisecond)

	fx.press("esc")
	checker.checkString(t, fx.tm, "Recording discarded")

	assert.True(t, mic.Streams()[0].Stopped())
	assert.Empty(t, fx.stored(t))
	assert.Equal(t, panel.PhaseClosed, fx.panel.Flow().Phase())

	fx.quit(t)
}

func TestTUI_InlineEdit(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, fixtureOpts{seed: []note.Draft{
		{Type: note.TypeText, Content: "old wording", Page: 1},
	}})
	checker := defaultChecker()

	checker.checkString(t, fx.tm, "old wording")

	fx.press("e")
	checker.checkString(t, fx.tm, "Edit note")

	fx.press("ctrl+u")
	fx.tm.Type("new wording")
	checker.checkString(t, fx.tm, "11/1500")

	fx.press("ctrl+s")
	checker.checkString(t, fx.tm, "Note updated")

	stored := fx.stored(t)
	require.Len(t, stored, 1)
	assert.Equal(t, "new wording", stored[0].Content)

	fx.quit(t)
}

func TestTUI_VoiceNotesAreNotEditable(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, fixtureOpts{seed: []note.Draft{
		{Type: note.TypeAudio, Content: "data:audio/ogg;base64,AAAA", Page: 1},
	}})
	checker := defaultChecker()

	checker.checkString(t, fx.tm, "p.1 [voice]")

	fx.press("e")
	checker.checkString(t, fx.tm, "only text notes can be edited")

	_, _, editing := fx.panel.Editing()
	assert.False(t, editing)

	fx.quit(t)
}

func TestTUI_Delete(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, fixtureOpts{seed: []note.Draft{
		{Type: note.TypeText, Content: "keep me", Page: 1},
		{Type: note.TypeText, Content: "doomed", Page: 1},
	}})
	checker := defaultChecker()

	// Newest first, so "doomed" is on top.
	checker.checkString(t, fx.tm, "keep me")

	fx.press("d")
	checker.checkString(t, fx.tm, "Note deleted")

	stored := fx.stored(t)
	require.Len(t, stored, 1)
	assert.Equal(t, "keep me", stored[0].Content)

	fx.quit(t)
}

type stubTranscriber struct {
	text string
}

func (s stubTranscriber) TranscribeNote(_ context.Context, n note.Note) (string, error) {
	if !strings.HasPrefix(n.Content, "data:") {
		return "", io.ErrUnexpectedEOF
	}

	return s.text, nil
}

func TestTUI_Transcribe(t *testing.T) {
	t.Parallel()

	seed := []note.Draft{{Type: note.TypeAudio, Content: "data:audio/mpeg;base64,AAAA", Page: 1}}

	t.Run("configured", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, fixtureOpts{seed: seed, transcriber: stubTranscriber{text: "hello from the page"}})
		checker := defaultChecker()

		checker.checkString(t, fx.tm, "p.1 [voice]")

		fx.press("t")
		checker.checkString(t, fx.tm, `"hello from the page"`)

		fx.quit(t)
	})

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t, fixtureOpts{seed: seed})
		checker := defaultChecker()

		checker.checkString(t, fx.tm, "p.1 [voice]")

		fx.press("t")
		checker.checkString(t, fx.tm, "transcription is not configured")

		fx.quit(t)
	})
}

func TestTUI_QuitReleasesMicrophone(t *testing.T) {
	t.Parallel()

	mic := &capturetest.Microphone{Supported: []string{codec.WebM}}
	fx := newFixture(t, fixtureOpts{mic: mic})
	checker := defaultChecker()

	fx.press("a", "v", "r")
	checker.checkString(t, fx.tm, "Recording")
	require.Eventually(t, func() bool { return len(mic.Streams()) == 1 }, time.Second, 10*time.Millisecond)

	fx.tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	fx.tm.WaitFinished(t, teatest.WithFinalTimeout(defaultChecker().timeout))

	assert.True(t, mic.Streams()[0].Stopped())
	assert.Equal(t, panel.PhaseClosed, fx.panel.Flow().Phase())
}
