// Package panel is the note panel's behaviour without any rendering: the
// add-note flow state machine plus the list, filter and inline-edit surface.
package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alkime/pagenotes/internal/capture"
	"github.com/alkime/pagenotes/internal/note"
	"github.com/alkime/pagenotes/internal/recording"
)

// ErrInvalidTransition is returned for an action the current phase does
// not accept.
var ErrInvalidTransition = errors.New("invalid add-note transition")

// Phase names the add-note flow's states.
type Phase int

const (
	PhaseClosed Phase = iota
	PhaseChoosingType
	PhaseEditingText
	PhaseCapturingAudio
)

func (p Phase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseChoosingType:
		return "choosingType"
	case PhaseEditingText:
		return "editingText"
	case PhaseCapturingAudio:
		return "capturingAudio"
	default:
		return "unknown"
	}
}

type flowState interface {
	phase() Phase
}

type closedState struct{}

type choosingState struct{}

type editingTextState struct {
	draft string
}

// capturingAudioState with a nil session is the pre-recording sub-state.
type capturingAudioState struct {
	page    int
	session *recording.Session
	saving  bool
	abort   context.CancelFunc
}

func (*closedState) phase() Phase         { return PhaseClosed }
func (*choosingState) phase() Phase       { return PhaseChoosingType }
func (*editingTextState) phase() Phase    { return PhaseEditingText }
func (*capturingAudioState) phase() Phase { return PhaseCapturingAudio }

// Creator persists new notes. *notes.Store implements it.
type Creator interface {
	Create(ctx context.Context, draft note.Draft) (note.Note, error)
}

// AudioEncoder turns finalized chunks into storable content. *audio.Encoder
// implements it.
type AudioEncoder interface {
	Encode(ctx context.Context, chunks [][]byte, hint string) (string, error)
}

type FlowConfig struct {
	Recording recording.Config
	Logger    *slog.Logger
}

// Flow is the add-note state machine. Only one phase is live at a time, so
// at most one recording session exists per flow.
type Flow struct {
	store  Creator
	mic    capture.Microphone
	enc    AudioEncoder
	rconf  recording.Config
	logger *slog.Logger

	mu    sync.Mutex
	state flowState

	// beforeStart runs between attaching a session and starting it.
	beforeStart func()
}

func NewFlow(store Creator, mic capture.Microphone, enc AudioEncoder, conf FlowConfig) *Flow {
	logger := conf.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rconf := conf.Recording
	if rconf.Logger == nil {
		rconf.Logger = logger
	}

	return &Flow{
		store:  store,
		mic:    mic,
		enc:    enc,
		rconf:  rconf,
		logger: logger.With("component", "panel"),
		state:  &closedState{},
	}
}

func (f *Flow) transitionErr(action string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, action, f.state.phase())
}

// Open starts adding a note.
func (f *Flow) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.state.(*closedState); !ok {
		return f.transitionErr("open")
	}

	f.state = &choosingState{}

	return nil
}

// PickType chooses between a text and a voice note.
func (f *Flow) PickType(t note.Type) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.state.(*choosingState); !ok {
		return f.transitionErr("pick type")
	}

	switch t {
	case note.TypeText:
		f.state = &editingTextState{}
	case note.TypeAudio:
		f.state = &capturingAudioState{}
	default:
		return fmt.Errorf("%w: %q", note.ErrInvalidType, t)
	}

	return nil
}

// SetText replaces the text draft.
func (f *Flow) SetText(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.state.(*editingTextState)
	if !ok {
		return f.transitionErr("set text")
	}

	st.draft = s

	return nil
}

// SaveText persists the draft on page and closes the flow. On failure the
// draft and phase are kept so the user can retry.
func (f *Flow) SaveText(ctx context.Context, page int) (note.Note, error) {
	f.mu.Lock()
	st, ok := f.state.(*editingTextState)
	if !ok {
		defer f.mu.Unlock()
		return note.Note{}, f.transitionErr("save text")
	}
	draft := st.draft
	f.mu.Unlock()

	if err := note.ValidateText(draft); err != nil {
		return note.Note{}, err
	}

	created, err := f.store.Create(ctx, note.Draft{Type: note.TypeText, Content: draft, Page: page})
	if err != nil {
		return note.Note{}, err
	}

	f.mu.Lock()
	if f.state == flowState(st) {
		f.state = &closedState{}
	}
	f.mu.Unlock()

	return created, nil
}

// StartRecording begins a voice note pinned to page. A permission failure
// leaves the flow in its pre-recording sub-state holding nothing.
func (f *Flow) StartRecording(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("%w: %d", note.ErrInvalidPage, page)
	}

	f.mu.Lock()
	st, ok := f.state.(*capturingAudioState)
	if !ok || st.session != nil {
		defer f.mu.Unlock()
		return f.transitionErr("start recording")
	}

	session := recording.New(f.mic, f.rconf)
	st.session = session
	st.page = page
	f.mu.Unlock()

	if f.beforeStart != nil {
		f.beforeStart()
	}

	if err := session.Start(ctx); err != nil {
		f.mu.Lock()
		if f.state == flowState(st) && st.session == session {
			st.session = nil
		}
		f.mu.Unlock()

		if errors.Is(err, recording.ErrPermission) {
			f.logger.Warn("microphone unavailable", "error", err)
		}

		return err
	}

	// A Cancel that ran before the session left idle found nothing to
	// release, so the stream is ours to drop.
	f.mu.Lock()
	live := f.state == flowState(st) && st.session == session
	f.mu.Unlock()

	if !live {
		session.Cancel()
		return recording.ErrCancelled
	}

	return nil
}

// StopAndSave stops the recording, encodes it and creates the audio note,
// then closes the flow. Any failure discards the recording and returns the
// flow to its pre-recording sub-state. Cancel aborts the chain, but a note
// the store already created is still returned.
func (f *Flow) StopAndSave(ctx context.Context) (note.Note, error) {
	f.mu.Lock()
	st, ok := f.state.(*capturingAudioState)
	if !ok || st.session == nil || st.saving {
		defer f.mu.Unlock()
		return note.Note{}, f.transitionErr("stop recording")
	}

	chainCtx, abort := context.WithCancel(ctx)
	defer abort()

	st.saving = true
	st.abort = abort
	session, page := st.session, st.page
	f.mu.Unlock()

	created, err := f.finishRecording(chainCtx, session, page)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != flowState(st) {
		if err == nil {
			f.logger.Info("voice note saved after cancel", "id", created.ID)
			return created, nil
		}

		return note.Note{}, recording.ErrCancelled
	}

	if err != nil {
		session.Cancel()
		st.session = nil
		st.saving = false
		st.abort = nil
		f.logger.Error("voice note not saved", "error", err)

		return note.Note{}, err
	}

	f.state = &closedState{}

	return created, nil
}

func (f *Flow) finishRecording(ctx context.Context, session *recording.Session, page int) (note.Note, error) {
	rec, err := session.Stop(ctx)
	if err != nil {
		return note.Note{}, err
	}

	if rec == nil {
		return note.Note{}, fmt.Errorf("%w: nothing is being recorded", ErrInvalidTransition)
	}

	content, err := f.enc.Encode(ctx, rec.Chunks, rec.MimeType)
	if err != nil {
		return note.Note{}, err
	}

	if err := ctx.Err(); err != nil {
		return note.Note{}, fmt.Errorf("save abandoned: %w", err)
	}

	return f.store.Create(ctx, note.Draft{Type: note.TypeAudio, Content: content, Page: page})
}

// Cancel closes the flow from any phase, discarding the draft and
// cancelling a live recording.
func (f *Flow) Cancel() {
	f.mu.Lock()
	prev := f.state
	f.state = &closedState{}

	var (
		abort   context.CancelFunc
		session *recording.Session
	)

	if st, ok := prev.(*capturingAudioState); ok {
		abort, session = st.abort, st.session
	}
	f.mu.Unlock()

	if abort != nil {
		abort()
	}

	if session != nil {
		session.Cancel()
	}
}

func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state.phase()
}

// Draft is the pending text, empty outside editingText.
func (f *Flow) Draft() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if st, ok := f.state.(*editingTextState); ok {
		return st.draft
	}

	return ""
}

func (f *Flow) session() *recording.Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	if st, ok := f.state.(*capturingAudioState); ok {
		return st.session
	}

	return nil
}

// RecordingState is the live session's state, or idle without one.
func (f *Flow) RecordingState() recording.State {
	if s := f.session(); s != nil {
		return s.State()
	}

	return recording.StateIdle
}

// Elapsed is the live session's tick count.
func (f *Flow) Elapsed() int {
	if s := f.session(); s != nil {
		return s.Elapsed()
	}

	return 0
}

// Saving reports whether a stop-and-save chain is running.
func (f *Flow) Saving() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.state.(*capturingAudioState)

	return ok && st.saving
}

// CaptureErr is the live session's last capture fault.
func (f *Flow) CaptureErr() error {
	if s := f.session(); s != nil {
		return s.Err()
	}

	return nil
}
