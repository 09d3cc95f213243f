// Package recording coordinates one microphone capture attempt: acquiring
// the stream, collecting recorder chunks, ticking the elapsed counter and
// releasing every resource on each way out.
package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alkime/pagenotes/internal/capture"
	"github.com/alkime/pagenotes/internal/codec"
)

var (
	// ErrPermission means capture is unsupported or access was denied.
	ErrPermission = errors.New("microphone permission error")
	// ErrCapture wraps a hardware or driver fault reported mid-recording.
	ErrCapture = errors.New("capture error")
	// ErrSessionActive is returned by Start when the session is not idle.
	ErrSessionActive = errors.New("recording session already active")
	// ErrCancelled is returned to a Start or Stop that Cancel overtook.
	ErrCancelled = errors.New("recording cancelled")
)

// State is the lifecycle phase of a Session.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateRecording
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

const DefaultTickInterval = time.Second

type Config struct {
	// TickInterval is how often the elapsed counter advances.
	TickInterval time.Duration
	Logger       *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	return c
}

// Recording is the finalized output of a capture.
type Recording struct {
	Chunks   [][]byte
	MimeType string
	// Elapsed is the number of ticks counted before Stop.
	Elapsed int
}

type result struct {
	rec *Recording
	err error
}

// Session drives a capture.Microphone. The zero value is not usable; use New.
type Session struct {
	mic    capture.Microphone
	conf   Config
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	attempt  uint64
	stream   capture.Stream
	rec      capture.Recorder
	chunks   [][]byte
	elapsed  int
	mimeType string
	err      error
	flushed  bool

	abortAcquire context.CancelFunc
	stopTick     chan struct{}
	finalized    chan result
}

// New returns an idle session over mic. A nil mic makes every Start fail
// with ErrPermission.
func New(mic capture.Microphone, conf Config) *Session {
	conf = conf.withDefaults()

	return &Session{
		mic:    mic,
		conf:   conf,
		logger: conf.Logger.With("component", "recording"),
	}
}

// Start acquires the microphone and begins recording.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrSessionActive
	}

	if s.mic == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrPermission, capture.ErrUnsupported)
	}

	s.attempt++
	attempt := s.attempt
	s.state = StateRequesting
	s.chunks = nil
	s.elapsed = 0
	s.err = nil
	s.mimeType = ""
	s.flushed = false

	acquireCtx, abort := context.WithCancel(ctx)
	s.abortAcquire = abort
	s.mu.Unlock()

	stream, err := s.mic.Acquire(acquireCtx)
	abort()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt != attempt {
		capture.StopTracks(stream)
		return ErrCancelled
	}

	s.abortAcquire = nil

	if err != nil {
		s.state = StateIdle
		if ctx.Err() != nil {
			return fmt.Errorf("acquire microphone: %w", ctx.Err())
		}

		return fmt.Errorf("%w: %w", ErrPermission, err)
	}

	s.stream = stream

	hint := codec.Negotiate(s.mic)

	rec, err := s.mic.NewRecorder(stream, hint)
	if err == nil {
		err = rec.Start()
	}

	if err != nil {
		held, _ := s.detach()
		capture.StopTracks(held)
		return fmt.Errorf("%w: %w", ErrPermission, err)
	}

	s.rec = rec
	s.mimeType = rec.MimeType()
	if s.mimeType == "" {
		s.mimeType = hint
	}

	s.state = StateRecording
	s.stopTick = make(chan struct{})

	go s.tick(attempt, s.stopTick)
	go s.pump(attempt, rec.Events())

	s.logger.Info("recording started", "mimeType", s.mimeType)

	return nil
}

// Stop finalizes the capture and returns what was recorded. Calling it when
// not recording returns (nil, nil).
func (s *Session) Stop(ctx context.Context) (*Recording, error) {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return nil, nil //nolint:nilnil // not recording is not an error
	}

	s.state = StateStopping
	s.haltTick()

	attempt := s.attempt
	fin := make(chan result, 1)
	s.finalized = fin
	rec := s.rec

	if s.flushed {
		s.finalize()
		s.mu.Unlock()

		r := <-fin
		return r.rec, r.err
	}
	s.mu.Unlock()

	if err := rec.Stop(); err != nil {
		s.logger.Error("recorder stop failed", "error", err)
		s.cancelAttempt(attempt)
		return nil, fmt.Errorf("%w: %w", ErrCapture, err)
	}

	select {
	case r := <-fin:
		return r.rec, r.err
	case <-ctx.Done():
		select {
		case r := <-fin:
			return r.rec, r.err
		default:
		}

		s.cancelAttempt(attempt)
		return nil, fmt.Errorf("stop abandoned: %w", ctx.Err())
	}
}

// Cancel discards the attempt and releases everything it holds. It is a
// no-op when idle.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}

	s.attempt++
	abort := s.abortAcquire
	fin := s.finalized
	stream, rec := s.detach()
	s.elapsed = 0
	s.mu.Unlock()

	if abort != nil {
		abort()
	}

	if fin != nil {
		fin <- result{err: ErrCancelled}
	}

	s.teardown(stream, rec)
	s.logger.Info("recording cancelled")
}

func (s *Session) cancelAttempt(attempt uint64) {
	s.mu.Lock()
	current := s.attempt == attempt
	s.mu.Unlock()

	if current {
		s.Cancel()
	}
}

// detach moves the session to idle and hands back the resources it held.
// Callers hold s.mu and must pass the results to teardown after unlocking.
func (s *Session) detach() (capture.Stream, capture.Recorder) {
	s.haltTick()

	stream, rec := s.stream, s.rec
	s.stream = nil
	s.rec = nil
	s.chunks = nil
	s.flushed = false
	s.abortAcquire = nil
	s.finalized = nil
	s.state = StateIdle

	return stream, rec
}

func (s *Session) teardown(stream capture.Stream, rec capture.Recorder) {
	if rec != nil && rec.State() == capture.RecorderRecording {
		if err := rec.Stop(); err != nil {
			s.logger.Warn("recorder stop during teardown failed", "error", err)
		}
	}

	capture.StopTracks(stream)
}

// haltTick requires s.mu.
func (s *Session) haltTick() {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
}

func (s *Session) tick(attempt uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(s.conf.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.attempt == attempt && s.state == StateRecording {
				s.elapsed++
			}
			s.mu.Unlock()
		}
	}
}

// pump feeds recorder events into the session until the channel closes.
// Events from a superseded attempt are drained and ignored.
func (s *Session) pump(attempt uint64, events <-chan capture.Event) {
	for ev := range events {
		switch ev := ev.(type) {
		case capture.DataAvailable:
			s.mu.Lock()
			if s.attempt == attempt && len(ev.Chunk) > 0 {
				s.chunks = append(s.chunks, ev.Chunk)
			}
			s.mu.Unlock()

		case capture.Errored:
			s.logger.Error("capture fault", "error", ev.Err)

			s.mu.Lock()
			if s.attempt == attempt {
				s.err = fmt.Errorf("%w: %w", ErrCapture, ev.Err)
			}
			s.mu.Unlock()

		case capture.Stopped:
			s.onFlushed(attempt)
		}
	}

	s.onFlushed(attempt)
}

func (s *Session) onFlushed(attempt uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt != attempt || s.flushed {
		return
	}

	s.flushed = true

	switch s.state {
	case StateStopping:
		s.finalize()
	case StateRecording:
		s.logger.Warn("recorder stopped on its own; waiting for stop or cancel")
	default:
	}
}

// finalize requires s.mu and a pending Stop.
func (s *Session) finalize() {
	out := &Recording{
		Chunks:   s.chunks,
		MimeType: s.mimeType,
		Elapsed:  s.elapsed,
	}

	fin := s.finalized
	stream, rec := s.detach()

	// Tracks are released off the lock; Stop is waiting on fin.
	go func() {
		s.teardown(stream, rec)
		fin <- result{rec: out}
	}()

	s.logger.Info("recording finalized", "chunks", len(out.Chunks), "elapsed", out.Elapsed)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// IsRecording is false as soon as Stop or Cancel begins.
func (s *Session) IsRecording() bool {
	return s.State() == StateRecording
}

func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.elapsed
}

// MimeType is the encoding hint fixed when recording started.
func (s *Session) MimeType() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mimeType
}

// Err returns the last capture fault of the current attempt, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}
