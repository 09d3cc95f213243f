// Package capturetest provides an in-memory capture runtime for tests.
package capturetest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/alkime/pagenotes/internal/capture"
)

// Microphone is a scriptable capture.Microphone.
//
// Supported lists the MIME types IsTypeSupported accepts. AcquireErr, when
// set, is returned by Acquire. Gate, when set, blocks Acquire until a value
// arrives or ctx ends, which models a pending permission prompt.
type Microphone struct {
	Supported    []string
	AcquireErr   error
	Gate         chan struct{}
	RecorderType string
	StartErr     error

	mu        sync.Mutex
	streams   []*Stream
	recorders []*Recorder
	acquires  atomic.Int32
}

var _ capture.Microphone = (*Microphone)(nil)

func (m *Microphone) IsTypeSupported(mimeType string) bool {
	return slices.Contains(m.Supported, mimeType)
}

func (m *Microphone) Acquire(ctx context.Context) (capture.Stream, error) {
	m.acquires.Add(1)

	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire abandoned: %w", ctx.Err())
		}
	}

	if m.AcquireErr != nil {
		return nil, m.AcquireErr
	}

	s := &Stream{track: &Track{id: fmt.Sprintf("track-%d", m.acquires.Load())}}

	m.mu.Lock()
	m.streams = append(m.streams, s)
	m.mu.Unlock()

	return s, nil
}

func (m *Microphone) NewRecorder(stream capture.Stream, mimeType string) (capture.Recorder, error) {
	if _, ok := stream.(*Stream); !ok {
		return nil, errors.New("foreign stream")
	}

	if mimeType == "" {
		mimeType = m.RecorderType
	}

	r := &Recorder{
		mimeType: mimeType,
		startErr: m.StartErr,
		events:   make(chan capture.Event, 256),
	}

	m.mu.Lock()
	m.recorders = append(m.recorders, r)
	m.mu.Unlock()

	return r, nil
}

// Acquires reports how many times Acquire was called.
func (m *Microphone) Acquires() int {
	return int(m.acquires.Load())
}

// Streams returns every stream handed out so far.
func (m *Microphone) Streams() []*Stream {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.streams)
}

// LastRecorder returns the most recently created recorder, or nil.
func (m *Microphone) LastRecorder() *Recorder {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.recorders) == 0 {
		return nil
	}

	return m.recorders[len(m.recorders)-1]
}

// Stream is a single-track fake stream.
type Stream struct {
	track *Track
}

func (s *Stream) Tracks() []capture.Track {
	return []capture.Track{s.track}
}

// Stopped reports whether the stream's track was stopped.
func (s *Stream) Stopped() bool {
	return s.track.stopped.Load()
}

type Track struct {
	id      string
	stopped atomic.Bool
}

func (t *Track) ID() string { return t.id }
func (t *Track) Stop()      { t.stopped.Store(true) }

// Recorder is a fake capture.Recorder. By default Stop flushes immediately:
// it emits Stopped and closes the event channel. With ManualFlush set, the
// test decides when that happens by calling Flush.
type Recorder struct {
	ManualFlush atomic.Bool

	mimeType string
	startErr error
	events   chan capture.Event

	mu        sync.Mutex
	state     capture.RecorderState
	stopCalls int
	closed    bool
}

func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.startErr != nil {
		return r.startErr
	}

	r.state = capture.RecorderRecording

	return nil
}

func (r *Recorder) Stop() error {
	r.mu.Lock()
	r.stopCalls++
	recording := r.state == capture.RecorderRecording
	r.mu.Unlock()

	if recording && !r.ManualFlush.Load() {
		r.Flush()
	}

	return nil
}

func (r *Recorder) State() capture.RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

func (r *Recorder) MimeType() string             { return r.mimeType }
func (r *Recorder) Events() <-chan capture.Event { return r.events }

// Emit delivers a chunk of audio.
func (r *Recorder) Emit(chunk []byte) {
	r.send(capture.DataAvailable{Chunk: chunk})
}

// Fail reports a capture fault.
func (r *Recorder) Fail(err error) {
	r.send(capture.Errored{Err: err})
}

// Flush emits Stopped and closes the event channel. Later calls are no-ops.
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.state = capture.RecorderInactive
	r.closed = true
	r.events <- capture.Stopped{}
	close(r.events)
}

// StopCalls reports how many times Stop was called.
func (r *Recorder) StopCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stopCalls
}

func (r *Recorder) send(ev capture.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.events <- ev
}
