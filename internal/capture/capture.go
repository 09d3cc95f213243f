// Package capture describes the microphone capture runtime the recording
// session drives: permission-gated stream acquisition, a codec capability
// query, and recorders that deliver chunked audio over an event channel.
package capture

import (
	"context"
	"errors"

	"github.com/alkime/pagenotes/internal/codec"
)

// Sentinel errors returned by Microphone.Acquire.
var (
	ErrUnsupported = errors.New("audio capture is not supported")
	ErrDenied      = errors.New("microphone access denied")
)

// Microphone is the capture runtime.
type Microphone interface {
	codec.Prober

	// Acquire requests an exclusive microphone stream. It blocks until
	// permission is granted or denied, or ctx ends.
	Acquire(ctx context.Context) (Stream, error)

	// NewRecorder creates a recorder over stream. An empty mimeType lets
	// the recorder pick its runtime default.
	NewRecorder(stream Stream, mimeType string) (Recorder, error)
}

// Stream is an acquired microphone handle.
type Stream interface {
	Tracks() []Track
}

// Track is one live input of a stream. Stop releases it and is idempotent.
type Track interface {
	ID() string
	Stop()
}

// StopTracks stops every track of s. A nil stream is ignored.
func StopTracks(s Stream) {
	if s == nil {
		return
	}

	for _, t := range s.Tracks() {
		t.Stop()
	}
}

// RecorderState mirrors the lifecycle of a recorder.
type RecorderState int

const (
	RecorderInactive RecorderState = iota
	RecorderRecording
)

func (s RecorderState) String() string {
	switch s {
	case RecorderInactive:
		return "inactive"
	case RecorderRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// Recorder turns a stream into chunks of encoded audio.
//
// Events delivers DataAvailable for every chunk, Errored for capture faults
// and exactly one Stopped after the final flush that follows Stop; the channel
// is closed right after Stopped.
type Recorder interface {
	Start() error
	// Stop requests finalization. It does not wait for the flush and is a
	// no-op when the recorder is not recording.
	Stop() error
	State() RecorderState
	MimeType() string
	Events() <-chan Event
}

// Event is a message emitted by a Recorder.
type Event interface {
	isEvent()
}

// DataAvailable carries one chunk of encoded audio.
type DataAvailable struct {
	Chunk []byte
}

// Errored reports a capture-time hardware or driver fault.
type Errored struct {
	Err error
}

// Stopped signals that the recorder flushed its last chunk.
type Stopped struct{}

func (DataAvailable) isEvent() {}
func (Errored) isEvent()       {}
func (Stopped) isEvent()       {}
