// Package transcription turns voice notes into text with the Whisper API.
package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alkime/pagenotes/internal/audio"
	"github.com/alkime/pagenotes/internal/note"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var (
	ErrMissingAPIKey = errors.New("API key required: set OPENAI_API_KEY or run 'pagenotes config set-key openai <key>'")
	ErrNotAudio      = errors.New("only audio notes can be transcribed")
)

// Transcriber handles Whisper API transcription requests.
type Transcriber struct {
	apiKey string
	opts   []option.RequestOption
}

// NewTranscriber creates a new transcription client. Extra options are
// passed to every request, e.g. option.WithBaseURL for a proxy.
func NewTranscriber(apiKey string, opts ...option.RequestOption) *Transcriber {
	return &Transcriber{
		apiKey: apiKey,
		opts:   opts,
	}
}

// Transcribe sends audio of the given media type to Whisper.
func (t *Transcriber) Transcribe(ctx context.Context, r io.Reader, filename, mimeType string) (string, error) {
	if t.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(t.apiKey)}, t.opts...)...)

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(r, filename, mimeType),
		Model: openai.AudioModelWhisper1,
	}

	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	return resp.Text, nil
}

// TranscribeNote decodes an audio note's data URL and transcribes it.
func (t *Transcriber) TranscribeNote(ctx context.Context, n note.Note) (string, error) {
	if n.Type != note.TypeAudio {
		return "", fmt.Errorf("note %s: %w", n.ID, ErrNotAudio)
	}

	mimeType, raw, err := audio.DecodeDataURL(n.Content)
	if err != nil {
		return "", fmt.Errorf("note %s: %w", n.ID, err)
	}

	return t.Transcribe(ctx, bytes.NewReader(raw), "note-"+n.ID+Extension(mimeType), mimeType)
}

// Extension picks a file extension Whisper recognises for mimeType.
func Extension(mimeType string) string {
	switch audio.ContainerType(mimeType) {
	case audio.TypeWebM:
		return ".webm"
	case audio.TypeMPEG:
		return ".mp3"
	default:
		return ".ogg"
	}
}
