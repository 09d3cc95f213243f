// Package audio turns finalized recorder chunks into a self-describing
// string that can be stored as note content and played back as-is.
package audio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrEncoding is returned when a recording cannot be turned into text.
var ErrEncoding = errors.New("audio encoding failed")

// Container types a blob may be labelled with.
const (
	TypeWebM = "audio/webm"
	TypeOgg  = "audio/ogg"
	TypeMPEG = "audio/mpeg"
)

const dataURLPrefix = "data:"

// ContainerType maps a codec hint to the type the assembled blob carries:
// WebM for a webm hint, otherwise Ogg. MP3 is a third branch on top of that
// rule for the device recorder, which encodes MPEG audio itself.
func ContainerType(hint string) string {
	h := strings.ToLower(hint)

	switch {
	case strings.Contains(h, "webm"):
		return TypeWebM
	case strings.Contains(h, "mpeg"), strings.Contains(h, "mp3"):
		return TypeMPEG
	default:
		return TypeOgg
	}
}

// Blob is the ordered concatenation of recorder chunks.
type Blob struct {
	Type   string
	chunks [][]byte
}

// NewBlob assembles chunks in order, typed from hint.
func NewBlob(chunks [][]byte, hint string) Blob {
	return Blob{Type: ContainerType(hint), chunks: chunks}
}

// Size is the total byte length of the blob.
func (b Blob) Size() int {
	n := 0
	for _, c := range b.chunks {
		n += len(c)
	}

	return n
}

// Reader streams the blob's bytes.
func (b Blob) Reader() io.Reader {
	readers := make([]io.Reader, len(b.chunks))
	for i, c := range b.chunks {
		readers[i] = bytes.NewReader(c)
	}

	return io.MultiReader(readers...)
}

// Encoder produces data URLs from blobs.
type Encoder struct {
	logger *slog.Logger
}

func NewEncoder(logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}

	return &Encoder{logger: logger}
}

// Encode assembles chunks into one blob and returns it as a data URL.
// Reading happens in a goroutine; Encode waits for it or for ctx.
func (e *Encoder) Encode(ctx context.Context, chunks [][]byte, hint string) (string, error) {
	return e.EncodeBlob(ctx, NewBlob(chunks, hint))
}

// EncodeBlob is Encode for an already assembled blob.
func (e *Encoder) EncodeBlob(ctx context.Context, blob Blob) (string, error) {
	return e.encodeFrom(ctx, blob.Type, blob.Reader(), blob.Size())
}

func (e *Encoder) encodeFrom(ctx context.Context, mimeType string, r io.Reader, size int) (string, error) {
	type outcome struct {
		text string
		err  error
	}

	done := make(chan outcome, 1)

	go func() {
		var sb strings.Builder
		sb.Grow(len(dataURLPrefix) + len(mimeType) + len(";base64,") + base64.StdEncoding.EncodedLen(size))
		sb.WriteString(dataURLPrefix)
		sb.WriteString(mimeType)
		sb.WriteString(";base64,")

		enc := base64.NewEncoder(base64.StdEncoding, &sb)
		if _, err := io.Copy(enc, r); err != nil {
			done <- outcome{err: fmt.Errorf("%w: read blob: %w", ErrEncoding, err)}
			return
		}

		if err := enc.Close(); err != nil {
			done <- outcome{err: fmt.Errorf("%w: flush base64: %w", ErrEncoding, err)}
			return
		}

		done <- outcome{text: sb.String()}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return "", out.err
		}

		e.logger.Debug("encoded audio blob", "type", mimeType, "bytes", size)

		return out.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrEncoding, ctx.Err())
	}
}

// DecodeDataURL splits a base64 data URL into its media type and payload.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, dataURLPrefix)
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data URL", ErrEncoding)
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URL has no payload", ErrEncoding)
	}

	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URL is not base64", ErrEncoding)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return mimeType, raw, nil
}

// IsDataURL reports whether s looks like audio content produced by Encode.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, dataURLPrefix+"audio/")
}
