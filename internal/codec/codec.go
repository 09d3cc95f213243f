// Package codec picks the audio encoding a capture session records with.
package codec

import "log/slog"

// Encodings in order of preference.
const (
	OpusWebM = "audio/webm;codecs=opus"
	WebM     = "audio/webm"
	Ogg      = "audio/ogg"

	// Default leaves the choice to the recorder.
	Default = ""
)

var preferences = []string{OpusWebM, WebM, Ogg}

// Prober answers the capture runtime's capability query.
type Prober interface {
	IsTypeSupported(mimeType string) bool
}

// ProberFunc adapts a function to a Prober.
type ProberFunc func(mimeType string) bool

// IsTypeSupported implements Prober.
func (f ProberFunc) IsTypeSupported(mimeType string) bool {
	return f(mimeType)
}

// Negotiate returns the most preferred encoding the prober supports, or
// Default when none is supported or the capability query is unavailable.
func Negotiate(p Prober) (mimeType string) {
	if p == nil {
		return Default
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Debug("codec capability query failed", "panic", r)
			mimeType = Default
		}
	}()

	for _, candidate := range preferences {
		if p.IsTypeSupported(candidate) {
			return candidate
		}
	}

	return Default
}
