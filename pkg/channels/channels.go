// Package channels holds small helpers for sending on channels that may be
// full or already closed by their owner.
package channels

import (
	"errors"
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrChannelFull   = errors.New("channel full")
)
