package channels

import (
	"context"
	"fmt"
)

// SendNonBlock attempts to send a message without blocking.
// Returns error if the channel is full or closed.
func SendNonBlock[T any](ch chan<- T, msg T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrChannelClosed
		}
	}()

	select {
	case ch <- msg:
		return nil
	default:
		return ErrChannelFull
	}
}

// SendContext blocks until msg is sent or ctx is done.
// Returns error if ctx ends first or the channel is closed.
func SendContext[T any](ctx context.Context, ch chan<- T, msg T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrChannelClosed
		}
	}()

	select {
	case ch <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send abandoned: %w", ctx.Err())
	}
}
