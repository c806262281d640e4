package llm

import (
	"context"
	"time"
)

// WithCancel merges the host's stop channel and an optional timeout into a
// single context observed by both the transport and the stream decoder.
// Either source firing aborts the call; abort is idempotent. A zero timeout
// disables the deadline; a nil stop channel never fires.
//
// The returned CancelFunc must be called to release the watcher goroutine.
func WithCancel(parent context.Context, timeout time.Duration, stop <-chan struct{}) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	if stop == nil {
		return ctx, cancel
	}

	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
