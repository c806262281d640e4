package streaming

import (
	"context"

	"github.com/chatwire/chatwire/llm"
)

// Send delivers one event unless the call has been aborted. It reports
// false when ctx fired first; the decoder must then stop without flushing.
func Send(ctx context.Context, events chan<- llm.StreamEvent, ev llm.StreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- ev:
		return true
	}
}
