package llm

import "context"

// EventKind tags a StreamEvent.
type EventKind string

const (
	// EventTextDelta carries an incremental text fragment, emitted in
	// arrival order with no batching beyond what frames provide.
	EventTextDelta EventKind = "text_delta"
	// EventToolCall carries a fully reassembled tool call: id, name and
	// completely concatenated arguments. Emitted exactly once per call.
	EventToolCall EventKind = "tool_call"
	// EventEnd signals clean stream termination. Usage may be attached
	// when the dialect reports it.
	EventEnd EventKind = "end"
	// EventError signals a terminal stream failure. No further events
	// follow it.
	EventError EventKind = "error"
)

// StreamEvent is one normalized decoder output. Only the fields matching
// Kind are set.
type StreamEvent struct {
	Kind     EventKind `json:"kind"`
	Text     string    `json:"text,omitempty"`
	ToolCall *ToolCall `json:"tool_call,omitempty"`
	Usage    *Usage    `json:"usage,omitempty"`
	Err      *Error    `json:"error,omitempty"`
}

// ProgressSink receives normalized events on behalf of the host. Methods are
// called from a single goroutine in event order.
type ProgressSink interface {
	Text(delta string)
	ToolCall(tc ToolCall)
}

// Drain pumps a stream-event channel into a progress sink and returns the
// terminal result. A clean end returns the reported usage (possibly nil) and
// a nil error. A cancelled stream also returns nil: cancellation is a silent
// stop, not a failure. An error event is returned as-is.
func Drain(ctx context.Context, events <-chan StreamEvent, sink ProgressSink) (*Usage, error) {
	var usage *Usage
	for {
		select {
		case <-ctx.Done():
			return nil, nil
		case ev, ok := <-events:
			if !ok {
				return usage, nil
			}
			switch ev.Kind {
			case EventTextDelta:
				sink.Text(ev.Text)
			case EventToolCall:
				sink.ToolCall(*ev.ToolCall)
			case EventEnd:
				usage = ev.Usage
			case EventError:
				return nil, ev.Err
			}
		}
	}
}
