package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/chatwire/chatwire/llm"
	"github.com/chatwire/chatwire/llm/dialects"
	"github.com/chatwire/chatwire/llm/streaming"
)

const dataPrefix = "data:"

// decoder decodes one block-oriented SSE stream. One instance per call,
// driven by a single goroutine.
type decoder struct {
	provider string
	logger   *zap.Logger
	acc      *streaming.ToolCallAccumulator
	usage    llm.Usage
	hasUsage bool
}

func newDecoder(provider string, logger *zap.Logger) *decoder {
	return &decoder{
		provider: provider,
		logger:   logger,
		acc:      streaming.NewToolCallAccumulator(),
	}
}

func (d *decoder) decode(ctx context.Context, body io.Reader, events chan<- llm.StreamEvent) {
	ended := false
	aborted := false

	err := streaming.ReadFrames(ctx, body, func(line string) bool {
		line = strings.TrimSpace(line)
		// Frames arrive as "event: <type>" / "data: <json>" pairs; the
		// payload's type field is authoritative, so event lines are noise.
		if line == "" || !strings.HasPrefix(line, dataPrefix) {
			return false
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))

		var ev wireEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			// A single bad frame never aborts the stream.
			d.logger.Debug("skipping malformed frame", zap.Error(err))
			return false
		}

		switch ev.Type {
		case "message_start":
			if ev.Message != nil && ev.Message.Usage != nil {
				d.usage.PromptTokens = ev.Message.Usage.InputTokens
				d.hasUsage = true
			}

		case "content_block_start":
			if ev.ContentBlock != nil && ev.ContentBlock.Type == "tool_use" {
				// Arguments arrive exclusively via input_json_delta frames;
				// the start block only fixes id and name.
				d.acc.Merge(ev.Index, ev.ContentBlock.ID, ev.ContentBlock.Name, "")
			}

		case "content_block_delta":
			if ev.Delta == nil {
				return false
			}
			switch ev.Delta.Type {
			case "text_delta":
				if ev.Delta.Text != "" {
					out := llm.StreamEvent{Kind: llm.EventTextDelta, Text: ev.Delta.Text}
					if !streaming.Send(ctx, events, out) {
						aborted = true
						return true
					}
				}
			case "input_json_delta":
				d.acc.Merge(ev.Index, "", "", ev.Delta.PartialJSON)
			}

		case "content_block_stop":
			if tc, ok := d.acc.FlushIndex(ev.Index); ok {
				if !streaming.Send(ctx, events, llm.StreamEvent{Kind: llm.EventToolCall, ToolCall: &tc}) {
					aborted = true
					return true
				}
			}

		case "message_delta":
			if ev.Usage != nil {
				d.usage.CompletionTokens = ev.Usage.OutputTokens
				d.hasUsage = true
			}

		case "message_stop":
			ended = d.finish(ctx, events)
			return true
		}
		return false
	})

	switch {
	case aborted || ctx.Err() != nil:
		// Cancellation: buffered tool calls are discarded, never flushed,
		// and no end event is emitted.
		d.acc.Discard()
	case err != nil:
		d.acc.Discard()
		streaming.Send(ctx, events, llm.StreamEvent{
			Kind: llm.EventError,
			Err:  dialects.UpstreamError(err, d.provider),
		})
	case !ended:
		// Upstream closed without message_stop; complete calls still flush
		// no later than stream end.
		d.finish(ctx, events)
	}
}

func (d *decoder) finish(ctx context.Context, events chan<- llm.StreamEvent) bool {
	for _, tc := range d.acc.Flush() {
		tc := tc
		if !streaming.Send(ctx, events, llm.StreamEvent{Kind: llm.EventToolCall, ToolCall: &tc}) {
			return false
		}
	}
	end := llm.StreamEvent{Kind: llm.EventEnd}
	if d.hasUsage {
		u := d.usage
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
		end.Usage = &u
	}
	return streaming.Send(ctx, events, end)
}
