package openai

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

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// decoder decodes one index-addressed SSE stream. One instance per call,
// driven by a single goroutine.
type decoder struct {
	provider string
	logger   *zap.Logger
	acc      *streaming.ToolCallAccumulator
	usage    *llm.Usage
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
		if line == "" || !strings.HasPrefix(line, dataPrefix) {
			return false
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
		if payload == doneSentinel {
			ended = d.finish(ctx, events)
			return true
		}

		var chunk wireStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// A single bad frame never aborts the stream.
			d.logger.Debug("skipping malformed frame", zap.Error(err))
			return false
		}
		if chunk.Usage != nil {
			d.usage = &llm.Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
		}

		for _, choice := range chunk.Choices {
			if choice.Delta != nil {
				if choice.Delta.Content != "" {
					ev := llm.StreamEvent{Kind: llm.EventTextDelta, Text: choice.Delta.Content}
					if !streaming.Send(ctx, events, ev) {
						aborted = true
						return true
					}
				}
				for _, tc := range choice.Delta.ToolCalls {
					d.acc.Merge(tc.Index, tc.ID, tc.Function.Name, tc.Function.Arguments)
				}
			}
			if choice.FinishReason == "tool_calls" || choice.FinishReason == "stop" {
				if !d.flush(ctx, events) {
					aborted = true
					return true
				}
			}
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
		// Upstream closed without the sentinel; complete calls still flush
		// no later than stream end.
		d.finish(ctx, events)
	}
}

func (d *decoder) flush(ctx context.Context, events chan<- llm.StreamEvent) bool {
	for _, tc := range d.acc.Flush() {
		tc := tc
		if !streaming.Send(ctx, events, llm.StreamEvent{Kind: llm.EventToolCall, ToolCall: &tc}) {
			return false
		}
	}
	return true
}

func (d *decoder) finish(ctx context.Context, events chan<- llm.StreamEvent) bool {
	if !d.flush(ctx, events) {
		return false
	}
	return streaming.Send(ctx, events, llm.StreamEvent{Kind: llm.EventEnd, Usage: d.usage})
}
