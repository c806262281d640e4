package anthropic

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chatwire/chatwire/llm"
)

func decodeAll(t *testing.T, stream string) []llm.StreamEvent {
	t.Helper()
	events := make(chan llm.StreamEvent)
	go func() {
		defer close(events)
		newDecoder("test", zap.NewNop()).decode(context.Background(), strings.NewReader(stream), events)
	}()
	var got []llm.StreamEvent
	for ev := range events {
		got = append(got, ev)
	}
	return got
}

func textOf(events []llm.StreamEvent) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.Kind == llm.EventTextDelta {
			b.WriteString(ev.Text)
		}
	}
	return b.String()
}

func TestDecode_TextDeltas(t *testing.T) {
	stream := "event: message_start\n" +
		`data: {"type":"message_start","message":{"usage":{"input_tokens":12}}}` + "\n\n" +
		"event: content_block_start\n" +
		`data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}` + "\n\n" +
		"event: content_block_delta\n" +
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}` + "\n\n" +
		"event: content_block_delta\n" +
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}` + "\n\n" +
		"event: content_block_stop\n" +
		`data: {"type":"content_block_stop","index":0}` + "\n\n" +
		"event: message_delta\n" +
		`data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":5}}` + "\n\n" +
		"event: message_stop\n" +
		`data: {"type":"message_stop"}` + "\n"

	events := decodeAll(t, stream)
	require.Len(t, events, 3)
	assert.Equal(t, "Hel", events[0].Text)
	assert.Equal(t, "lo", events[1].Text)

	end := events[2]
	require.Equal(t, llm.EventEnd, end.Kind)
	require.NotNil(t, end.Usage)
	assert.Equal(t, 12, end.Usage.PromptTokens)
	assert.Equal(t, 5, end.Usage.CompletionTokens)
	assert.Equal(t, 17, end.Usage.TotalTokens)
}

func TestDecode_ToolUseReassembly(t *testing.T) {
	stream := `data: {"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"tu_1","name":"search"}}` + "\n" +
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"q\":"}}` + "\n" +
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"\"x\"}"}}` + "\n" +
		`data: {"type":"content_block_stop","index":0}` + "\n" +
		`data: {"type":"message_stop"}` + "\n"

	events := decodeAll(t, stream)
	require.Len(t, events, 2)
	require.Equal(t, llm.EventToolCall, events[0].Kind)
	assert.Equal(t, "tu_1", events[0].ToolCall.ID)
	assert.Equal(t, "search", events[0].ToolCall.Name)
	assert.Equal(t, `{"q":"x"}`, string(events[0].ToolCall.Arguments))
	assert.Equal(t, llm.EventEnd, events[1].Kind)
}

func TestDecode_ToolUseWithoutArguments(t *testing.T) {
	// No input_json_delta frames at all: arguments default to an empty object.
	stream := `data: {"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"tu_1","name":"ping"}}` + "\n" +
		`data: {"type":"content_block_stop","index":0}` + "\n" +
		`data: {"type":"message_stop"}` + "\n"

	events := decodeAll(t, stream)
	require.Len(t, events, 2)
	assert.Equal(t, `{}`, string(events[0].ToolCall.Arguments))
}

func TestDecode_TextBlockStopEmitsNothing(t *testing.T) {
	stream := `data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}` + "\n" +
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"hi"}}` + "\n" +
		`data: {"type":"content_block_stop","index":0}` + "\n" +
		`data: {"type":"message_stop"}` + "\n"

	events := decodeAll(t, stream)
	require.Len(t, events, 2)
	assert.Equal(t, llm.EventTextDelta, events[0].Kind)
	assert.Equal(t, llm.EventEnd, events[1].Kind)
}

func TestDecode_InterleavedBlocks(t *testing.T) {
	stream := `data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Looking that up. "}}` + "\n" +
		`data: {"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"tu_1","name":"lookup"}}` + "\n" +
		`data: {"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{}"}}` + "\n" +
		`data: {"type":"content_block_stop","index":1}` + "\n" +
		`data: {"type":"message_stop"}` + "\n"

	events := decodeAll(t, stream)
	require.Len(t, events, 3)
	assert.Equal(t, llm.EventTextDelta, events[0].Kind)
	assert.Equal(t, llm.EventToolCall, events[1].Kind)
	assert.Equal(t, "lookup", events[1].ToolCall.Name)
	assert.Equal(t, llm.EventEnd, events[2].Kind)
}

func TestDecode_PingAndUnknownEventsIgnored(t *testing.T) {
	stream := `data: {"type":"ping"}` + "\n" +
		`data: {"type":"some_future_event","index":9}` + "\n" +
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"x"}}` + "\n" +
		`data: {"type":"message_stop"}` + "\n"

	events := decodeAll(t, stream)
	assert.Equal(t, "x", textOf(events))
	assert.Equal(t, llm.EventEnd, events[len(events)-1].Kind)
}

func TestDecode_MalformedFrameSkipped(t *testing.T) {
	stream := `data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"a"}}` + "\n" +
		"data: {not json}\n" +
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"b"}}` + "\n" +
		`data: {"type":"message_stop"}` + "\n"

	events := decodeAll(t, stream)
	assert.Equal(t, "ab", textOf(events))
}

func TestDecode_EOFWithoutMessageStopStillEnds(t *testing.T) {
	stream := `data: {"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"tu_1","name":"search"}}` + "\n" +
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{}"}}` + "\n"

	events := decodeAll(t, stream)
	require.Len(t, events, 2)
	assert.Equal(t, llm.EventToolCall, events[0].Kind, "complete buffers flush no later than stream end")
	assert.Equal(t, llm.EventEnd, events[1].Kind)
}

func TestDecode_CancelledMidStreamEmitsNothingFurther(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pr, pw := io.Pipe()
	events := make(chan llm.StreamEvent)
	go func() {
		defer close(events)
		newDecoder("test", zap.NewNop()).decode(ctx, pr, events)
	}()

	_, err := pw.Write([]byte(`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"a"}}` + "\n" +
		`data: {"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"tu_1","name":"search"}}` + "\n"))
	require.NoError(t, err)

	first := <-events
	assert.Equal(t, llm.EventTextDelta, first.Kind)

	// Abort, then deliver the rest of the message: the buffered tool call is
	// discarded and no further events surface.
	cancel()
	_, _ = pw.Write([]byte(`data: {"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{}"}}` + "\n" +
		`data: {"type":"content_block_stop","index":1}` + "\n" +
		`data: {"type":"message_stop"}` + "\n"))
	pw.Close()

	var rest []llm.StreamEvent
	for ev := range events {
		rest = append(rest, ev)
	}
	assert.Empty(t, rest, "no events after the abort")
}
