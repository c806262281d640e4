package streaming

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/chatwire/chatwire/llm"
)

// toolCallBuffer accumulates the fragments of one in-flight tool call,
// keyed by its stream-assigned index.
type toolCallBuffer struct {
	index int
	id    string
	name  string
	args  strings.Builder
}

// ToolCallAccumulator reassembles multi-frame tool calls. A buffer is
// created lazily on the first sighting of an index; at most one buffer
// exists per index per stream session. Buffers either flush as exactly one
// complete tool call or are discarded, never partially emitted.
type ToolCallAccumulator struct {
	buffers map[int]*toolCallBuffer
}

func NewToolCallAccumulator() *ToolCallAccumulator {
	return &ToolCallAccumulator{buffers: make(map[int]*toolCallBuffer)}
}

func (a *ToolCallAccumulator) buffer(index int) *toolCallBuffer {
	b, ok := a.buffers[index]
	if !ok {
		b = &toolCallBuffer{index: index}
		a.buffers[index] = b
	}
	return b
}

// Merge folds one delta into the buffer for index. Non-empty id and name
// fields replace the stored values; the argument fragment is appended
// strictly in arrival order.
func (a *ToolCallAccumulator) Merge(index int, id, name, args string) {
	b := a.buffer(index)
	if id != "" {
		b.id = id
	}
	if name != "" {
		b.name = name
	}
	b.args.WriteString(args)
}

// FlushIndex completes the buffer for one index, used by the block-oriented
// dialect on its stop marker. It reports false when the buffer is absent or
// still missing id or name; the buffer is removed either way.
func (a *ToolCallAccumulator) FlushIndex(index int) (llm.ToolCall, bool) {
	b, ok := a.buffers[index]
	if !ok {
		return llm.ToolCall{}, false
	}
	delete(a.buffers, index)
	return b.complete()
}

// Flush completes every buffer holding both an id and a name, in index
// order, and clears the accumulator. Buffers missing either field are
// dropped silently.
func (a *ToolCallAccumulator) Flush() []llm.ToolCall {
	if len(a.buffers) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(a.buffers))
	for i := range a.buffers {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]llm.ToolCall, 0, len(indexes))
	for _, i := range indexes {
		if tc, ok := a.buffers[i].complete(); ok {
			out = append(out, tc)
		}
	}
	a.buffers = make(map[int]*toolCallBuffer)
	return out
}

// Discard drops all buffered fragments without flushing. Cancellation path.
func (a *ToolCallAccumulator) Discard() {
	a.buffers = make(map[int]*toolCallBuffer)
}

// Len returns the number of in-flight buffers.
func (a *ToolCallAccumulator) Len() int { return len(a.buffers) }

func (b *toolCallBuffer) complete() (llm.ToolCall, bool) {
	if b.id == "" || b.name == "" {
		return llm.ToolCall{}, false
	}
	args := b.args.String()
	if args == "" {
		args = "{}"
	}
	return llm.ToolCall{ID: b.id, Name: b.name, Arguments: json.RawMessage(args)}, true
}
