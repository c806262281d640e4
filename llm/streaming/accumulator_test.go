package streaming

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolCallAccumulator_ReassemblesFragments(t *testing.T) {
	acc := NewToolCallAccumulator()
	acc.Merge(0, "c1", "", "")
	acc.Merge(0, "", "search", "")
	acc.Merge(0, "", "", `{"q":`)
	acc.Merge(0, "", "", `"x"}`)

	calls := acc.Flush()
	require.Len(t, calls, 1)
	assert.Equal(t, "c1", calls[0].ID)
	assert.Equal(t, "search", calls[0].Name)
	assert.Equal(t, `{"q":"x"}`, string(calls[0].Arguments))
	assert.Zero(t, acc.Len(), "buffers cleared after flush")
}

func TestToolCallAccumulator_MissingNameDropped(t *testing.T) {
	acc := NewToolCallAccumulator()
	acc.Merge(0, "c1", "", `{"a":1}`)
	assert.Empty(t, acc.Flush())
}

func TestToolCallAccumulator_MissingIDDropped(t *testing.T) {
	acc := NewToolCallAccumulator()
	acc.Merge(0, "", "search", `{"a":1}`)
	assert.Empty(t, acc.Flush())
}

func TestToolCallAccumulator_FlushInIndexOrder(t *testing.T) {
	acc := NewToolCallAccumulator()
	acc.Merge(1, "c2", "second", `{}`)
	acc.Merge(0, "c1", "first", `{}`)

	calls := acc.Flush()
	require.Len(t, calls, 2)
	assert.Equal(t, "c1", calls[0].ID)
	assert.Equal(t, "c2", calls[1].ID)
}

func TestToolCallAccumulator_FlushIndex(t *testing.T) {
	acc := NewToolCallAccumulator()
	acc.Merge(2, "tu_1", "lookup", "")
	acc.Merge(2, "", "", `{"key":"v"}`)

	tc, ok := acc.FlushIndex(2)
	require.True(t, ok)
	assert.Equal(t, "tu_1", tc.ID)
	assert.Equal(t, "lookup", tc.Name)
	assert.Equal(t, `{"key":"v"}`, string(tc.Arguments))

	_, ok = acc.FlushIndex(2)
	assert.False(t, ok, "buffer removed after flush")
}

func TestToolCallAccumulator_EmptyArgumentsDefaultToObject(t *testing.T) {
	acc := NewToolCallAccumulator()
	acc.Merge(0, "c1", "ping", "")

	calls := acc.Flush()
	require.Len(t, calls, 1)
	assert.Equal(t, json.RawMessage(`{}`), calls[0].Arguments)
}

func TestToolCallAccumulator_Discard(t *testing.T) {
	acc := NewToolCallAccumulator()
	acc.Merge(0, "c1", "search", `{"q":"x"}`)
	acc.Discard()
	assert.Empty(t, acc.Flush())
}
