package streaming

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader delivers its chunks one Read at a time, mimicking a network
// body that returns partial frames.
type chunkReader struct {
	chunks [][]byte
	pos    int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.pos])
	r.pos++
	return n, nil
}

func TestReadFrames_DeliversCompleteLines(t *testing.T) {
	body := &chunkReader{chunks: [][]byte{
		[]byte("one\ntw"),
		[]byte("o\nthree\n"),
	}}
	var got []string
	err := ReadFrames(context.Background(), body, func(line string) bool {
		got = append(got, line)
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestReadFrames_FinalFrameWithoutNewline(t *testing.T) {
	body := &chunkReader{chunks: [][]byte{[]byte("a\nb")}}
	var got []string
	err := ReadFrames(context.Background(), body, func(line string) bool {
		got = append(got, line)
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestReadFrames_SplitUTF8AcrossChunks(t *testing.T) {
	raw := []byte("héllo\n")
	body := &chunkReader{chunks: [][]byte{raw[:2], raw[2:]}}
	var got []string
	err := ReadFrames(context.Background(), body, func(line string) bool {
		got = append(got, line)
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"héllo"}, got)
}

func TestReadFrames_HandlerStopsLoop(t *testing.T) {
	body := &chunkReader{chunks: [][]byte{[]byte("a\nSTOP\nnever\n")}}
	var got []string
	err := ReadFrames(context.Background(), body, func(line string) bool {
		got = append(got, line)
		return line == "STOP"
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "STOP"}, got)
}

func TestReadFrames_CancelledBetweenFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	body := &chunkReader{chunks: [][]byte{[]byte("a\nb\nc\n")}}
	var got []string
	err := ReadFrames(ctx, body, func(line string) bool {
		got = append(got, line)
		cancel()
		return false
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, got, "no frames after the abort")
}

func TestReadFrames_TransportErrorReturned(t *testing.T) {
	err := ReadFrames(context.Background(), io.MultiReader(
		&chunkReader{chunks: [][]byte{[]byte("a\n")}},
		errReader{},
	), func(string) bool { return false })
	assert.EqualError(t, err, "connection reset")
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errConnReset
}

var errConnReset = &netError{"connection reset"}

type netError struct{ msg string }

func (e *netError) Error() string { return e.msg }
