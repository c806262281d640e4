package streaming

import (
	"context"
	"io"
)

// FrameHandler processes one complete frame line. Returning true ends
// decoding cleanly (termination sentinel observed).
type FrameHandler func(line string) (done bool)

// ReadFrames drives the decode loop for one completion call: it reads byte
// chunks from body, completes split UTF-8 sequences, splits frames, and
// hands each complete line to handle. The loop is strictly sequential and
// suspends only while awaiting the next chunk.
//
// Cancellation is checked between frames, never mid-frame; when ctx fires
// the context error is returned and no further frames are delivered. A
// transport read failure is returned as-is. End of input delivers any
// unterminated final frame, then returns nil.
func ReadFrames(ctx context.Context, body io.Reader, handle FrameHandler) error {
	var dec ChunkDecoder
	var framer LineFramer
	buf := make([]byte, 4096)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range framer.Split(dec.Decode(buf[:n])) {
				if err := ctx.Err(); err != nil {
					return err
				}
				if handle(line) {
					return nil
				}
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				return readErr
			}
			break
		}
	}

	// Flush the undecoded remainder and a final frame without a newline.
	for _, line := range framer.Split(dec.Flush()) {
		if handle(line) {
			return nil
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if tail := framer.Tail(); tail != "" {
		handle(tail)
	}
	return nil
}
