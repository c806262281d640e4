// Package streaming holds the decoder machinery shared by the wire
// dialects: chunk-boundary UTF-8 decoding, newline framing, the tool-call
// accumulator, and the frame read loop. The dialect packages supply the
// frame semantics; this package guarantees that chunk boundaries are
// invisible to them.
package streaming
