package streaming

import (
	"strings"
	"unicode/utf8"
)

// ChunkDecoder converts successive byte chunks to text, completing
// multi-byte UTF-8 code points split across chunk boundaries. At most one
// incomplete trailing sequence (up to three bytes) is withheld between
// chunks. Genuinely malformed bytes degrade to U+FFFD; decoding never
// fails.
type ChunkDecoder struct {
	pending []byte
}

// Decode returns the text encoded by pending bytes plus chunk, withholding
// an incomplete trailing code point for the next call. The chunk is copied
// where needed, so the caller may reuse its buffer.
func (d *ChunkDecoder) Decode(chunk []byte) string {
	buf := chunk
	if len(d.pending) > 0 {
		buf = append(d.pending, chunk...)
		d.pending = nil
	}

	cut := len(buf)
	// Only the last utf8.UTFMax-1 bytes can hold an incomplete sequence.
	for i := len(buf) - 1; i >= 0 && i > len(buf)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(buf[i]) {
			continue
		}
		if !utf8.FullRune(buf[i:]) {
			cut = i
		}
		break
	}
	if cut < len(buf) {
		d.pending = append([]byte(nil), buf[cut:]...)
	}
	return strings.ToValidUTF8(string(buf[:cut]), "�")
}

// Flush drains the withheld remainder at end of stream. An incomplete
// sequence left over at that point is malformed and decodes to U+FFFD.
func (d *ChunkDecoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	s := strings.ToValidUTF8(string(d.pending), "�")
	d.pending = nil
	return s
}
