package streaming

import "strings"

// LineFramer splits incrementally delivered text into newline-delimited
// frames. The fragment after the final newline of a chunk is buffered and
// prepended to the next chunk before re-splitting.
type LineFramer struct {
	tail string
}

// Split returns the complete lines contained in buffered tail plus text,
// without their trailing newline. The unterminated remainder is kept.
func (f *LineFramer) Split(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(f.tail+text, "\n")
	f.tail = parts[len(parts)-1]
	if len(parts) == 1 {
		return nil
	}
	return parts[:len(parts)-1]
}

// Tail returns and clears the unterminated remainder. Called once at end of
// stream so a final frame without a newline is not lost.
func (f *LineFramer) Tail() string {
	t := f.tail
	f.tail = ""
	return t
}
