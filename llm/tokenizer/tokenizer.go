// Package tokenizer provides token counting for budget checks before a
// completion call. The host-facing default is a cheap length-based
// estimator; OpenAI-family models can opt into exact tiktoken counts.
package tokenizer

import (
	"github.com/chatwire/chatwire/llm"
)

// Tokenizer is the counting interface used by the adapter's callers.
type Tokenizer interface {
	// CountTokens returns the token count for a plain string.
	CountTokens(text string) (int, error)

	// CountMessages returns the total count for a message list, including
	// per-message serialization overhead.
	CountMessages(messages []llm.ChatMessage) (int, error)

	// Name identifies the counting strategy.
	Name() string
}

// ForModel returns an exact counter when one is known for the model and the
// generic estimator otherwise.
func ForModel(model string) Tokenizer {
	if t, err := NewTiktoken(model); err == nil {
		return t
	}
	return Estimator{}
}
