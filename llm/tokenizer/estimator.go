package tokenizer

import (
	"encoding/json"

	"github.com/chatwire/chatwire/llm"
)

// Estimator counts tokens as ceil(length/4), applied to a plain string or
// to the JSON serialization of a message. Deliberately crude: it is the
// upper-bound check hosts apply before a call, not billing arithmetic.
type Estimator struct{}

func (Estimator) CountTokens(text string) (int, error) {
	return (len(text) + 3) / 4, nil
}

func (Estimator) CountMessages(messages []llm.ChatMessage) (int, error) {
	total := 0
	for _, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			return 0, err
		}
		total += (len(data) + 3) / 4
	}
	return total, nil
}

func (Estimator) Name() string { return "estimator" }
