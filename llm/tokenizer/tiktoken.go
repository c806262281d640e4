package tokenizer

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/chatwire/chatwire/llm"
)

// modelEncodings maps OpenAI-family model prefixes to tiktoken encodings.
var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

// Tiktoken counts tokens exactly for OpenAI-family models.
type Tiktoken struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
	initErr  error
}

// NewTiktoken returns a tiktoken-backed counter, or an error when the model
// has no known encoding.
func NewTiktoken(model string) (*Tiktoken, error) {
	for prefix, encoding := range modelEncodings {
		if strings.HasPrefix(model, prefix) {
			return &Tiktoken{encoding: encoding}, nil
		}
	}
	return nil, fmt.Errorf("no tiktoken encoding for model %q", model)
}

// init loads the encoding lazily; first use may download vocabulary data.
func (t *Tiktoken) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *Tiktoken) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

func (t *Tiktoken) CountMessages(messages []llm.ChatMessage) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	total := 0
	for _, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			return 0, err
		}
		total += len(t.enc.Encode(string(data), nil, nil))
	}
	return total, nil
}

func (t *Tiktoken) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}
