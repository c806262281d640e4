// Package chatwire provides a top-level convenience entry point for creating
// providers with minimal boilerplate.
//
// Usage:
//
//	import "github.com/chatwire/chatwire"
//
//	p := chatwire.OpenAI("gpt-4o-mini")
//	p := chatwire.Anthropic("claude-sonnet-4-20250514")
//	p := chatwire.OpenAICompatible("groq", "https://api.groq.com/openai", "llama-3.3-70b")
//
// API keys come from the conventional environment variables. For anything
// beyond a single provider with defaults, use the config package and a YAML
// provider file instead.
package chatwire

import (
	"os"

	"go.uber.org/zap"

	"github.com/chatwire/chatwire/llm"
	"github.com/chatwire/chatwire/llm/dialects/anthropic"
	"github.com/chatwire/chatwire/llm/dialects/openai"
)

// OpenAI creates a provider for the OpenAI endpoint. API key from the
// OPENAI_API_KEY environment variable.
func OpenAI(model string, opts ...Option) llm.Provider {
	o := applyOptions(opts)
	return openai.New(openai.Config{
		ProviderName: "openai",
		APIKey:       o.key("OPENAI_API_KEY"),
		BaseURL:      "https://api.openai.com",
		DefaultModel: model,
	}, o.logger)
}

// Anthropic creates a provider for the Anthropic endpoint. API key from the
// ANTHROPIC_API_KEY environment variable.
func Anthropic(model string, opts ...Option) llm.Provider {
	o := applyOptions(opts)
	return anthropic.New(anthropic.Config{
		APIKey:       o.key("ANTHROPIC_API_KEY"),
		DefaultModel: model,
	}, o.logger)
}

// OpenAICompatible creates a provider for any endpoint speaking the
// chat-completions schema. API key from the CHATWIRE_API_KEY environment
// variable unless WithAPIKey overrides it.
func OpenAICompatible(name, baseURL, model string, opts ...Option) llm.Provider {
	o := applyOptions(opts)
	return openai.New(openai.Config{
		ProviderName: name,
		APIKey:       o.key("CHATWIRE_API_KEY"),
		BaseURL:      baseURL,
		DefaultModel: model,
	}, o.logger)
}

// Ollama creates a provider for a local Ollama endpoint. No real key is
// needed; a placeholder satisfies the wire shape.
func Ollama(model string, opts ...Option) llm.Provider {
	o := applyOptions(opts)
	apiKey := o.apiKey
	if apiKey == "" {
		apiKey = "ollama"
	}
	return openai.New(openai.Config{
		ProviderName: "ollama",
		APIKey:       apiKey,
		BaseURL:      "http://localhost:11434",
		DefaultModel: model,
	}, o.logger)
}

// Option adjusts a provider shortcut.
type Option func(*options)

type options struct {
	apiKey string
	logger *zap.Logger
}

// WithAPIKey overrides the environment-variable key lookup.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) key(envVar string) string {
	if o.apiKey != "" {
		return o.apiKey
	}
	return os.Getenv(envVar)
}
