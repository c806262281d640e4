// Package openai implements the index-addressed streaming dialect: SSE
// frames prefixed with "data:", tool-call deltas addressed by ordinal
// index, and a [DONE] termination sentinel. Besides OpenAI itself this
// dialect covers the OpenAI-compatible endpoints exposed by Ollama and
// similar gateways; only the base URL and headers differ.
package openai
