package llm

import "context"

// Provider is the uniform adapter interface implemented by each wire
// dialect. One Provider instance talks to one upstream endpoint; multiple
// completion calls may run concurrently on it and are independent except
// for the shared model-list cache.
type Provider interface {
	// Name returns the provider's unique identifier.
	Name() string

	// Stream issues a streaming chat completion. The returned channel
	// delivers normalized events and is closed after the terminal event,
	// or without one when the call is cancelled.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error)

	// Completion issues a synchronous chat completion and returns the
	// full response.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// ListModels returns the provider's model list, served from the TTL
	// cache unless forceRefresh is set.
	ListModels(ctx context.Context, forceRefresh bool) ([]Model, error)

	// HealthCheck probes the provider's models endpoint and reports
	// reachability and latency.
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}
