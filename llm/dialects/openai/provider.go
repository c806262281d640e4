package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatwire/chatwire/internal/tlsutil"
	"github.com/chatwire/chatwire/llm"
	"github.com/chatwire/chatwire/llm/dialects"
	"github.com/chatwire/chatwire/llm/models"
)

// Config holds the configuration for an index-addressed dialect provider.
type Config struct {
	// ProviderName is the unique identifier for this provider
	// (e.g. "openai", "ollama").
	ProviderName string

	// APIKey authenticates against the provider. Checked before any I/O;
	// a blank key is a configuration error at call time.
	APIKey string

	// BaseURL is the API base (e.g. "https://api.openai.com").
	BaseURL string

	// DefaultModel is used when the request does not name one.
	DefaultModel string

	// Timeout bounds one completion call end to end. Defaults to 120s;
	// a per-request timeout overrides it.
	Timeout time.Duration

	// EndpointPath is the chat completions path. Defaults to
	// "/v1/chat/completions".
	EndpointPath string

	// ModelsTTL is the model-list cache validity window.
	ModelsTTL time.Duration

	// ModelDefaults fills model-list fields the endpoint omits.
	ModelDefaults models.Defaults

	// BuildHeaders optionally replaces the default Bearer auth headers.
	BuildHeaders func(*http.Request, string)
}

// Provider implements llm.Provider for the index-addressed dialect.
type Provider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
	models *models.Registry
}

// New creates a provider with the given config. A nil logger is replaced
// with a nop logger.
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	if cfg.BuildHeaders == nil {
		cfg.BuildHeaders = dialects.BearerHeaders
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := tlsutil.StreamingHTTPClient()
	return &Provider{
		cfg:    cfg,
		client: client,
		logger: logger,
		models: models.New(models.Config{
			Provider: cfg.ProviderName,
			BaseURL:  dialects.Endpoint(cfg.BaseURL, cfg.EndpointPath),
			APIKey:   cfg.APIKey,
			TTL:      cfg.ModelsTTL,
			Defaults: cfg.ModelDefaults,
			BuildHeaders: func(r *http.Request, key string) {
				cfg.BuildHeaders(r, key)
			},
		}, client, logger),
	}
}

func (p *Provider) Name() string { return p.cfg.ProviderName }

func (p *Provider) endpoint() string {
	return dialects.Endpoint(p.cfg.BaseURL, p.cfg.EndpointPath)
}

func (p *Provider) model(req *llm.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.cfg.DefaultModel
}

func (p *Provider) timeout(req *llm.ChatRequest) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	return p.cfg.Timeout
}

func (p *Provider) checkCredential() *llm.Error {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return llm.ConfigError(p.Name(), fmt.Sprintf("%s: missing API key", p.Name()))
	}
	return nil
}

func (p *Provider) post(ctx context.Context, body wireRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.cfg.BuildHeaders(httpReq, p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, dialects.UpstreamError(err, p.Name())
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg := dialects.ReadErrorMessage(resp.Body)
		return nil, dialects.MapHTTPError(resp.StatusCode, msg, p.Name())
	}
	return resp, nil
}

// Stream issues a streaming chat completion and decodes the SSE response
// into normalized events. The channel closes after the terminal event, or
// without one when the merged cancellation signal fires.
func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	if err := p.checkCredential(); err != nil {
		return nil, err
	}
	traceID := req.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}

	callCtx, cancel := llm.WithCancel(ctx, p.timeout(req), nil)
	resp, err := p.post(callCtx, buildRequest(p.model(req), req, true))
	if err != nil {
		cancel()
		return nil, err
	}

	logger := p.logger.With(
		zap.String("provider", p.Name()),
		zap.String("trace_id", traceID),
	)
	logger.Debug("stream started", zap.String("model", p.model(req)))

	events := make(chan llm.StreamEvent)
	go func() {
		defer cancel()
		defer resp.Body.Close()
		defer close(events)
		newDecoder(p.Name(), logger).decode(callCtx, resp.Body, events)
	}()
	return events, nil
}

// Completion issues a synchronous chat completion.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := p.checkCredential(); err != nil {
		return nil, err
	}
	callCtx, cancel := llm.WithCancel(ctx, p.timeout(req), nil)
	defer cancel()

	resp, err := p.post(callCtx, buildRequest(p.model(req), req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var wr wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, dialects.UpstreamError(err, p.Name())
	}

	out := &llm.ChatResponse{ID: wr.ID, Provider: p.Name(), Model: wr.Model}
	if wr.Created != 0 {
		out.CreatedAt = time.Unix(wr.Created, 0)
	}
	if wr.Usage != nil {
		out.Usage = llm.Usage{
			PromptTokens:     wr.Usage.PromptTokens,
			CompletionTokens: wr.Usage.CompletionTokens,
			TotalTokens:      wr.Usage.TotalTokens,
		}
	}
	if len(wr.Choices) > 0 {
		choice := wr.Choices[0]
		out.FinishReason = choice.FinishReason
		if s, ok := choice.Message.Content.(string); ok {
			out.Content = s
		}
		for _, tc := range choice.Message.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			})
		}
	}
	return out, nil
}

// ListModels returns the provider's model list from the TTL cache.
func (p *Provider) ListModels(ctx context.Context, forceRefresh bool) ([]llm.Model, error) {
	if err := p.checkCredential(); err != nil {
		return nil, err
	}
	return p.models.Models(ctx, forceRefresh)
}

// HealthCheck probes the models endpoint and reports latency.
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, models.ModelsURL(dialects.Endpoint(p.cfg.BaseURL, p.cfg.EndpointPath)), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.cfg.BuildHeaders(httpReq, p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := dialects.ReadErrorMessage(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("%s health check failed: status=%d msg=%s", p.Name(), resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}
