package anthropic

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

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultVersion   = "2023-06-01"
	defaultMaxTokens = 4096
	messagesPath     = "/v1/messages"
)

// Config holds the configuration for a block-oriented dialect provider.
type Config struct {
	// ProviderName defaults to "anthropic".
	ProviderName string

	// APIKey authenticates via the x-api-key header. Checked before any
	// I/O; a blank key is a configuration error at call time.
	APIKey string

	// BaseURL defaults to the public API host.
	BaseURL string

	// Version is the anthropic-version header value.
	Version string

	// DefaultModel is used when the request does not name one.
	DefaultModel string

	// Timeout bounds one completion call end to end. Defaults to 120s;
	// a per-request timeout overrides it.
	Timeout time.Duration

	// ModelsTTL is the model-list cache validity window.
	ModelsTTL time.Duration

	// ModelDefaults fills model-list fields the endpoint omits.
	ModelDefaults models.Defaults
}

// Provider implements llm.Provider for the block-oriented dialect.
type Provider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
	models *models.Registry
}

// New creates a provider with the given config. A nil logger is replaced
// with a nop logger.
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.ProviderName == "" {
		cfg.ProviderName = "anthropic"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := tlsutil.StreamingHTTPClient()
	p := &Provider{cfg: cfg, client: client, logger: logger}
	p.models = models.New(models.Config{
		Provider:     cfg.ProviderName,
		BaseURL:      dialects.Endpoint(cfg.BaseURL, messagesPath),
		APIKey:       cfg.APIKey,
		TTL:          cfg.ModelsTTL,
		Defaults:     cfg.ModelDefaults,
		BuildHeaders: p.buildHeaders,
	}, client, logger)
	return p
}

func (p *Provider) Name() string { return p.cfg.ProviderName }

func (p *Provider) buildHeaders(r *http.Request, apiKey string) {
	r.Header.Set("x-api-key", apiKey)
	r.Header.Set("anthropic-version", p.cfg.Version)
	r.Header.Set("Content-Type", "application/json")
}

func (p *Provider) model(req *llm.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.cfg.DefaultModel
}

func (p *Provider) maxTokens(req *llm.ChatRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
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
	endpoint := dialects.Endpoint(p.cfg.BaseURL, messagesPath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.buildHeaders(httpReq, p.cfg.APIKey)

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

// Stream issues a streaming completion and decodes the block-oriented SSE
// response into normalized events. The channel closes after the terminal
// event, or without one when the merged cancellation signal fires.
func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	if err := p.checkCredential(); err != nil {
		return nil, err
	}
	traceID := req.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}

	callCtx, cancel := llm.WithCancel(ctx, p.timeout(req), nil)
	resp, err := p.post(callCtx, buildRequest(p.model(req), req, p.maxTokens(req), true))
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

// Completion issues a synchronous completion.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := p.checkCredential(); err != nil {
		return nil, err
	}
	callCtx, cancel := llm.WithCancel(ctx, p.timeout(req), nil)
	defer cancel()

	resp, err := p.post(callCtx, buildRequest(p.model(req), req, p.maxTokens(req), false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var wr wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, dialects.UpstreamError(err, p.Name())
	}

	out := &llm.ChatResponse{
		ID:           wr.ID,
		Provider:     p.Name(),
		Model:        wr.Model,
		FinishReason: wr.StopReason,
	}
	for _, block := range wr.Content {
		switch block.Type {
		case "text":
			out.Content += block.Text
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
		}
	}
	if wr.Usage != nil {
		out.Usage = llm.Usage{
			PromptTokens:     wr.Usage.InputTokens,
			CompletionTokens: wr.Usage.OutputTokens,
			TotalTokens:      wr.Usage.InputTokens + wr.Usage.OutputTokens,
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
	url := models.ModelsURL(dialects.Endpoint(p.cfg.BaseURL, messagesPath))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.buildHeaders(httpReq, p.cfg.APIKey)

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
