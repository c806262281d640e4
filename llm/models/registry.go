// Package models implements the provider model-list cache: a TTL-guarded,
// single-flight fetch with stale-on-error fallback. Each dialect provider
// owns one Registry instance; its lifetime is tied to the provider, not to
// the process.
package models

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/chatwire/chatwire/llm"
	"github.com/chatwire/chatwire/llm/dialects"
)

const (
	completionsSuffix = "/chat/completions"
	messagesSuffix    = "/messages"
	modelsSuffix      = "/models"

	defaultTTL          = 5 * time.Minute
	defaultFetchTimeout = 10 * time.Second
)

// Defaults supplies per-provider fallback values used when the models
// endpoint omits a field.
type Defaults struct {
	ContextLength   int
	MaxOutputTokens int
	SupportsTools   bool
	SupportsVision  bool
}

// Config describes one provider's models endpoint.
type Config struct {
	Provider string
	// BaseURL is the chat-completions base URL; the models URL is derived
	// from it, see ModelsURL.
	BaseURL string
	APIKey  string
	// TTL is the cache validity window. Defaults to 5 minutes.
	TTL time.Duration
	// FetchTimeout bounds one underlying fetch; exceeding it is treated as
	// a fetch failure and the stale-cache rule applies. Defaults to 10s.
	FetchTimeout time.Duration
	Defaults     Defaults
	// BuildHeaders optionally overrides the default Bearer auth headers.
	BuildHeaders func(*http.Request, string)
}

// Registry caches one provider's model list.
type Registry struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
	group  singleflight.Group

	mu        sync.Mutex
	cached    []llm.Model
	fetchedAt time.Time
}

func New(cfg Config, client *http.Client, logger *zap.Logger) *Registry {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.BuildHeaders == nil {
		cfg.BuildHeaders = dialects.BearerHeaders
	}
	if cfg.Defaults.ContextLength <= 0 {
		cfg.Defaults.ContextLength = 8192
	}
	if cfg.Defaults.MaxOutputTokens <= 0 {
		cfg.Defaults.MaxOutputTokens = 4096
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{cfg: cfg, client: client, logger: logger}
}

// Models returns the provider's model list. Inside the TTL window the cache
// is served without I/O unless forceRefresh is set. Concurrent callers past
// the window share exactly one underlying fetch. A failed fetch serves the
// previous cache when one exists; with no cache the failure propagates to
// every waiter.
func (r *Registry) Models(ctx context.Context, forceRefresh bool) ([]llm.Model, error) {
	r.mu.Lock()
	if !forceRefresh && r.cached != nil && time.Since(r.fetchedAt) < r.cfg.TTL {
		cached := r.cached
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do("models", func() (any, error) {
		fresh, err := r.fetch(ctx)
		if err != nil {
			r.mu.Lock()
			stale := r.cached
			r.mu.Unlock()
			if stale != nil {
				r.logger.Warn("model list refresh failed, serving stale cache",
					zap.String("provider", r.cfg.Provider),
					zap.Error(err))
				return stale, nil
			}
			return nil, err
		}
		r.mu.Lock()
		r.cached = fresh
		r.fetchedAt = time.Now()
		r.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]llm.Model), nil
}

func (r *Registry) fetch(ctx context.Context) ([]llm.Model, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, ModelsURL(r.cfg.BaseURL), nil)
	if err != nil {
		return nil, err
	}
	r.cfg.BuildHeaders(httpReq, r.cfg.APIKey)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, &llm.Error{
			Code:       llm.ErrModelFetch,
			Message:    err.Error(),
			HTTPStatus: http.StatusBadGateway,
			Retryable:  true,
			Provider:   r.cfg.Provider,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := dialects.ReadErrorMessage(resp.Body)
		return nil, dialects.MapHTTPError(resp.StatusCode, msg, r.cfg.Provider)
	}

	var listResp struct {
		Data []wireModel `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, &llm.Error{
			Code:       llm.ErrModelFetch,
			Message:    err.Error(),
			HTTPStatus: http.StatusBadGateway,
			Retryable:  true,
			Provider:   r.cfg.Provider,
		}
	}

	out := make([]llm.Model, 0, len(listResp.Data))
	for _, w := range listResp.Data {
		if w.ID == "" {
			continue
		}
		out = append(out, r.descriptor(w))
	}
	return out, nil
}

// wireModel is the subset of the models-endpoint entry the adapter reads.
type wireModel struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DisplayName     string `json:"display_name"`
	ContextLength   int    `json:"context_length"`
	MaxOutputTokens int    `json:"max_output_tokens"`
	OwnedBy         string `json:"owned_by"`
	Capabilities    struct {
		FunctionCalling *bool `json:"function_calling"`
		ToolUse         *bool `json:"tool_use"`
		Vision          *bool `json:"vision"`
	} `json:"capabilities"`
}

// descriptor converts one wire entry to the neutral model descriptor,
// filling absent fields from the provider defaults.
func (r *Registry) descriptor(w wireModel) llm.Model {
	d := r.cfg.Defaults

	contextLength := w.ContextLength
	if contextLength <= 0 {
		contextLength = d.ContextLength
	}
	maxOutput := w.MaxOutputTokens
	if maxOutput <= 0 {
		maxOutput = d.MaxOutputTokens
	}
	maxInput := contextLength - maxOutput
	if maxInput < 1 {
		maxInput = 1
	}

	supportsTools := d.SupportsTools
	switch {
	case w.Capabilities.FunctionCalling != nil:
		supportsTools = *w.Capabilities.FunctionCalling
	case w.Capabilities.ToolUse != nil:
		supportsTools = *w.Capabilities.ToolUse
	}
	supportsVision := d.SupportsVision
	if w.Capabilities.Vision != nil {
		supportsVision = *w.Capabilities.Vision
	}

	name := w.DisplayName
	if name == "" {
		name = w.Name
	}
	if name == "" {
		name = w.ID
	}

	m := llm.Model{
		ID:              w.ID,
		Name:            name,
		MaxInputTokens:  maxInput,
		MaxOutputTokens: maxOutput,
		SupportsTools:   supportsTools,
		SupportsVision:  supportsVision,
	}
	if w.OwnedBy != "" {
		m.Metadata = map[string]string{"owned_by": w.OwnedBy}
	}
	return m
}

// ModelsURL derives the models-endpoint URL from a completion-call base
// URL: trailing slashes are stripped, a recognized completions suffix is
// replaced with the models suffix, and any other base (a bare host or a
// version segment) gains the models suffix appended.
func ModelsURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	for _, suffix := range []string{completionsSuffix, messagesSuffix} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix) + modelsSuffix
		}
	}
	return base + modelsSuffix
}
