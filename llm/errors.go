package llm

// ErrorCode aligns HTTP status, retryability and fallback policy across
// dialects.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "LLM_INVALID_REQUEST" // malformed parameters
	ErrUnauthorized   ErrorCode = "LLM_UNAUTHORIZED"    // missing or revoked key
	ErrForbidden      ErrorCode = "LLM_FORBIDDEN"       // permission or content policy
	ErrRateLimited    ErrorCode = "LLM_RATE_LIMITED"    // upstream throttling
	ErrQuotaExceeded  ErrorCode = "LLM_QUOTA_EXCEEDED"  // credit/quota exhausted
	ErrModelOverload  ErrorCode = "LLM_MODEL_OVERLOADED"
	ErrUpstreamError  ErrorCode = "LLM_UPSTREAM_ERROR" // upstream 5xx or network failure
	ErrConfiguration  ErrorCode = "LLM_CONFIGURATION"  // missing credential or base URL
	ErrModelFetch     ErrorCode = "LLM_MODEL_FETCH"    // model list fetch failed, no cache
)

type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// ConfigError reports a missing or unusable provider configuration value.
// It is checked before any I/O so a misconfigured provider fails fast.
func ConfigError(provider, msg string) *Error {
	return &Error{Code: ErrConfiguration, Message: msg, Provider: provider}
}
