package llm

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartKind is the explicit discriminator for a ContentPart. Parts are
// validated by tag at the normalization boundary; unknown kinds are dropped
// silently rather than guessed at structurally.
type PartKind string

const (
	PartText       PartKind = "text"
	PartImage      PartKind = "image"
	PartToolCall   PartKind = "tool_call"
	PartToolResult PartKind = "tool_result"
)

// ContentPart is one tagged element of a message. Only the fields matching
// Kind are meaningful.
type ContentPart struct {
	Kind PartKind `json:"kind"`

	// PartText
	Text string `json:"text,omitempty"`

	// PartImage
	MIMEType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`

	// PartToolCall
	ToolCall *ToolCall `json:"tool_call,omitempty"`

	// PartToolResult
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart { return ContentPart{Kind: PartText, Text: text} }

// ImagePart builds an image content part from raw bytes and a declared mime type.
func ImagePart(mimeType string, data []byte) ContentPart {
	return ContentPart{Kind: PartImage, MIMEType: mimeType, Data: data}
}

// ChatMessage is a host-owned message: a role plus an ordered part sequence.
// The adapter reads it once per call and never mutates it.
type ChatMessage struct {
	Role  Role          `json:"role"`
	Parts []ContentPart `json:"parts"`
}

type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ToolResult struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
}

type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

type ChatRequest struct {
	TraceID     string            `json:"trace_id,omitempty"`
	Model       string            `json:"model"`
	Messages    []ChatMessage     `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float32           `json:"temperature,omitempty"`
	TopP        float32           `json:"top_p,omitempty"`
	Stop        []string          `json:"stop,omitempty"`
	Tools       []ToolSchema      `json:"tools,omitempty"`
	Timeout     time.Duration     `json:"timeout,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse is the non-streaming completion result.
type ChatResponse struct {
	ID           string     `json:"id,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	Model        string     `json:"model"`
	Content      string     `json:"content,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        Usage      `json:"usage,omitempty"`
	CreatedAt    time.Time  `json:"created_at,omitempty"`
}

// Model describes one entry of a provider's model list after descriptor
// conversion (see the models package).
type Model struct {
	ID              string            `json:"id"`
	Name            string            `json:"name,omitempty"`
	MaxInputTokens  int               `json:"max_input_tokens"`
	MaxOutputTokens int               `json:"max_output_tokens"`
	SupportsTools   bool              `json:"supports_tools"`
	SupportsVision  bool              `json:"supports_vision"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// HealthStatus is the result of a lightweight provider reachability probe.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}
