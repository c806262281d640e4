package openai

import (
	"encoding/json"
	"strings"

	"github.com/chatwire/chatwire/llm"
	"github.com/chatwire/chatwire/llm/dialects"
)

// Wire shapes for the chat-completions schema. Only the fields the adapter
// reads or writes are modeled.

type wireMessage struct {
	Role       string         `json:"role"`
	Content    any            `json:"content,omitempty"` // string or []wireContentPart
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireContentPart struct {
	Type     string        `json:"type"` // "text" or "image_url"
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

type wireImageURL struct {
	URL string `json:"url"`
}

type wireToolCall struct {
	Index    int          `json:"index,omitempty"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type wireTool struct {
	Type     string      `json:"type"`
	Function wireToolDef `json:"function"`
}

type wireToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
	TopP        float32       `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type wireStreamDelta struct {
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls"`
}

type wireStreamChoice struct {
	Index        int              `json:"index"`
	Delta        *wireStreamDelta `json:"delta"`
	FinishReason string           `json:"finish_reason"`
}

type wireStreamChunk struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []wireStreamChoice `json:"choices"`
	Usage   *wireUsage         `json:"usage"`
}

type wireResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Index        int         `json:"index"`
		FinishReason string      `json:"finish_reason"`
		Message      wireMessage `json:"message"`
	} `json:"choices"`
	Usage *wireUsage `json:"usage"`
}

// normalizeMessages converts host messages into wire messages for this
// dialect. Tool-result parts always become independent tool messages
// addressed to their originating call id, regardless of the containing
// message's role. Unrecognized part kinds are dropped.
func normalizeMessages(msgs []llm.ChatMessage) []wireMessage {
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		var text strings.Builder
		var images []llm.ContentPart
		var toolCalls []wireToolCall
		var toolResults []*llm.ToolResult

		for _, part := range m.Parts {
			switch part.Kind {
			case llm.PartText:
				text.WriteString(part.Text)
			case llm.PartImage:
				images = append(images, part)
			case llm.PartToolCall:
				if part.ToolCall != nil {
					toolCalls = append(toolCalls, wireToolCall{
						ID:   part.ToolCall.ID,
						Type: "function",
						Function: wireFunction{
							Name:      part.ToolCall.Name,
							Arguments: string(dialects.ArgumentsJSON(part.ToolCall.Arguments)),
						},
					})
				}
			case llm.PartToolResult:
				if part.ToolResult != nil {
					toolResults = append(toolResults, part.ToolResult)
				}
			}
		}

		switch m.Role {
		case llm.RoleSystem:
			if text.Len() > 0 {
				out = append(out, wireMessage{Role: "system", Content: text.String()})
			}
		case llm.RoleUser:
			if len(images) > 0 {
				parts := make([]wireContentPart, 0, len(images)+1)
				if text.Len() > 0 {
					parts = append(parts, wireContentPart{Type: "text", Text: text.String()})
				}
				for _, img := range images {
					parts = append(parts, wireContentPart{
						Type:     "image_url",
						ImageURL: &wireImageURL{URL: dialects.DataURI(img.MIMEType, img.Data)},
					})
				}
				out = append(out, wireMessage{Role: "user", Content: parts})
			} else if text.Len() > 0 {
				out = append(out, wireMessage{Role: "user", Content: text.String()})
			}
		case llm.RoleAssistant:
			// Never emit an assistant turn with neither text nor tool calls.
			if text.Len() > 0 || len(toolCalls) > 0 {
				wm := wireMessage{Role: "assistant", ToolCalls: toolCalls}
				if text.Len() > 0 {
					wm.Content = text.String()
				}
				out = append(out, wm)
			}
		}

		for _, tr := range toolResults {
			out = append(out, wireMessage{
				Role:       "tool",
				Content:    tr.Content,
				ToolCallID: tr.CallID,
			})
		}
	}
	return out
}

// buildRequest assembles the dialect request body. Pure and deterministic;
// streaming mode is fixed by the caller.
func buildRequest(model string, req *llm.ChatRequest, stream bool) wireRequest {
	body := wireRequest{
		Model:       model,
		Messages:    normalizeMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
		Stream:      stream,
	}
	for _, t := range dialects.SanitizeTools(req.Tools) {
		body.Tools = append(body.Tools, wireTool{
			Type: "function",
			Function: wireToolDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return body
}
