package anthropic

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/chatwire/chatwire/llm"
	"github.com/chatwire/chatwire/llm/dialects"
)

// Wire shapes for the messages schema. Only the fields the adapter reads or
// writes are modeled.

type wireBlock struct {
	Type string `json:"type"` // text, image, tool_use, tool_result
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`

	// image
	Source *wireImageSource `json:"source,omitempty"`
}

type wireImageSource struct {
	Type      string `json:"type"` // "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type wireMessage struct {
	Role    string      `json:"role"` // user or assistant
	Content []wireBlock `json:"content"`
}

type wireTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type wireRequest struct {
	Model         string        `json:"model"`
	Messages      []wireMessage `json:"messages"`
	System        string        `json:"system,omitempty"`
	MaxTokens     int           `json:"max_tokens"` // required by the schema
	Temperature   float32       `json:"temperature,omitempty"`
	TopP          float32       `json:"top_p,omitempty"`
	StopSequences []string      `json:"stop_sequences,omitempty"`
	Stream        bool          `json:"stream,omitempty"`
	Tools         []wireTool    `json:"tools,omitempty"`
}

type wireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type wireResponse struct {
	ID         string      `json:"id"`
	Model      string      `json:"model"`
	Content    []wireBlock `json:"content"`
	StopReason string      `json:"stop_reason"`
	Usage      *wireUsage  `json:"usage"`
}

// wireEvent is one frame of the block-oriented stream.
type wireEvent struct {
	Type         string        `json:"type"`
	Index        int           `json:"index"`
	Message      *wireResponse `json:"message"`
	ContentBlock *wireBlock    `json:"content_block"`
	Delta        *wireDelta    `json:"delta"`
	Usage        *wireUsage    `json:"usage"`
}

type wireDelta struct {
	Type        string `json:"type"` // text_delta or input_json_delta
	Text        string `json:"text"`
	PartialJSON string `json:"partial_json"`
	StopReason  string `json:"stop_reason"`
}

// normalizeMessages converts host messages into the dialect's shape. System
// text is extracted to the top-level field; tool-result parts always become
// independent tool_result blocks wrapped in a user message, regardless of
// the containing message's role. Unrecognized part kinds are dropped.
func normalizeMessages(msgs []llm.ChatMessage) (string, []wireMessage) {
	var system []string
	var out []wireMessage

	for _, m := range msgs {
		var text strings.Builder
		var blocks []wireBlock
		var resultBlocks []wireBlock

		for _, part := range m.Parts {
			switch part.Kind {
			case llm.PartText:
				text.WriteString(part.Text)
			case llm.PartImage:
				blocks = append(blocks, wireBlock{
					Type: "image",
					Source: &wireImageSource{
						Type:      "base64",
						MediaType: part.MIMEType,
						Data:      base64.StdEncoding.EncodeToString(part.Data),
					},
				})
			case llm.PartToolCall:
				if part.ToolCall != nil {
					blocks = append(blocks, wireBlock{
						Type:  "tool_use",
						ID:    part.ToolCall.ID,
						Name:  part.ToolCall.Name,
						Input: dialects.ArgumentsJSON(part.ToolCall.Arguments),
					})
				}
			case llm.PartToolResult:
				if part.ToolResult != nil {
					resultBlocks = append(resultBlocks, wireBlock{
						Type:      "tool_result",
						ToolUseID: part.ToolResult.CallID,
						Content:   part.ToolResult.Content,
					})
				}
			}
		}

		switch m.Role {
		case llm.RoleSystem:
			if text.Len() > 0 {
				system = append(system, text.String())
			}
		case llm.RoleUser, llm.RoleAssistant:
			content := blocks
			if text.Len() > 0 {
				// Text leads the block sequence.
				content = append([]wireBlock{{Type: "text", Text: text.String()}}, blocks...)
			}
			if len(content) > 0 {
				out = append(out, wireMessage{Role: string(m.Role), Content: content})
			}
		}

		if len(resultBlocks) > 0 {
			out = append(out, wireMessage{Role: "user", Content: resultBlocks})
		}
	}
	return strings.Join(system, "\n"), out
}

// buildRequest assembles the dialect request body. Pure and deterministic.
func buildRequest(model string, req *llm.ChatRequest, maxTokens int, stream bool) wireRequest {
	system, messages := normalizeMessages(req.Messages)
	body := wireRequest{
		Model:         model,
		Messages:      messages,
		System:        system,
		MaxTokens:     maxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		StopSequences: req.Stop,
		Stream:        stream,
	}
	for _, t := range dialects.SanitizeTools(req.Tools) {
		body.Tools = append(body.Tools, wireTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	return body
}
