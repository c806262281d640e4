package dialects

import (
	"encoding/json"
	"strings"

	"github.com/chatwire/chatwire/llm"
)

const maxToolNameLen = 64

// emptyObjectSchema replaces a missing tool parameter schema.
var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// SanitizeToolName coerces a tool name into ^[A-Za-z][A-Za-z0-9_-]{0,63}$.
// Invalid characters become underscores; a name that does not start with a
// letter gains an fn_ prefix; the result is truncated to 64 characters.
// Deterministic, never fails.
func SanitizeToolName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z',
			r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" || !isASCIILetter(s[0]) {
		s = "fn_" + s
	}
	if len(s) > maxToolNameLen {
		s = s[:maxToolNameLen]
	}
	return s
}

func isASCIILetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// SanitizeTools returns a copy of tools with sanitized names and an
// empty-object schema wherever parameters are missing. The input is not
// mutated.
func SanitizeTools(tools []llm.ToolSchema) []llm.ToolSchema {
	if len(tools) == 0 {
		return nil
	}
	out := make([]llm.ToolSchema, 0, len(tools))
	for _, t := range tools {
		t.Name = SanitizeToolName(t.Name)
		if len(t.Parameters) == 0 {
			t.Parameters = emptyObjectSchema
		}
		out = append(out, t)
	}
	return out
}

// ArgumentsJSON normalizes tool-call arguments for the wire: valid JSON
// passes through, anything else is re-encoded as a JSON string, and on
// failure the empty-object literal is substituted. Never fails.
func ArgumentsJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	if json.Valid(raw) {
		return raw
	}
	encoded, err := json.Marshal(string(raw))
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return encoded
}
