package dialects

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwire/chatwire/llm"
)

var toolNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)

func TestSanitizeToolName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "valid name unchanged", in: "search_web", want: "search_web"},
		{name: "spaces and punctuation replaced", in: "My Tool!!2", want: "My_Tool__2"},
		{name: "digit start gains prefix", in: "2fast", want: "fn_2fast"},
		{name: "underscore start gains prefix", in: "_hidden", want: "fn__hidden"},
		{name: "empty name", in: "", want: "fn_"},
		{name: "unicode replaced", in: "工具", want: "fn___"},
		{name: "dash kept", in: "get-weather", want: "get-weather"},
		{
			name: "long name truncated to 64",
			in:   strings.Repeat("a", 80),
			want: strings.Repeat("a", 64),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeToolName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, toolNamePattern, got)
		})
	}
}

func TestSanitizeTools(t *testing.T) {
	in := []llm.ToolSchema{
		{Name: "My Tool!!2"},
		{Name: "ok", Parameters: json.RawMessage(`{"type":"object"}`)},
	}
	out := SanitizeTools(in)
	require.Len(t, out, 2)
	assert.Equal(t, "My_Tool__2", out[0].Name)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(out[0].Parameters))
	assert.Equal(t, json.RawMessage(`{"type":"object"}`), out[1].Parameters)
	assert.Equal(t, "My Tool!!2", in[0].Name, "input not mutated")
}

func TestSanitizeTools_Empty(t *testing.T) {
	assert.Nil(t, SanitizeTools(nil))
}

func TestArgumentsJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "valid object passes through", in: `{"q":"x"}`, want: `{"q":"x"}`},
		{name: "valid array passes through", in: `[1,2]`, want: `[1,2]`},
		{name: "empty becomes object", in: "", want: `{}`},
		{name: "plain text becomes JSON string", in: "not json", want: `"not json"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ArgumentsJSON(json.RawMessage(tt.in))
			assert.Equal(t, tt.want, string(got))
		})
	}
}
