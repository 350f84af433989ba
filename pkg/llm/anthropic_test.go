package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropic(t *testing.T, url string, opts ...Option) *AnthropicClient {
	t.Helper()
	opts = append([]Option{WithEnvLookup(envOf("ANTHROPIC_API_KEY", "test-key")), WithLogger(quietLogger())}, opts...)
	c, err := NewAnthropicClient(Spec{Model: "claude-sonnet-4-20250514", Address: url}, opts...)
	require.NoError(t, err)
	return c
}

func TestAnthropicGenerate_Text(t *testing.T) {
	srv, got := newJSONServer(t, http.StatusOK, `{"content":[{"type":"text","text":"world"}],"usage":{"input_tokens":2,"output_tokens":5}}`)
	client := newTestAnthropic(t, srv.URL)

	resp, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "hello", SystemPrompt: "be nice"})
	require.NoError(t, err)
	assert.False(t, resp.IsJSON())
	assert.Equal(t, "world", resp.Text())

	req := got.get()
	assert.Equal(t, "/v1/messages", req.Path)
	assert.Equal(t, "test-key", req.Header.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", req.Header.Get("anthropic-version"))
	assert.Equal(t, "be nice", req.Body["system"])
	assert.Equal(t, float64(4096), req.Body["max_tokens"])
	assert.Equal(t, []any{map[string]any{"role": "user", "content": "hello"}}, req.Body["messages"])
	assert.NotContains(t, req.Body, "tools")
	assert.NotContains(t, req.Body, "tool_choice")
}

func TestAnthropicGenerate_ToolUseSchema(t *testing.T) {
	srv, got := newJSONServer(t, http.StatusOK, `{"content":[{"type":"tool_use","id":"toolu_1","name":"result","input":{"a":1}}]}`)
	client := newTestAnthropic(t, srv.URL)

	resp, err := client.Generate(context.Background(), schemaRequest(objectSchema()))
	require.NoError(t, err)
	value, ok := resp.JSON()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": float64(1)}, value)

	req := got.get()
	tools := req.Body["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "result", tool["name"])
	assert.Equal(t, "object", tool["input_schema"].(map[string]any)["type"])
	assert.Equal(t, map[string]any{"type": "tool", "name": "result"}, req.Body["tool_choice"])
}

func TestAnthropicGenerate_TextParsedWhenSchemaRequested(t *testing.T) {
	srv, _ := newJSONServer(t, http.StatusOK, `{"content":[{"type":"text","text":"{\"a\":1}"}]}`)
	client := newTestAnthropic(t, srv.URL)

	resp, err := client.Generate(context.Background(), schemaRequest(objectSchema()))
	require.NoError(t, err)
	value, ok := resp.JSON()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": float64(1)}, value)
}

func TestAnthropicGenerate_NotJSON(t *testing.T) {
	srv, _ := newJSONServer(t, http.StatusOK, `{"content":[{"type":"text","text":"not json"}]}`)
	client := newTestAnthropic(t, srv.URL)

	resp, err := client.Generate(context.Background(), schemaRequest(objectSchema()))
	require.NoError(t, err)
	assert.False(t, resp.IsJSON())
	assert.Equal(t, "not json", resp.Text())
}

func TestAnthropicGenerate_LegacyProtocol(t *testing.T) {
	srv, got := newJSONServer(t, http.StatusOK, `{"content":[{"type":"text","text":"{\"a\":2}"}]}`)
	client := newTestAnthropic(t, srv.URL, WithAnthropicProtocol(AnthropicV1))

	req := schemaRequest(objectSchema())
	req.SystemPrompt = "sys"
	resp, err := client.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.IsJSON())

	body := got.get().Body
	assert.NotContains(t, body, "system")
	assert.NotContains(t, body, "tool_choice")
	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "sys"}, messages[0])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])

	tools := body["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "json_object", tool["type"])
	assert.Equal(t, "object", tool["parameters"].(map[string]any)["type"])
}

func TestAnthropicGenerate_ErrorObject(t *testing.T) {
	srv, _ := newJSONServer(t, http.StatusOK, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"},"content":[{"type":"text","text":"partial"}]}`)
	client := newTestAnthropic(t, srv.URL)

	_, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "hello"})
	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr), "expected ProtocolError, got %v", err)
	assert.Contains(t, err.Error(), "overloaded_error")
}

func TestAnthropicGenerate_NoContent(t *testing.T) {
	for name, body := range map[string]string{
		"empty content":   `{"content":[]}`,
		"missing content": `{"id":"msg_1"}`,
		"block w/o text":  `{"content":[{"type":"text"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := newJSONServer(t, http.StatusOK, body)
			client := newTestAnthropic(t, srv.URL)

			_, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "hello"})
			assert.ErrorIs(t, err, ErrNoContent)
		})
	}
}

func TestAnthropicCapabilities(t *testing.T) {
	client := newTestAnthropic(t, "")
	assert.Equal(t, Capabilities{TopLevelMustBeObject: true}, client.Capabilities())
	assert.Equal(t, "https://api.anthropic.com", client.baseURL)
}
