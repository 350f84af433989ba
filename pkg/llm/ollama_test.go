package llm

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOllama(t *testing.T, url string) *OllamaClient {
	t.Helper()
	c, err := NewOllamaClient(Spec{Model: "mistral", Address: url}, WithLogger(quietLogger()))
	require.NoError(t, err)
	return c
}

func TestOllamaGenerate_Text(t *testing.T) {
	srv, got := newJSONServer(t, http.StatusOK, `{"model":"mistral","response":"{\"a\":1}","done":true}`)
	client := newTestOllama(t, srv.URL)

	resp, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "hello", SystemPrompt: "sys"})
	require.NoError(t, err)
	// no output format: never parsed, even when the text is JSON
	assert.False(t, resp.IsJSON())
	assert.Equal(t, `{"a":1}`, resp.Text())

	req := got.get()
	assert.Equal(t, "/api/generate", req.Path)
	assert.Equal(t, "mistral", req.Body["model"])
	assert.Equal(t, "hello", req.Body["prompt"])
	assert.Equal(t, "sys", req.Body["system"])
	assert.Equal(t, false, req.Body["stream"])
	assert.NotContains(t, req.Body, "format")
}

func TestOllamaGenerate_StrictPromptPrefix(t *testing.T) {
	srv, got := newJSONServer(t, http.StatusOK, `{"response":"{\"a\":1}","done":true}`)
	client := newTestOllama(t, srv.URL)

	req := schemaRequest(objectSchema())
	req.SystemPrompt = "You extract numbers."
	resp, err := client.Generate(context.Background(), req)
	require.NoError(t, err)
	value, ok := resp.JSON()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": float64(1)}, value)

	body := got.get().Body
	system := body["system"].(string)
	assert.True(t, strings.HasPrefix(system, StrictJSONPrompt), "system prompt %q lacks strict prefix", system)
	assert.Equal(t, StrictJSONPrompt+"\n\nYou extract numbers.", system)
	assert.Equal(t, "object", body["format"].(map[string]any)["type"])
}

func TestOllamaGenerate_StrictPromptWithoutSystem(t *testing.T) {
	srv, got := newJSONServer(t, http.StatusOK, `{"response":"not json","done":true}`)
	client := newTestOllama(t, srv.URL)

	resp, err := client.Generate(context.Background(), schemaRequest(objectSchema()))
	require.NoError(t, err)
	assert.Equal(t, TextResponse("not json"), resp)

	assert.Equal(t, StrictJSONPrompt+"\n\n", got.get().Body["system"])
}

func TestOllamaGenerate_MissingResponse(t *testing.T) {
	srv, _ := newJSONServer(t, http.StatusOK, `{"done":true}`)
	client := newTestOllama(t, srv.URL)

	_, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "hello"})
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestOllamaGenerate_ErrorString(t *testing.T) {
	srv, _ := newJSONServer(t, http.StatusNotFound, `{"error":"model 'mistral' not found"}`)
	client := newTestOllama(t, srv.URL)

	_, err := client.Generate(context.Background(), GenerateRequest{UserPrompt: "hello"})
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, http.StatusNotFound, protoErr.StatusCode)
	assert.Contains(t, err.Error(), "model 'mistral' not found")
}

func TestNewOllamaClient_DefaultAddress(t *testing.T) {
	client, err := NewOllamaClient(Spec{Model: "mistral"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", client.baseURL)
	assert.Equal(t, Capabilities{SupportsFormat: true, ExtractDescriptions: true}, client.Capabilities())
}
