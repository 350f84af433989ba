package llm

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicKeyEnv         = "ANTHROPIC_API_KEY"
	anthropicAPIVersion     = "2023-06-01"
	anthropicMaxTokens      = 4096
)

// AnthropicClient implements Client for the Anthropic Messages API.
type AnthropicClient struct {
	endpoint
	apiKey   string
	protocol AnthropicProtocol
}

// NewAnthropicClient creates an Anthropic client. ANTHROPIC_API_KEY must be set.
func NewAnthropicClient(spec Spec, opts ...Option) (*AnthropicClient, error) {
	const backend = "anthropic"
	o := buildOptions(opts)
	apiKey, err := o.requireEnv(backend, anthropicKeyEnv)
	if err != nil {
		return nil, err
	}
	ep, err := newEndpoint(backend, spec, defaultAnthropicBaseURL, o)
	if err != nil {
		return nil, err
	}
	return &AnthropicClient{endpoint: ep, apiKey: apiKey, protocol: o.anthropicProtocol}, nil
}

// --- Anthropic wire format types ---

type anthropicRequest struct {
	Model      string               `json:"model"`
	MaxTokens  int                  `json:"max_tokens"`
	System     string               `json:"system,omitempty"`
	Messages   []chatMessage        `json:"messages"`
	Tools      []any                `json:"tools,omitempty"`
	ToolChoice *anthropicToolChoice `json:"tool_choice,omitempty"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// anthropicLegacyTool is the schema envelope of the v1 layout.
type anthropicLegacyTool struct {
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters"`
}

type anthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type anthropicResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  *string         `json:"text"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
}

func (c *AnthropicClient) buildRequest(req GenerateRequest) anthropicRequest {
	body := anthropicRequest{
		Model:     c.model,
		MaxTokens: anthropicMaxTokens,
	}

	if c.protocol == AnthropicV1 {
		if req.SystemPrompt != "" {
			body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.SystemPrompt})
		}
		body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.UserPrompt})
		if f := req.OutputFormat; f != nil {
			body.Tools = []any{anthropicLegacyTool{Type: "json_object", Parameters: f.Schema}}
		}
		return body
	}

	body.System = req.SystemPrompt
	body.Messages = []chatMessage{{Role: "user", Content: req.UserPrompt}}
	if f := req.OutputFormat; f != nil {
		name := schemaName(f)
		body.Tools = []any{anthropicTool{
			Name:        name,
			Description: "Respond with structured output matching the input schema.",
			InputSchema: f.Schema,
		}}
		body.ToolChoice = &anthropicToolChoice{Type: "tool", Name: name}
	}
	return body
}

// Generate sends one Messages API request.
func (c *AnthropicClient) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	header := http.Header{}
	header.Set("x-api-key", c.apiKey)
	header.Set("anthropic-version", anthropicAPIVersion)

	var resp anthropicResponse
	status, err := c.postJSON(ctx, "/v1/messages", header, c.buildRequest(req), &resp)
	if err != nil {
		return GenerateResponse{}, err
	}
	if len(resp.Content) == 0 {
		return GenerateResponse{}, noContent(c.backend, status)
	}

	block := resp.Content[0]
	if block.Type == "tool_use" && req.wantsJSON() && len(block.Input) > 0 {
		var value any
		if err := json.Unmarshal(block.Input, &value); err != nil {
			return GenerateResponse{}, &ProtocolError{Backend: c.backend, StatusCode: status, Message: "invalid tool input", Err: err}
		}
		return JSONResponse(value), nil
	}
	if block.Text == nil {
		return GenerateResponse{}, noContent(c.backend, status)
	}
	return c.finish(ctx, req, *block.Text), nil
}

// Capabilities reports Anthropic's structured-output constraints.
func (c *AnthropicClient) Capabilities() Capabilities {
	return Capabilities{
		FieldsAlwaysRequired: false,
		SupportsFormat:       false,
		ExtractDescriptions:  false,
		TopLevelMustBeObject: true,
	}
}
