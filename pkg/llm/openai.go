package llm

import (
	"context"
	"net/http"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	openAIKeyEnv         = "OPENAI_API_KEY"
)

// chatCompletionCapabilities applies to every chat-completions backend.
var chatCompletionCapabilities = Capabilities{
	FieldsAlwaysRequired: true,
	SupportsFormat:       false,
	ExtractDescriptions:  false,
	TopLevelMustBeObject: true,
}

// chatCompletionClient speaks the chat-completions protocol. OpenAI and the
// LiteLLM proxy differ only in base URL and credential.
type chatCompletionClient struct {
	endpoint
	apiKey string
}

// OpenAIClient implements Client for the OpenAI Chat Completions API.
type OpenAIClient struct {
	chatCompletionClient
}

// NewOpenAIClient creates an OpenAI client. OPENAI_API_KEY must be set and
// spec.Address must be empty.
func NewOpenAIClient(spec Spec, opts ...Option) (*OpenAIClient, error) {
	const backend = "openai"
	if spec.Address != "" {
		return nil, configErrorf(backend, "OpenAI doesn't support custom API address: %s", spec.Address)
	}
	o := buildOptions(opts)
	apiKey, err := o.requireEnv(backend, openAIKeyEnv)
	if err != nil {
		return nil, err
	}
	ep, err := newEndpoint(backend, spec, defaultOpenAIBaseURL, o)
	if err != nil {
		return nil, err
	}
	return &OpenAIClient{chatCompletionClient{endpoint: ep, apiKey: apiKey}}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatJSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type chatResponseFormat struct {
	Type       string         `json:"type"`
	JSONSchema chatJSONSchema `json:"json_schema"`
}

type chatCompletionRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends one chat completion request.
func (c *chatCompletionClient) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	body := chatCompletionRequest{Model: c.model}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.UserPrompt})

	if f := req.OutputFormat; f != nil {
		body.ResponseFormat = &chatResponseFormat{
			Type: "json_schema",
			JSONSchema: chatJSONSchema{
				Name:   schemaName(f),
				Schema: f.Schema,
				Strict: true,
			},
		}
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)

	var resp chatCompletionResponse
	status, err := c.postJSON(ctx, "/chat/completions", header, body, &resp)
	if err != nil {
		return GenerateResponse{}, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return GenerateResponse{}, noContent(c.backend, status)
	}
	return c.finish(ctx, req, *resp.Choices[0].Message.Content), nil
}

// Capabilities reports the chat-completions structured-output constraints.
func (c *chatCompletionClient) Capabilities() Capabilities {
	return chatCompletionCapabilities
}
