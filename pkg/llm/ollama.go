package llm

import (
	"context"
)

const defaultOllamaAddress = "http://localhost:11434"

// OllamaClient implements Client using a local Ollama server's /api/generate.
// It needs no credential.
type OllamaClient struct {
	endpoint
}

// NewOllamaClient creates an Ollama client for spec.Address, typically
// "http://localhost:11434" (the default).
func NewOllamaClient(spec Spec, opts ...Option) (*OllamaClient, error) {
	ep, err := newEndpoint("ollama", spec, defaultOllamaAddress, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	return &OllamaClient{endpoint: ep}, nil
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Format any    `json:"format,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response *string `json:"response"`
	Done     bool    `json:"done"`
}

// Generate sends one non-streaming generate request. Ollama does not enforce
// schemas strictly, so the system prompt is prefixed with StrictJSONPrompt
// whenever a schema is requested.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	body := ollamaGenerateRequest{
		Model:  c.model,
		Prompt: req.UserPrompt,
		System: req.SystemPrompt,
		Stream: false,
	}
	if f := req.OutputFormat; f != nil {
		body.System = withStrictJSONPrompt(req.SystemPrompt)
		if f.Schema != nil {
			body.Format = f.Schema
		} else {
			body.Format = "json"
		}
	}

	var resp ollamaGenerateResponse
	status, err := c.postJSON(ctx, "/api/generate", nil, body, &resp)
	if err != nil {
		return GenerateResponse{}, err
	}
	if resp.Response == nil {
		return GenerateResponse{}, noContent(c.backend, status)
	}
	return c.finish(ctx, req, *resp.Response), nil
}

// Capabilities reports Ollama's structured-output constraints.
func (c *OllamaClient) Capabilities() Capabilities {
	return Capabilities{
		FieldsAlwaysRequired: false,
		SupportsFormat:       true,
		ExtractDescriptions:  true,
		TopLevelMustBeObject: false,
	}
}
