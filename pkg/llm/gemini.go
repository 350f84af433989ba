package llm

import (
	"context"
	"net/url"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	geminiKeyEnv         = "GEMINI_API_KEY"
)

// GeminiClient implements Client for the Gemini generateContent API.
type GeminiClient struct {
	endpoint
	apiKey string
}

// NewGeminiClient creates a Gemini client. GEMINI_API_KEY must be set.
func NewGeminiClient(spec Spec, opts ...Option) (*GeminiClient, error) {
	const backend = "gemini"
	o := buildOptions(opts)
	apiKey, err := o.requireEnv(backend, geminiKeyEnv)
	if err != nil {
		return nil, err
	}
	ep, err := newEndpoint(backend, spec, defaultGeminiBaseURL, o)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{endpoint: ep, apiKey: apiKey}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
	ResponseSchema   any    `json:"responseSchema"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// text returns the first candidate's first part, or "" when the backend
// returned no candidate text.
func (r geminiResponse) text() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	if t := r.Candidates[0].Content.Parts[0].Text; t != nil {
		return *t
	}
	return ""
}

// Generate sends one generateContent request.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	body := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.UserPrompt}},
		}},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	if f := req.OutputFormat; f != nil {
		// Gemini rejects additionalProperties anywhere in the schema.
		body.GenerationConfig = &geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   StripAdditionalProperties(f.Schema),
		}
	}

	path := "/v1beta/models/" + url.PathEscape(c.model) + ":generateContent?key=" + url.QueryEscape(c.apiKey)

	var resp geminiResponse
	if _, err := c.postJSON(ctx, path, nil, body, &resp); err != nil {
		return GenerateResponse{}, err
	}
	return c.finish(ctx, req, resp.text()), nil
}

// Capabilities reports Gemini's structured-output constraints.
func (c *GeminiClient) Capabilities() Capabilities {
	return Capabilities{
		FieldsAlwaysRequired: false,
		SupportsFormat:       false,
		ExtractDescriptions:  false,
		TopLevelMustBeObject: true,
	}
}
