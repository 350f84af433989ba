package llm

import (
	"encoding/json"
	"fmt"
)

// APIType names a backend family.
type APIType string

const (
	APITypeOpenAI    APIType = "openai"
	APITypeAnthropic APIType = "anthropic"
	APITypeGemini    APIType = "gemini"
	APITypeOllama    APIType = "ollama"
	APITypeLiteLLM   APIType = "litellm"
)

// Spec identifies the backend, model and optional address an adapter talks to.
// It is only read at construction time.
type Spec struct {
	APIType APIType
	Model   string
	// Address overrides the backend's default base URL. Not every backend accepts one.
	Address string
}

// OutputFormat requests schema-conformant JSON output.
// A nil *OutputFormat on a request means free text.
type OutputFormat struct {
	// Name identifies the schema to backends that want one
	Name string

	// Schema is a JSON-Schema document as decoded by encoding/json
	// (map[string]any / []any / scalars).
	Schema map[string]any
}

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	UserPrompt string
	// SystemPrompt is optional; empty means none.
	SystemPrompt string
	OutputFormat *OutputFormat
}

func (r GenerateRequest) wantsJSON() bool {
	return r.OutputFormat != nil
}

// GenerateResponse holds either raw text or a parsed JSON value.
type GenerateResponse struct {
	text   string
	value  any
	isJSON bool
}

// TextResponse builds a plain-text response.
func TextResponse(text string) GenerateResponse {
	return GenerateResponse{text: text}
}

// JSONResponse builds a response carrying an already-parsed JSON value.
func JSONResponse(value any) GenerateResponse {
	return GenerateResponse{value: value, isJSON: true}
}

// IsJSON reports whether the response carries a parsed JSON value.
func (r GenerateResponse) IsJSON() bool {
	return r.isJSON
}

// Text returns the raw text. For JSON responses it returns the compact encoding
// of the value.
func (r GenerateResponse) Text() string {
	if !r.isJSON {
		return r.text
	}
	b, err := json.Marshal(r.value)
	if err != nil {
		return ""
	}
	return string(b)
}

// JSON returns the parsed value and true, or nil and false for text responses.
func (r GenerateResponse) JSON() (any, bool) {
	if !r.isJSON {
		return nil, false
	}
	return r.value, true
}

// Decode unmarshals the response into v. Text responses are parsed best-effort,
// so callers can use it with backends that could not guarantee JSON output.
func (r GenerateResponse) Decode(v any) error {
	data := []byte(r.Text())
	if !r.isJSON {
		data = []byte(stripMarkdownCodeFence(r.text))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
