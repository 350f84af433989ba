package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// StrictJSONPrompt is prepended to the system prompt for backends that cannot
// enforce a schema on their own.
const StrictJSONPrompt = "IMPORTANT: Output ONLY valid JSON that matches the schema. Do NOT say anything else. Do NOT explain. Do NOT preface. Do NOT add comments. If you cannot answer, output an empty JSON object: {}."

// defaultSchemaName is used when an OutputFormat carries no name.
const defaultSchemaName = "output"

var codeFenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*\n?(.*?)\\s*```$")

// StripAdditionalProperties returns a copy of a JSON document with every
// "additionalProperties" key removed, at any depth. The input is not modified.
func StripAdditionalProperties(value any) any {
	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			if key == "additionalProperties" {
				continue
			}
			result[key] = StripAdditionalProperties(val)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, elem := range v {
			result[i] = StripAdditionalProperties(elem)
		}
		return result

	default:
		return value
	}
}

// withStrictJSONPrompt prefixes system with StrictJSONPrompt.
func withStrictJSONPrompt(system string) string {
	return StrictJSONPrompt + "\n\n" + system
}

func schemaName(f *OutputFormat) string {
	if f.Name == "" {
		return defaultSchemaName
	}
	return f.Name
}

// parseStructured interprets text returned for a schema-constrained request.
// Anything that does not parse as JSON is returned as text, unchanged.
func parseStructured(text string) GenerateResponse {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err == nil {
		return JSONResponse(value)
	}

	// Models sometimes wrap JSON in ```json ... ```
	if cleaned := stripMarkdownCodeFence(text); cleaned != strings.TrimSpace(text) {
		if err := json.Unmarshal([]byte(cleaned), &value); err == nil {
			return JSONResponse(value)
		}
	}
	return TextResponse(text)
}

// finish turns extracted text into a response according to the request.
func finish(req GenerateRequest, text string) GenerateResponse {
	if !req.wantsJSON() {
		return TextResponse(text)
	}
	return parseStructured(text)
}

// stripMarkdownCodeFence removes a surrounding markdown code fence.
// Handles formats like: ```json\n...\n``` or ```\n...\n```
func stripMarkdownCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if matches := codeFenceRe.FindStringSubmatch(s); len(matches) == 2 {
		return strings.TrimSpace(matches[1])
	}
	return s
}
