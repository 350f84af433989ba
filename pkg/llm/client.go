// Package llm provides a single client contract over several LLM text-generation
// backends, with optional JSON-Schema constrained output.
package llm

import "context"

// Client is implemented by every backend adapter.
type Client interface {
	// Generate performs exactly one round trip to the backend.
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)

	// Capabilities reports which JSON-Schema features the backend honors.
	// It never performs I/O.
	Capabilities() Capabilities
}

// Capabilities describes how a backend's structured-output engine treats a schema.
// Callers consult it before building a schema for that backend.
type Capabilities struct {
	// FieldsAlwaysRequired means every object field is treated as required,
	// whatever the schema's "required" list says.
	FieldsAlwaysRequired bool

	// SupportsFormat means the "format" keyword is enforced.
	SupportsFormat bool

	// ExtractDescriptions means "description" is ignored by the engine and
	// should be folded into the prompt instead.
	ExtractDescriptions bool

	// TopLevelMustBeObject means the schema root must be a JSON object.
	TopLevelMustBeObject bool
}
