package llm

// NewClient builds the adapter named by spec.APIType.
func NewClient(spec Spec, opts ...Option) (Client, error) {
	var (
		c   Client
		err error
	)
	switch spec.APIType {
	case APITypeOpenAI:
		c, err = NewOpenAIClient(spec, opts...)
	case APITypeAnthropic:
		c, err = NewAnthropicClient(spec, opts...)
	case APITypeGemini:
		c, err = NewGeminiClient(spec, opts...)
	case APITypeOllama:
		c, err = NewOllamaClient(spec, opts...)
	case APITypeLiteLLM:
		c, err = NewLiteLLMClient(spec, opts...)
	default:
		return nil, configErrorf(string(spec.APIType), "unsupported API type %q", spec.APIType)
	}
	// avoid handing back a typed nil inside the interface
	if err != nil {
		return nil, err
	}
	return c, nil
}
