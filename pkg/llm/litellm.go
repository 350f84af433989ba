package llm

const (
	defaultLiteLLMAddress = "http://0.0.0.0:4000"
	liteLLMKeyEnv         = "LITELLM_API_KEY"
)

// LiteLLMClient implements Client for a LiteLLM (OpenAI-compatible) proxy.
type LiteLLMClient struct {
	chatCompletionClient
}

// NewLiteLLMClient creates a client for the proxy at spec.Address, or
// http://0.0.0.0:4000 when no address is given. LITELLM_API_KEY must be set;
// a proxy running without auth still needs a placeholder value such as "anything".
func NewLiteLLMClient(spec Spec, opts ...Option) (*LiteLLMClient, error) {
	const backend = "litellm"
	o := buildOptions(opts)
	apiKey, err := o.requireEnv(backend, liteLLMKeyEnv)
	if err != nil {
		return nil, err
	}
	ep, err := newEndpoint(backend, spec, defaultLiteLLMAddress, o)
	if err != nil {
		return nil, err
	}
	return &LiteLLMClient{chatCompletionClient{endpoint: ep, apiKey: apiKey}}, nil
}
