package llm

import (
	"log/slog"
	"net/http"
	"os"
)

// EnvLookup resolves a configuration value such as an API key.
// It has the signature of os.LookupEnv, which is the default.
type EnvLookup func(key string) (string, bool)

// AnthropicProtocol selects the Anthropic request layout.
type AnthropicProtocol int

const (
	// AnthropicV2 sends a top-level system field and a forced tool call for schemas.
	AnthropicV2 AnthropicProtocol = iota
	// AnthropicV1 folds the system prompt into the messages and sends the
	// schema as a json_object tool.
	AnthropicV1
)

type options struct {
	httpClient        *http.Client
	lookupEnv         EnvLookup
	logger            *slog.Logger
	anthropicProtocol AnthropicProtocol
}

// Option configures an adapter at construction time.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for requests. Timeouts and
// connection reuse are the client's concern.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithEnvLookup replaces os.LookupEnv for credential lookup.
func WithEnvLookup(lookup EnvLookup) Option {
	return func(o *options) { o.lookupEnv = lookup }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAnthropicProtocol selects the Anthropic request layout. Other backends ignore it.
func WithAnthropicProtocol(p AnthropicProtocol) Option {
	return func(o *options) { o.anthropicProtocol = p }
}

func buildOptions(opts []Option) options {
	o := options{
		httpClient: http.DefaultClient,
		lookupEnv:  os.LookupEnv,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.httpClient == nil {
		o.httpClient = http.DefaultClient
	}
	if o.lookupEnv == nil {
		o.lookupEnv = os.LookupEnv
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// requireEnv returns the non-empty value of key or a ConfigurationError.
func (o options) requireEnv(backend, key string) (string, error) {
	v, ok := o.lookupEnv(key)
	if !ok || v == "" {
		return "", configErrorf(backend, "%s environment variable must be set", key)
	}
	return v, nil
}
