package llm

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// envOf returns an EnvLookup backed by key/value pairs.
func envOf(kv ...string) EnvLookup {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

type capturedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     map[string]any
}

type capture struct {
	mu    sync.Mutex
	req   capturedRequest
	calls int
}

func (c *capture) record(r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.req = capturedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     body,
	}
}

func (c *capture) get() capturedRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// newJSONServer answers every request with status and body, recording the request.
func newJSONServer(t *testing.T, status int, body string) (*httptest.Server, *capture) {
	t.Helper()
	got := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.record(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

// noNetwork fails any request that reaches it.
type noNetwork struct{ t *testing.T }

func (n noNetwork) RoundTrip(r *http.Request) (*http.Response, error) {
	n.t.Errorf("unexpected network call to %s", r.URL)
	return nil, errors.New("network disabled")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func schemaRequest(schema map[string]any) GenerateRequest {
	return GenerateRequest{
		UserPrompt:   "extract",
		OutputFormat: &OutputFormat{Name: "result", Schema: schema},
	}
}

func objectSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"a": map[string]any{"type": "integer"},
		},
		"required": []any{"a"},
	}
}
