package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const maxErrorBody = 2048

// endpoint is the immutable connection handle shared by all calls of one adapter.
type endpoint struct {
	backend    string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func newEndpoint(backend string, spec Spec, defaultBaseURL string, o options) (endpoint, error) {
	base := defaultBaseURL
	if spec.Address != "" {
		u, err := url.Parse(spec.Address)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return endpoint{}, configErrorf(backend, "invalid address %q", spec.Address)
		}
		base = spec.Address
	}
	return endpoint{
		backend:    backend,
		model:      spec.Model,
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: o.httpClient,
		logger:     o.logger.With("backend", backend),
	}, nil
}

// postJSON sends payload to baseURL+path and decodes the response body into out.
// A non-null top-level "error" field in the body wins over everything else,
// including the status code.
func (e endpoint) postJSON(ctx context.Context, path string, header http.Header, payload, out any) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("%s: marshal request: %w", e.backend, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%s: create request: %w", e.backend, err)
	}
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	e.logger.DebugContext(ctx, "llm request", "model", e.model, "path", req.URL.Path, "bytes", len(data))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			// query strings may carry credentials
			urlErr.URL = e.baseURL + strings.SplitN(path, "?", 2)[0]
		}
		return 0, &TransportError{Backend: e.backend, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &TransportError{Backend: e.backend, Err: fmt.Errorf("read response: %w", err)}
	}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		if resp.StatusCode >= http.StatusMultipleChoices {
			return resp.StatusCode, &ProtocolError{Backend: e.backend, StatusCode: resp.StatusCode, Message: truncate(body)}
		}
		return resp.StatusCode, &ProtocolError{Backend: e.backend, StatusCode: resp.StatusCode, Message: "invalid JSON response", Err: err}
	}
	if raw := bytes.TrimSpace(envelope.Error); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		return resp.StatusCode, &ProtocolError{Backend: e.backend, StatusCode: resp.StatusCode, Message: "API error: " + string(raw)}
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, &ProtocolError{Backend: e.backend, StatusCode: resp.StatusCode, Message: truncate(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, &ProtocolError{Backend: e.backend, StatusCode: resp.StatusCode, Message: "unexpected response shape", Err: err}
	}
	return resp.StatusCode, nil
}

// finish builds the response for req from text and logs when a schema was
// requested but the backend did not return JSON.
func (e endpoint) finish(ctx context.Context, req GenerateRequest, text string) GenerateResponse {
	resp := finish(req, text)
	if req.wantsJSON() && !resp.IsJSON() {
		e.logger.WarnContext(ctx, "structured output requested but response is not JSON", "model", e.model)
	}
	return resp
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
