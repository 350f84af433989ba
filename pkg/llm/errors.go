package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoContent is wrapped by a ProtocolError when the backend answered with a
// well-formed envelope that carries no generated text.
var ErrNoContent = errors.New("no content returned")

// ConfigurationError is returned by constructors when a credential is missing or
// an option is not supported by the backend.
type ConfigurationError struct {
	Backend string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: configuration: %s", e.Backend, e.Message)
}

// TransportError is returned when the HTTP round trip itself failed.
type TransportError struct {
	Backend string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError is returned when the backend responded but the payload is not
// what was expected: an error object, a bad status, malformed JSON or no content.
type ProtocolError struct {
	Backend string
	// StatusCode is the HTTP status, 0 if unknown
	StatusCode int
	Message    string
	Err        error
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: protocol (HTTP %d): %s", e.Backend, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: protocol: %s", e.Backend, e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func configErrorf(backend, format string, args ...any) error {
	return &ConfigurationError{Backend: backend, Message: fmt.Sprintf(format, args...)}
}

func noContent(backend string, status int) error {
	return &ProtocolError{Backend: backend, StatusCode: status, Message: ErrNoContent.Error(), Err: ErrNoContent}
}

// Error type constants for classification
const (
	ErrTypeConfiguration = "configuration"
	ErrTypeTransport     = "transport"
	ErrTypeProtocol      = "protocol"
	ErrTypeTimeout       = "timeout"
	ErrTypeUnknown       = "unknown"
)

// ClassifyError returns a short label for err, suitable for metric and trace labels.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}

	var cfgErr *ConfigurationError
	var transportErr *TransportError
	var protoErr *ProtocolError
	switch {
	case errors.As(err, &cfgErr):
		return ErrTypeConfiguration
	case errors.As(err, &transportErr):
		return ErrTypeTransport
	case errors.As(err, &protoErr):
		return ErrTypeProtocol
	}
	return ErrTypeUnknown
}
