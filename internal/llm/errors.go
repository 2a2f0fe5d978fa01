package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ConfigurationError reports missing required credential fields. It is
// raised before any network call is made.
type ConfigurationError struct {
	Provider string
	Missing  []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured: missing %s", e.Provider, strings.Join(e.Missing, ", "))
}

// UnreachableError reports a network or transport failure. It is retryable
// by the user and never retried automatically.
type UnreachableError struct {
	Provider string
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%s is unreachable: %v", e.Provider, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// RejectedError reports a request refused by the provider, typically bad
// credentials.
type RejectedError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected the request (status %d): %v", e.Provider, e.StatusCode, e.Err)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// Auth reports whether the rejection is an authentication or authorization failure.
func (e *RejectedError) Auth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// StreamInterruptedError reports a stream that failed after content was delivered.
type StreamInterruptedError struct {
	Partial string
	Err     error
}

func (e *StreamInterruptedError) Error() string {
	return fmt.Sprintf("stream interrupted after %d characters: %v", len(e.Partial), e.Err)
}

func (e *StreamInterruptedError) Unwrap() error { return e.Err }

// FromStatus classifies an HTTP status returned by a provider. Server errors
// count as the provider being unavailable; client errors as a rejection.
func FromStatus(provider string, status int, err error) error {
	if status >= http.StatusInternalServerError {
		return &UnreachableError{Provider: provider, Err: err}
	}
	return &RejectedError{Provider: provider, StatusCode: status, Err: err}
}

// Classify maps transport failures onto the error taxonomy. Errors already in
// the taxonomy and context cancellation pass through unchanged.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}

	var (
		cfgErr      *ConfigurationError
		unreachable *UnreachableError
		rejected    *RejectedError
		interrupted *StreamInterruptedError
	)
	if errors.As(err, &cfgErr) || errors.As(err, &unreachable) || errors.As(err, &rejected) || errors.As(err, &interrupted) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &UnreachableError{Provider: provider, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &UnreachableError{Provider: provider, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &UnreachableError{Provider: provider, Err: err}
	}

	return fmt.Errorf("%s: %w", provider, err)
}

// IsUnreachable reports whether err is an UnreachableError.
func IsUnreachable(err error) bool {
	var target *UnreachableError
	return errors.As(err, &target)
}

// IsRejected reports whether err is a RejectedError.
func IsRejected(err error) bool {
	var target *RejectedError
	return errors.As(err, &target)
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// Guidance returns a short hint shown alongside a rejection.
func Guidance(kind Kind) string {
	switch kind {
	case OpenAI:
		return "Check the API key at https://platform.openai.com/api-keys"
	case Anthropic:
		return "Check the API key at https://console.anthropic.com/settings/keys"
	case DeepSeek:
		return "Check the API key at https://platform.deepseek.com/api_keys"
	case Ollama:
		return "Make sure the Ollama server is running and the base URL is correct (e.g. http://localhost:11434)"
	default:
		return "Check the provider credentials"
	}
}
