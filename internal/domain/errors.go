// Package domain provides the core data model and canonical error types
// shared by the client, recorder, and analysis layers.
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of a harness error.
type ErrorKind string

const (
	// ErrorKindConfiguration indicates missing or invalid configuration.
	// Fatal, never retried.
	ErrorKindConfiguration ErrorKind = "configuration"

	// ErrorKindAuth indicates the OAuth token exchange failed. Fatal to the
	// current call; a later call may succeed after the cache is invalidated.
	ErrorKindAuth ErrorKind = "auth"

	// ErrorKindTransport indicates a network-level failure (connection
	// reset, timeout). Retried per policy, then surfaced.
	ErrorKindTransport ErrorKind = "transport"

	// ErrorKindServer indicates a persistent 5xx after retries were
	// exhausted. Usually returned as data rather than raised.
	ErrorKindServer ErrorKind = "server"

	// ErrorKindMalformedResponse indicates a response body that could not
	// be decoded. The client degrades to raw text instead of raising this.
	ErrorKindMalformedResponse ErrorKind = "malformed_response"
)

// Error is the canonical error returned by the API-access layer.
type Error struct {
	// Kind is the category of error.
	Kind ErrorKind

	// Message is the human-readable error message.
	Message string

	// StatusCode is the HTTP status code that produced the error, if any.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrConfiguration creates a configuration error.
func ErrConfiguration(message string) *Error {
	return &Error{Kind: ErrorKindConfiguration, Message: message}
}

// ErrAuth creates an auth error wrapping an optional cause.
func ErrAuth(message string, cause error) *Error {
	return &Error{Kind: ErrorKindAuth, Message: message, Err: cause}
}

// ErrTransport creates a transport error wrapping its cause.
func ErrTransport(message string, cause error) *Error {
	return &Error{Kind: ErrorKindTransport, Message: message, Err: cause}
}

// IsKind reports whether err is a harness error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind == kind
	}
	return false
}
