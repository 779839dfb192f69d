// Package engine assembles page context and conversation history into a
// completion request and interprets the reply.
// This file contains the error taxonomy shared by every chain.

package engine

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure by where it originated.
type ErrorKind string

const (
	KindMissingCredential ErrorKind = "missing_credential"
	KindNoContent         ErrorKind = "no_content"
	KindScrapeChannel     ErrorKind = "scrape_channel"
	KindEndpoint          ErrorKind = "endpoint"
)

// User-facing messages for each kind.
const (
	MsgMissingCredential = "API Key is missing. Please provide it first."
	MsgNoContent         = "No meaningful content found on the page."
	MsgScrapeFailed      = "Failed to scrape the page."
	MsgUnknownEndpoint   = "Unknown error occurred during the fetch."
)

// Error wraps a failure with its kind and a message fit for display.
type Error struct {
	Kind       ErrorKind
	Message    string
	HTTPStatus int // HTTP status code if applicable
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("engine error: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// EndpointError builds an endpoint failure carrying the provider's message.
// An empty message falls back to MsgUnknownEndpoint.
func EndpointError(message string, httpStatus int, err error) *Error {
	if message == "" {
		message = MsgUnknownEndpoint
	}
	return &Error{
		Kind:       KindEndpoint,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the display message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
