// Package apperr classifies failures so the HTTP and websocket boundaries can
// turn them into a response envelope in one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies the class of a failure
type Kind int

const (
	// Internal is any failure that was not classified
	Internal Kind = iota
	// Validation means a required field is missing or malformed
	Validation
	// NotFound means the addressed record does not exist
	NotFound
	// Forbidden means the caller does not own the addressed record
	Forbidden
	// Storage means the database rejected or failed the operation
	Storage
	// Upstream means an external API (LLM, vision model) failed
	Upstream
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case Storage:
		return "storage"
	case Upstream:
		return "upstream"
	default:
		return "internal"
	}
}

// StatusCode maps a kind to the HTTP status the API answers with
func (k Kind) StatusCode() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Message is what the caller gets to see.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validationf reports a missing or malformed input field
func Validationf(format string, args ...any) error {
	return &Error{Kind: Validation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFound reports a missing record
func NewNotFound(message string) error {
	return &Error{Kind: NotFound, Message: message}
}

// NewForbidden reports an ownership mismatch
func NewForbidden(message string) error {
	return &Error{Kind: Forbidden, Message: message}
}

// WrapStorage classifies a database failure. The driver's text is kept
// verbatim as the caller-visible message.
func WrapStorage(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Storage, Message: err.Error(), Err: err}
}

// WrapUpstream classifies a failure of an external API
func WrapUpstream(message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Upstream, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the caller-visible message for err
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
