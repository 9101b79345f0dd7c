package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures so callers can distinguish transport
// trouble from throttling and from unusable responses.
type ErrorKind int

const (
	// ErrKindConnection covers transport-level failures reaching the provider.
	ErrKindConnection ErrorKind = iota
	// ErrKindRateLimit covers throttling responses.
	ErrKindRateLimit
	// ErrKindResponse covers malformed, empty or otherwise unusable responses.
	ErrKindResponse
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindConnection:
		return "connection"
	case ErrKindRateLimit:
		return "rate_limit"
	case ErrKindResponse:
		return "response"
	default:
		return "unknown"
	}
}

// Error wraps a provider failure with its classification.
type Error struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s model %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from err. The second return is false
// when err does not carry a model error.
func KindOf(err error) (ErrorKind, bool) {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind, true
	}
	return 0, false
}
