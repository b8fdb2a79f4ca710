// Package engine defines the transcription engine contract, concrete
// bindings, and the in-session selection/fallback controller.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Transcription is the successful outcome of one chunk transcription.
type Transcription struct {
	Text     string
	Language string
}

// Adapter is the uniform contract over heterogeneous transcription backends.
//
// Probe is a lightweight pre-flight availability check; Transcribe handles
// one phrase chunk. An adapter does not retain the PCM after returning.
type Adapter interface {
	Name() string
	Probe(ctx context.Context) error
	Transcribe(ctx context.Context, pcm []byte, language string) (Transcription, error)
}

// ErrorKind classifies engine failures.
type ErrorKind string

const (
	KindAuthMissing        ErrorKind = "auth_missing"
	KindAuthInvalid        ErrorKind = "auth_invalid"
	KindNetworkUnreachable ErrorKind = "network_unreachable"
	KindTimeout            ErrorKind = "timeout"
	KindRateLimited        ErrorKind = "rate_limited"
	KindMalformedResponse  ErrorKind = "malformed_response"
)

// Error is a classified engine failure.
type Error struct {
	Engine string
	Kind   ErrorKind
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Engine, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Engine, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err with engine and kind classification.
func newError(engine string, kind ErrorKind, err error) *Error {
	return &Error{Engine: engine, Kind: kind, Err: err}
}

// KindOf extracts the error kind, or empty when err is not an engine error.
func KindOf(err error) ErrorKind {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return ""
}

// IsRateLimited reports whether err is a rate-limit rejection.
func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}
