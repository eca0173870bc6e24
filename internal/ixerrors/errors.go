// Package ixerrors is the single error envelope every recoverable failure
// in ixo is returned through: a Kind, a message, and the chain of
// operation frames that wrapped it on the way up. It follows the shape of
// a typed error hierarchy with Unwrap/Is support rather than bare
// fmt.Errorf chains, so callers can branch on Kind without string
// matching.
package ixerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the exhaustive set of error kinds ixo surfaces. See spec §7.
type Kind string

const (
	KindIO               Kind = "io"
	KindCorruptFile      Kind = "corrupt_file"
	KindInvalidSchema    Kind = "invalid_schema"
	KindLockFailure      Kind = "lock_failure"
	KindUnknownField     Kind = "unknown_field"
	KindDecodeError      Kind = "decode_error"
	KindUnsupportedFmt   Kind = "unsupported_format"
	KindBadArgument      Kind = "bad_argument"
	KindInternal         Kind = "internal"
)

// Error is the envelope. Frames records the operation names each Wrap
// call added, innermost first, so the message can be reconstructed as
// "op3: op2: op1: underlying".
type Error struct {
	Kind       Kind
	Message    string
	Frames     []string
	Underlying error
}

func (e *Error) Error() string {
	var b strings.Builder
	for i := len(e.Frames) - 1; i >= 0; i-- {
		b.WriteString(e.Frames[i])
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Underlying != nil {
		b.WriteString(": ")
		b.WriteString(e.Underlying.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *Error) Unwrap() error { return e.Underlying }

// Is matches on Kind so callers can do errors.Is(err, ixerrors.New(KindCorruptFile, "")).
func (e *Error) Is(target error) bool {
	var o *Error
	if errors.As(target, &o) {
		return e.Kind == o.Kind
	}
	return false
}

// New builds a fresh Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with fmt-style formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an operation frame to err. If err is already an *Error,
// the frame is appended and the Kind/Underlying are preserved; otherwise
// a new Internal-kind Error is created around it (unless the caller
// passes a Kind via WrapKind).
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		clone := *e
		clone.Frames = append(append([]string{}, e.Frames...), op)
		return &clone
	}
	return &Error{Kind: KindInternal, Frames: []string{op}, Underlying: err}
}

// WrapKind is Wrap but pins the Kind when the error isn't already typed.
func WrapKind(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		clone := *e
		clone.Frames = append(append([]string{}, e.Frames...), op)
		return &clone
	}
	return &Error{Kind: kind, Frames: []string{op}, Underlying: err}
}

// KindOf extracts the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
