package yc01

import (
	"fmt"

	"github.com/juju/errors"
)

type DecodeErrorKind int

const (
	InvalidLength DecodeErrorKind = iota + 1
	ChecksumMismatch
)

type DecodeError struct {
	Kind   DecodeErrorKind
	Length int
	Expect byte
	Actual byte
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case InvalidLength:
		return fmt.Sprintf("yc01 frame invalid length=%d", e.Length)
	case ChecksumMismatch:
		return fmt.Sprintf("yc01 frame checksum mismatch expect=%02x actual=%02x", e.Expect, e.Actual)
	}
	return fmt.Sprintf("yc01 frame decode kind=%d", e.Kind)
}

type SessionErrorKind int

const (
	// link open failed
	LinkUnavailable SessionErrorKind = iota + 1
	// all attempts failed
	ExhaustedRetries
	// context done between attempts
	Interrupted
)

func (k SessionErrorKind) String() string {
	switch k {
	case LinkUnavailable:
		return "link unavailable"
	case ExhaustedRetries:
		return "exhausted retries"
	case Interrupted:
		return "interrupted"
	}
	return fmt.Sprintf("SessionErrorKind(%d)", int(k))
}

type SessionError struct {
	Kind     SessionErrorKind
	Attempts int
	Err      error
}

func (e *SessionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("yc01 session %s attempts=%d", e.Kind, e.Attempts)
	}
	return fmt.Sprintf("yc01 session %s attempts=%d: %v", e.Kind, e.Attempts, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// IsDecodeError looks through juju annotations.
func IsDecodeError(err error, kind DecodeErrorKind) bool {
	e, ok := errors.Cause(err).(*DecodeError)
	return ok && e.Kind == kind
}

// IsSessionError looks through juju annotations.
func IsSessionError(err error, kind SessionErrorKind) bool {
	e, ok := errors.Cause(err).(*SessionError)
	return ok && e.Kind == kind
}
