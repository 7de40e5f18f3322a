// Package errs defines the error kinds framegrab's core uses to decide
// whether a failure is fatal to the current run or merely counts against
// the dispatcher's error budget.
package errs

import (
	"github.com/pkg/errors"
)

// Kind classifies a failure so callers can decide how to react to it.
type Kind int32

const (
	// KindUnknown is the zero value; errs.Code treats it as an unwrapped error.
	KindUnknown Kind = iota
	// ResourceExhaustion is an allocation failure; always fatal to the run.
	ResourceExhaustion
	// MalformedContainer is an MP4 box size/consistency violation; fatal to
	// the box's container, not necessarily the whole file.
	MalformedContainer
	// MalformedBitstream is a NAL header or Exp-Golomb decode failure;
	// recoverable until the dispatcher's error budget is exhausted.
	MalformedBitstream
	// UnsupportedFeature covers non-IDR slices, unknown NAL types, and
	// unsupported sample entries.
	UnsupportedFeature
	// ReferentialIntegrity marks a slice referencing a missing PPS/SPS.
	ReferentialIntegrity
	// IOFailure is a short read or a seek past EOF; always fatal.
	IOFailure
)

func (k Kind) String() string {
	switch k {
	case ResourceExhaustion:
		return "resource-exhaustion"
	case MalformedContainer:
		return "malformed-container"
	case MalformedBitstream:
		return "malformed-bitstream"
	case UnsupportedFeature:
		return "unsupported-feature"
	case ReferentialIntegrity:
		return "referential-integrity"
	case IOFailure:
		return "io-failure"
	default:
		return "unknown"
	}
}

// Error is framegrab's error type: a Kind plus a message, satisfying the
// standard error interface.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Msg
}

// New builds an *Error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrapf wraps err with a formatted message, preserving a stack trace via
// github.com/pkg/errors the way bugVanisher-streamer's errs package does.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Code returns the Kind carried by err, or KindUnknown if err was not
// produced by this package.
func Code(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}

	return KindUnknown
}

// Fatal reports whether a failure of this kind always aborts the current
// decode run, as opposed to merely incrementing the dispatcher's
// errorCounter.
func Fatal(kind Kind) bool {
	switch kind {
	case ResourceExhaustion, IOFailure:
		return true
	default:
		return false
	}
}
