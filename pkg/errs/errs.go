// Package errs defines the tagged error kinds surfaced to the host.
package errs

import "fmt"

// Kind tags the category of a failure so hosts can branch on it without
// string matching.
type Kind int

const (
	// KindInvalidConfig marks a fatal construction-time configuration error.
	KindInvalidConfig Kind = iota
	// KindValidationFailed marks a document rejected before logging.
	KindValidationFailed
	// KindLogCorruption marks a malformed commit-log line found during replay.
	KindLogCorruption
	// KindIoError marks an underlying filesystem failure.
	KindIoError
	// KindNotFound marks a missing document id.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidConfig:
		return "InvalidConfig"
	case KindValidationFailed:
		return "ValidationFailed"
	case KindLogCorruption:
		return "LogCorruption"
	case KindIoError:
		return "IoError"
	case KindNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned across package boundaries.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, errs.ErrNotFound) style matching against a sentinel
// that only carries a Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels usable with errors.Is. They carry no message or cause.
var (
	ErrInvalidConfig    = &Error{Kind: KindInvalidConfig}
	ErrValidationFailed = &Error{Kind: KindValidationFailed}
	ErrLogCorruption    = &Error{Kind: KindLogCorruption}
	ErrNotFound         = &Error{Kind: KindNotFound}
)

// New builds an Error of the given kind with a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// IO wraps a filesystem error as KindIoError.
func IO(msg string, err error) *Error {
	return Wrap(KindIoError, msg, err)
}
