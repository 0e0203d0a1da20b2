// Package errs defines the error kinds shared by the install and remove
// workflows and maps them to process exit codes.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for reporting and exit-code purposes.
type Kind int

const (
	// KindUnknown is any error not produced through this package.
	KindUnknown Kind = iota
	// KindUserInput is a missing or invalid argument or option.
	KindUserInput
	// KindData is a missing or malformed descriptor or catalog, or an
	// install target that already exists.
	KindData
	// KindExternalCommand is a subprocess that exited nonzero or failed to start.
	KindExternalCommand
	// KindIO is a filesystem read or write failure.
	KindIO
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindUserInput:
		return "user input"
	case KindData:
		return "data"
	case KindExternalCommand:
		return "external command"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a kind-tagged error. Op names the workflow step that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// UserInput returns a KindUserInput error.
func UserInput(op, format string, args ...any) error {
	return newf(KindUserInput, op, format, args...)
}

// Data returns a KindData error.
func Data(op, format string, args ...any) error {
	return newf(KindData, op, format, args...)
}

// ExternalCommand returns a KindExternalCommand error.
func ExternalCommand(op, format string, args ...any) error {
	return newf(KindExternalCommand, op, format, args...)
}

// IO returns a KindIO error.
func IO(op, format string, args ...any) error {
	return newf(KindIO, op, format, args...)
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps an error to the process exit status. nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindUserInput:
		return 2
	case KindData:
		return 3
	case KindExternalCommand:
		return 4
	case KindIO:
		return 5
	default:
		return 1
	}
}
