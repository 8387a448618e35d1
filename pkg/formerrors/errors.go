// Package formerrors defines the error taxonomy shared by the registry and
// the presenter. Setup calls return an *Error whose Kind is one of the
// sentinel values below so callers can branch with errors.Is.
package formerrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument reports malformed or wrong-kind input to a setup call.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound reports a name or selector that does not resolve.
	ErrNotFound = errors.New("not found")
)

// Error carries the failing operation and the offending name alongside the
// error kind.
type Error struct {
	Op   string
	Kind error
	Name string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
		if e.Name != "" {
			fmt.Fprintf(&b, " %q", e.Name)
		}
		if e.Err != nil {
			b.WriteString(": ")
		}
	} else if e.Name != "" {
		fmt.Fprintf(&b, "%q: ", e.Name)
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// InvalidArgument builds an ErrInvalidArgument error for op.
func InvalidArgument(op, name, format string, args ...any) error {
	return newError(op, ErrInvalidArgument, name, format, args...)
}

// NotFound builds an ErrNotFound error for op.
func NotFound(op, name, format string, args ...any) error {
	return newError(op, ErrNotFound, name, format, args...)
}

// Wrap attaches op/name context to err. The kind of a wrapped *Error stays
// reachable through errors.Is.
func Wrap(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Name: name, Err: err}
}

// IsInvalidArgument reports whether err is an ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func newError(op string, kind error, name, format string, args ...any) error {
	e := &Error{Op: op, Kind: kind, Name: name}
	if format != "" {
		e.Err = fmt.Errorf(format, args...)
	}
	return e
}
