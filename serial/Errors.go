package serial

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package matches exactly
// one of these with errors.Is.
var (
	// ErrDeclaration indicates an attribute declared with an unregistered
	// codec, an attribute with no bound field, or a declaration made
	// after the attributes were sealed.
	ErrDeclaration = errors.New("invalid attribute declaration")

	// ErrCorruptArchive indicates a required entry is missing or cannot
	// be parsed.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrUnknownType indicates a type identifier that has no registered
	// factory.
	ErrUnknownType = errors.New("unknown serializable type")

	// ErrStorage indicates an underlying filesystem or container failure.
	ErrStorage = errors.New("archive storage failure")

	// ErrEncoding indicates a value that its codec cannot represent.
	ErrEncoding = errors.New("value cannot be encoded")

	// ErrInvalidPath indicates an invalid path argument.
	ErrInvalidPath = errors.New("invalid archive path")
)

// Error describes a failed save, load, copy or declaration along with the
// archive entry involved.
type Error struct {
	Op    string // Operation: save, load, copy, declare, inspect
	Entry string // Archive entry or attribute name, may be empty
	Kind  error  // One of the package error categories
	Err   error  // Underlying cause, may be nil
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := e.Op
	if e.Entry != "" {
		msg = fmt.Sprintf("%v %q", msg, e.Entry)
	}
	msg = fmt.Sprintf("%v: %v", msg, e.Kind)
	if e.Err != nil {
		msg = fmt.Sprintf("%v: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns both the error category and the underlying cause so that
// errors.Is matches either.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// newError returns a new *Error. If err already is an *Error it is
// returned unchanged so that errors raised deep in a nested object keep
// the entry they were raised for.
func newError(op, entry string, kind, err error) error {
	var serr *Error
	if errors.As(err, &serr) {
		return err
	}
	return &Error{Op: op, Entry: entry, Kind: kind, Err: err}
}
