// Package apperr holds the failure taxonomy shared by the remote clients and
// the record store.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrNotFound             = errors.New("not found")
	ErrRemoteUnavailable    = errors.New("remote unavailable")
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrValidationFailed     = errors.New("validation failed")
)

// Error attaches operation context to a failure. errors.Is matches both the
// Kind and the underlying cause.
type Error struct {
	Op   string
	ID   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.ID != "" {
		msg += " " + e.ID
	}
	// a cause that already names the kind is not prefixed with it again
	if e.Err == nil || !errors.Is(e.Err, e.Kind) {
		msg += ": " + e.Kind.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New builds an Error. When err already carries a known kind, that kind wins
// over the supplied one so a NotFound from a client stays NotFound.
func New(op, id string, kind, err error) *Error {
	if k := KindOf(err); k != nil {
		kind = k
	}
	return &Error{Op: op, ID: id, Kind: kind, Err: err}
}

// Wrap keeps the kind already present in err, defaulting to RemoteUnavailable.
func Wrap(op, id string, err error) error {
	if err == nil {
		return nil
	}
	return New(op, id, ErrRemoteUnavailable, err)
}

// Validation reports a field-level failure before any remote call.
func Validation(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrValidationFailed, Err: fmt.Errorf(format, args...)}
}

var kinds = []error{
	ErrUnauthenticated,
	ErrPermissionDenied,
	ErrNotFound,
	ErrRemoteUnavailable,
	ErrConfigurationMissing,
	ErrValidationFailed,
}

// KindOf returns the taxonomy sentinel err matches, or nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// RootOp returns the Op of the innermost *Error in err's chain, which names
// the backend call that failed. It is "" when err carries no *Error.
func RootOp(err error) string {
	op := ""
	var e *Error
	for errors.As(err, &e) {
		op = e.Op
		err = e.Err
	}
	return op
}
