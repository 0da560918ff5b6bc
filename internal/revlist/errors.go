package revlist

import (
	"errors"
)

// Walk failure kinds. WalkError matches its kind through errors.Is.
var (
	// ErrNoRepository means the resource has no version-control association.
	ErrNoRepository = errors.New("no repository")
	// ErrSourceUnavailable means the Commit Source failed to enumerate commits.
	ErrSourceUnavailable = errors.New("commit source unavailable")
	// ErrCancelled means the walk was aborted through its context.
	ErrCancelled = errors.New("walk cancelled")
)

// ErrStop may be returned by an Each callback to end the walk early without error.
var ErrStop = errors.New("stop walk")

// WalkError is returned by every failed walk.
type WalkError struct {
	Kind error // One of ErrNoRepository, ErrSourceUnavailable, ErrCancelled
	Err  error // Underlying cause, may be nil
}

func (e *WalkError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *WalkError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newWalkError(kind, cause error) *WalkError {
	return &WalkError{Kind: kind, Err: cause}
}

// KindOf returns the failure kind of err, or nil when err is not a walk failure.
func KindOf(err error) error {
	var we *WalkError
	if errors.As(err, &we) {
		return we.Kind
	}
	return nil
}
