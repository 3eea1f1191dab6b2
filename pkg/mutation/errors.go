package mutation

import (
	"errors"
	"fmt"

	"github.com/greforce/udm-devconnector/pkg/guard"
	"github.com/greforce/udm-devconnector/pkg/storage"
	"github.com/greforce/udm-devconnector/pkg/subcoll"
)

// Kind classifies a failed mutation.
type Kind string

const (
	NotFound         Kind = "not_found"
	ProfileMissing   Kind = "profile_missing"
	Forbidden        Kind = "forbidden"
	ValidationFailed Kind = "validation_failed"
	StorageFailure   Kind = "storage_error"
	CorruptDocument  Kind = "corrupt_document"
)

// Stable reasons surfaced to callers next to the Kind. Forbidden errors use
// the guard reasons.
const (
	ReasonNoPost         = "no-post"
	ReasonNoComment      = "no-comment"
	ReasonNoExperience   = "no-experience"
	ReasonNoEducation    = "no-education"
	ReasonNoProfile      = "no-profile"
	ReasonInvalidInput   = "invalid-input"
	ReasonHandleTaken    = "handle-taken"
	ReasonUnavailable    = "storage-unavailable"
	ReasonConflict       = "version-conflict"
	ReasonDuplicateIdent = "duplicate-identity"
	ReasonInternal       = "internal"
)

// State is a step of a mutation request.
type State int

const (
	Fetching State = iota
	Guarding
	Mutating
	Persisting
	Done
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Guarding:
		return "guarding"
	case Mutating:
		return "mutating"
	case Persisting:
		return "persisting"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Error is the terminal Failed state of a mutation request: the operation,
// the state it failed in and a stable kind and reason.
type Error struct {
	Op     string
	State  State
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed while %s: %s (%s): %v", e.Op, e.State, e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed while %s: %s (%s)", e.Op, e.State, e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the request unchanged may succeed.
// Only storage failures qualify; every other kind is a definitive outcome.
func (e *Error) Retryable() bool {
	return e.Kind == StorageFailure
}

// KindOf returns the Kind of err, or "" if err is not a mutation error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ReasonOf returns the reason of err, or "" if err is not a mutation error.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

func fail(op string, state State, kind Kind, reason string, err error) *Error {
	return &Error{Op: op, State: state, Kind: kind, Reason: reason, Err: err}
}

func invalid(op, msg string) *Error {
	return fail(op, Fetching, ValidationFailed, ReasonInvalidInput, errors.New(msg))
}

// fetchError classifies a failed fetch of a parent document.
func fetchError(op string, missing Kind, reason string, err error) *Error {
	if errors.Is(err, storage.ErrNotFound) {
		return fail(op, Fetching, missing, reason, err)
	}
	return fail(op, Fetching, StorageFailure, ReasonUnavailable, err)
}

// lookupError classifies a failed sub-record lookup.
func lookupError(op string, reason string, err error) *Error {
	if errors.Is(err, subcoll.ErrDuplicateKey) {
		return fail(op, Guarding, CorruptDocument, ReasonDuplicateIdent, err)
	}
	return fail(op, Guarding, NotFound, reason, err)
}

// guardError classifies an authorization failure.
func guardError(op string, err error) *Error {
	var denied *guard.DeniedError
	if errors.As(err, &denied) {
		return fail(op, Guarding, Forbidden, string(denied.Reason), err)
	}
	return fail(op, Guarding, CorruptDocument, ReasonInternal, err)
}

// goneError classifies a parent removed between its fetch and its persist.
func goneError(op string, doc storage.Document, err error) *Error {
	if doc.Collection() == storage.Profiles {
		return fail(op, Persisting, ProfileMissing, ReasonNoProfile, err)
	}
	return fail(op, Persisting, NotFound, ReasonNoPost, err)
}

// persistError classifies a failed write of the whole document.
func persistError(op string, err error) *Error {
	if errors.Is(err, storage.ErrVersionConflict) {
		return fail(op, Persisting, StorageFailure, ReasonConflict, err)
	}
	return fail(op, Persisting, StorageFailure, ReasonUnavailable, err)
}
