// Package guard decides whether an actor may perform a mutation on a parent
// document or one of its sub-records.
package guard

import (
	"fmt"

	"github.com/gofrs/uuid"

	"github.com/greforce/udm-devconnector/pkg/ident"
)

var ErrForbidden = fmt.Errorf("forbidden")

// Op is the kind of mutation being authorized.
type Op int

const (
	AddComment Op = iota
	RemoveComment
	Like
	Unlike
	RemovePost
	AddExperience
	RemoveExperience
	AddEducation
	RemoveEducation
)

var opNames = [...]string{
	AddComment:       "add-comment",
	RemoveComment:    "remove-comment",
	Like:             "like",
	Unlike:           "unlike",
	RemovePost:       "remove-post",
	AddExperience:    "add-experience",
	RemoveExperience: "remove-experience",
	AddEducation:     "add-education",
	RemoveEducation:  "remove-education",
}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("op(%d)", int(op))
	}
	return opNames[op]
}

// Reason is the stable name of a denial.
type Reason string

const (
	NotOwner     Reason = "not-owner"
	OwnResource  Reason = "cannot-act-on-own-resource"
	AlreadyLiked Reason = "already-liked"
	NotYetLiked  Reason = "not-yet-liked"
)

// DeniedError is returned when an actor is not allowed to perform Op.
// It matches ErrForbidden with errors.Is.
type DeniedError struct {
	Op     Op
	Reason Reason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s denied: %s", e.Op, e.Reason)
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrForbidden
}

// Owned is a parent document with an owning actor.
type Owned interface {
	OwnerRef() uuid.UUID
}

// Authored is a sub-record written by an actor.
type Authored interface {
	AuthorRef() uuid.UUID
}

// Likeable is a parent that tracks which actors like it.
type Likeable interface {
	Owned
	LikedBy(actor uuid.UUID) bool
}

// Authorize returns nil if actor may perform op, a *DeniedError otherwise.
//
// parent must be non-nil. record is the located sub-record and is only
// consulted for RemoveComment; Like and Unlike require parent to be Likeable.
func Authorize(op Op, actor uuid.UUID, parent Owned, record Authored) error {
	if parent == nil {
		return fmt.Errorf("guard: %s: nil parent", op)
	}

	switch op {
	case AddComment:
		return nil

	case RemoveComment:
		if record == nil {
			return fmt.Errorf("guard: %s: nil record", op)
		}
		if !ident.Equal(record.AuthorRef(), actor) {
			return deny(op, NotOwner)
		}
		return nil

	case Like, Unlike:
		p, ok := parent.(Likeable)
		if !ok {
			return fmt.Errorf("guard: %s: parent %T cannot be liked", op, parent)
		}
		if ident.Equal(p.OwnerRef(), actor) {
			return deny(op, OwnResource)
		}
		liked := p.LikedBy(actor)
		if op == Like && liked {
			return deny(op, AlreadyLiked)
		}
		if op == Unlike && !liked {
			return deny(op, NotYetLiked)
		}
		return nil

	case RemovePost, AddExperience, RemoveExperience, AddEducation, RemoveEducation:
		if !ident.Equal(parent.OwnerRef(), actor) {
			return deny(op, NotOwner)
		}
		return nil
	}

	return fmt.Errorf("guard: unknown operation %s", op)
}

func deny(op Op, reason Reason) error {
	return &DeniedError{Op: op, Reason: reason}
}
