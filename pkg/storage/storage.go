package storage

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
)

var (
	ErrConnectDB       = fmt.Errorf("unable to establish DB connection")
	ErrDBNotResponding = fmt.Errorf("DB not responding")

	ErrNotFound        = fmt.Errorf("document not found")
	ErrVersionConflict = fmt.Errorf("document version conflict")
	ErrEmptyFilter     = fmt.Errorf("empty filter")
)

// Collection names a kind of parent document.
type Collection string

const (
	Posts    Collection = "posts"
	Profiles Collection = "profiles"
)

// Document is a parent document persisted as a whole. Sub-records have no
// lifecycle of their own and are written only as part of their parent.
type Document interface {
	DocID() uuid.UUID
	OwnerRef() uuid.UUID
	Collection() Collection
	// Revision is incremented by every successful persist.
	Revision() int64
	SetRevision(v int64)
}

// Filter selects a single document. Zero fields are ignored; at least one
// field must be set.
type Filter struct {
	Owner  uuid.UUID
	Handle string
}

// Storage is the document persistence collaborator. A single Persist call is
// atomic for the whole document; nothing spans a fetch and a later persist.
type Storage interface {
	// FetchByID decodes the document with the given id into dst.
	// Returns ErrNotFound if it does not exist.
	FetchByID(ctx context.Context, coll Collection, id uuid.UUID, dst Document) error
	// FetchOne decodes the first document matching f into dst.
	// Returns ErrNotFound if none matches.
	FetchOne(ctx context.Context, coll Collection, f Filter, dst Document) error
	// Persist replaces the whole stored document, last writer wins. It never
	// creates one: persisting an absent document is ErrNotFound.
	Persist(ctx context.Context, doc Document) error
	// PersistIfVersion replaces the document only if its stored revision still
	// equals version (0 means "must not exist yet"); ErrVersionConflict otherwise.
	PersistIfVersion(ctx context.Context, doc Document, version int64) error
	// Remove deletes the document. Removing an absent document is ErrNotFound.
	Remove(ctx context.Context, doc Document) error
}
