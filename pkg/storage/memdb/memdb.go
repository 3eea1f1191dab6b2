// Package memdb is an in-memory document store used in development mode and
// in tests. Documents are kept BSON-encoded, so every fetch hands out an
// independent working copy exactly like a real document database does.
package memdb

import (
	"context"
	"sync"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/greforce/udm-devconnector/pkg/storage"
)

type record struct {
	owner    uuid.UUID
	revision int64
	raw      []byte
}

type Store struct {
	mu   sync.Mutex
	docs map[storage.Collection]map[uuid.UUID]record
}

func New() *Store {
	db := Store{
		docs: make(map[storage.Collection]map[uuid.UUID]record),
	}

	return &db
}

func (db *Store) FetchByID(ctx context.Context, coll storage.Collection, id uuid.UUID, dst storage.Document) error {
	db.mu.Lock()
	rec, ok := db.docs[coll][id]
	db.mu.Unlock()
	if !ok {
		return storage.ErrNotFound
	}

	return bson.Unmarshal(rec.raw, dst)
}

// FetchOne scans the collection for a document matching f. Map order is
// random, so filters are expected to select at most one document.
func (db *Store) FetchOne(ctx context.Context, coll storage.Collection, f storage.Filter, dst storage.Document) error {
	if f.Owner == uuid.Nil && f.Handle == "" {
		return storage.ErrEmptyFilter
	}

	db.mu.Lock()
	var (
		raw   []byte
		found bool
	)
	for _, rec := range db.docs[coll] {
		if matches(rec, f) {
			raw, found = rec.raw, true
			break
		}
	}
	db.mu.Unlock()
	if !found {
		return storage.ErrNotFound
	}

	return bson.Unmarshal(raw, dst)
}

func matches(rec record, f storage.Filter) bool {
	if f.Owner != uuid.Nil && rec.owner != f.Owner {
		return false
	}
	if f.Handle != "" {
		handle, ok := bson.Raw(rec.raw).Lookup("handle").StringValueOK()
		if !ok || handle != f.Handle {
			return false
		}
	}
	return true
}

func (db *Store) Persist(ctx context.Context, doc storage.Document) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec, ok := db.docs[doc.Collection()][doc.DocID()]
	if !ok {
		return storage.ErrNotFound
	}

	return db.write(doc, rec.revision+1)
}

func (db *Store) PersistIfVersion(ctx context.Context, doc storage.Document, version int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec, ok := db.docs[doc.Collection()][doc.DocID()]
	if !ok && version != 0 {
		return storage.ErrVersionConflict
	}
	if ok && rec.revision != version {
		return storage.ErrVersionConflict
	}

	return db.write(doc, version+1)
}

func (db *Store) Remove(ctx context.Context, doc storage.Document) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	coll := db.docs[doc.Collection()]
	if _, ok := coll[doc.DocID()]; !ok {
		return storage.ErrNotFound
	}
	delete(coll, doc.DocID())

	return nil
}

// write stores doc under revision rev. The caller holds db.mu.
func (db *Store) write(doc storage.Document, rev int64) error {
	prev := doc.Revision()
	doc.SetRevision(rev)
	raw, err := bson.Marshal(doc)
	if err != nil {
		doc.SetRevision(prev)
		return err
	}

	coll, ok := db.docs[doc.Collection()]
	if !ok {
		coll = make(map[uuid.UUID]record)
		db.docs[doc.Collection()] = coll
	}
	coll[doc.DocID()] = record{owner: doc.OwnerRef(), revision: rev, raw: raw}

	return nil
}
