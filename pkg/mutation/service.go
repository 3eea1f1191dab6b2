// Package mutation orchestrates changes to the sub-collections embedded in
// posts and profiles: fetch the parent, guard, mutate the in-memory copy and
// persist the whole document.
//
// Under the default LastWriterWins policy nothing protects the window between
// the fetch and the persist: two requests mutating the same parent
// concurrently both work on the same base state and the later persist
// silently discards the earlier change. The Optimistic policy closes that
// window with a revision check at persist time and restarts the cycle on
// conflict.
package mutation

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/greforce/udm-devconnector/pkg/storage"
)

// Policy selects how concurrent writers to the same parent are handled.
type Policy int

const (
	LastWriterWins Policy = iota
	Optimistic
)

func (p Policy) String() string {
	if p == Optimistic {
		return "optimistic"
	}
	return "last-writer-wins"
}

const defaultMaxRetries = 3

type Service struct {
	db             storage.Storage
	policy         Policy
	maxRetries     int
	requireProfile bool
	now            func() time.Time
}

type Option func(*Service)

// WithPolicy sets the concurrency policy. maxRetries bounds the number of
// restarts after a version conflict and only applies to Optimistic.
func WithPolicy(p Policy, maxRetries int) Option {
	return func(s *Service) {
		s.policy = p
		if maxRetries >= 0 {
			s.maxRetries = maxRetries
		}
	}
}

// RequireActorProfile makes Like, Unlike and RemovePost fail with
// ProfileMissing unless the actor owns a profile.
func RequireActorProfile() Option {
	return func(s *Service) {
		s.requireProfile = true
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New returns a Service persisting through db.
func New(db storage.Storage, opts ...Option) *Service {
	s := Service{
		db:         db,
		policy:     LastWriterWins,
		maxRetries: defaultMaxRetries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &s
}

// Policy returns the concurrency policy in use.
func (s *Service) Policy() Policy {
	return s.policy
}

// timestamp returns the current time at the precision documents are stored with.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// modify runs the Fetching → Guarding → Mutating → Persisting → Done cycle
// for one request. load fetches a fresh working copy of the parent; change
// guards and mutates it in place and must only return *Error values.
//
// This is the only place where the read-modify-write hazard is handled.
func modify[D storage.Document](ctx context.Context, s *Service, op string, load func(context.Context) (D, error), change func(D) error) (D, error) {
	var zero D

	for attempt := 0; ; attempt++ {
		doc, err := load(ctx)
		if err != nil {
			return zero, err
		}
		base := doc.Revision()
		log.Debugf("[mutation][%s] fetched %v at revision %d", op, doc.DocID(), base)

		if err := change(doc); err != nil {
			log.Debugf("[mutation][%s] %v rejected: %v", op, doc.DocID(), err)
			return zero, err
		}

		err = s.persist(ctx, doc, base)
		if err == nil {
			log.Debugf("[mutation][%s] persisted %v at revision %d", op, doc.DocID(), doc.Revision())
			return doc, nil
		}
		if errors.Is(err, storage.ErrVersionConflict) && attempt < s.maxRetries {
			log.Debugf("[mutation][%s] version conflict on %v, restarting (%d/%d)", op, doc.DocID(), attempt+1, s.maxRetries)
			continue
		}

		if errors.Is(err, storage.ErrNotFound) {
			log.Debugf("[mutation][%s] %v removed before persist", op, doc.DocID())
			return zero, goneError(op, doc, err)
		}

		log.Warnf("[mutation][%s] failed to persist %v: %v", op, doc.DocID(), err)
		return zero, persistError(op, err)
	}
}

// persist writes doc fetched at revision base. A zero base marks a document
// that was never stored: it is inserted, never replaced.
func (s *Service) persist(ctx context.Context, doc storage.Document, base int64) error {
	if base == 0 || s.policy == Optimistic {
		return s.db.PersistIfVersion(ctx, doc, base)
	}
	return s.db.Persist(ctx, doc)
}
