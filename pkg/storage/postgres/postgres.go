// Package postgres stores posts and profiles as JSONB documents. The whole
// parent, sub-collections included, lives in one row, so a persist is a
// single-row write.
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/greforce/udm-devconnector/pkg/storage"
)

const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id UUID NOT NULL,
		owner UUID NOT NULL,
		version BIGINT NOT NULL,
		body JSONB NOT NULL,
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS documents_owner_idx ON documents (collection, owner);
	CREATE UNIQUE INDEX IF NOT EXISTS documents_handle_idx ON documents ((body->>'handle'))
		WHERE collection = 'profiles';
`

type Store struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, conStr string) (*Store, error) {
	db, err := pgxpool.Connect(ctx, conStr)
	if err != nil {
		return nil, err
	}
	s := Store{
		db: db,
	}

	return &s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}

// Migrate creates the documents table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

func (s *Store) FetchByID(ctx context.Context, coll storage.Collection, id uuid.UUID, dst storage.Document) error {
	row := s.db.QueryRow(ctx, `
		SELECT body, version
		FROM documents
		WHERE collection = $1 AND id = $2
	`,
		string(coll),
		id.String(),
	)

	return scanDocument(row, dst)
}

func (s *Store) FetchOne(ctx context.Context, coll storage.Collection, f storage.Filter, dst storage.Document) error {
	if f.Owner == uuid.Nil && f.Handle == "" {
		return storage.ErrEmptyFilter
	}

	var owner *string
	if f.Owner != uuid.Nil {
		o := f.Owner.String()
		owner = &o
	}
	var handle *string
	if f.Handle != "" {
		handle = &f.Handle
	}

	row := s.db.QueryRow(ctx, `
		SELECT body, version
		FROM documents
		WHERE collection = $1
			AND ($2::uuid IS NULL OR owner = $2::uuid)
			AND ($3::text IS NULL OR body->>'handle' = $3::text)
		LIMIT 1
	`,
		string(coll),
		owner,
		handle,
	)

	return scanDocument(row, dst)
}

// scanDocument decodes a body and version row into dst. The version column
// is authoritative over the one embedded in the body.
func scanDocument(row pgx.Row, dst storage.Document) error {
	var (
		body    []byte
		version int64
	)
	err := row.Scan(&body, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return err
	}
	dst.SetRevision(version)

	return nil
}

// Persist replaces the whole document at the stored revision plus one.
func (s *Store) Persist(ctx context.Context, doc storage.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	var version int64
	err = s.db.QueryRow(ctx, `
		UPDATE documents
		SET owner = $3, version = version + 1, body = $4
		WHERE collection = $1 AND id = $2
		RETURNING version
	`,
		string(doc.Collection()),
		doc.DocID().String(),
		doc.OwnerRef().String(),
		body,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}
	doc.SetRevision(version)

	return nil
}

func (s *Store) PersistIfVersion(ctx context.Context, doc storage.Document, version int64) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	var query string
	args := []interface{}{string(doc.Collection()), doc.DocID().String(), doc.OwnerRef().String(), body}
	if version == 0 {
		query = `
			INSERT INTO documents (collection, id, owner, version, body)
			VALUES ($1, $2, $3, 1, $4)
			ON CONFLICT (collection, id) DO NOTHING
		`
	} else {
		query = `
			UPDATE documents
			SET owner = $3, version = version + 1, body = $4
			WHERE collection = $1 AND id = $2 AND version = $5
		`
		args = append(args, version)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrVersionConflict
	}
	doc.SetRevision(version + 1)

	return nil
}

func (s *Store) Remove(ctx context.Context, doc storage.Document) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`,
		string(doc.Collection()),
		doc.DocID().String(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}
