// Package mongo stores posts and profiles as whole documents, one collection
// per parent kind, with the sub-collections embedded as arrays.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/greforce/udm-devconnector/pkg/storage"
)

type Storage struct {
	client *mongo.Client
	dbName string
}

func New(ctx context.Context, conf *Config) (*Storage, error) {
	opt := conf.Options()
	client, err := mongo.Connect(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrConnectDB, err)
	}

	s := Storage{client: client, dbName: conf.DBName}
	for _, coll := range []storage.Collection{storage.Posts, storage.Profiles} {
		if err := s.createCollection(ctx, string(coll)); err != nil {
			log.Warnf("[mongo] unable to create collection %q: %v", coll, err)
		}
	}
	if err := s.createIndexes(ctx); err != nil {
		log.Warnf("[mongo] unable to create indexes: %v", err)
	}

	return &s, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrDBNotResponding, err)
	}
	return nil
}

func (s *Storage) Close(ctx context.Context) {
	s.client.Disconnect(ctx)
}

func (s *Storage) coll(c storage.Collection) *mongo.Collection {
	return s.client.Database(s.dbName).Collection(string(c))
}

func (s *Storage) FetchByID(ctx context.Context, coll storage.Collection, id uuid.UUID, dst storage.Document) error {
	return decodeOne(s.coll(coll).FindOne(ctx, bson.M{"_id": id}), dst)
}

func (s *Storage) FetchOne(ctx context.Context, coll storage.Collection, f storage.Filter, dst storage.Document) error {
	filter := bson.M{}
	if f.Owner != uuid.Nil {
		filter["user"] = f.Owner
	}
	if f.Handle != "" {
		filter["handle"] = f.Handle
	}
	if len(filter) == 0 {
		return storage.ErrEmptyFilter
	}

	return decodeOne(s.coll(coll).FindOne(ctx, filter), dst)
}

func decodeOne(res *mongo.SingleResult, dst storage.Document) error {
	err := res.Decode(dst)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	return err
}

// Persist replaces the stored document without a version check and never
// inserts one. The revision written is derived from the caller's copy, so
// concurrent writers of the same base produce the same revision and the
// later one wins.
func (s *Storage) Persist(ctx context.Context, doc storage.Document) error {
	prev := doc.Revision()
	doc.SetRevision(prev + 1)

	res, err := s.coll(doc.Collection()).ReplaceOne(ctx, bson.M{"_id": doc.DocID()}, doc)
	if err == nil && res.MatchedCount == 0 {
		err = storage.ErrNotFound
	}
	if err != nil {
		doc.SetRevision(prev)
		return err
	}

	return nil
}

func (s *Storage) PersistIfVersion(ctx context.Context, doc storage.Document, version int64) error {
	prev := doc.Revision()
	doc.SetRevision(version + 1)

	err := s.replaceIfVersion(ctx, doc, version)
	if err != nil {
		doc.SetRevision(prev)
	}
	return err
}

func (s *Storage) replaceIfVersion(ctx context.Context, doc storage.Document, version int64) error {
	coll := s.coll(doc.Collection())

	if version == 0 {
		_, err := coll.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrVersionConflict
		}
		return err
	}

	res, err := coll.ReplaceOne(ctx, bson.M{"_id": doc.DocID(), "version": version}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrVersionConflict
	}

	return nil
}

func (s *Storage) Remove(ctx context.Context, doc storage.Document) error {
	res, err := s.coll(doc.Collection()).DeleteOne(ctx, bson.M{"_id": doc.DocID()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// createCollection creates a collection with the given name in the database if it doesn't already exist.
func (s *Storage) createCollection(ctx context.Context, collName string) error {
	collExists, err := collectionExists(ctx, s.client.Database(s.dbName), collName)
	if err != nil {
		return err
	}

	if !collExists {
		err := s.client.Database(s.dbName).CreateCollection(ctx, collName)
		if err != nil {
			return err
		}
	}

	return nil
}

// collectionExists checks if a collection with the given name exists in the database.
func collectionExists(ctx context.Context, db *mongo.Database, collName string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return false, fmt.Errorf("failed to list collection names: %w", err)
	}

	for _, name := range names {
		if name == collName {
			return true, nil
		}
	}

	return false, nil
}

// createIndexes adds the lookups FetchOne relies on: one profile per user
// and unique handles.
func (s *Storage) createIndexes(ctx context.Context) error {
	_, err := s.coll(storage.Profiles).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "handle", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}

	_, err = s.coll(storage.Posts).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}},
	})
	return err
}
