package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

type sessionDocument struct {
	ID         string    `bson:"_id"`
	LastAccess time.Time `bson:"last_access"`
	Data       []byte    `bson:"data"`
	Version    int64     `bson:"version"`
}

func (d sessionDocument) record() *session.Record {
	return &session.Record{
		ID:         d.ID,
		LastAccess: d.LastAccess.UTC(),
		Data:       d.Data,
		Version:    uint64(d.Version),
	}
}

// SessionStore implements session.Store and session.Pruner on a MongoDB
// collection. Updates filter on the version field, so a stale writer
// matches no document.
type SessionStore struct {
	coll *mongo.Collection
}

// NewSessionStore wraps the collection.
func NewSessionStore(coll *mongo.Collection) *SessionStore {
	return &SessionStore{coll: coll}
}

// EnsureIndexes creates the last_access index used by DeleteIdle.
func (s *SessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "last_access", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: create session indexes: %w", err)
	}
	return nil
}

func (s *SessionStore) Find(ctx context.Context, id string) (*session.Record, error) {
	var doc sessionDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, session.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find session: %w", err)
	}
	return doc.record(), nil
}

func (s *SessionStore) Insert(ctx context.Context, rec *session.Record) error {
	data := rec.Data
	if data == nil {
		data = []byte{}
	}
	_, err := s.coll.InsertOne(ctx, sessionDocument{
		ID:         rec.ID,
		LastAccess: rec.LastAccess,
		Data:       data,
		Version:    1,
	})
	if mongo.IsDuplicateKeyError(err) {
		return session.ErrRecordExists
	}
	if err != nil {
		return fmt.Errorf("mongo: insert session: %w", err)
	}
	rec.Version = 1
	return nil
}

func (s *SessionStore) Update(ctx context.Context, rec *session.Record) error {
	var doc sessionDocument
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": rec.ID, "version": int64(rec.Version)},
		bson.M{
			"$set": bson.M{"data": rec.Data},
			"$max": bson.M{"last_access": rec.LastAccess},
			"$inc": bson.M{"version": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		rec.Version = uint64(doc.Version)
		rec.LastAccess = doc.LastAccess.UTC()
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("mongo: update session: %w", err)
	}

	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": rec.ID})
	if err != nil {
		return fmt.Errorf("mongo: update session: %w", err)
	}
	if n > 0 {
		return session.ErrVersionConflict
	}
	return session.ErrRecordNotFound
}

func (s *SessionStore) Touch(ctx context.Context, id string, at time.Time) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$max": bson.M{"last_access": at}},
	)
	if err != nil {
		return fmt.Errorf("mongo: touch session: %w", err)
	}
	if res.MatchedCount == 0 {
		return session.ErrRecordNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo: delete session: %w", err)
	}
	return nil
}

// DeleteIdle removes records last accessed before the cutoff.
func (s *SessionStore) DeleteIdle(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"last_access": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("mongo: prune sessions: %w", err)
	}
	return res.DeletedCount, nil
}

var (
	_ session.Store  = (*SessionStore)(nil)
	_ session.Pruner = (*SessionStore)(nil)
)
