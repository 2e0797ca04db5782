package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/loomhq/loom/core/session"
)

// sessionDoc is the stored session shape. The session key serves as the
// document id.
type sessionDoc struct {
	Key       string         `bson:"_id"`
	Data      map[string]any `bson:"data"`
	CreatedAt time.Time      `bson:"created_at"`
}

// Store persists sessions as documents in a MongoDB collection. It
// implements session.Store.
type Store struct {
	coll *mongo.Collection
}

// NewStore creates a session store over the given collection.
func NewStore(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// Get retrieves a session by key.
func (s *Store) Get(ctx context.Context, key string) (*session.Session, error) {
	var doc sessionDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return session.Restore(doc.Key, doc.CreatedAt, doc.Data), nil
}

// Create generates, persists, and returns a fresh session.
func (s *Store) Create(ctx context.Context) (*session.Session, error) {
	sess, err := session.New()
	if err != nil {
		return nil, err
	}

	doc := sessionDoc{
		Key:       sess.Key,
		Data:      sess.Data(),
		CreatedAt: sess.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save persists the session payload. Sessions created elsewhere are
// adopted; created_at is set only on first insert.
func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	filter := bson.M{"_id": sess.Key}
	update := bson.M{
		"$set":         bson.M{"data": sess.Data()},
		"$setOnInsert": bson.M{"created_at": sess.CreatedAt},
	}
	_, err := s.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	return err
}

// Delete removes a session by key. Deleting an unknown key is not an
// error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// DeleteExpired removes sessions older than maxAge and returns the count
// of deleted documents.
func (s *Store) DeleteExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	res, err := s.coll.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lte": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
