package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/example/mixbox-shop/internal/domain/selection"
	"github.com/example/mixbox-shop/internal/domain/session"
)

// MongoSessionStore keeps one document per session, keyed by session id.
type MongoSessionStore struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{db: db, coll: db.Collection(CollectionSessions)}
}

func (s *MongoSessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	var sess session.Session
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Selections == nil {
		sess.Selections = map[string]*selection.Temporary{}
	}
	return &sess, nil
}

func (s *MongoSessionStore) Create(ctx context.Context, sess *session.Session) error {
	sess.Version = 1
	if _, err := s.coll.InsertOne(ctx, sess); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Save replaces the document only if its version still matches sess.Version.
func (s *MongoSessionStore) Save(ctx context.Context, sess *session.Session) error {
	next := *sess
	next.Version = sess.Version + 1

	filter := bson.D{{Key: "_id", Value: sess.ID}, {Key: "version", Value: sess.Version}}
	res, err := s.coll.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: sess.ID}})
		if err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if n == 0 {
			return session.ErrSessionNotFound
		}
		return session.ErrVersionConflict
	}
	sess.Version = next.Version
	return nil
}

func (s *MongoSessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteOlderThan deletes idle sessions one by one. The age filter is repeated
// on each delete, so a session touched after the lookup is kept and not reported.
func (s *MongoSessionStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	idle := bson.D{{Key: "updatedAt", Value: bson.D{{Key: "$lt", Value: cutoff}}}}
	cursor, err := s.coll.Find(ctx, idle, options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("sweep sessions: %w", err)
	}
	var found []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("sweep sessions: %w", err)
	}

	var ids []string
	for _, doc := range found {
		filter := bson.D{{Key: "_id", Value: doc.ID}, {Key: "updatedAt", Value: bson.D{{Key: "$lt", Value: cutoff}}}}
		res, err := s.coll.DeleteOne(ctx, filter)
		if err != nil {
			return ids, fmt.Errorf("sweep session %s: %w", doc.ID, err)
		}
		if res.DeletedCount == 1 {
			ids = append(ids, doc.ID)
		}
	}
	return ids, nil
}

func (s *MongoSessionStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}
