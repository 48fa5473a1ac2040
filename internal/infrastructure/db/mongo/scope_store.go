package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const scopeCollection = "console_scopes"

// ScopeStore keeps each browser scope as one document. Entries are set and
// unset with single update operations, so multi-key writes are atomic.
type ScopeStore struct {
	db   *mongo.Database
	coll *mongo.Collection
	ttl  time.Duration
	now  func() time.Time
}

type scopeDoc struct {
	ID        string            `bson:"_id"`
	Entries   map[string]string `bson:"entries"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

func NewScopeStore(db *mongo.Database, ttl time.Duration) *ScopeStore {
	return &ScopeStore{db: db, coll: db.Collection(scopeCollection), ttl: ttl, now: time.Now}
}

// EnsureIndexes creates the TTL index that expires idle scopes.
func (s *ScopeStore) EnsureIndexes(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(s.ttl / time.Second)),
	})
	if err != nil {
		return fmt.Errorf("create scope ttl index: %w", err)
	}
	return nil
}

func (s *ScopeStore) Read(ctx context.Context, scope string, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))

	var doc scopeDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": scope}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo read scope: %w", err)
	}

	for _, k := range keys {
		if v, ok := doc.Entries[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *ScopeStore) Write(ctx context.Context, scope string, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	set := bson.M{"updated_at": s.now().UTC()}
	for k, v := range entries {
		set["entries."+k] = v
	}

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": scope},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo write scope: %w", err)
	}
	return nil
}

func (s *ScopeStore) Delete(ctx context.Context, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	unset := bson.M{}
	for _, k := range keys {
		unset["entries."+k] = ""
	}

	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": scope},
		bson.M{"$unset": unset, "$set": bson.M{"updated_at": s.now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("mongo delete scope: %w", err)
	}
	return nil
}

func (s *ScopeStore) Name() string { return "mongodb" }

func (s *ScopeStore) Ping(ctx context.Context) error {
	return s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}
