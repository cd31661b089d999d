// Package counters allocates sequential numeric ids from the "counters"
// collection. Each counter is one document {_id: name, seq: last}.
package counters

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Counter names.
const (
	Members   = "members"
	Donations = "donations"
)

var errBadCount = errors.New("counters: block size must be positive")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("counters")}
}

// Next returns the next id for name.
func (s *Store) Next(ctx context.Context, name string) (int64, error) {
	return s.Reserve(ctx, name, 1)
}

// Reserve atomically reserves n consecutive ids and returns the first.
// The reserved range is [first, first+n).
func (s *Store) Reserve(ctx context.Context, name string, n int) (int64, error) {
	if n <= 0 {
		return 0, errBadCount
	}
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(n)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq - int64(n) + 1, nil
}
