// Package feed stores the local metadata of messages relayed to the
// community channel.
package feed

import (
	"context"
	"time"

	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is the number of messages List returns when none is given.
const DefaultLimit = 21

// MaxLimit caps List.
const MaxLimit = 200

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("feed_messages")}
}

// Create records a relayed message.
func (s *Store) Create(ctx context.Context, m models.FeedMessage) (models.FeedMessage, error) {
	now := time.Now().UTC()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.FeedMessage{}, err
	}
	return m, nil
}

// List returns the most recently updated messages first, optionally only
// those carrying tag.
func (s *Store) List(ctx context.Context, limit int, tag string) ([]models.FeedMessage, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	filter := bson.M{}
	if tag != "" {
		filter["tags"] = tag
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.FeedMessage{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
