// Package lookups manages the small static tables that member records
// reference by id: roles, spiritual_levels and sources.
package lookups

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	RolesCollection           = "roles"
	SpiritualLevelsCollection = "spiritual_levels"
	SourcesCollection         = "sources"
)

// ErrNotFound is returned when a lookup value does not resolve.
var ErrNotFound = errors.New("lookup entry not found")

// DefaultSpiritualLevels and DefaultSources are seeded when their
// collections are empty. Existing rows are never overwritten.
var (
	DefaultSpiritualLevels = []models.LookupEntry{
		{ID: 1, Name: "Newcomer"},
		{ID: 2, Name: "Regular attendee"},
		{ID: 3, Name: "Practicing"},
		{ID: 4, Name: "Aspiring"},
		{ID: 5, Name: "Initiated"},
	}
	DefaultSources = []models.LookupEntry{
		{ID: 1, Name: "Walk-in"},
		{ID: 2, Name: "Referral"},
		{ID: 3, Name: "Festival"},
		{ID: 4, Name: "Online"},
		{ID: 5, Name: "Outreach"},
	}
)

type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Seed inserts the role table and the default lookup rows. Safe to call on
// every startup.
func (s *Store) Seed(ctx context.Context) error {
	roles := s.db.Collection(RolesCollection)
	for _, r := range models.Roles {
		_, err := roles.UpdateOne(ctx,
			bson.M{"_id": r},
			bson.M{"$set": bson.M{"name": r.String()}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}
	if err := s.seedIfEmpty(ctx, SpiritualLevelsCollection, DefaultSpiritualLevels); err != nil {
		return err
	}
	return s.seedIfEmpty(ctx, SourcesCollection, DefaultSources)
}

func (s *Store) seedIfEmpty(ctx context.Context, coll string, rows []models.LookupEntry) error {
	c := s.db.Collection(coll)
	n, err := c.CountDocuments(ctx, bson.M{})
	if err != nil || n > 0 {
		return err
	}
	docs := make([]any, len(rows))
	for i, r := range rows {
		docs[i] = r
	}
	_, err = c.InsertMany(ctx, docs)
	return err
}

// Roles returns the role table ordered by privilege.
func (s *Store) Roles(ctx context.Context) ([]models.RoleRecord, error) {
	cur, err := s.db.Collection(RolesCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.RoleRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns all rows of a lookup collection ordered by id.
func (s *Store) List(ctx context.Context, coll string) ([]models.LookupEntry, error) {
	cur, err := s.db.Collection(coll).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.LookupEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve finds an entry by numeric id or by case-insensitive name.
func (s *Store) Resolve(ctx context.Context, coll, idOrName string) (models.LookupEntry, error) {
	idOrName = strings.TrimSpace(idOrName)
	if idOrName == "" {
		return models.LookupEntry{}, ErrNotFound
	}
	entries, err := s.List(ctx, coll)
	if err != nil {
		return models.LookupEntry{}, err
	}
	id, numErr := strconv.Atoi(idOrName)
	folded := text.Fold(idOrName)
	for _, e := range entries {
		if (numErr == nil && e.ID == id) || text.Fold(e.Name) == folded {
			return e, nil
		}
	}
	return models.LookupEntry{}, ErrNotFound
}
