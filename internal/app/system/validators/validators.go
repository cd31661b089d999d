// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/templehub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("members", membersSchema())
	ensure("donations", donationsSchema())
	ensure("feed_messages", feedSchema())
	ensure("audit_events", auditSchema())

	// Lookup tables and counters are seeded by the app itself.
	ensure("roles", nil)
	ensure("counters", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var intTypes = bson.A{"int", "long"}

func roleEnum() bson.A {
	out := bson.A{}
	for _, r := range models.Roles {
		out = append(out, int(r))
	}
	return out
}

func membersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id", "phone", "role_id", "status"},
			"properties": bson.M{
				"_id":            bson.M{"bsonType": intTypes, "minimum": 1},
				"phone":          bson.M{"bsonType": "string", "pattern": "^\\+[0-9]{11,15}$"},
				"phone_verified": bson.M{"bsonType": "bool"},
				"name":           bson.M{"bsonType": "string"},
				"role_id":        bson.M{"bsonType": intTypes, "enum": roleEnum()},
				"status":         bson.M{"enum": bson.A{models.StatusActive, models.StatusInactive, models.StatusDeceased}},
				"leader_id":      bson.M{"bsonType": intTypes},
				"referred_by_id": bson.M{"bsonType": intTypes},
				"counsellor_id":  bson.M{"bsonType": intTypes},
			},
		},
	}
}

func donationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id", "receipt_number", "amount", "date"},
			"properties": bson.M{
				"_id":            bson.M{"bsonType": intTypes, "minimum": 1},
				"receipt_number": bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"phone":          bson.M{"bsonType": "string"},
				"amount":         bson.M{"bsonType": intTypes, "minimum": 0},
				"date":           bson.M{"bsonType": "date"},
			},
		},
	}
}

func feedSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id", "external_message_id", "created_at"},
			"properties": bson.M{
				"_id":                 bson.M{"bsonType": "string", "minLength": 1},
				"external_message_id": bson.M{"bsonType": intTypes},
				"media_type":          bson.M{"enum": bson.A{"photo", "video", "document"}},
				"tags":                bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"created_at":          bson.M{"bsonType": "date"},
			},
		},
	}
}

func auditSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"category", "event_type", "created_at"},
			"properties": bson.M{
				"category":   bson.M{"enum": bson.A{"auth", "admin"}},
				"event_type": bson.M{"bsonType": "string", "minLength": 1},
				"created_at": bson.M{"bsonType": "date"},
				"success":    bson.M{"bsonType": "bool"},
			},
		},
	}
}
