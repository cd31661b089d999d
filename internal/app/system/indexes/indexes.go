// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup (and by tests on a fresh database). Each
collection's index set is reconciled idempotently; every problem is
collected so startup fails with the full picture.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		coll   string
		models []mongo.IndexModel
	}{
		{"members", memberIndexes()},
		{"donations", donationIndexes()},
		{"feed_messages", feedIndexes()},
		{"audit_events", auditIndexes()},
	}

	var problems []string
	for _, s := range sets {
		if err := ensureIndexSet(ctx, db.Collection(s.coll), s.models); err != nil {
			problems = append(problems, s.coll+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func memberIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetName("uniq_members_phone").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_members_nameci__id"),
		},
		{
			Keys:    bson.D{{Key: "leader_id", Value: 1}},
			Options: options.Index().SetName("idx_members_leader"),
		},
		{
			Keys:    bson.D{{Key: "referred_by_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_members_referrer_created"),
		},
		{
			Keys:    bson.D{{Key: "role_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_members_role_status"),
		},
	}
}

func donationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "receipt_number", Value: 1}},
			Options: options.Index().SetName("uniq_donations_receipt").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_donations_date__id"),
		},
		{
			Keys:    bson.D{{Key: "phone", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("idx_donations_phone_date"),
		},
	}
}

func feedIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_feed_updated_desc"),
		},
		{
			Keys:    bson.D{{Key: "tags", Value: 1}},
			Options: options.Index().SetName("idx_feed_tags"),
		},
	}
}

func auditIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_actor_created"),
		},
		{
			Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_event_created"),
		},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile a desired index set for one collection                            */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool { return b != nil && *b }

func isDuplicateKeyErr(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return mongo.IsDuplicateKeyError(err)
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name := *m.Options.Name
		wantUnique := isUnique(m.Options.Unique)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if isUnique(ex.Unique) == wantUnique && ex.Name == name {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()), zap.String("name", name))
				continue
			}
			// Same keys but a different name or uniqueness: rebuild.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", name, ex.Name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if wantUnique && isDuplicateKeyErr(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index on %s (duplicates present)", name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", wantUnique),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
