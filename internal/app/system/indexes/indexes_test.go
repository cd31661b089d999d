package indexes_test

import (
	"testing"

	"github.com/dalemusser/templehub/internal/app/system/indexes"
	"github.com/dalemusser/templehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, coll *mongo.Collection) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list indexes on %s: %v", coll.Name(), err)
	}
	defer cur.Close(ctx)

	out := map[string]bson.M{}
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode index: %v", err)
		}
		out[idx["name"].(string)] = idx
	}
	return out
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_UniqueKeys(t *testing.T) {
	db := testutil.SetupTestDB(t)

	members := indexNames(t, db.Collection("members"))
	idx, ok := members["uniq_members_phone"]
	if !ok {
		t.Fatalf("members phone index missing; have %v", members)
	}
	if u, _ := idx["unique"].(bool); !u {
		t.Error("members phone index should be unique")
	}

	donations := indexNames(t, db.Collection("donations"))
	if _, ok := donations["uniq_donations_receipt"]; !ok {
		t.Errorf("donations receipt index missing; have %v", donations)
	}
	if _, ok := indexNames(t, db.Collection("feed_messages"))["idx_feed_updated_desc"]; !ok {
		t.Error("feed index missing")
	}
}

func TestEnsureAll_FailsOnDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("members")
	if _, err := coll.Indexes().DropAll(ctx); err != nil {
		t.Fatalf("drop indexes: %v", err)
	}
	for _, id := range []int64{1, 2} {
		if _, err := coll.InsertOne(ctx, bson.M{"_id": id, "phone": "+919876543210"}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := indexes.EnsureAll(ctx, db); err == nil {
		t.Fatal("expected EnsureAll to fail with duplicate phones present")
	}
}
