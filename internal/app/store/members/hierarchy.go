package members

import (
	"context"
	"slices"

	"github.com/dalemusser/templehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxChainDepth bounds the leader-chain walk. Deeper chains are treated as
// cyclic.
const maxChainDepth = 1000

type chainLink struct {
	ID    int64 `bson:"_id"`
	Depth int64 `bson:"depth"`
}

// LeaderChain returns the ids above member id, nearest leader first, by
// following leader_id. The walk stops at a missing member or on revisiting
// an id.
func (s *Store) LeaderChain(ctx context.Context, id int64) ([]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$graphLookup", Value: bson.M{
			"from":             "members",
			"startWith":        "$leader_id",
			"connectFromField": "leader_id",
			"connectToField":   "_id",
			"as":               "chain",
			"maxDepth":         maxChainDepth,
			"depthField":       "depth",
		}}},
		{{Key: "$project", Value: bson.M{"chain._id": 1, "chain.depth": 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	var doc struct {
		Chain []chainLink `bson:"chain"`
	}
	if err := cur.Decode(&doc); err != nil {
		return nil, err
	}
	slices.SortFunc(doc.Chain, func(a, b chainLink) int {
		return int(a.Depth - b.Depth)
	})
	out := make([]int64, len(doc.Chain))
	for i, c := range doc.Chain {
		out[i] = c.ID
	}
	return out, nil
}

// SetLeader assigns leaderID as the leader of member id, or clears it when
// leaderID is nil. Assignments that would make id its own transitive leader
// fail with ErrLeaderCycle.
func (s *Store) SetLeader(ctx context.Context, id int64, leaderID *int64, actorID int64) error {
	if leaderID == nil {
		res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
			"$unset": bson.M{"leader_id": ""},
			"$set":   bson.M{"updated_at": s.now(), "updated_by": actorID},
		})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	}

	if *leaderID == id {
		return ErrLeaderCycle
	}
	chain, err := s.LeaderChain(ctx, *leaderID)
	if err != nil {
		return err
	}
	if slices.Contains(chain, id) || len(chain) > maxChainDepth {
		return ErrLeaderCycle
	}
	return s.updateFields(ctx, id, bson.M{"leader_id": *leaderID}, actorID)
}

// ListForOrganization returns every member with the fields the hierarchy
// needs, in id order.
func (s *Store) ListForOrganization(ctx context.Context) ([]models.Member, error) {
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Member{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Insights are directory-wide counts.
type Insights struct {
	Total      int64 `bson:"total" json:"total"`
	Active     int64 `bson:"active" json:"active"`
	Volunteers int64 `bson:"volunteers" json:"volunteers"`
	Leaders    int64 `bson:"leaders" json:"leaders"`
}

// Insights counts all members, active members, volunteers and leaders.
func (s *Store) Insights(ctx context.Context) (Insights, error) {
	countIf := func(cond bson.M) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{cond, 1, 0}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"total":      bson.M{"$sum": 1},
			"active":     countIf(bson.M{"$eq": bson.A{"$status", models.StatusActive}}),
			"volunteers": countIf(bson.M{"$eq": bson.A{"$role_id", int(models.RoleVolunteer)}}),
			"leaders":    countIf(bson.M{"$eq": bson.A{"$role_id", int(models.RoleLeader)}}),
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return Insights{}, err
	}
	defer cur.Close(ctx)
	var out Insights
	if cur.Next(ctx) {
		if err := cur.Decode(&out); err != nil {
			return Insights{}, err
		}
	}
	return out, cur.Err()
}
