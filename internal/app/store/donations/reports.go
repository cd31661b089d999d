package donations

import (
	"context"

	"github.com/dalemusser/templehub/internal/app/system/reportrange"
	"github.com/dalemusser/templehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultTopDonors is the leaderboard size when none is given.
const DefaultTopDonors = 10

// Summary totals the donations inside both ranges.
func (s *Store) Summary(ctx context.Context, dr reportrange.DateRange, ar reportrange.AmountRange) (models.DonationTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: rangeFilter(dr, ar)}},
		{{Key: "$group", Value: bson.M{
			"_id":          nil,
			"total_amount": bson.M{"$sum": "$amount"},
			"count":        bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return models.DonationTotals{}, err
	}
	defer cur.Close(ctx)
	var out models.DonationTotals
	if cur.Next(ctx) {
		if err := cur.Decode(&out); err != nil {
			return models.DonationTotals{}, err
		}
	}
	return out, cur.Err()
}

// LineSummary sums amounts per calendar date, oldest first.
func (s *Store) LineSummary(ctx context.Context, dr reportrange.DateRange) ([]models.DailyAmount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: rangeFilter(dr, reportrange.AmountRange{})}},
		{{Key: "$group", Value: bson.M{
			"_id":    bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$date"}},
			"amount": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.DailyAmount{}
	for cur.Next(ctx) {
		var row struct {
			Date   string `bson:"_id"`
			Amount int64  `bson:"amount"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, models.DailyAmount{Date: row.Date, Amount: row.Amount})
	}
	return out, cur.Err()
}

// TopDonors ranks donor phones by total amount within dr. Each row is
// matched to a member by phone value; MemberID stays nil for unregistered
// donors, whose name falls back to the most recent receipt name.
func (s *Store) TopDonors(ctx context.Context, dr reportrange.DateRange, limit int) ([]models.TopDonor, error) {
	if limit <= 0 {
		limit = DefaultTopDonors
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: rangeFilter(dr, reportrange.AmountRange{})}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$phone",
			"receipt_name":   bson.M{"$last": "$name"},
			"total_amount":   bson.M{"$sum": "$amount"},
			"donation_count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total_amount", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "members",
			"localField":   "_id",
			"foreignField": "phone",
			"as":           "member",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"member_id":   bson.M{"$arrayElemAt": bson.A{"$member._id", 0}},
			"member_name": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$member.name", 0}}, ""}},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"name": bson.M{"$cond": bson.A{
				bson.M{"$gt": bson.A{bson.M{"$strLenCP": "$member_name"}, 0}},
				"$member_name",
				"$receipt_name",
			}},
		}}},
		{{Key: "$project", Value: bson.M{"member": 0, "member_name": 0, "receipt_name": 0}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.TopDonor{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
