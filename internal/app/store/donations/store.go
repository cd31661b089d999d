// Package donations persists the donation ledger and runs the report
// aggregations over it.
package donations

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/templehub/internal/app/store/counters"
	"github.com/dalemusser/templehub/internal/app/system/reportrange"
	"github.com/dalemusser/templehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no donation has the requested id.
	ErrNotFound = errors.New("donation not found")
	// ErrDuplicateReceipt is returned when a receipt number is already recorded.
	ErrDuplicateReceipt = errors.New("a donation with this receipt number already exists")
)

// Sortable fields for List. Anything else falls back to date.
var sortFields = map[string]string{
	"date":           "date",
	"amount":         "amount",
	"name":           "name",
	"phone":          "phone",
	"receipt_number": "receipt_number",
	"receiptNumber":  "receipt_number",
	"created_at":     "created_at",
}

type Store struct {
	c   *mongo.Collection
	ids *counters.Store
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection("donations"),
		ids: counters.New(db),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// GetByID loads a donation. Returns ErrNotFound if absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*models.Donation, error) {
	var d models.Donation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *Store) prepare(d *models.Donation) {
	now := s.now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}
}

// Create records one donation, allocating its id.
func (s *Store) Create(ctx context.Context, d models.Donation) (models.Donation, error) {
	id, err := s.ids.Next(ctx, counters.Donations)
	if err != nil {
		return models.Donation{}, err
	}
	d.ID = id
	s.prepare(&d)
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Donation{}, ErrDuplicateReceipt
		}
		return models.Donation{}, err
	}
	return d, nil
}

// InsertDonations inserts a batch, skipping donations whose receipt number
// is already recorded. It returns the number actually inserted.
func (s *Store) InsertDonations(ctx context.Context, batch []models.Donation) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	first, err := s.ids.Reserve(ctx, counters.Donations, len(batch))
	if err != nil {
		return 0, err
	}
	docs := make([]any, len(batch))
	for i := range batch {
		d := batch[i]
		d.ID = first + int64(i)
		s.prepare(&d)
		docs[i] = d
	}

	_, err = s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(docs), nil
	}
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return 0, err
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 {
			return 0, err
		}
	}
	return len(docs) - len(bwe.WriteErrors), nil
}

// Patch holds the editable donation fields. Nil fields are left unchanged.
type Patch struct {
	Phone        *string
	Name         *string
	Amount       *int64
	PaymentMode  *string
	Date         *time.Time
	Campaign     *string
	InternalNote *string
}

// Update applies p to donation id on behalf of actorID.
func (s *Store) Update(ctx context.Context, id int64, p Patch, actorID int64) error {
	set := bson.M{"updated_at": s.now(), "updated_by": actorID}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Amount != nil {
		set["amount"] = *p.Amount
	}
	if p.PaymentMode != nil {
		set["payment_mode"] = *p.PaymentMode
	}
	if p.Date != nil {
		set["date"] = *p.Date
	}
	if p.Campaign != nil {
		set["campaign"] = *p.Campaign
	}
	if p.InternalNote != nil {
		set["internal_note"] = *p.InternalNote
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListQuery selects a page of the ledger.
type ListQuery struct {
	// Filter matches name, phone, receipt number or the amount's decimal
	// form as a case-insensitive substring.
	Filter string
	Sort   string // see sortFields; default date
	Desc   bool
	Offset int64
	// Limit <= 0 returns every matching row.
	Limit int64
}

// List returns one page of donations and the total number matching.
func (s *Store) List(ctx context.Context, q ListQuery) ([]models.Donation, int64, error) {
	filter := bson.M{}
	if f := strings.TrimSpace(q.Filter); f != "" {
		pat := regexp.QuoteMeta(f)
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": pat, "$options": "i"}},
			{"phone": bson.M{"$regex": pat}},
			{"receipt_number": bson.M{"$regex": pat, "$options": "i"}},
			{"$expr": bson.M{"$regexMatch": bson.M{
				"input": bson.M{"$toString": "$amount"},
				"regex": pat,
			}}},
		}
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	field, ok := sortFields[q.Sort]
	if !ok {
		field = "date"
	}
	dir := 1
	if q.Desc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}})
	if q.Offset > 0 {
		opts.SetSkip(q.Offset)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	out := []models.Donation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// rangeFilter turns report ranges into a match on date and amount.
func rangeFilter(dr reportrange.DateRange, ar reportrange.AmountRange) bson.M {
	m := bson.M{}
	if !dr.IsAll() {
		date := bson.M{}
		if dr.From != nil {
			date["$gte"] = *dr.From
		}
		if dr.To != nil {
			date["$lt"] = *dr.To
		}
		m["date"] = date
	}
	if !ar.IsAll() {
		amount := bson.M{}
		if ar.Min != nil {
			amount["$gte"] = *ar.Min
		}
		if ar.Max != nil {
			amount["$lte"] = *ar.Max
		}
		m["amount"] = amount
	}
	return m
}
