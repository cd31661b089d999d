package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures creates test data directly in the database.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// nextID draws from the same counter the member and donation stores use,
// so fixture ids never collide with ids allocated by code under test.
func (f *Fixtures) nextID(ctx context.Context, counter string) int64 {
	f.t.Helper()
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := f.db.Collection("counters").FindOneAndUpdate(ctx,
		bson.M{"_id": counter},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		f.t.Fatalf("allocate %s id: %v", counter, err)
	}
	return doc.Seq
}

// MemberOpt customizes a fixture member before insert.
type MemberOpt func(*models.Member)

// WithLeader sets leader_id.
func WithLeader(id int64) MemberOpt { return func(m *models.Member) { m.LeaderID = &id } }

// WithReferrer sets referred_by_id.
func WithReferrer(id int64) MemberOpt { return func(m *models.Member) { m.ReferredByID = &id } }

// WithStatus sets status.
func WithStatus(s string) MemberOpt { return func(m *models.Member) { m.Status = s } }

// WithEmail sets email.
func WithEmail(e string) MemberOpt { return func(m *models.Member) { m.Email = e } }

// CreateMember inserts an active, verified member.
func (f *Fixtures) CreateMember(ctx context.Context, name, phone string, role models.Role, opts ...MemberOpt) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Member{
		ID:            f.nextID(ctx, "members"),
		Phone:         phone,
		PhoneVerified: true,
		Name:          name,
		NameCI:        text.Fold(name),
		RoleID:        role,
		Status:        models.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, o := range opts {
		o(&m)
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}

// CreateAdmin inserts an admin member.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, phone string) models.Member {
	f.t.Helper()
	return f.CreateMember(ctx, name, phone, models.RoleAdmin)
}

// CreateLeader inserts a leader member.
func (f *Fixtures) CreateLeader(ctx context.Context, name, phone string, opts ...MemberOpt) models.Member {
	f.t.Helper()
	return f.CreateMember(ctx, name, phone, models.RoleLeader, opts...)
}

// CreateDonation inserts a donation dated yyyy-mm-dd.
func (f *Fixtures) CreateDonation(ctx context.Context, receipt, phone, name string, amount int64, date string) models.Donation {
	f.t.Helper()

	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		f.t.Fatalf("bad fixture date %q: %v", date, err)
	}
	now := time.Now().UTC()
	don := models.Donation{
		ID:            f.nextID(ctx, "donations"),
		ReceiptNumber: receipt,
		Phone:         phone,
		Name:          name,
		Amount:        amount,
		Date:          d,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("donations").InsertOne(ctx, don); err != nil {
		f.t.Fatalf("failed to create test donation: %v", err)
	}
	return don
}
