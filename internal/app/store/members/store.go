// Package members persists Member records in the "members" collection.
// Ids are numeric and allocated from the members counter.
package members

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/templehub/internal/app/store/counters"
	"github.com/dalemusser/templehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SearchLimit caps the number of search results.
const SearchLimit = 100

var (
	// ErrNotFound is returned when no member has the requested id or phone.
	ErrNotFound = errors.New("member not found")
	// ErrDuplicatePhone is returned when a phone number is already registered.
	ErrDuplicatePhone = errors.New("a member with this phone already exists")
	// ErrLeaderCycle is returned when assigning a leader would make a member
	// its own transitive leader.
	ErrLeaderCycle = errors.New("leader assignment would create a cycle")
	// ErrEmptyQuery is returned by Search for a blank query.
	ErrEmptyQuery = errors.New("search query is required")
)

// summaryProjection is the field set of models.MemberSummary.
var summaryProjection = bson.M{
	"_id": 1, "name": 1, "phone": 1, "email": 1, "role_id": 1, "status": 1, "leader_id": 1,
}

type Store struct {
	c   *mongo.Collection
	ids *counters.Store
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection("members"),
		ids: counters.New(db),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// GetByID loads a member by id. Returns ErrNotFound if absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByPhone loads a member by full international phone number.
func (s *Store) GetByPhone(ctx context.Context, phone string) (*models.Member, error) {
	return s.findOne(ctx, bson.M{"phone": phone})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create inserts one member, allocating its id.
func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	id, err := s.ids.Next(ctx, counters.Members)
	if err != nil {
		return models.Member{}, err
	}
	m.ID = id
	s.prepare(&m)
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicatePhone
		}
		return models.Member{}, err
	}
	return m, nil
}

func (s *Store) prepare(m *models.Member) {
	now := s.now()
	m.NameCI = text.Fold(m.Name)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}
	if m.RoleID == 0 {
		m.RoleID = models.RoleMember
	}
	if m.Status == "" {
		m.Status = models.StatusActive
	}
}

// InsertMembers inserts a batch, skipping members whose phone is already
// registered (including phones repeated within the batch). Existing
// records are never modified. It returns the number actually inserted.
func (s *Store) InsertMembers(ctx context.Context, batch []models.Member) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	first, err := s.ids.Reserve(ctx, counters.Members, len(batch))
	if err != nil {
		return 0, err
	}
	docs := make([]any, len(batch))
	for i := range batch {
		m := batch[i]
		m.ID = first + int64(i)
		s.prepare(&m)
		docs[i] = m
	}
	return insertSkippingDuplicates(ctx, s.c, docs)
}

// insertSkippingDuplicates runs an unordered InsertMany and treats unique
// key violations as skipped rows. Any other write error fails the call.
func insertSkippingDuplicates(ctx context.Context, c *mongo.Collection, docs []any) (int, error) {
	_, err := c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(docs), nil
	}
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return 0, err
	}
	dups := 0
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 {
			return 0, err
		}
		dups++
	}
	return len(docs) - dups, nil
}

// Search matches q case-insensitively as a substring of name, phone or
// email, ordered by name, capped at SearchLimit.
func (s *Store) Search(ctx context.Context, q string) ([]models.MemberSummary, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	pat := regexp.QuoteMeta(q)
	filter := bson.M{"$or": []bson.M{
		{"name_ci": bson.M{"$regex": regexp.QuoteMeta(text.Fold(q)), "$options": "i"}},
		{"phone": bson.M{"$regex": pat}},
		{"email": bson.M{"$regex": pat, "$options": "i"}},
	}}
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(SearchLimit)
	return s.summaries(ctx, filter, opts)
}

// ListReferrals returns members referred by referrerID, newest first.
func (s *Store) ListReferrals(ctx context.Context, referrerID int64) ([]models.MemberSummary, error) {
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.summaries(ctx, bson.M{"referred_by_id": referrerID}, opts)
}

func (s *Store) summaries(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.MemberSummary, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.MemberSummary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Detail loads a member with the display names of its role, spiritual
// level, source, counsellor and referrer.
func (s *Store) Detail(ctx context.Context, id int64) (*models.MemberDetail, error) {
	lookup := func(from, local, as string) bson.D {
		return bson.D{{Key: "$lookup", Value: bson.M{
			"from": from, "localField": local, "foreignField": "_id", "as": as,
		}}}
	}
	firstName := func(as string) bson.M {
		return bson.M{"$arrayElemAt": bson.A{"$" + as + ".name", 0}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		lookup("roles", "role_id", "_role"),
		lookup("spiritual_levels", "spiritual_level_id", "_level"),
		lookup("sources", "source_id", "_source"),
		lookup("members", "counsellor_id", "_counsellor"),
		lookup("members", "referred_by_id", "_referrer"),
		{{Key: "$addFields", Value: bson.M{
			"role_name":            firstName("_role"),
			"spiritual_level_name": firstName("_level"),
			"source_name":          firstName("_source"),
			"counsellor_name":      firstName("_counsellor"),
			"referrer_name":        firstName("_referrer"),
		}}},
		{{Key: "$project", Value: bson.M{
			"_role": 0, "_level": 0, "_source": 0, "_counsellor": 0, "_referrer": 0,
		}}},
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
	var d models.MemberDetail
	if err := cur.Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Patch holds the writable profile fields. Nil fields are left unchanged.
// Identity, phone, role, leader and audit fields are not part of it.
type Patch struct {
	Name                      *string
	Email                     *string
	Gender                    *string
	DateOfBirth               *time.Time
	Occupation                *string
	Skills                    *string
	AddressLine               *string
	City                      *string
	State                     *string
	Country                   *string
	Pincode                   *string
	SpouseName                *string
	SpouseDateOfBirth         *time.Time
	SpouseMarriageAnniversary *time.Time
	ChildrenCount             *int
	TaxID                     *string
	SpiritualLevelID          *int
	SourceID                  *int
	CounsellorID              *int64
	ReferredByID              *int64
	Status                    *string
}

func (p Patch) set() bson.M {
	set := bson.M{}
	str := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	str("email", p.Email)
	str("gender", p.Gender)
	str("occupation", p.Occupation)
	str("skills", p.Skills)
	str("address_line", p.AddressLine)
	str("city", p.City)
	str("state", p.State)
	str("country", p.Country)
	str("pincode", p.Pincode)
	str("spouse_name", p.SpouseName)
	str("tax_id", p.TaxID)
	str("status", p.Status)
	if p.Name != nil {
		set["name"] = *p.Name
		set["name_ci"] = text.Fold(*p.Name)
	}
	if p.DateOfBirth != nil {
		set["dob"] = *p.DateOfBirth
	}
	if p.SpouseDateOfBirth != nil {
		set["spouse_dob"] = *p.SpouseDateOfBirth
	}
	if p.SpouseMarriageAnniversary != nil {
		set["spouse_marriage_anniversary"] = *p.SpouseMarriageAnniversary
	}
	if p.ChildrenCount != nil {
		set["children_count"] = *p.ChildrenCount
	}
	if p.SpiritualLevelID != nil {
		set["spiritual_level_id"] = *p.SpiritualLevelID
	}
	if p.SourceID != nil {
		set["source_id"] = *p.SourceID
	}
	if p.CounsellorID != nil {
		set["counsellor_id"] = *p.CounsellorID
	}
	if p.ReferredByID != nil {
		set["referred_by_id"] = *p.ReferredByID
	}
	return set
}

// Update applies p to member id on behalf of actorID.
func (s *Store) Update(ctx context.Context, id int64, p Patch, actorID int64) error {
	set := p.set()
	return s.updateFields(ctx, id, set, actorID)
}

// UpdateNote replaces the internal note.
func (s *Store) UpdateNote(ctx context.Context, id int64, note string, actorID int64) error {
	return s.updateFields(ctx, id, bson.M{"internal_note": note}, actorID)
}

// SetRole changes the member's role.
func (s *Store) SetRole(ctx context.Context, id int64, role models.Role, actorID int64) error {
	return s.updateFields(ctx, id, bson.M{"role_id": role}, actorID)
}

func (s *Store) updateFields(ctx context.Context, id int64, set bson.M, actorID int64) error {
	set["updated_at"] = s.now()
	set["updated_by"] = actorID
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Names maps each id that exists to the member's name.
func (s *Store) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID   int64  `bson:"_id"`
			Name string `bson:"name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Name
	}
	return out, cur.Err()
}
