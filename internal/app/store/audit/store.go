// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventLoginSuccess           = "login_success"
	EventLoginProvisioned       = "login_provisioned"
	EventLoginActivated         = "login_activated"
	EventLoginFailedUnverified  = "login_failed_unverified"
	EventLoginFailedDeceased    = "login_failed_deceased"
	EventLoginFailedRateLimit   = "login_failed_rate_limit"
	EventSessionRenewed         = "session_renewed"
	EventSessionRenewalRejected = "session_renewal_rejected"
	EventLogout                 = "logout"
)

// Admin event types
const (
	EventMemberUpdated     = "member_updated"
	EventMemberRoleChanged = "member_role_changed"
	EventLeaderAssigned    = "leader_assigned"
	EventLeaderUnassigned  = "leader_unassigned"
	EventNotesUpdated      = "notes_updated"
	EventMembersImported   = "members_imported"
	EventDonationsImported = "donations_imported"
	EventDonationCreated   = "donation_created"
	EventDonationUpdated   = "donation_updated"
	EventFeedPosted        = "feed_posted"
	EventAdminBootstrapped = "admin_bootstrapped"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	MemberID *int64 `bson:"member_id,omitempty" json:"member_id,omitempty"` // affected member
	ActorID  *int64 `bson:"actor_id,omitempty" json:"actor_id,omitempty"`   // who acted

	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows Query and Count.
type QueryFilter struct {
	MemberID  *int64
	ActorID   *int64
	Category  string
	EventType string
	Since     *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.MemberID != nil {
		q["member_id"] = *f.MemberID
	}
	if f.ActorID != nil {
		q["actor_id"] = *f.ActorID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.Since != nil {
		q["created_at"] = bson.M{"$gte": *f.Since}
	}
	return q
}

// Query returns matching events, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cur, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of matching events.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}
