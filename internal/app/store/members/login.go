package members

import (
	"context"
	"errors"

	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
	"github.com/dalemusser/templehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDeceased is returned when a deceased member tries to sign in.
var ErrDeceased = errors.New("member is deceased")

// LoginOutcome says what EnsureForLogin had to do.
type LoginOutcome int

const (
	LoginExisting LoginOutcome = iota
	// LoginProvisioned means a new member was created.
	LoginProvisioned
	// LoginActivated means an imported, inactive member signed in for the
	// first time.
	LoginActivated
)

// Signup carries the optional attribution sent with a first login.
type Signup struct {
	ReferredByID *int64
	SourceID     *int
}

// EnsureForLogin returns the member owning a verified phone number,
// creating it (role member, active) if unknown and activating it if it was
// imported as inactive.
func (s *Store) EnsureForLogin(ctx context.Context, phone string, su Signup) (*models.Member, LoginOutcome, error) {
	m, err := s.GetByPhone(ctx, phone)
	switch {
	case errors.Is(err, ErrNotFound):
		created, err := s.Create(ctx, models.Member{
			Phone:         phone,
			PhoneVerified: true,
			RoleID:        models.RoleMember,
			Status:        models.StatusActive,
			ReferredByID:  su.ReferredByID,
			SourceID:      su.SourceID,
		})
		if errors.Is(err, ErrDuplicatePhone) {
			// lost a race with a concurrent first login
			m, err = s.GetByPhone(ctx, phone)
			if err != nil {
				return nil, LoginExisting, err
			}
			return m, LoginExisting, nil
		}
		if err != nil {
			return nil, LoginExisting, err
		}
		return &created, LoginProvisioned, nil
	case err != nil:
		return nil, LoginExisting, err
	}

	switch m.Status {
	case models.StatusDeceased:
		return m, LoginExisting, ErrDeceased
	case models.StatusInactive:
		_, err := s.c.UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": bson.M{
			"status":         models.StatusActive,
			"phone_verified": true,
			"updated_at":     s.now(),
		}})
		if err != nil {
			return nil, LoginExisting, err
		}
		m.Status = models.StatusActive
		m.PhoneVerified = true
		return m, LoginActivated, nil
	}
	if !m.PhoneVerified {
		_, _ = s.c.UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": bson.M{"phone_verified": true}})
		m.PhoneVerified = true
	}
	return m, LoginExisting, nil
}

// EnsureAdmin makes the member with phone an admin, creating it if needed.
// It reports whether anything changed.
func (s *Store) EnsureAdmin(ctx context.Context, phone, name string) (int64, bool, error) {
	m, err := s.GetByPhone(ctx, phone)
	if errors.Is(err, ErrNotFound) {
		created, err := s.Create(ctx, models.Member{
			Phone:  phone,
			Name:   name,
			RoleID: models.RoleAdmin,
			Status: models.StatusActive,
		})
		if err != nil {
			return 0, false, err
		}
		return created.ID, true, nil
	}
	if err != nil {
		return 0, false, err
	}
	if m.RoleID == models.RoleAdmin {
		return m.ID, false, nil
	}
	if err := s.updateFields(ctx, m.ID, bson.M{"role_id": models.RoleAdmin}, m.ID); err != nil {
		return 0, false, err
	}
	return m.ID, true, nil
}

// Fetcher implements auth.UserFetcher to load fresh member data on each
// request.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a UserFetcher over the store.
func NewFetcher(s *Store) *Fetcher {
	return &Fetcher{store: s}
}

// FetchUser returns nil if the member is not found, deceased, or if any
// error occurs.
func (f *Fetcher) FetchUser(ctx context.Context, memberID int64) *auth.SessionUser {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var m models.Member
	proj := options.FindOne().SetProjection(bson.M{
		"_id": 1, "name": 1, "phone": 1, "role_id": 1, "status": 1,
	})
	if err := f.store.c.FindOne(ctx, bson.M{"_id": memberID}, proj).Decode(&m); err != nil {
		return nil
	}
	if m.Status == models.StatusDeceased {
		return nil
	}
	return &auth.SessionUser{
		ID:     m.ID,
		Name:   m.Name,
		Phone:  m.Phone,
		Role:   m.RoleID,
		Status: m.Status,
	}
}
