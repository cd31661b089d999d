// internal/domain/models/member.go
package models

import (
	"time"
)

// Member statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusDeceased = "deceased"
)

// Storage limits for free-form member fields, in runes.
const (
	MaxNameLen       = 100
	MaxOccupationLen = 100
	MaxSkillsLen     = 500
	MaxAddressLen    = 200
	MaxPlaceLen      = 100 // city, state, country
	MaxPincodeLen    = 12
	MaxTaxIDLen      = 10
	MaxNoteLen       = 2000
)

// Genders accepted on a member profile. Empty means unknown.
var Genders = []string{"male", "female", "other"}

// Member is a person in the directory (a "devotee").
//
// NOTE:
//   - Phone is the unique, calling-code-prefixed login key ("+919876543210").
//   - LeaderID, ReferredByID and CounsellorID are weak self-references; the
//     referenced member may not exist.
//   - Members are never hard-deleted.
type Member struct {
	ID            int64  `bson:"_id" json:"id"`
	Phone         string `bson:"phone" json:"phone"`
	PhoneVerified bool   `bson:"phone_verified" json:"phone_verified"`
	Name          string `bson:"name" json:"name"`
	NameCI        string `bson:"name_ci" json:"-"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	RoleID        Role   `bson:"role_id" json:"role_id"`
	Status        string `bson:"status" json:"status"`

	LeaderID     *int64 `bson:"leader_id,omitempty" json:"leader_id"`
	ReferredByID *int64 `bson:"referred_by_id,omitempty" json:"referred_by_id"`
	CounsellorID *int64 `bson:"counsellor_id,omitempty" json:"counsellor_id"`

	SpiritualLevelID *int `bson:"spiritual_level_id,omitempty" json:"spiritual_level_id"`
	SourceID         *int `bson:"source_id,omitempty" json:"source_id"`

	// Profile fields. Not interpreted by the application.
	Gender                    string     `bson:"gender,omitempty" json:"gender,omitempty"`
	DateOfBirth               *time.Time `bson:"dob,omitempty" json:"dob,omitempty"`
	Occupation                string     `bson:"occupation,omitempty" json:"occupation,omitempty"`
	Skills                    string     `bson:"skills,omitempty" json:"skills,omitempty"`
	AddressLine               string     `bson:"address_line,omitempty" json:"address_line,omitempty"`
	City                      string     `bson:"city,omitempty" json:"city,omitempty"`
	State                     string     `bson:"state,omitempty" json:"state,omitempty"`
	Country                   string     `bson:"country,omitempty" json:"country,omitempty"`
	Pincode                   string     `bson:"pincode,omitempty" json:"pincode,omitempty"`
	SpouseName                string     `bson:"spouse_name,omitempty" json:"spouse_name,omitempty"`
	SpouseDateOfBirth         *time.Time `bson:"spouse_dob,omitempty" json:"spouse_dob,omitempty"`
	SpouseMarriageAnniversary *time.Time `bson:"spouse_marriage_anniversary,omitempty" json:"spouse_marriage_anniversary,omitempty"`
	ChildrenCount             *int       `bson:"children_count,omitempty" json:"children_count,omitempty"`
	TaxID                     string     `bson:"tax_id,omitempty" json:"tax_id,omitempty"`

	InternalNote string `bson:"internal_note,omitempty" json:"internal_note,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	CreatedBy *int64    `bson:"created_by,omitempty" json:"created_by"`
	UpdatedBy *int64    `bson:"updated_by,omitempty" json:"updated_by"`
}

// MemberSummary is the projection returned by search and listing endpoints.
type MemberSummary struct {
	ID       int64  `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"`
	Phone    string `bson:"phone" json:"phone"`
	Email    string `bson:"email,omitempty" json:"email,omitempty"`
	RoleID   Role   `bson:"role_id" json:"role_id"`
	Status   string `bson:"status" json:"status"`
	LeaderID *int64 `bson:"leader_id,omitempty" json:"leader_id"`
}

// MemberDetail is a member with the display names of everything it references.
type MemberDetail struct {
	Member             `bson:",inline"`
	RoleName           string `bson:"role_name,omitempty" json:"role_name"`
	SpiritualLevelName string `bson:"spiritual_level_name,omitempty" json:"spiritual_level_name"`
	SourceName         string `bson:"source_name,omitempty" json:"source_name"`
	CounsellorName     string `bson:"counsellor_name,omitempty" json:"counsellor_name"`
	ReferrerName       string `bson:"referrer_name,omitempty" json:"referrer_name"`
}

// Summary projects a member down to its summary fields.
func (m Member) Summary() MemberSummary {
	return MemberSummary{
		ID:       m.ID,
		Name:     m.Name,
		Phone:    m.Phone,
		Email:    m.Email,
		RoleID:   m.RoleID,
		Status:   m.Status,
		LeaderID: m.LeaderID,
	}
}
