// Package memberpolicy provides authorization policies for member management.
//
// Authorization rules:
//   - Any signed-in member can edit their own profile and notes
//   - Leaders and admins can edit other members' profiles
//   - Leaders can move members between member and volunteer; any change
//     that involves leader or admin needs an admin
//   - Leader assignment needs an admin, or a leader assigning themselves
//     with confirmation; admins are never assigned a leader
//   - Unassigning needs an admin or the member's current leader
package memberpolicy

import (
	"errors"
	"net/http"

	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/app/system/authz"
	"github.com/dalemusser/templehub/internal/domain/models"
)

var (
	// ErrForbidden means the actor's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrConfirmationRequired means a leader tried to take on a member
	// without confirming.
	ErrConfirmationRequired = errors.New("confirmation required")
	// ErrAdminTarget means the operation does not apply to admins.
	ErrAdminTarget = errors.New("admins cannot have a leader")
)

// Actor returns the signed-in member of r, or nil.
func Actor(r *http.Request) *auth.SessionUser {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return nil
	}
	return u
}

// CanEdit reports whether actor may edit the profile of targetID.
func CanEdit(actor *auth.SessionUser, targetID int64) bool {
	if actor == nil {
		return false
	}
	return actor.ID == targetID || authz.AtLeast(actor.Role, authz.MinEditOthers)
}

// CanViewInsights reports whether actor may see directory-wide counts.
func CanViewInsights(actor *auth.SessionUser) bool {
	return actor != nil && authz.AtLeast(actor.Role, authz.MinViewInsights)
}

// CanViewOrganization reports whether actor may see the leadership forest.
func CanViewOrganization(actor *auth.SessionUser) bool {
	return actor != nil && authz.AtLeast(actor.Role, authz.MinViewOrganization)
}

// RequiredForRoleChange is the minimum role needed to move a member from
// one role to another. Step size is not restricted.
func RequiredForRoleChange(from, to models.Role) models.Role {
	if from >= models.RoleLeader || to >= models.RoleLeader {
		return authz.MinPromoteToLeader
	}
	return authz.MinPromoteVolunteer
}

// CanChangeRole reports whether actor may change target's role to newRole.
// Nobody changes their own role.
func CanChangeRole(actor *auth.SessionUser, target models.Member, newRole models.Role) bool {
	if actor == nil || !newRole.Valid() || actor.ID == target.ID {
		return false
	}
	return authz.AtLeast(actor.Role, RequiredForRoleChange(target.RoleID, newRole))
}

// CheckAssignLeader decides whether actor may make leaderID the leader of
// target.
func CheckAssignLeader(actor *auth.SessionUser, target models.Member, leaderID int64, confirmed bool) error {
	if actor == nil {
		return ErrForbidden
	}
	if target.RoleID >= models.RoleAdmin {
		return ErrAdminTarget
	}
	if authz.AtLeast(actor.Role, authz.MinAssignLeader) {
		return nil
	}
	if actor.Role == models.RoleLeader && leaderID == actor.ID {
		if !confirmed {
			return ErrConfirmationRequired
		}
		return nil
	}
	return ErrForbidden
}

// CheckUnassignLeader decides whether actor may clear target's leader.
func CheckUnassignLeader(actor *auth.SessionUser, target models.Member) error {
	if actor == nil {
		return ErrForbidden
	}
	if target.RoleID >= models.RoleAdmin {
		return ErrAdminTarget
	}
	if authz.AtLeast(actor.Role, authz.MinAssignLeader) {
		return nil
	}
	if target.LeaderID != nil && *target.LeaderID == actor.ID {
		return nil
	}
	return ErrForbidden
}

// CanLead reports whether m may be assigned as somebody's leader.
func CanLead(m models.Member) bool {
	return m.RoleID >= models.RoleLeader && m.Status != models.StatusDeceased
}
