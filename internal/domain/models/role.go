// internal/domain/models/role.go
package models

import (
	"strconv"
	"strings"
)

// Role is the privilege level of a member. The numeric value is the
// privilege order: member < volunteer < leader < admin.
type Role int

const (
	RoleMember    Role = 1
	RoleVolunteer Role = 2
	RoleLeader    Role = 3
	RoleAdmin     Role = 4
)

// Roles lists every role in ascending privilege order.
var Roles = []Role{RoleMember, RoleVolunteer, RoleLeader, RoleAdmin}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	return r >= RoleMember && r <= RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleVolunteer:
		return "volunteer"
	case RoleLeader:
		return "leader"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// ParseRole accepts a role name ("leader") or its number ("3").
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range Roles {
		if s == r.String() {
			return r, true
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Role(n).Valid() {
		return Role(n), true
	}
	return 0, false
}

// RoleRecord is a row of the static roles lookup collection.
type RoleRecord struct {
	ID   Role   `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`
}
