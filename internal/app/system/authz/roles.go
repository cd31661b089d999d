// internal/app/system/authz/roles.go
package authz

import "github.com/dalemusser/templehub/internal/domain/models"

// Minimum roles for the gated operations. Every check in the application goes
// through AtLeast with one of these values; there are no inline comparisons.
const (
	MinViewInsights     = models.RoleVolunteer
	MinViewOrganization = models.RoleVolunteer
	MinEditOthers       = models.RoleLeader
	MinBulkImport       = models.RoleAdmin
	MinViewDonations    = models.RoleVolunteer
	MinEditDonation     = models.RoleVolunteer
	MinViewReports      = models.RoleVolunteer
	MinPostFeed         = models.RoleLeader
	MinAssignLeader     = models.RoleAdmin

	// Role transitions that touch leader or admin need an admin; transitions
	// between member and volunteer need a leader.
	MinPromoteToLeader  = models.RoleAdmin
	MinPromoteVolunteer = models.RoleLeader
)

// AtLeast reports whether role meets the minimum. Unknown roles never do.
func AtLeast(role, minimum models.Role) bool {
	return role.Valid() && role >= minimum
}
