// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/domain/models"
)

// UserCtx returns the signed-in member's role, name and id, and whether a
// member is present on the request at all. Without a member it returns
// (0, "", 0, false) so callers can trust ok=true.
func UserCtx(r *http.Request) (role models.Role, name string, memberID int64, ok bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.ID <= 0 {
		return 0, "", 0, false
	}
	return u.Role, u.Name, u.ID, true
}

// Has reports whether the current request's member meets the minimum role.
func Has(r *http.Request, minimum models.Role) bool {
	role, _, _, ok := UserCtx(r)
	return ok && AtLeast(role, minimum)
}
