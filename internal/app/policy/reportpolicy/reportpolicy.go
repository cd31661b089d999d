// Package reportpolicy provides authorization policies for the donation
// ledger and its reports.
//
// Authorization rules:
//   - Volunteers, leaders and admins can list donations and view reports
//   - The same roles can record and correct individual donations
//   - Bulk donation import is admin-only and enforced by the import pipeline
//   - Members (role 1) cannot access donation data
package reportpolicy

import (
	"net/http"

	"github.com/dalemusser/templehub/internal/app/system/authz"
)

// CanViewDonations reports whether the current member may list donations.
func CanViewDonations(r *http.Request) bool {
	return authz.Has(r, authz.MinViewDonations)
}

// CanEditDonation reports whether the current member may create or update
// a donation.
func CanEditDonation(r *http.Request) bool {
	return authz.Has(r, authz.MinEditDonation)
}

// CanViewReports reports whether the current member may view donation
// summaries and leaderboards.
func CanViewReports(r *http.Request) bool {
	return authz.Has(r, authz.MinViewReports)
}
