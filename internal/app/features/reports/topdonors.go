package reports

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/store/donations"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/templehub/internal/domain/models"
	"go.uber.org/zap"
)

func (h *Handler) topDonors(w http.ResponseWriter, r *http.Request) ([]models.TopDonor, bool) {
	dr, _, ok := h.ranges(w, r)
	if !ok {
		return nil, false
	}
	limit := donations.DefaultTopDonors
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > MaxTopDonors {
			apierrors.Invalid(w, inputval.FieldErrors{"limit": fmt.Sprintf("must be between 1 and %d", MaxTopDonors)})
			return nil, false
		}
		limit = n
	}
	ctx, cancel := reportCtx(r)
	defer cancel()

	rows, err := h.Donations.TopDonors(ctx, dr, limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "top donors failed", err)
		return nil, false
	}
	return rows, true
}

// ServeTopDonors returns the donor leaderboard.
//
// GET /reports/top-devotees-by-donations?dateRange=&limit=
func (h *Handler) ServeTopDonors(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.topDonors(w, r)
	if !ok {
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, rows)
}

// ServeTopDonorsCSV streams the same leaderboard as a CSV download.
//
// GET /reports/top-devotees-by-donations.csv?dateRange=&limit=&filename=
func (h *Handler) ServeTopDonorsCSV(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.topDonors(w, r)
	if !ok {
		return
	}

	filename := csvFilenameFromQuery(r)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))
	w.Header().Set("Cache-Control", "no-store")

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Rank", "Name", "Phone", "Member ID", "Total Amount", "Donations"})
	for i, d := range rows {
		memberID := ""
		if d.MemberID != nil {
			memberID = strconv.FormatInt(*d.MemberID, 10)
		}
		_ = cw.Write([]string{
			strconv.Itoa(i + 1),
			d.Name,
			d.Phone,
			memberID,
			strconv.FormatInt(d.TotalAmount, 10),
			strconv.FormatInt(d.DonationCount, 10),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.Warn("top donors csv write failed", zap.Error(err))
	}
}

// csvFilenameFromQuery returns the "filename" query param with a .csv
// suffix, or a timestamped default.
func csvFilenameFromQuery(r *http.Request) string {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "top_donors_" + time.Now().UTC().Format("20060102_150405") + ".csv"
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		filename += ".csv"
	}
	return filename
}
