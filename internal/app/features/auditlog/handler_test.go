package auditlog_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/dalemusser/templehub/internal/app/features/auditlog"
	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/store/audit"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/dalemusser/templehub/internal/testutil"
	"go.uber.org/zap"
)

func TestServeList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	events := audit.New(db)
	h := auditlog.NewHandler(events, members.New(db), apierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())

	admin := fixtures.CreateAdmin(ctx, "Admin", "+919000000001")
	m := fixtures.CreateMember(ctx, "Member", "+919000000002", models.RoleMember)

	for _, e := range []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, MemberID: &m.ID, Success: true},
		{Category: audit.CategoryAdmin, EventType: audit.EventMemberRoleChanged, MemberID: &m.ID, ActorID: &admin.ID, Success: true},
		{Category: audit.CategoryAuth, EventType: audit.EventLogout, Success: true},
	} {
		if err := events.Log(ctx, e); err != nil {
			t.Fatalf("log: %v", err)
		}
	}

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantTotal int64
	}{
		{"all", "", http.StatusOK, 3},
		{"by member", "?member=" + strconv.FormatInt(m.ID, 10), http.StatusOK, 2},
		{"by category", "?category=admin", http.StatusOK, 1},
		{"by event", "?event=logout", http.StatusOK, 1},
		{"bad category", "?category=nope", http.StatusBadRequest, 0},
		{"bad member", "?member=x", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeList(rec, testutil.AsMember(testutil.NewRequest(http.MethodGet, "/audit"+tt.query), admin))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp struct {
				Events []struct {
					EventType  string `json:"event_type"`
					ActorName  string `json:"actor_name"`
					MemberName string `json:"member_name"`
				} `json:"events"`
				Total int64 `json:"total"`
			}
			testutil.DecodeJSON(t, rec, &resp)
			if resp.Total != tt.wantTotal || int64(len(resp.Events)) != tt.wantTotal {
				t.Errorf("total = %d, events = %d, want %d", resp.Total, len(resp.Events), tt.wantTotal)
			}
			for _, e := range resp.Events {
				if e.EventType == audit.EventMemberRoleChanged && (e.ActorName != "Admin" || e.MemberName != "Member") {
					t.Errorf("names not resolved: %+v", e)
				}
			}
		})
	}
}
