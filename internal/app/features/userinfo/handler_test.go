package userinfo_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/features/userinfo"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/dalemusser/templehub/internal/testutil"
	"go.uber.org/zap"
)

func TestServeMe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	h := userinfo.NewHandler(members.New(db), apierrors.NewErrorLogger(zap.NewNop()))

	m := fixtures.CreateMember(ctx, "Test Devotee", "+919000000001", models.RoleVolunteer)

	rec := httptest.NewRecorder()
	h.ServeMe(rec, testutil.AsMember(httptest.NewRequest(http.MethodGet, "/auth/me", nil), m))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Devotee models.MemberDetail `json:"devotee"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Devotee.ID != m.ID || resp.Devotee.Name != "Test Devotee" {
		t.Errorf("devotee = %+v", resp.Devotee)
	}

	rec = httptest.NewRecorder()
	h.ServeMe(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}
}
