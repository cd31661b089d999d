package bulk

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/app/system/ingest"
	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capture struct {
	actor ingest.Actor
	rows  []map[string]string
	err   error
}

func (c *capture) run(_ context.Context, actor ingest.Actor, rows []map[string]string) (ingest.Report, error) {
	c.actor, c.rows = actor, rows
	if c.err != nil {
		return ingest.Report{}, c.err
	}
	return ingest.Report{ImportID: "imp-1", Kind: ingest.KindMembers, Received: len(rows), Inserted: len(rows),
		SkippedInvalid: []string{}, Errors: []ingest.RowError{}}, nil
}

func newImporter(c *capture) *Importer {
	return &Importer{
		Kind:   ingest.KindMembers,
		Key:    "devotees",
		Run:    c.run,
		ErrLog: apierrors.NewErrorLogger(zap.NewNop()),
		Log:    zap.NewNop(),
	}
}

func asAdmin(r *http.Request) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{ID: 1, Role: models.RoleAdmin, Phone: "+919000000000"})
}

func TestServeJSON(t *testing.T) {
	c := &capture{}
	im := newImporter(c)

	body := `{"devotees":[{"Contact No.": 9876543210, "Name": "A"}, {"phone": "98765", "name": "B"}]}`
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/devotees/bulk", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	im.ServeJSON(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, c.rows, 2)
	assert.Equal(t, "9876543210", c.rows[0]["Contact No."], "numbers keep their literal form")
	assert.Equal(t, int64(1), c.actor.MemberID)
	assert.Contains(t, rec.Body.String(), `"importId":"imp-1"`)
}

func TestServeJSON_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `devotees`},
		{"missing array", `{"rows": []}`},
		{"wrong type", `{"devotees": "x"}`},
		{"empty array", `{"devotees": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &capture{}
			if tt.name == "empty array" {
				c.err = ingest.ErrEmptyBatch
			}
			rec := httptest.NewRecorder()
			newImporter(c).ServeJSON(rec, asAdmin(httptest.NewRequest(http.MethodPost, "/devotees/bulk", strings.NewReader(tt.body))))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestServeJSON_ForbiddenAndAnonymous(t *testing.T) {
	c := &capture{err: ingest.ErrForbidden}
	rec := httptest.NewRecorder()
	req := auth.WithTestUser(httptest.NewRequest(http.MethodPost, "/devotees/bulk", strings.NewReader(`{"devotees":[{}]}`)),
		&auth.SessionUser{ID: 2, Role: models.RoleLeader})
	newImporter(c).ServeJSON(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, c.rows, "rows reached the pipeline")

	// A malformed body from a non-admin is still a 403.
	for _, body := range []string{`devotees`, `{"devotees": "x"}`} {
		rec = httptest.NewRecorder()
		req = auth.WithTestUser(httptest.NewRequest(http.MethodPost, "/devotees/bulk", strings.NewReader(body)),
			&auth.SessionUser{ID: 2, Role: models.RoleLeader})
		newImporter(&capture{}).ServeJSON(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, body)
	}

	rec = httptest.NewRecorder()
	req = auth.WithTestUser(httptest.NewRequest(http.MethodPost, "/devotees/bulk/upload", strings.NewReader("not multipart")),
		&auth.SessionUser{ID: 2, Role: models.RoleVolunteer})
	newImporter(&capture{}).ServeUpload(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	newImporter(&capture{}).ServeJSON(rec, httptest.NewRequest(http.MethodPost, "/devotees/bulk", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeUpload_CSV(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(UploadField, "members.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("Name,Contact No.\nAsha,9876543210\nBala,9876543211\n"))
	require.NoError(t, mw.Close())

	req := asAdmin(httptest.NewRequest(http.MethodPost, "/devotees/bulk/upload", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c := &capture{}
	rec := httptest.NewRecorder()
	newImporter(c).ServeUpload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, c.rows, 2)
	assert.Equal(t, "Bala", c.rows[1]["Name"])
}

func TestServeUpload_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile(UploadField, "members.pdf")
	_, _ = fw.Write([]byte("%PDF"))
	_ = mw.Close()

	req := asAdmin(httptest.NewRequest(http.MethodPost, "/devotees/bulk/upload", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newImporter(&capture{}).ServeUpload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
