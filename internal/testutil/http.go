package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/domain/models"
)

// AsMember returns r carrying an authenticated session for m.
// This bypasses token verification.
func AsMember(r *http.Request, m models.Member) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:     m.ID,
		Name:   m.Name,
		Phone:  m.Phone,
		Role:   m.RoleID,
		Status: m.Status,
	})
}

// AsRole returns r carrying a session for a synthetic member with the given
// id and role. Use it when the member does not need to exist in the db.
func AsRole(r *http.Request, id int64, role models.Role) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:     id,
		Name:   "Test " + role.String(),
		Phone:  "+910000000000",
		Role:   role,
		Status: models.StatusActive,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// JSONRequest creates a request with body encoded as JSON.
func JSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSON decodes a recorder body into out.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response (%d %q): %v", rec.Code, rec.Body.String(), err)
	}
}
