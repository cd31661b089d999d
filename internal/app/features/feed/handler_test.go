package feed_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/features/feed"
	feedstore "github.com/dalemusser/templehub/internal/app/store/feed"
	"github.com/dalemusser/templehub/internal/app/system/metrics"
	"github.com/dalemusser/templehub/internal/app/system/telegram"
	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/dalemusser/templehub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRelay struct {
	texts   []string
	uploads []string // media type + ":" + filename
	fail    bool
}

func (f *fakeRelay) SendMessage(_ context.Context, text string) (telegram.Message, error) {
	if f.fail {
		return telegram.Message{}, errors.New("relay down")
	}
	f.texts = append(f.texts, text)
	return telegram.Message{MessageID: int64(len(f.texts)), Chat: telegram.Chat{ID: -100}, Text: text}, nil
}

func (f *fakeRelay) SendMedia(_ context.Context, mediaType, filename string, content io.Reader, caption string) (telegram.Message, error) {
	if f.fail {
		return telegram.Message{}, errors.New("relay down")
	}
	_, _ = io.Copy(io.Discard, content)
	f.uploads = append(f.uploads, mediaType+":"+filename)
	msg := telegram.Message{MessageID: 99, Chat: telegram.Chat{ID: -100}, Caption: caption}
	msg.Photo = []telegram.File{{FileID: "small"}, {FileID: "large"}}
	return msg, nil
}

func (f *fakeRelay) FileURL(_ context.Context, fileID string) (string, error) {
	if fileID != "large" {
		return "", telegram.ErrFileNotFound
	}
	return "https://files.example/large.jpg", nil
}

func newHandler(t *testing.T) (*feed.Handler, *fakeRelay) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	relay := &fakeRelay{}
	h := feed.NewHandler(feedstore.New(db), relay, metrics.New(), nil, apierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	return h, relay
}

func TestTags(t *testing.T) {
	assert.Equal(t, []string{"kirtan", "sunday"}, feed.Tags("Join #Kirtan this #sunday, #kirtan!"))
	assert.Equal(t, []string{}, feed.Tags("no tags here"))
}

func TestServePost_JSON(t *testing.T) {
	h, relay := newHandler(t)

	rec := httptest.NewRecorder()
	req := testutil.JSONRequest(t, http.MethodPost, "/feed", map[string]string{"text": "hello"})
	h.ServePost(rec, testutil.AsRole(req, 1, models.RoleVolunteer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req = testutil.JSONRequest(t, http.MethodPost, "/feed", map[string]string{"text": "<i>Aarti</i> at 7 #Evening"})
	h.ServePost(rec, testutil.AsRole(req, 7, models.RoleLeader))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got models.FeedMessage
	testutil.DecodeJSON(t, rec, &got)
	assert.Equal(t, "Aarti at 7 #Evening", got.Text)
	assert.Equal(t, []string{"evening"}, got.Tags)
	assert.Equal(t, int64(1), got.ExternalMessageID)
	assert.Equal(t, []string{"Aarti at 7 #Evening"}, relay.texts)

	rec = httptest.NewRecorder()
	req = testutil.JSONRequest(t, http.MethodPost, "/feed", map[string]string{"text": "  "})
	h.ServePost(rec, testutil.AsRole(req, 7, models.RoleLeader))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	relay.fail = true
	rec = httptest.NewRecorder()
	req = testutil.JSONRequest(t, http.MethodPost, "/feed", map[string]string{"text": "lost"})
	h.ServePost(rec, testutil.AsRole(req, 7, models.RoleLeader))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeList(rec, testutil.AsRole(testutil.NewRequest(http.MethodGet, "/feed"), 2, models.RoleMember))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.FeedMessage
	testutil.DecodeJSON(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, got.ID, list[0].ID)
}

func TestServePost_Media(t *testing.T) {
	h, relay := newHandler(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "Festival photos #utsav"))
	fw, err := mw.CreateFormFile("media", "utsav.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("jpeg bytes"))
	require.NoError(t, mw.WriteField("media_type", "photo"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/feed", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServePost(rec, testutil.AsRole(req, 7, models.RoleAdmin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got models.FeedMessage
	testutil.DecodeJSON(t, rec, &got)
	assert.Equal(t, telegram.MediaPhoto, got.MediaType)
	assert.Equal(t, "large", got.MediaReference)
	assert.Equal(t, []string{"utsav"}, got.Tags)
	assert.Equal(t, []string{"photo:utsav.jpg"}, relay.uploads)

	rec = httptest.NewRecorder()
	h.ServeList(rec, testutil.AsRole(testutil.NewRequest(http.MethodGet, "/feed?tag=%23Utsav"), 2, models.RoleMember))
	var list []models.FeedMessage
	testutil.DecodeJSON(t, rec, &list)
	assert.Len(t, list, 1)
}

func TestServeFileURL(t *testing.T) {
	h, _ := newHandler(t)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"known", "?fileId=large", http.StatusOK},
		{"unknown", "?fileId=nope", http.StatusNotFound},
		{"missing", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeFileURL(rec, testutil.AsRole(testutil.NewRequest(http.MethodGet, "/feed/file"+tt.query), 2, models.RoleMember))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
