package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, BotToken: "TOKEN", ChannelID: "-100123"})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{ChannelID: "x"})
	assert.Error(t, err)
	_, err = NewClient(Config{BotToken: "x"})
	assert.Error(t, err)
}

func TestSendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "-100123", body["chat_id"])
		assert.Equal(t, "Jaya #Kirtan", body["text"])
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":77,"chat":{"id":-100123},"date":1700000000,"text":"Jaya #Kirtan"}}`)
	})

	msg, err := c.SendMessage(context.Background(), "Jaya #Kirtan")
	require.NoError(t, err)
	assert.Equal(t, int64(77), msg.MessageID)
	assert.Equal(t, int64(-100123), msg.Chat.ID)
}

func TestSendMedia(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendPhoto", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "-100123", r.FormValue("chat_id"))
		assert.Equal(t, "caption", r.FormValue("caption"))
		f, hdr, err := r.FormFile("photo")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "a.jpg", hdr.Filename)
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":5,"chat":{"id":-100123},"photo":[{"file_id":"small"},{"file_id":"large"}]}}`)
	})

	msg, err := c.SendMedia(context.Background(), MediaPhoto, "a.jpg", strings.NewReader("jpegbytes"), "caption")
	require.NoError(t, err)
	assert.Equal(t, "large", msg.FileID())

	_, err = c.SendMedia(context.Background(), "audio", "a.mp3", strings.NewReader(""), "")
	assert.Error(t, err)
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":403,"description":"Forbidden: bot is not a member of the channel chat"}`)
	})
	_, err := c.SendMessage(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, IsAPIError(err, 403))
	assert.True(t, IsAPIError(err, 0))
	assert.False(t, IsAPIError(err, 400))
}

func TestFileURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["file_id"] == "known" {
			_, _ = io.WriteString(w, `{"ok":true,"result":{"file_id":"known","file_path":"photos/file_1.jpg"}}`)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: invalid file_id"}`)
	})

	u, err := c.FileURL(context.Background(), "known")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u, "/file/botTOKEN/photos/file_1.jpg"), u)

	_, err = c.FileURL(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = c.FileURL(context.Background(), "")
	assert.ErrorIs(t, err, ErrFileNotFound)
}
