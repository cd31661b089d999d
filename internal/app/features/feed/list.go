package feed

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	feedstore "github.com/dalemusser/templehub/internal/app/store/feed"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/templehub/internal/app/system/telegram"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
)

// ServeList returns the newest feed messages.
//
// GET /feed?limit=&tag=
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	limit := feedstore.DefaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			apierrors.Invalid(w, inputval.FieldErrors{"limit": "must be >= 1"})
			return
		}
		limit = n
	}
	tag := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(r.URL.Query().Get("tag")), "#"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	msgs, err := h.Feed.List(ctx, limit, tag)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list feed failed", err)
		return
	}
	for i := range msgs {
		if msgs[i].Tags == nil {
			msgs[i].Tags = []string{}
		}
	}
	apierrors.WriteJSON(w, http.StatusOK, msgs)
}

// ServeFileURL resolves a media reference to a download URL.
//
// GET /feed/file?fileId=
func (h *Handler) ServeFileURL(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("fileId"))
	if id == "" {
		apierrors.BadRequest(w, "fileId is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	url, err := h.Relay.FileURL(ctx, id)
	if errors.Is(err, telegram.ErrFileNotFound) {
		apierrors.NotFound(w)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve feed file failed", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
