package feed

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/templehub/internal/app/store/audit"
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/app/system/authz"
	"github.com/dalemusser/templehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/templehub/internal/app/system/telegram"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
	"github.com/dalemusser/templehub/internal/domain/models"
	"go.uber.org/zap"
)

type postInput struct {
	Text string `json:"text"`
}

// upload is a media part of a multipart post.
type upload struct {
	mediaType string
	filename  string
	body      io.Reader
}

// ServePost relays a post to the channel and records it. The body is JSON
// {text} or multipart with "text" and an optional "media" file
// ("media_type" may force photo, video or document).
//
// POST /feed
func (h *Handler) ServePost(w http.ResponseWriter, r *http.Request) {
	actor := memberpolicy.Actor(r)
	if actor == nil {
		apierrors.Unauthorized(w)
		return
	}
	if !authz.AtLeast(actor.Role, authz.MinPostFeed) {
		apierrors.Forbidden(w)
		return
	}

	var text string
	var media *upload
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, MaxMediaBytes+maxJSONBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			apierrors.BadRequest(w, "invalid multipart body")
			return
		}
		defer r.MultipartForm.RemoveAll()
		text = r.FormValue("text")
		if f, hdr, err := r.FormFile("media"); err == nil {
			defer f.Close()
			media = &upload{
				mediaType: mediaTypeFor(r.FormValue("media_type"), hdr.Header.Get("Content-Type")),
				filename:  hdr.Filename,
				body:      f,
			}
		} else if !errors.Is(err, http.ErrMissingFile) {
			apierrors.BadRequest(w, "invalid media upload")
			return
		}
	} else {
		var in postInput
		if err := apierrors.DecodeJSON(w, r, &in, maxJSONBytes); err != nil {
			apierrors.BadRequest(w, "invalid JSON body")
			return
		}
		text = in.Text
	}

	text = strings.TrimSpace(htmlsanitize.PlainText(text))
	limit := MaxTextLength
	if media != nil {
		limit = MaxCaptionLength
	}
	switch {
	case text == "" && media == nil:
		apierrors.Invalid(w, inputval.FieldErrors{"text": "is required"})
		return
	case utf8.RuneCountInString(text) > limit:
		apierrors.Invalid(w, inputval.FieldErrors{"text": "is too long"})
		return
	}

	msg, err := h.relay(r.Context(), text, media)
	mediaType := ""
	if media != nil {
		mediaType = media.mediaType
	}
	if h.Metrics != nil {
		h.Metrics.FeedPost(mediaType, err == nil)
	}
	if err != nil {
		h.Log.Error("feed relay failed", zap.Error(err), zap.String("media_type", mediaType))
		apierrors.WriteJSON(w, http.StatusBadGateway, apierrors.Body{Error: "message relay unavailable"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	saved, err := h.record(ctx, actor, msg, text, mediaType)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "record feed message failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventFeedPosted, actor.ID, 0, map[string]string{"feed_id": saved.ID})
	apierrors.WriteJSON(w, http.StatusCreated, saved)
}

func (h *Handler) relay(parent context.Context, text string, media *upload) (telegram.Message, error) {
	ctx, cancel := context.WithTimeout(parent, timeouts.Long())
	defer cancel()
	if media == nil {
		return h.Relay.SendMessage(ctx, text)
	}
	return h.Relay.SendMedia(ctx, media.mediaType, media.filename, media.body, text)
}

func (h *Handler) record(ctx context.Context, actor *auth.SessionUser, msg telegram.Message, text, mediaType string) (models.FeedMessage, error) {
	return h.Feed.Create(ctx, models.FeedMessage{
		ExternalMessageID: msg.MessageID,
		ChatID:            msg.Chat.ID,
		Text:              text,
		MediaType:         mediaType,
		MediaReference:    msg.FileID(),
		Tags:              Tags(text),
		CreatedBy:         &actor.ID,
		UpdatedBy:         &actor.ID,
	})
}
