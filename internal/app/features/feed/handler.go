// Package feed relays community posts to the Telegram channel and lists
// what has been posted.
package feed

import (
	"context"
	"io"
	"regexp"
	"strings"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	feedstore "github.com/dalemusser/templehub/internal/app/store/feed"
	"github.com/dalemusser/templehub/internal/app/system/auditlog"
	"github.com/dalemusser/templehub/internal/app/system/metrics"
	"github.com/dalemusser/templehub/internal/app/system/telegram"
	"go.uber.org/zap"
)

const (
	// MaxTextLength is the Bot API limit for a text message.
	MaxTextLength = 4096
	// MaxCaptionLength is the Bot API limit for a media caption.
	MaxCaptionLength = 1024
	// MaxMediaBytes is the Bot API upload limit.
	MaxMediaBytes = 50 << 20

	maxJSONBytes = 64 << 10
)

// Relay is the messaging channel posts go to. *telegram.Client implements it.
type Relay interface {
	SendMessage(ctx context.Context, text string) (telegram.Message, error)
	SendMedia(ctx context.Context, mediaType, filename string, content io.Reader, caption string) (telegram.Message, error)
	FileURL(ctx context.Context, fileID string) (string, error)
}

type Handler struct {
	Feed     *feedstore.Store
	Relay    Relay
	Metrics  *metrics.Metrics
	AuditLog *auditlog.Logger
	ErrLog   *apierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(store *feedstore.Store, relay Relay, m *metrics.Metrics, audit *auditlog.Logger, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Feed:     store,
		Relay:    relay,
		Metrics:  m,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

var hashtag = regexp.MustCompile(`#(\w+)`)

// Tags returns the distinct lowercased hashtags of text in order of first
// appearance.
func Tags(text string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, m := range hashtag.FindAllStringSubmatch(text, -1) {
		t := strings.ToLower(m[1])
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// mediaTypeFor maps an upload's declared type to a Bot API media kind.
func mediaTypeFor(declared, contentType string) string {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case telegram.MediaPhoto, telegram.MediaVideo, telegram.MediaDocument:
		return strings.ToLower(strings.TrimSpace(declared))
	}
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return telegram.MediaPhoto
	case strings.HasPrefix(contentType, "video/"):
		return telegram.MediaVideo
	}
	return telegram.MediaDocument
}
