package errors

import (
	"net/http"

	"github.com/dalemusser/templehub/internal/app/system/auth"
	"go.uber.org/zap"
)

// ErrorLogger logs failures with request context before rendering them.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger wraps logger. A nil logger discards.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{log: logger}
}

func (l *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fs := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fs = append(fs, zap.Int64("member_id", u.ID))
	}
	return fs
}

// LogServerError logs err at Error and writes a detail-free 500.
func (l *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	l.log.Error(msg, l.fields(r, err)...)
	Internal(w)
}

// LogBadRequest logs err at Warn and writes 400 with clientMsg.
func (l *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, clientMsg string) {
	l.log.Warn(msg, l.fields(r, err)...)
	BadRequest(w, clientMsg)
}
