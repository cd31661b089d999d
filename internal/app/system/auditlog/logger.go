// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/templehub/internal/app/store/audit"
	"github.com/dalemusser/templehub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config selects where each category of event goes.
type Config struct {
	Auth  string
	Admin string
}

// Logger records audit events to the audit store and/or zap.
// A nil *Logger is a no-op, which keeps handler tests simple.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) mode(category string) string {
	var m string
	switch category {
	case audit.CategoryAuth:
		m = l.config.Auth
	case audit.CategoryAdmin:
		m = l.config.Admin
	}
	if m == "" {
		return ModeAll
	}
	return m
}

func (l *Logger) logToZap(e audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("event_type", e.EventType),
		zap.Bool("success", e.Success),
	}
	if e.IP != "" {
		fields = append(fields, zap.String("ip", e.IP))
	}
	if e.MemberID != nil {
		fields = append(fields, zap.Int64("member_id", *e.MemberID))
	}
	if e.ActorID != nil {
		fields = append(fields, zap.Int64("actor_id", *e.ActorID))
	}
	if e.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", e.FailureReason))
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	if e.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records e according to the configured mode for its category.
func (l *Logger) Log(ctx context.Context, e audit.Event) {
	if l == nil {
		return
	}
	mode := l.mode(e.Category)
	if mode == ModeOff {
		return
	}
	if mode == ModeAll || mode == ModeLog {
		l.logToZap(e)
	}
	if (mode == ModeAll || mode == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, e); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err), zap.String("event_type", e.EventType))
		}
	}
}

func withRequest(e audit.Event, r *http.Request) audit.Event {
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

func id(v int64) *int64 { return &v }

// --- Authentication events ---

// LoginSuccess records a login. event distinguishes a returning member
// (EventLoginSuccess), a new member (EventLoginProvisioned) and an imported
// member's first login (EventLoginActivated).
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, event string, memberID int64) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAuth,
		EventType: event,
		MemberID:  id(memberID),
		Success:   true,
	}, r))
}

// LoginFailed records a rejected login.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, event string, memberID *int64, reason string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     event,
		MemberID:      memberID,
		FailureReason: reason,
	}, r))
}

// SessionRenewed records a renewal-token rotation.
func (l *Logger) SessionRenewed(ctx context.Context, r *http.Request, memberID int64) {
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSessionRenewed,
		MemberID:  id(memberID),
		Success:   true,
	}, r))
}

// SessionRenewalRejected records a refresh attempt with a bad cookie.
func (l *Logger) SessionRenewalRejected(ctx context.Context, r *http.Request) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSessionRenewalRejected,
		FailureReason: "invalid or expired renewal token",
	}, r))
}

// Logout records a logout. memberID is 0 when the caller had no valid
// access token.
func (l *Logger) Logout(ctx context.Context, r *http.Request, memberID int64) {
	e := audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout, Success: true}
	if memberID > 0 {
		e.MemberID = id(memberID)
	}
	l.Log(ctx, withRequest(e, r))
}

// --- Admin events ---

// Admin records a successful privileged change by actorID to memberID
// (0 when the change is not about one member).
func (l *Logger) Admin(ctx context.Context, r *http.Request, event string, actorID, memberID int64, details map[string]string) {
	e := audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: event,
		ActorID:   id(actorID),
		Success:   true,
		Details:   details,
	}
	if memberID > 0 {
		e.MemberID = id(memberID)
	}
	l.Log(ctx, withRequest(e, r))
}

// RoleChanged records a role change.
func (l *Logger) RoleChanged(ctx context.Context, r *http.Request, actorID, memberID int64, from, to string) {
	l.Admin(ctx, r, audit.EventMemberRoleChanged, actorID, memberID, map[string]string{"from": from, "to": to})
}

// LeaderChanged records an assignment (leaderID > 0) or unassignment.
func (l *Logger) LeaderChanged(ctx context.Context, r *http.Request, actorID, memberID, leaderID int64) {
	if leaderID > 0 {
		l.Admin(ctx, r, audit.EventLeaderAssigned, actorID, memberID, map[string]string{"leader_id": strconv.FormatInt(leaderID, 10)})
		return
	}
	l.Admin(ctx, r, audit.EventLeaderUnassigned, actorID, memberID, nil)
}

// Imported records a finished bulk import.
func (l *Logger) Imported(ctx context.Context, r *http.Request, event string, actorID int64, importID string, inserted, duplicates, invalid, dropped int) {
	l.Admin(ctx, r, event, actorID, 0, map[string]string{
		"import_id":  importID,
		"inserted":   strconv.Itoa(inserted),
		"duplicates": strconv.Itoa(duplicates),
		"invalid":    strconv.Itoa(invalid),
		"dropped":    strconv.Itoa(dropped),
	})
}
