// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/store/audit"
	"github.com/dalemusser/schoolhub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for login and logout events.
	Auth string
	// Admin controls logging for announcement changes.
	Admin string
}

// Sink persists audit events. *audit.Store satisfies it.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
type Logger struct {
	sink   Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. sink may be nil when no mode writes to
// MongoDB.
func New(sink Sink, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		sink:   sink,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.Username != "" {
		fields = append(fields, zap.String("username", event.Username))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's mode.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}

	if (setting == ModeAll || setting == ModeDB) && l.sink != nil {
		if err := l.sink.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func authEvent(r *http.Request, eventType, username string, success bool, reason string) audit.Event {
	return audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		Username:      username,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       success,
		FailureReason: reason,
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, username string) {
	l.Log(ctx, authEvent(r, audit.EventLoginSuccess, username, true, ""))
}

// LoginFailedUserNotFound logs a login for a username with no teacher record.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attempted string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedUserNotFound, attempted, false, "user not found"))
}

// LoginFailedWrongPassword logs a login with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, username string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedWrongPassword, username, false, "wrong password"))
}

// LoginFailedRateLimit logs a login refused by the limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, attempted string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedRateLimit, attempted, false, "rate limit exceeded"))
}

// Logout logs a logout. username is empty when the session was already gone.
func (l *Logger) Logout(ctx context.Context, r *http.Request, username string) {
	l.Log(ctx, authEvent(r, audit.EventLogout, username, true, ""))
}

// --- Announcement Events ---

func (l *Logger) announcementEvent(ctx context.Context, r *http.Request, eventType, actor, announcementID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		Username:  actor,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"announcement_id": announcementID,
		},
	})
}

// AnnouncementCreated logs a new announcement.
func (l *Logger) AnnouncementCreated(ctx context.Context, r *http.Request, actor, announcementID string) {
	l.announcementEvent(ctx, r, audit.EventAnnouncementCreated, actor, announcementID)
}

// AnnouncementUpdated logs an announcement change.
func (l *Logger) AnnouncementUpdated(ctx context.Context, r *http.Request, actor, announcementID string) {
	l.announcementEvent(ctx, r, audit.EventAnnouncementUpdated, actor, announcementID)
}

// AnnouncementDeleted logs an announcement removal.
func (l *Logger) AnnouncementDeleted(ctx context.Context, r *http.Request, actor, announcementID string) {
	l.announcementEvent(ctx, r, audit.EventAnnouncementDeleted, actor, announcementID)
}
