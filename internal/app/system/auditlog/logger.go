// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/store/audit"
	"github.com/dalemusser/partnerportal/internal/app/system/outbox"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, landing).
	// Values: "all" (outbox + zap), "db" (outbox only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for review and tenant events.
	// Values: "all" (outbox + zap), "db" (outbox only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for logging audit events.
// Events bound for the database are appended to an outbox queue; a
// Consumer persists them. Append failures are logged and swallowed.
type Logger struct {
	queue  outbox.Queue
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(queue outbox.Queue, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		queue:  queue,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.SubjectID != "" {
		fields = append(fields, zap.String("subject_id", event.SubjectID))
	}
	if event.TenantID != nil {
		fields = append(fields, zap.String("tenant_id", event.TenantID.Hex()))
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

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryReview, audit.CategoryTenant:
		setting = l.config.Admin
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	// ID is fixed before queueing so redelivered events dedupe in the store.
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.queue != nil {
		if err := l.queue.Append(ctx, event); err != nil {
			l.zapLog.Error("failed to queue audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful console login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		ActorID:   userID,
		SubjectID: userID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailed logs a failed console login. eventType is one of the
// audit.EventLoginFailed* constants.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType, userID, attemptedEmail, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		SubjectID:     userID,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"attempted_email": attemptedEmail},
	})
}

// Logout logs a console logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		ActorID:   userID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	})
}

// LandingResolved logs where a partner identity was routed after sign-in.
func (l *Logger) LandingResolved(ctx context.Context, r *http.Request, identityID string, tenantID *primitive.ObjectID, state, source string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLandingResolved,
		ActorID:   identityID,
		SubjectID: identityID,
		TenantID:  tenantID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"state": state, "source": source},
	})
}

// --- Review Events ---

// ApplicationSubmitted logs a new public application.
func (l *Logger) ApplicationSubmitted(ctx context.Context, r *http.Request, appID primitive.ObjectID, company string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryReview,
		EventType: audit.EventApplicationSubmitted,
		SubjectID: appID.Hex(),
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"company": company},
	})
}

// ApplicationDecided logs an approve or reject decision on one application.
func (l *Logger) ApplicationDecided(ctx context.Context, actorID string, appID primitive.ObjectID, decision string) {
	eventType := audit.EventApplicationRejected
	if decision == "approved" {
		eventType = audit.EventApplicationApproved
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryReview,
		EventType: eventType,
		ActorID:   actorID,
		SubjectID: appID.Hex(),
		Success:   true,
	})
}

// BulkDecision logs a batch status change.
func (l *Logger) BulkDecision(ctx context.Context, actorID, decision string, requested int, matched int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryReview,
		EventType: audit.EventBulkDecision,
		ActorID:   actorID,
		Success:   true,
		Details: map[string]string{
			"decision":  decision,
			"requested": strconv.Itoa(requested),
			"matched":   strconv.FormatInt(matched, 10),
		},
	})
}

// InvitationIssued logs a successful invitation issuance.
func (l *Logger) InvitationIssued(ctx context.Context, actorID string, tenantID primitive.ObjectID, kind, recipient string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryReview,
		EventType: audit.EventInvitationIssued,
		ActorID:   actorID,
		SubjectID: recipient,
		TenantID:  &tenantID,
		Success:   true,
		Details:   map[string]string{"kind": kind},
	})
}

// InvitationFailed logs a fatal issuance failure.
func (l *Logger) InvitationFailed(ctx context.Context, actorID, company string, err error) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryReview,
		EventType:     audit.EventInvitationFailed,
		ActorID:       actorID,
		Success:       false,
		FailureReason: err.Error(),
		Details:       map[string]string{"company": company},
	})
}

// --- Tenant Events ---

// TenantCreated logs an implicit tenant creation during issuance.
func (l *Logger) TenantCreated(ctx context.Context, tenantID primitive.ObjectID, name string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryTenant,
		EventType: audit.EventTenantCreated,
		SubjectID: tenantID.Hex(),
		TenantID:  &tenantID,
		Success:   true,
		Details:   map[string]string{"name": name},
	})
}

// TenantUpdated logs an admin edit of tenant settings.
func (l *Logger) TenantUpdated(ctx context.Context, r *http.Request, actorID string, tenantID primitive.ObjectID, status string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryTenant,
		EventType: audit.EventTenantUpdated,
		ActorID:   actorID,
		SubjectID: tenantID.Hex(),
		TenantID:  &tenantID,
		IP:        getClientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"status": status},
	})
}

// TenantProvisioningFailed logs the compensation flag being set on a tenant.
func (l *Logger) TenantProvisioningFailed(ctx context.Context, tenantID primitive.ObjectID, cause error) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryTenant,
		EventType:     audit.EventTenantProvisioningFailed,
		SubjectID:     tenantID.Hex(),
		TenantID:      &tenantID,
		Success:       false,
		FailureReason: cause.Error(),
	})
}
