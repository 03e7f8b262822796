package authclient

import (
	"context"
	"time"

	internalaudit "github.com/kynetiq/authclient/internal/audit"
)

const (
	auditEventLoginSuccess    = "login_success"
	auditEventLoginFailure    = "login_failure"
	auditEventSessionRestored = "session_restored"
	auditEventRenewSuccess    = "renew_success"
	auditEventRenewFailure    = "renew_failure"
	auditEventLogout          = "logout"
	auditEventSessionTeardown = "session_teardown"
	auditEventEnrollStarted   = "enroll_started"
	auditEventEnrollCompleted = "enroll_completed"
	auditEventEnrollDisabled  = "enroll_disabled"
	auditEventEnrollFailed    = "enroll_failed"
	auditEventRetry           = "retry"
)

type auditDispatcher = internalaudit.Dispatcher

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	return internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Enabled,
		BufferSize: cfg.BufferSize,
		DropIfFull: cfg.DropIfFull,
	}, sink)
}

// emitAudit records a lifecycle event. metadata is built lazily so the
// disabled path stays allocation-free.
func (c *Controller) emitAudit(ctx context.Context, eventType string, success bool, userID, email string, opErr error, metadata func() map[string]string) {
	if c.audit == nil {
		return
	}
	event := internalaudit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}
	c.audit.Emit(ctx, event)
}
