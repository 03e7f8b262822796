package authclient

import (
	"context"
	"net/http"

	"github.com/kynetiq/authclient/autherr"
)

type enrollmentPayload struct {
	Secret      string   `json:"secret"`
	QRCodeURL   string   `json:"qr_code_url"`
	BackupCodes []string `json:"backup_codes"`
}

type totpCodeRequest struct {
	TOTPCode string `json:"totp_code"`
}

type backupCodesPayload struct {
	BackupCodes []string `json:"backup_codes"`
}

// Setup2FA requests second-factor enrollment material from the server. The
// material is transient: it lives only until Enable2FA completes or
// AbandonEnrollment discards it, and is never persisted by this subsystem.
func (c *Controller) Setup2FA(ctx context.Context) (*Enrollment, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	out := enrollmentPayload{}
	if err := c.gateway.Do(ctx, http.MethodGet, c.config.Endpoints.Setup2FAPath, nil, &out); err != nil {
		authErr := autherr.AsError(err)
		c.emitAudit(ctx, auditEventEnrollFailed, false, c.userIDForAudit(), "", authErr, nil)
		return nil, authErr
	}

	enroll := &Enrollment{
		Secret:          out.Secret,
		ProvisioningURI: out.QRCodeURL,
		BackupCodes:     append([]string(nil), out.BackupCodes...),
	}

	c.mu.Lock()
	c.enroll = &Enrollment{
		Secret:          enroll.Secret,
		ProvisioningURI: enroll.ProvisioningURI,
		BackupCodes:     append([]string(nil), enroll.BackupCodes...),
	}
	c.mu.Unlock()

	c.metricInc(MetricEnrollStarted)
	c.emitAudit(ctx, auditEventEnrollStarted, true, c.userIDForAudit(), "", nil, nil)
	return enroll, nil
}

// Enable2FA verifies a code against the pending enrollment and, on
// success, flips the session's second-factor flag and returns the backup
// codes. Fails closed: any network or validation error leaves the flag
// unchanged and the enrollment pending.
func (c *Controller) Enable2FA(ctx context.Context, code string) ([]string, error) {
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	c.mu.Lock()
	pending := c.enroll
	c.mu.Unlock()
	if pending == nil {
		return nil, ErrEnrollmentNotStarted
	}

	out := backupCodesPayload{}
	if err := c.gateway.Do(ctx, http.MethodPost, c.config.Endpoints.Enable2FAPath, totpCodeRequest{TOTPCode: code}, &out); err != nil {
		authErr := autherr.AsError(err)
		c.metricInc(MetricEnrollFailed)
		c.emitAudit(ctx, auditEventEnrollFailed, false, c.userIDForAudit(), "", authErr, nil)
		return nil, authErr
	}

	codes := out.BackupCodes
	if len(codes) == 0 {
		codes = pending.BackupCodes
	}

	c.mu.Lock()
	if c.session != nil {
		c.session.TOTPEnabled = true
	}
	c.enroll = nil
	c.publishLocked()
	c.mu.Unlock()

	c.metricInc(MetricEnrollCompleted)
	c.emitAudit(ctx, auditEventEnrollCompleted, true, c.userIDForAudit(), "", nil, nil)
	c.logger.Info("second factor enabled")
	return codes, nil
}

// Disable2FA requires re-verification with a current code before clearing
// the session's second-factor flag. Fails closed on any error.
func (c *Controller) Disable2FA(ctx context.Context, code string) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	if err := c.gateway.Do(ctx, http.MethodDelete, c.config.Endpoints.Disable2FAPath, totpCodeRequest{TOTPCode: code}, nil); err != nil {
		authErr := autherr.AsError(err)
		c.emitAudit(ctx, auditEventEnrollFailed, false, c.userIDForAudit(), "", authErr, nil)
		return authErr
	}

	c.mu.Lock()
	if c.session != nil {
		c.session.TOTPEnabled = false
	}
	c.publishLocked()
	c.mu.Unlock()

	c.emitAudit(ctx, auditEventEnrollDisabled, true, c.userIDForAudit(), "", nil, nil)
	c.logger.Info("second factor disabled")
	return nil
}

// AbandonEnrollment discards pending enrollment material without touching
// the session's second-factor flag.
func (c *Controller) AbandonEnrollment() {
	c.mu.Lock()
	c.enroll = nil
	c.mu.Unlock()
}

func (c *Controller) userIDForAudit() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.UserID
}
