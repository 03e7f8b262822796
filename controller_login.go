package authclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kynetiq/authclient/autherr"
	"github.com/kynetiq/authclient/transport"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type loginResponse struct {
	transport.TokenBundle
	User userPayload `json:"user"`
}

// Login authenticates with email, password, and an optional TOTP code.
// The wait is bounded by Timeouts.Login; an elapsed bound resolves as a
// timeout error, never a hang. A failure that only means the account needs
// a second factor is distinguishable (ErrSecondFactorRequired) from a
// wrong password so the caller can prompt for the code. The classified
// failure is also retained as the controller's current error for the UI.
func (c *Controller) Login(ctx context.Context, email, password, totpCode string) (*Session, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrControllerClosed
	}
	c.state = StateAuthenticating
	c.loading = true
	c.lastErr = nil
	c.publishLocked()
	c.mu.Unlock()

	lctx, cancel := context.WithTimeout(ctx, c.config.Timeouts.Login)
	defer cancel()

	sess, err := c.loginOnce(lctx, email, password, totpCode)
	if err != nil {
		return nil, c.loginFailed(ctx, email, password, totpCode, err)
	}

	c.metricInc(MetricLoginSuccess)
	c.emitAudit(ctx, auditEventLoginSuccess, true, sess.UserID, sess.Email, nil, nil)
	c.logger.WithField("user_id", sess.UserID).Info("login succeeded")

	c.mu.Lock()
	c.loading = false
	c.session = sess
	c.state = StateAuthenticated
	c.lastErr = nil
	c.lastFailed = nil
	c.startAutoRenewLocked()
	c.publishLocked()
	user := c.session.clone()
	c.mu.Unlock()
	return user, nil
}

func (c *Controller) loginOnce(ctx context.Context, email, password, totpCode string) (*Session, error) {
	out := loginResponse{}
	req := loginRequest{Email: email, Password: password, TOTPCode: totpCode}
	if err := c.gateway.Public(ctx, http.MethodPost, c.config.Endpoints.LoginPath, req, &out); err != nil {
		return nil, err
	}

	pair := out.TokenBundle.Pair(time.Now())
	if err := c.store.Set(ctx, pair); err != nil {
		return nil, autherr.Wrap(autherr.CodeStorage, "persist credential after login", err)
	}
	return out.User.session(), nil
}

func (c *Controller) loginFailed(ctx context.Context, email, password, totpCode string, err error) *AuthError {
	authErr := autherr.AsError(err)
	// A plain 401 on the login endpoint is a credential rejection, not an
	// authorization failure of an authenticated call.
	if authErr.Code == autherr.CodeUnauthorized {
		reclassified := autherr.New(autherr.CodeInvalidCredentials, "invalid credentials")
		reclassified.HTTPStatus = authErr.HTTPStatus
		authErr = reclassified
	}

	c.metricInc(MetricLoginFailure)
	switch {
	case errors.Is(authErr, ErrSecondFactorRequired):
		c.metricInc(MetricLoginSecondFactorRequired)
	case errors.Is(authErr, ErrTimeout):
		c.metricInc(MetricLoginTimeout)
	}
	c.emitAudit(ctx, auditEventLoginFailure, false, "", email, authErr, func() map[string]string {
		return map[string]string{"code": string(authErr.Code)}
	})
	c.logger.WithField("code", authErr.Code).Warn("login failed")

	c.mu.Lock()
	c.loading = false
	c.state = StateUnauthenticated
	c.lastErr = authErr
	c.lastFailed = func(rctx context.Context) error {
		_, e := c.Login(rctx, email, password, totpCode)
		return e
	}
	c.publishLocked()
	c.mu.Unlock()
	return authErr
}

// Logout notifies the server best-effort and unconditionally destroys
// local session state. It always completes: a network failure during the
// server notification never prevents local teardown.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	hadSession := c.session != nil
	userID, email := "", ""
	if c.session != nil {
		userID, email = c.session.UserID, c.session.Email
	}
	c.mu.Unlock()

	if hadSession {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.Timeouts.Logout)
		if err := c.gateway.DoOnce(nctx, http.MethodPost, c.config.Endpoints.LogoutPath, nil, nil); err != nil {
			c.logger.WithError(err).Debug("server logout notification failed")
		}
		cancel()
	}

	c.teardown(ctx, false)

	if hadSession {
		c.metricInc(MetricLogout)
		c.emitAudit(ctx, auditEventLogout, true, userID, email, nil, nil)
		c.logger.WithField("user_id", userID).Info("logged out")
	}
	return nil
}

// Retry re-invokes the most recently failed operation with its original
// arguments. Meaningful for retryable failures; the UI gates the
// affordance on [Retryable].
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	fn := c.lastFailed
	c.mu.Unlock()
	if fn == nil {
		return ErrNothingToRetry
	}

	c.metricInc(MetricRetry)
	c.emitAudit(ctx, auditEventRetry, true, "", "", nil, nil)
	return fn(ctx)
}
