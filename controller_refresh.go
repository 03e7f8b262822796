package authclient

import (
	"context"
	"time"
)

// Refresh renews the credential pair through the single-flight
// coordinator. A renewal triggered here and one triggered reactively by a
// 401 inside the gateway share the same gate, so at most one renewal
// network call is ever in flight. On failure the session is torn down
// (logout semantics); there is no retry loop.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	if c.session == nil {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	userID, email := c.session.UserID, c.session.Email
	c.state = StateRenewalPending
	c.publishLocked()
	c.mu.Unlock()

	_, err := c.renewer.Renew(ctx)
	if err != nil {
		c.metricInc(MetricRenewFailure)
		c.emitAudit(ctx, auditEventRenewFailure, false, userID, email, err, nil)
		c.logger.WithError(err).Warn("credential renewal failed, logging out")
		_ = c.Logout(context.WithoutCancel(ctx))
		return err
	}

	c.metricInc(MetricRenewSuccess)
	c.emitAudit(ctx, auditEventRenewSuccess, true, userID, email, nil, nil)

	c.mu.Lock()
	if c.session != nil && c.state == StateRenewalPending {
		c.state = StateAuthenticated
	}
	c.publishLocked()
	c.mu.Unlock()
	return nil
}

// startAutoRenewLocked starts the background renewal timer. The interval
// sits well inside the access token lifetime so renewal normally finishes
// before any request fails reactively.
func (c *Controller) startAutoRenewLocked() {
	if c.renewStop != nil || c.config.Renewal.Interval <= 0 {
		return
	}
	stop := make(chan struct{})
	c.renewStop = stop
	go c.autoRenewLoop(stop)
}

func (c *Controller) stopAutoRenewLocked() {
	if c.renewStop != nil {
		close(c.renewStop)
		c.renewStop = nil
	}
}

func (c *Controller) autoRenewLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(c.config.Renewal.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !c.IsAuthenticated() {
				continue
			}
			if err := c.Refresh(context.Background()); err != nil {
				// Refresh already tore the session down; the timer stops
				// with it.
				return
			}
		}
	}
}
