package authclient

import (
	"context"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kynetiq/authclient/credential"
	"github.com/kynetiq/authclient/permission"
	"github.com/kynetiq/authclient/transport"
)

// Controller is the session-lifecycle state machine exposed to the rest of
// the application. All reads go through [Controller.Snapshot] and the
// accessor methods; there is no ambient mutable state.
type Controller struct {
	config  Config
	store   credential.Store
	gateway *transport.Gateway
	renewer *transport.Renewer
	logger  logrus.FieldLogger
	audit   *auditDispatcher
	metrics *Metrics

	mu         sync.Mutex
	session    *Session
	state      State
	loading    bool
	lastErr    *AuthError
	enroll     *Enrollment
	lastFailed func(ctx context.Context) error
	subs       map[uint64]chan Snapshot
	nextSub    uint64
	renewStop  chan struct{}
	closed     bool
}

// Snapshot returns the current observable session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		User:          c.session.clone(),
		State:         c.state,
		Authenticated: c.session != nil,
		Loading:       c.loading,
		Err:           c.lastErr,
	}
}

// Subscribe registers an observer of session state changes. The returned
// channel is buffered; a slow consumer misses intermediate snapshots
// rather than blocking the controller. The cancel function unregisters.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Snapshot, 8)
	if c.subs == nil {
		c.subs = make(map[uint64]chan Snapshot)
	}
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (c *Controller) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// IsAuthenticated reports whether a Session is present. True if and only
// if [Controller.CurrentUser] is non-nil.
func (c *Controller) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// CurrentUser returns a copy of the live session, or nil.
func (c *Controller) CurrentUser() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// Err returns the most recent classified failure, or nil.
func (c *Controller) Err() *AuthError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HasRole checks the live session's role against the hierarchy. Safe on an
// unauthenticated controller: no session denies.
func (c *Controller) HasRole(required permission.Role) bool {
	return c.CurrentUser().HasRole(required)
}

// Can checks the live session's per-resource permission table.
func (c *Controller) Can(resource string, action permission.Action) bool {
	return c.CurrentUser().Can(resource, action)
}

// Restore performs the passive startup check: when a stored, unexpired
// credential exists the session is hydrated through the who-am-I endpoint.
// Every failure path lands in Unauthenticated; Restore never returns an
// error so startup cannot crash on auth state.
func (c *Controller) Restore(ctx context.Context) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.loading = true
	c.publishLocked()
	c.mu.Unlock()

	ok := c.restore(ctx)

	c.mu.Lock()
	c.loading = false
	if !ok && c.session == nil {
		c.state = StateUnauthenticated
	}
	c.publishLocked()
	c.mu.Unlock()

	if ok {
		c.metricInc(MetricRestoreSuccess)
	} else {
		c.metricInc(MetricRestoreMiss)
	}
	return ok
}

func (c *Controller) restore(ctx context.Context) bool {
	pair, err := c.store.Get(ctx)
	if err != nil || pair == nil {
		if err != nil {
			c.logger.WithError(err).Debug("restore: credential read failed")
		}
		return false
	}

	if credential.Expired(pair, c.config.Renewal.Skew) {
		// The access credential is stale but the refresh secret (or cookie
		// session) may still be good for one renewal.
		if _, err := c.renewer.Renew(ctx); err != nil {
			c.logger.WithError(err).Debug("restore: renewal of stale credential failed")
			return false
		}
	}

	user := userPayload{}
	if err := c.gateway.Do(ctx, http.MethodGet, c.config.Endpoints.MePath, nil, &user); err != nil {
		c.logger.WithError(err).Debug("restore: session hydration failed")
		return false
	}

	sess := user.session()
	c.mu.Lock()
	c.session = sess
	c.state = StateAuthenticated
	c.lastErr = nil
	c.startAutoRenewLocked()
	c.publishLocked()
	c.mu.Unlock()

	c.emitAudit(ctx, auditEventSessionRestored, true, sess.UserID, sess.Email, nil, nil)
	c.logger.WithField("user_id", sess.UserID).Info("session restored")
	return true
}

// Close stops the background renewal timer and the audit dispatcher. The
// controller is unusable afterwards.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.closed = true
	c.stopAutoRenewLocked()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	if c.audit != nil {
		c.audit.Close()
	}
}

// MetricsSnapshot returns a point-in-time copy of the lifecycle counters.
func (c *Controller) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return c.metrics.Snapshot()
}

// AuditDropped reports how many audit events the dispatcher discarded.
func (c *Controller) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

func (c *Controller) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

// teardown destroys local session state unconditionally. forced marks
// teardowns triggered by terminal authorization failures rather than an
// explicit logout.
func (c *Controller) teardown(ctx context.Context, forced bool) {
	c.mu.Lock()
	hadSession := c.session != nil
	var userID, email string
	if c.session != nil {
		userID, email = c.session.UserID, c.session.Email
	}
	c.session = nil
	c.enroll = nil
	c.stopAutoRenewLocked()
	c.state = StateLoggedOut
	c.loading = false
	c.publishLocked()
	c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		c.logger.WithError(err).Warn("credential clear failed during teardown")
	}

	if forced && hadSession {
		c.metricInc(MetricSessionTeardown)
		c.emitAudit(ctx, auditEventSessionTeardown, false, userID, email, nil, nil)
		c.logger.WithField("user_id", userID).Warn("session torn down after terminal auth failure")
	}
}

// handleAuthFailure is the gateway's teardown hook.
func (c *Controller) handleAuthFailure(ctx context.Context) {
	c.teardown(ctx, true)
}
