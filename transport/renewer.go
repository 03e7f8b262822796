package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/kynetiq/authclient/autherr"
	"github.com/kynetiq/authclient/credential"
)

const renewKey = "renew"

// RenewerConfig configures a [Renewer].
type RenewerConfig struct {
	// BaseURL is the auth service origin.
	BaseURL string
	// RefreshPath is the token renewal endpoint. Defaults to
	// "/auth/refresh".
	RefreshPath string
	// Timeout bounds the renewal network call. The call runs detached from
	// any single waiter's context because its outcome is shared. Defaults
	// to 30 seconds.
	Timeout time.Duration
}

// Renewer is the single-flight renewal coordinator. At most one renewal
// network call is in flight at any time; concurrent callers attach to it
// and share its outcome. On success the refreshed pair is written through
// the store before any waiter returns; on failure the store is cleared and
// every waiter receives a renewal failure. There is no automatic retry.
type Renewer struct {
	refreshURL string
	timeout    time.Duration
	client     *http.Client
	store      credential.Store
	logger     logrus.FieldLogger

	group   singleflight.Group
	outcome func(ok, shared bool)
}

// NewRenewer creates the coordinator.
func NewRenewer(cfg RenewerConfig, client *http.Client, store credential.Store, logger logrus.FieldLogger) (*Renewer, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.New("renewer requires an absolute BaseURL")
	}
	if store == nil {
		return nil, errors.New("renewer requires a credential store")
	}
	if client == nil {
		client = &http.Client{}
	}
	path := cfg.RefreshPath
	if path == "" {
		path = "/auth/refresh"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Renewer{
		refreshURL: base.JoinPath(path).String(),
		timeout:    timeout,
		client:     client,
		store:      store,
		logger:     logger.WithField("component", "transport.renewer"),
	}, nil
}

// SetOutcomeHook registers an observer invoked after every Renew call with
// whether it succeeded and whether the caller shared an in-flight renewal.
// Must be set before concurrent use.
func (r *Renewer) SetOutcomeHook(fn func(ok, shared bool)) {
	r.outcome = fn
}

// Renew obtains a fresh credential pair, coalescing concurrent callers
// into a single network call.
func (r *Renewer) Renew(ctx context.Context) (*credential.Pair, error) {
	v, err, shared := r.group.Do(renewKey, func() (interface{}, error) {
		return r.renewOnce()
	})
	if r.outcome != nil {
		r.outcome(err == nil, shared)
	}
	if err != nil {
		return nil, err
	}
	return v.(*credential.Pair), nil
}

// renewOnce runs detached from waiter contexts: the first waiter bailing
// out must not cancel a renewal other waiters still depend on.
func (r *Renewer) renewOnce() (*credential.Pair, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	prev, err := r.store.Get(ctx)
	if err != nil {
		return nil, r.fail(ctx, autherr.Wrap(autherr.CodeRenewalFailed, "credential read failed", err))
	}
	if prev == nil {
		return nil, r.fail(ctx, autherr.New(autherr.CodeRenewalFailed, "no stored credential to renew"))
	}

	body := map[string]string{}
	if prev.RefreshToken != "" {
		body["refresh_token"] = prev.RefreshToken
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, r.fail(ctx, autherr.Wrap(autherr.CodeRenewalFailed, "encode renewal request", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.refreshURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, r.fail(ctx, autherr.Wrap(autherr.CodeRenewalFailed, "build renewal request", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, r.fail(ctx, autherr.Wrap(autherr.CodeRenewalFailed, "renewal request failed", autherr.FromTransport(err)))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		envelope := errorEnvelope{}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&envelope)
		e := autherr.Wrap(autherr.CodeRenewalFailed, "refresh token rejected", autherr.FromStatus(resp.StatusCode, envelope.Code, envelope.message()))
		e.HTTPStatus = resp.StatusCode
		return nil, r.fail(ctx, e)
	}

	bundle := TokenBundle{}
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, r.fail(ctx, autherr.Wrap(autherr.CodeRenewalFailed, "decode renewal response", err))
	}

	pair := bundle.Pair(time.Now())
	if pair.RefreshToken == "" {
		// Server did not rotate the refresh token; carry the old one.
		pair.RefreshToken = prev.RefreshToken
	}
	if pair.TokenKind == "" {
		pair.TokenKind = prev.TokenKind
	}

	// Every waiter must observe the new pair, so the write happens before
	// the shared result resolves.
	if err := r.store.Set(ctx, pair); err != nil {
		return nil, r.fail(ctx, autherr.Wrap(autherr.CodeRenewalFailed, "persist renewed credential", err))
	}

	r.logger.Debug("credential renewed")
	return pair, nil
}

func (r *Renewer) fail(ctx context.Context, e *autherr.Error) *autherr.Error {
	if err := r.store.Clear(ctx); err != nil {
		r.logger.WithError(err).Warn("clearing credential after failed renewal")
	}
	r.logger.WithField("code", e.Code).Warn("credential renewal failed")
	return e
}
