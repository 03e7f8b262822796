package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kynetiq/authclient/autherr"
	"github.com/kynetiq/authclient/credential"
)

// GatewayConfig configures a [Gateway].
type GatewayConfig struct {
	// BaseURL is the API origin all paths resolve against.
	BaseURL string
	// UserAgent is attached to every request when set.
	UserAgent string
	// RequestTimeout bounds each outbound call. Defaults to 15 seconds.
	RequestTimeout time.Duration
}

// Gateway routes all outbound API calls. Authenticated calls carry the
// current credential from the store; an authorization failure (401)
// triggers exactly one renewal through the coordinator and one re-issue of
// the original call. A second 401 on the retried call is terminal: the
// registered teardown hook fires and the failure surfaces to the caller.
type Gateway struct {
	base      *url.URL
	userAgent string
	timeout   time.Duration
	client    *http.Client
	store     credential.Store
	renewer   *Renewer
	logger    logrus.FieldLogger

	mu            sync.RWMutex
	onAuthFailure func(ctx context.Context)
}

// NewGateway creates the gateway.
func NewGateway(cfg GatewayConfig, client *http.Client, store credential.Store, renewer *Renewer, logger logrus.FieldLogger) (*Gateway, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.New("gateway requires an absolute BaseURL")
	}
	if store == nil {
		return nil, errors.New("gateway requires a credential store")
	}
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Gateway{
		base:      base,
		userAgent: cfg.UserAgent,
		timeout:   timeout,
		client:    client,
		store:     store,
		renewer:   renewer,
		logger:    logger.WithField("component", "transport.gateway"),
	}, nil
}

// SetAuthFailureHook registers the session teardown callback invoked on
// terminal authorization failures.
func (g *Gateway) SetAuthFailureHook(fn func(ctx context.Context)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onAuthFailure = fn
}

// Do issues an authenticated call with the one-shot renew-and-retry
// behavior. in and out are JSON-encoded/decoded when non-nil.
func (g *Gateway) Do(ctx context.Context, method, path string, in, out interface{}) error {
	return g.do(ctx, method, path, in, out, true, true)
}

// DoOnce issues an authenticated call without renewal. Used where a 401
// must not start a renewal cycle, such as the logout notification.
func (g *Gateway) DoOnce(ctx context.Context, method, path string, in, out interface{}) error {
	return g.do(ctx, method, path, in, out, true, false)
}

// Public issues an unauthenticated call: no credential attach, no renewal.
func (g *Gateway) Public(ctx context.Context, method, path string, in, out interface{}) error {
	return g.do(ctx, method, path, in, out, false, false)
}

func (g *Gateway) do(ctx context.Context, method, path string, in, out interface{}, attach, allowRenew bool) error {
	var body []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return autherr.Wrap(autherr.CodeUnexpected, "encode request body", err)
		}
		body = encoded
	}

	status, err := g.send(ctx, method, path, body, out, attach, allowRenew)
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized || !allowRenew {
		return nil
	}

	g.logger.WithField("path", path).Debug("authorization failure, renewing credential")
	if _, err := g.renew(ctx); err != nil {
		g.teardown(ctx)
		return err
	}

	status, err = g.send(ctx, method, path, body, out, attach, allowRenew)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		// Renewed credential rejected: terminal, never loops.
		g.teardown(ctx)
		return autherr.New(autherr.CodeUnauthorized, "unauthorized after credential renewal")
	}
	return nil
}

// send performs one attempt. When interceptUnauthorized is set, a 401 is
// returned as (status, nil) so do can apply the renew-and-retry policy;
// every other failure is classified here.
func (g *Gateway) send(ctx context.Context, method, path string, body []byte, out interface{}, attach, interceptUnauthorized bool) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.base.JoinPath(path).String(), reader)
	if err != nil {
		return 0, autherr.Wrap(autherr.CodeUnexpected, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	if attach {
		pair, err := g.store.Get(ctx)
		if err != nil {
			return 0, autherr.Wrap(autherr.CodeStorage, "credential read failed", err)
		}
		if pair != nil && pair.AccessToken != "" {
			kind := pair.TokenKind
			if kind == "" {
				kind = "Bearer"
			}
			req.Header.Set("Authorization", kind+" "+pair.AccessToken)
		}
		// Cookie-mode deployments carry auth in the client's jar instead.
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, autherr.FromTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized && interceptUnauthorized {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		envelope := errorEnvelope{}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&envelope)
		return resp.StatusCode, autherr.FromStatus(resp.StatusCode, envelope.Code, envelope.message())
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.StatusCode, autherr.Wrap(autherr.CodeUnexpected, "decode response body", err)
		}
	}
	return resp.StatusCode, nil
}

func (g *Gateway) renew(ctx context.Context) (*credential.Pair, error) {
	if g.renewer == nil {
		return nil, autherr.New(autherr.CodeRenewalFailed, "no renewal coordinator configured")
	}
	return g.renewer.Renew(ctx)
}

func (g *Gateway) teardown(ctx context.Context) {
	g.mu.RLock()
	fn := g.onAuthFailure
	g.mu.RUnlock()
	if fn != nil {
		fn(ctx)
	}
}
