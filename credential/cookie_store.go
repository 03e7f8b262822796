package credential

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"
)

// CookieStore is the production-mode strategy. The raw tokens live in
// server-set HttpOnly cookies held by the jar; this store never sees them.
// It mirrors only non-secret metadata (token kind, expiry) so the UI can
// schedule renewal and display session state. Set and Clear are
// informational for the secrets themselves — placement and removal happen
// through the auth service's own endpoints.
type CookieStore struct {
	jar         http.CookieJar
	origin      *url.URL
	cookieNames []string

	mu   sync.RWMutex
	meta *Pair
}

// NewCookieStore creates the production-mode store for the given auth
// service origin. cookieNames lists the auth cookies to expire locally on
// Clear; when empty the defaults "access_token" and "refresh_token" are
// used.
func NewCookieStore(origin string, cookieNames []string) (*CookieStore, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("cookie store requires an absolute origin URL")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if len(cookieNames) == 0 {
		cookieNames = []string{"access_token", "refresh_token"}
	}
	return &CookieStore{jar: jar, origin: u, cookieNames: cookieNames}, nil
}

// Jar exposes the cookie jar so the HTTP client used for all outbound
// calls carries the server-set auth cookies.
func (s *CookieStore) Jar() http.CookieJar { return s.jar }

// Kind reports the strategy name.
func (s *CookieStore) Kind() string { return "cookie" }

// Get returns the mirrored metadata pair, never the raw secrets.
func (s *CookieStore) Get(ctx context.Context) (*Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.Clone(), nil
}

// Set records metadata only; any secrets on the pair are dropped here and
// never retained in script-readable memory.
func (s *CookieStore) Set(ctx context.Context, pair *Pair) error {
	if pair == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = &Pair{TokenKind: pair.TokenKind, ExpiresAt: pair.ExpiresAt}
	return nil
}

// Clear drops the mirrored metadata and expires the known auth cookies in
// the local jar. The server remains responsible for real cookie removal.
func (s *CookieStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.meta = nil
	s.mu.Unlock()

	expired := make([]*http.Cookie, 0, len(s.cookieNames))
	for _, name := range s.cookieNames {
		expired = append(expired, &http.Cookie{
			Name:    name,
			Value:   "",
			Path:    "/",
			MaxAge:  -1,
			Expires: time.Unix(0, 0),
		})
	}
	s.jar.SetCookies(s.origin, expired)
	return nil
}
