package credential

import (
	"context"
	"errors"
	"time"

	"github.com/kynetiq/authclient/token"
)

// ErrStorageFailure wraps persistence failures from Set and Clear. Read
// paths never surface it for corruption: a pair that cannot be decoded is
// treated as absent and the entry is removed.
var ErrStorageFailure = errors.New("credential storage failure")

// Pair is the access/refresh credential bundle. At most one complete pair
// exists at a time; it is replaced only by a successful login or renewal
// and destroyed on logout, renewal failure, or detected corruption.
type Pair struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenKind    string    `json:"token_kind"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// HasSecrets reports whether the pair carries the raw tokens. Cookie-mode
// stores mirror only metadata; their pairs return false here.
func (p *Pair) HasSecrets() bool {
	return p != nil && p.AccessToken != "" && p.RefreshToken != ""
}

// Clone returns a copy so callers never share the stored value.
func (p *Pair) Clone() *Pair {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Store is the persistence strategy for the credential pair, selected once
// at construction time. Get returns (nil, nil) when no pair is stored.
type Store interface {
	Get(ctx context.Context) (*Pair, error)
	Set(ctx context.Context, pair *Pair) error
	Clear(ctx context.Context) error
	Kind() string
}

// Expired reports whether the pair should be treated as expired under the
// given forward skew. When the pair carries its access token the embedded
// expiry claim is authoritative; otherwise the mirrored metadata is used.
// A nil pair, a malformed token, and missing metadata all report expired.
func Expired(p *Pair, skew time.Duration) bool {
	if p == nil {
		return true
	}
	if p.AccessToken != "" {
		return token.IsExpired(p.AccessToken, skew)
	}
	if p.ExpiresAt.IsZero() {
		return true
	}
	if skew < 0 {
		skew = 0
	}
	return !p.ExpiresAt.After(time.Now().Add(skew))
}
