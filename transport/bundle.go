package transport

import (
	"time"

	"github.com/kynetiq/authclient/credential"
)

// TokenBundle is the token payload returned by the auth service's login and
// refresh endpoints.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Pair converts the bundle into a credential pair anchored at now.
func (b *TokenBundle) Pair(now time.Time) *credential.Pair {
	kind := b.TokenType
	if kind == "" {
		kind = "Bearer"
	}
	return &credential.Pair{
		AccessToken:  b.AccessToken,
		RefreshToken: b.RefreshToken,
		TokenKind:    kind,
		ExpiresAt:    now.Add(time.Duration(b.ExpiresIn) * time.Second),
	}
}

// errorEnvelope is the machine-readable error body shape used by the auth
// service. Either code/message or the bare error field may be present.
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	ErrText string `json:"error"`
}

func (e errorEnvelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrText
}
