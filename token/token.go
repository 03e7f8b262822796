package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSkew is the forward safety margin applied by [IsExpired] callers
// that do not configure their own. A token is treated as already expired
// this long before its real expiry so renewal starts before requests fail.
const DefaultSkew = 5 * time.Minute

var errNoExpiry = errors.New("token has no expiry claim")

// unverifiedParser decodes claims without signature verification. The
// client never holds verification keys; the server is the sole authority
// on token validity. Only the embedded expiry is read here.
var unverifiedParser = jwt.NewParser(jwt.WithoutClaimsValidation())

// ExpiresAt returns the expiry embedded in the token's registered claims.
// The signature is not verified.
func ExpiresAt(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := unverifiedParser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// IsExpired reports whether the token's embedded expiry is at or before
// now+skew. Malformed tokens and tokens without an expiry claim are always
// reported as expired.
func IsExpired(token string, skew time.Duration) bool {
	if skew < 0 {
		skew = 0
	}
	exp, err := ExpiresAt(token)
	if err != nil {
		return true
	}
	return !exp.After(time.Now().Add(skew))
}
