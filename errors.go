package authclient

import (
	"errors"

	"github.com/kynetiq/authclient/autherr"
)

// Classified-failure sentinels, re-exported for errors.Is at the SDK
// surface. Matching is by error code.
var (
	// ErrInvalidCredentials is an exported sentinel matched by code.
	ErrInvalidCredentials = autherr.ErrInvalidCredentials
	// ErrSecondFactorRequired is an exported sentinel matched by code.
	ErrSecondFactorRequired = autherr.ErrSecondFactorRequired
	// ErrSecondFactorInvalid is an exported sentinel matched by code.
	ErrSecondFactorInvalid = autherr.ErrSecondFactorInvalid
	// ErrRateLimited is an exported sentinel matched by code.
	ErrRateLimited = autherr.ErrRateLimited
	// ErrTimeout is an exported sentinel matched by code.
	ErrTimeout = autherr.ErrTimeout
	// ErrNetwork is an exported sentinel matched by code.
	ErrNetwork = autherr.ErrNetwork
	// ErrStorage is an exported sentinel matched by code.
	ErrStorage = autherr.ErrStorage
	// ErrRenewalFailed is an exported sentinel matched by code.
	ErrRenewalFailed = autherr.ErrRenewalFailed
	// ErrUnauthorized is an exported sentinel matched by code.
	ErrUnauthorized = autherr.ErrUnauthorized
	// ErrUnexpected is an exported sentinel matched by code.
	ErrUnexpected = autherr.ErrUnexpected
)

var (
	// ErrNotAuthenticated is returned by operations that require a live
	// session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrControllerClosed is returned after Close.
	ErrControllerClosed = errors.New("controller closed")
	// ErrNothingToRetry is returned by Retry when no failed operation is
	// recorded.
	ErrNothingToRetry = errors.New("no failed operation to retry")
	// ErrEnrollmentNotStarted is returned by Enable2FA before Setup2FA.
	ErrEnrollmentNotStarted = errors.New("second-factor enrollment not started")
)

// Retryable reports whether err carries a retryable classification, so UI
// layers can gate a retry affordance.
func Retryable(err error) bool {
	return autherr.Retryable(err)
}
