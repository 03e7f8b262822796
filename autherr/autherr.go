package autherr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Code identifies a classified authentication failure.
type Code string

const (
	// CodeInvalidCredentials covers wrong email/password combinations.
	CodeInvalidCredentials Code = "invalid_credentials"
	// CodeSecondFactorRequired means the account needs a TOTP code to
	// complete login. Distinct from CodeInvalidCredentials so callers can
	// prompt for the code instead of showing a generic failure.
	CodeSecondFactorRequired Code = "second_factor_required"
	// CodeSecondFactorInvalid covers rejected TOTP codes.
	CodeSecondFactorInvalid Code = "second_factor_invalid"
	// CodeRateLimited maps HTTP 429 responses.
	CodeRateLimited Code = "rate_limited"
	// CodeTimeout covers bounded waits that elapsed.
	CodeTimeout Code = "timeout"
	// CodeNetwork covers connection-level failures.
	CodeNetwork Code = "network_error"
	// CodeStorage covers credential persistence failures.
	CodeStorage Code = "storage_failure"
	// CodeRenewalFailed means the refresh token was rejected or renewal
	// could not complete; callers tear down the session.
	CodeRenewalFailed Code = "renewal_failed"
	// CodeUnauthorized is a terminal authorization failure on a request
	// that already carried a freshly renewed credential.
	CodeUnauthorized Code = "unauthorized"
	// CodeUnexpected covers everything else, including 5xx responses.
	CodeUnexpected Code = "unexpected_error"
)

// Error is a classified authentication failure. Classification happens once
// at the boundary that observed the failure and is never revised downstream.
type Error struct {
	Code       Code
	Message    string
	HTTPStatus int
	Retryable  bool

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches two classified errors by code, so errors.Is against the
// package sentinels works regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is comparisons. Matching is by code only.
var (
	ErrInvalidCredentials   = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrSecondFactorRequired = &Error{Code: CodeSecondFactorRequired, Message: "second factor required", HTTPStatus: http.StatusUnauthorized}
	ErrSecondFactorInvalid  = &Error{Code: CodeSecondFactorInvalid, Message: "invalid second factor code"}
	ErrRateLimited          = &Error{Code: CodeRateLimited, Message: "rate limited", Retryable: true}
	ErrTimeout              = &Error{Code: CodeTimeout, Message: "request timed out", Retryable: true}
	ErrNetwork              = &Error{Code: CodeNetwork, Message: "network failure", Retryable: true}
	ErrStorage              = &Error{Code: CodeStorage, Message: "credential storage failure"}
	ErrRenewalFailed        = &Error{Code: CodeRenewalFailed, Message: "credential renewal failed"}
	ErrUnauthorized         = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrUnexpected           = &Error{Code: CodeUnexpected, Message: "unexpected error"}
)

// New builds a classified error with the default retryability for its code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Retryable: defaultRetryable(code)}
}

// Wrap builds a classified error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Retryable: defaultRetryable(code), cause: cause}
}

func defaultRetryable(code Code) bool {
	switch code {
	case CodeRateLimited, CodeTimeout, CodeNetwork:
		return true
	}
	return false
}

// FromStatus classifies a non-2xx auth service response. serverCode is the
// machine-readable code from the response body, when present.
func FromStatus(status int, serverCode, message string) *Error {
	e := &Error{HTTPStatus: status, Message: message}
	switch {
	case status == http.StatusTooManyRequests:
		e.Code = CodeRateLimited
		e.Retryable = true
	case status >= 500:
		e.Code = CodeUnexpected
		e.Retryable = true
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		switch serverCode {
		case "totp_required", "mfa_required":
			e.Code = CodeSecondFactorRequired
		case "totp_invalid", "mfa_invalid":
			e.Code = CodeSecondFactorInvalid
		case "invalid_credentials":
			e.Code = CodeInvalidCredentials
		default:
			e.Code = CodeUnauthorized
		}
	default:
		e.Code = CodeUnexpected
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// FromTransport classifies a request that failed before producing a
// response: deadline and net timeouts become CodeTimeout, everything else
// CodeNetwork. Both are retryable.
func FromTransport(err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(CodeTimeout, "request timed out", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return Wrap(CodeTimeout, "request timed out", err)
	default:
		return Wrap(CodeNetwork, "network failure", err)
	}
}

// AsError returns err as a classified *Error, wrapping unclassified errors
// as CodeUnexpected. A nil err returns nil.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(CodeUnexpected, "unexpected error", err)
}

// Retryable reports whether err carries a retryable classification.
// Unclassified errors are not retryable.
func Retryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
