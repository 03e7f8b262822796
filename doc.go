// Package authclient implements the client side of a session-based
// authentication service: credential login with optional TOTP second
// factor, environment-differentiated secure credential persistence,
// single-flight background renewal, and role/permission evaluation against
// the live session.
//
// The package is designed for concurrent application workloads: Controller
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build].
//
// # Architecture boundaries
//
// authclient is the public surface. It exposes [Controller], [Builder],
// [Config], and value types (Session, Snapshot, MetricsSnapshot, etc.).
// Transport concerns live in the transport sub-package, persistence in
// credential, error classification in autherr, and audit dispatch under
// internal/.
//
// # What this package must NOT do
//
//   - Hand raw token material to callers. Credentials flow between the
//     store and the transport only.
//   - Make authorization decisions. [Session.HasRole] and [Session.Can]
//     gate what the client renders; the server enforces.
//   - Perform I/O during construction ([Builder.Build] is allocation-only
//     apart from opening the credential store).
//
// # Lifecycle contract
//
// Every login attempt resolves: success, a classified *AuthError, or a
// timeout error within the configured login timeout. A renewal failure
// always lands in a logged-out state; the subsystem never holds a session
// it cannot back with credentials.
package authclient
