// Package credential owns persistence of the access/refresh token pair.
//
// # Strategies
//
// One strategy is selected at construction time by deployment mode:
//
//   - FileStore (development): pair sealed with a per-session key; the key
//     does not survive a reboot, so a new session forces re-login.
//   - CookieStore (production): secrets stay in server-set HttpOnly
//     cookies; only non-secret metadata is mirrored here.
//   - RedisStore: shared cache for multi-process/headless deployments.
//   - MemoryStore: tests and short-lived tools.
//
// # Architecture boundaries
//
// The store is the only mutable shared resource of the subsystem. All
// mutation goes through Get/Set/Clear; no other component touches the
// underlying file, jar, or keys directly.
//
// # What this package must NOT do
//
//   - Surface decode corruption as an error — corrupted entries are
//     removed and reported absent.
//   - Hold more than one pair, or copies of it, at a time.
//   - Call the auth service.
package credential
