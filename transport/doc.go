// Package transport routes outbound API calls and coordinates credential
// renewal.
//
// # Renewal policy
//
// An authorized call answered with 401 triggers exactly one renewal and
// one re-issue of the original call. A second 401 is terminal and fires
// the session teardown hook. The Renewer is a single-flight gate: the
// background renewal timer and any number of reactive 401 triggers share
// one in-flight network call and its outcome.
//
// # What this package must NOT do
//
//   - Retry renewal automatically after a failure.
//   - Hold credentials beyond transient use; the store owns them.
//   - Import authclient.
package transport
