// Package token inspects bearer tokens held by the client.
//
// # Architecture boundaries
//
// This package owns expiry-claim decoding and the forward safety skew.
// It never verifies signatures — validity decisions belong to the server.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import credential, transport, or authclient.
//   - Treat a malformed token as anything other than expired.
package token
