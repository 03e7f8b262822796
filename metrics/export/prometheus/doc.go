// Package prometheus renders authclient lifecycle counters in Prometheus
// text exposition format.
//
// [NewExporter] accepts an [authclient.Controller] and exposes an
// [http.Handler] that serves every counter plus the audit drop count.
// Counter names are prefixed authclient_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the
//     Handler where they want it.
//   - Mutate controller state.
package prometheus
