// Package permission evaluates role-hierarchy and per-resource CRUD
// grants for UI guards.
//
// All functions are pure over a session snapshot — no I/O, no clock other
// than the instant passed in — so guard checks can run synchronously on
// every render.
package permission
