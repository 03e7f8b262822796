// Package autherr defines the classified error taxonomy shared by the
// credential store, transport gateway, and session controller.
//
// Failures are classified exactly once, at the boundary that observed
// them, and carry a retryable flag so UI layers can offer a retry
// affordance only when appropriate. Server-side failures (5xx), rate
// limiting (429), and network/timeout failures are retryable; other
// client-side failures are not.
package autherr
