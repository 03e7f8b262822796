package authclient

import "time"

// SecurityPosture summarizes the effective security-relevant settings of a
// running Controller for operator inspection and diagnostics.
type SecurityPosture struct {
	StorageMode     StorageMode
	EncryptedAtRest bool
	SecretsInClient bool
	RenewalInterval time.Duration
	ExpirySkew      time.Duration
	LoginTimeout    time.Duration
	RequestTimeout  time.Duration
	AuditEnabled    bool
	MetricsEnabled  bool
}

// SecurityPosture reports the controller's effective posture. Nil-safe.
func (c *Controller) SecurityPosture() SecurityPosture {
	if c == nil {
		return SecurityPosture{}
	}

	mode := c.config.Storage.Mode

	return SecurityPosture{
		StorageMode: mode,
		// Only the file store keeps secrets locally, and only sealed.
		EncryptedAtRest: mode == StorageFile,
		// Cookie mode never holds token material client-side.
		SecretsInClient: mode != StorageCookie,
		RenewalInterval: c.config.Renewal.Interval,
		ExpirySkew:      c.config.Renewal.Skew,
		LoginTimeout:    c.config.Timeouts.Login,
		RequestTimeout:  c.config.Timeouts.Request,
		AuditEnabled:    c.config.Audit.Enabled,
		MetricsEnabled:  c.config.Metrics.Enabled,
	}
}
