package authclient

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// StorageMode selects the credential persistence strategy at construction
// time. Deployment environment decides the mode once; call sites never
// branch on it.
type StorageMode string

const (
	// StorageFile is the development-mode encrypted file store.
	StorageFile StorageMode = "file"
	// StorageCookie is the production-mode server-cookie store.
	StorageCookie StorageMode = "cookie"
	// StorageRedis is the shared-cache store for headless deployments.
	StorageRedis StorageMode = "redis"
	// StorageMemory is the in-process store for tests and tools.
	StorageMemory StorageMode = "memory"
)

// Config is the full SDK configuration. Zero values fall back to the
// defaults applied by [DefaultConfig]; Validate runs at Build time.
type Config struct {
	Endpoints EndpointConfig
	Storage   StorageConfig
	Renewal   RenewalConfig
	Timeouts  TimeoutConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
ENDPOINT CONFIG
====================================
*/

// EndpointConfig names the auth service endpoints. Paths resolve against
// BaseURL.
type EndpointConfig struct {
	BaseURL        string
	LoginPath      string
	LogoutPath     string
	RefreshPath    string
	MePath         string
	Setup2FAPath   string
	Enable2FAPath  string
	Disable2FAPath string
	UserAgent      string
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig selects and parameterizes the credential store.
type StorageConfig struct {
	Mode StorageMode

	// FilePath and KeyPath configure StorageFile. FilePath survives
	// restarts; KeyPath must live in per-session storage.
	FilePath string
	KeyPath  string

	// CookieNames lists the auth cookies expired locally on logout in
	// StorageCookie mode.
	CookieNames []string

	// RedisPrefix, RedisClientID, and RedisTTL configure StorageRedis.
	RedisPrefix   string
	RedisClientID string
	RedisTTL      time.Duration
}

/*
====================================
RENEWAL CONFIG
====================================
*/

// RenewalConfig controls proactive credential renewal.
type RenewalConfig struct {
	// Interval is the background renewal period. It must sit well inside
	// the access token's lifetime.
	Interval time.Duration
	// Skew treats a token as expired this long before its real expiry.
	Skew time.Duration
}

/*
====================================
TIMEOUT CONFIG
====================================
*/

// TimeoutConfig bounds the subsystem's waits. Every login resolves within
// Login; a request that exceeds Request resolves as a timeout error rather
// than hanging.
type TimeoutConfig struct {
	Login   time.Duration
	Request time.Duration
	Logout  time.Duration
	Renewal time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration. BaseURL has no default
// and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		Endpoints: EndpointConfig{
			LoginPath:      "/auth/login",
			LogoutPath:     "/auth/logout",
			RefreshPath:    "/auth/refresh",
			MePath:         "/auth/me",
			Setup2FAPath:   "/auth/2fa/setup",
			Enable2FAPath:  "/auth/2fa/enable",
			Disable2FAPath: "/auth/2fa/disable",
		},
		Storage: StorageConfig{
			Mode: StorageMemory,
		},
		Renewal: RenewalConfig{
			Interval: 45 * time.Minute,
			Skew:     5 * time.Minute,
		},
		Timeouts: TimeoutConfig{
			Login:   30 * time.Second,
			Request: 15 * time.Second,
			Logout:  5 * time.Second,
			Renewal: 30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks cross-field consistency. Called by the builder.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoints.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("Endpoints.BaseURL must be an absolute URL")
	}
	switch c.Storage.Mode {
	case StorageFile:
		if c.Storage.FilePath == "" || c.Storage.KeyPath == "" {
			return errors.New("file storage requires FilePath and KeyPath")
		}
	case StorageCookie, StorageRedis, StorageMemory:
	default:
		return errors.New("unknown storage mode")
	}
	if c.Renewal.Interval <= 0 {
		return errors.New("Renewal.Interval must be positive")
	}
	if c.Renewal.Skew < 0 {
		return errors.New("Renewal.Skew must not be negative")
	}
	if c.Timeouts.Login <= 0 || c.Timeouts.Request <= 0 || c.Timeouts.Logout <= 0 || c.Timeouts.Renewal <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	if c.Storage.CookieNames != nil {
		out.Storage.CookieNames = append([]string(nil), c.Storage.CookieNames...)
	}
	return out
}

// ConfigFromEnv loads configuration from AUTHCLIENT_* environment
// variables, reading a .env file first when envFile is non-empty. Unset
// variables keep their defaults.
func ConfigFromEnv(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, err
		}
	}

	cfg := DefaultConfig()
	cfg.Endpoints.BaseURL = os.Getenv("AUTHCLIENT_BASE_URL")

	if v := os.Getenv("AUTHCLIENT_STORAGE_MODE"); v != "" {
		cfg.Storage.Mode = StorageMode(v)
	}
	if v := os.Getenv("AUTHCLIENT_CREDENTIAL_FILE"); v != "" {
		cfg.Storage.FilePath = v
	}
	if v := os.Getenv("AUTHCLIENT_SESSION_KEY_FILE"); v != "" {
		cfg.Storage.KeyPath = v
	}
	if v := os.Getenv("AUTHCLIENT_REDIS_CLIENT_ID"); v != "" {
		cfg.Storage.RedisClientID = v
	}
	if v := os.Getenv("AUTHCLIENT_RENEW_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("invalid AUTHCLIENT_RENEW_INTERVAL")
		}
		cfg.Renewal.Interval = d
	}
	if v := os.Getenv("AUTHCLIENT_LOGIN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("invalid AUTHCLIENT_LOGIN_TIMEOUT")
		}
		cfg.Timeouts.Login = d
	}
	if v := os.Getenv("AUTHCLIENT_AUDIT_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.New("invalid AUTHCLIENT_AUDIT_ENABLED")
		}
		cfg.Audit.Enabled = enabled
	}
	return cfg, nil
}
