package authclient

import (
	"errors"
	"io"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kynetiq/authclient/credential"
	"github.com/kynetiq/authclient/transport"
)

// Builder assembles a Controller. A Builder is single-use: Build consumes
// it, and a second call fails.
type Builder struct {
	config Config
	store  credential.Store
	client *http.Client
	redis  *redis.Client

	logger    logrus.FieldLogger
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration. The config is cloned so
// later mutation by the caller has no effect.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore installs an explicit credential store, overriding the one the
// configured StorageMode would construct.
func (b *Builder) WithStore(store credential.Store) *Builder {
	b.store = store
	return b
}

// WithHTTPClient installs the HTTP client used for every auth service
// call. In StorageCookie mode the client's Jar is replaced with the
// store's jar at Build time.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.client = client
	return b
}

// WithRedis installs the redis client. Required by StorageRedis mode.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithLogger installs a structured logger. Without one the Controller logs
// to a discard logger.
func (b *Builder) WithLogger(logger logrus.FieldLogger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink installs the sink that receives async audit events. It is
// only consulted when the config enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process metrics counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, constructs the credential store for
// the configured mode, and wires the transport, renewer, audit, and
// metrics into a ready Controller.
func (b *Builder) Build() (*Controller, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	client := b.client
	if client == nil {
		client = &http.Client{}
	}

	// -------- CREDENTIAL STORE --------
	store := b.store
	if store == nil {
		var err error
		store, err = buildStore(cfg, b.redis, client, logger)
		if err != nil {
			return nil, err
		}
	}

	// -------- TRANSPORT --------
	renewer, err := transport.NewRenewer(transport.RenewerConfig{
		BaseURL:     cfg.Endpoints.BaseURL,
		RefreshPath: cfg.Endpoints.RefreshPath,
		Timeout:     cfg.Timeouts.Renewal,
	}, client, store, logger)
	if err != nil {
		return nil, err
	}

	gateway, err := transport.NewGateway(transport.GatewayConfig{
		BaseURL:        cfg.Endpoints.BaseURL,
		UserAgent:      cfg.Endpoints.UserAgent,
		RequestTimeout: cfg.Timeouts.Request,
	}, client, store, renewer, logger)
	if err != nil {
		return nil, err
	}

	controller := &Controller{
		config:  cfg,
		store:   store,
		gateway: gateway,
		renewer: renewer,
		logger:  logger,
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		state:   StateUnauthenticated,
	}

	renewer.SetOutcomeHook(func(ok, shared bool) {
		if shared {
			controller.metricInc(MetricRenewCoalesced)
		}
	})
	gateway.SetAuthFailureHook(controller.handleAuthFailure)

	b.built = true

	return controller, nil
}

func buildStore(cfg Config, rdb *redis.Client, client *http.Client, logger logrus.FieldLogger) (credential.Store, error) {
	switch cfg.Storage.Mode {
	case StorageFile:
		return credential.NewFileStore(credential.FileConfig{
			Path:    cfg.Storage.FilePath,
			KeyPath: cfg.Storage.KeyPath,
		}, logger)

	case StorageCookie:
		store, err := credential.NewCookieStore(cfg.Endpoints.BaseURL, cfg.Storage.CookieNames)
		if err != nil {
			return nil, err
		}
		// The server's HttpOnly cookies carry the credentials; the client
		// must present them on every call.
		client.Jar = store.Jar()
		return store, nil

	case StorageRedis:
		if rdb == nil {
			return nil, errors.New("redis storage mode requires a redis client")
		}
		return credential.NewRedisStore(rdb, credential.RedisConfig{
			Prefix:   cfg.Storage.RedisPrefix,
			ClientID: cfg.Storage.RedisClientID,
			TTL:      cfg.Storage.RedisTTL,
		}, logger)

	case StorageMemory:
		return credential.NewMemoryStore(), nil

	default:
		return nil, errors.New("unknown storage mode: " + string(cfg.Storage.Mode))
	}
}
