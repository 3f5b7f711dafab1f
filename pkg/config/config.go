package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/bookstore-backend/pkg/env"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Admin        AdminConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

// Load reads the process environment for the service of the given kind.
// The kind selects the per-service DSN and default port.
func Load(kind string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if strings.TrimSpace(cfg.App.Env) == "" {
		return nil, fmt.Errorf("%s is required", EnvAppEnv)
	}
	if kind != "" {
		cfg.Service.Kind = kind
	}
	if err := cfg.Service.validate(); err != nil {
		return nil, err
	}
	if cfg.App.Port == "" {
		cfg.App.Port = cfg.Service.defaultPort()
	}
	if err := cfg.DB.ensureDSN(cfg.Service.Kind); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"BOOKSTORE_APP_ENV" required:"true"`
	Port            string        `envconfig:"BOOKSTORE_APP_PORT"`
	LogLevel        string        `envconfig:"BOOKSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"BOOKSTORE_LOG_WARN_STACK" default:"false"`
	LogFormat       string        `envconfig:"BOOKSTORE_LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"BOOKSTORE_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BOOKSTORE_SERVICE_KIND"`
}

func (s ServiceConfig) validate() error {
	switch s.Kind {
	case ServiceCatalog, ServiceCart:
		return nil
	case "":
		return fmt.Errorf("%s is required", EnvServiceKind)
	default:
		return fmt.Errorf("unknown service kind %q", s.Kind)
	}
}

func (s ServiceConfig) defaultPort() string {
	if s.Kind == ServiceCart {
		return DefaultCartPort
	}
	return DefaultCatalogPort
}

type DBConfig struct {
	DSN        string `envconfig:"BOOKSTORE_DB_DSN"`
	CatalogDSN string `envconfig:"BOOKSTORE_CATALOG_DB_DSN"`
	CartDSN    string `envconfig:"BOOKSTORE_CART_DB_DSN"`
	Driver     string `envconfig:"BOOKSTORE_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"BOOKSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOOKSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOOKSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOOKSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// statements slower than this are logged; zero disables the check
	SlowQueryThreshold time.Duration `envconfig:"BOOKSTORE_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"BOOKSTORE_REDIS_URL"`
	Address      string        `envconfig:"BOOKSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"BOOKSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOOKSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOOKSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOOKSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOOKSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOOKSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOOKSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type AdminConfig struct {
	Secret          string        `envconfig:"BOOKSTORE_ADMIN_SECRET"`
	RateLimitWindow time.Duration `envconfig:"BOOKSTORE_ADMIN_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimit       int           `envconfig:"BOOKSTORE_ADMIN_RATE_LIMIT" default:"20"`
}

// Validate enforces the settings the catalog service cannot run without.
func (a AdminConfig) Validate() error {
	if strings.TrimSpace(a.Secret) == "" {
		return fmt.Errorf("%s is required", EnvAdminSecret)
	}
	return nil
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"BOOKSTORE_CORS_ALLOWED_ORIGINS" default:"*"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BOOKSTORE_AUTO_MIGRATE" default:"false"`
}

// ensureDSN picks the first configured DSN: the service specific variable,
// the generic one, then the variable names the node services used.
func (db *DBConfig) ensureDSN(kind string) error {
	switch kind {
	case ServiceCatalog:
		db.DSN = firstNonEmpty(db.CatalogDSN, db.DSN, env.First(EnvLegacyCatalogDSN))
	case ServiceCart:
		db.DSN = firstNonEmpty(db.CartDSN, db.DSN, env.First(EnvLegacyCartDSN))
	}
	if db.DSN == "" {
		return fmt.Errorf("a database DSN is required for the %s service", kind)
	}
	if db.IsSQLite() {
		return nil
	}

	u, err := url.Parse(db.DSN)
	if err != nil {
		return fmt.Errorf("parsing database DSN: %w", err)
	}
	if scheme := u.Scheme; scheme != "postgres" && scheme != "postgresql" {
		return fmt.Errorf("unsupported database DSN scheme %q", scheme)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
