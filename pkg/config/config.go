package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "STOCKPILOT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "STOCKPILOT_APP_ENV"
	EnvPort     = "STOCKPILOT_APP_PORT"
	EnvDBDSN    = "STOCKPILOT_DB_DSN"
	EnvDBHost   = "STOCKPILOT_DB_HOST"
	EnvDBUser   = "STOCKPILOT_DB_USER"
	EnvDBName   = "STOCKPILOT_DB_NAME"
	EnvRedisURL = "STOCKPILOT_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Cache        CacheConfig
	Connectors   ConnectorsConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOCKPILOT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKPILOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKPILOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKPILOT_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"STOCKPILOT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKPILOT_DB_DSN"`
	Driver string `envconfig:"STOCKPILOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOCKPILOT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOCKPILOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOCKPILOT_DB_USER"`
	LegacyPassword string `envconfig:"STOCKPILOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOCKPILOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOCKPILOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKPILOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKPILOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKPILOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKPILOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKPILOT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOCKPILOT_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKPILOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKPILOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKPILOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKPILOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKPILOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKPILOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKPILOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CacheConfig controls the memoized unified inventory view. A zero TTL
// disables the cache entirely; invalidation still runs on both mutation paths.
type CacheConfig struct {
	UnifiedTTL time.Duration `envconfig:"STOCKPILOT_CACHE_UNIFIED_TTL" default:"60s"`
}

type ConnectorsConfig struct {
	HTTPTimeout time.Duration `envconfig:"STOCKPILOT_CONNECTOR_HTTP_TIMEOUT" default:"30s"`
	PageSize    int           `envconfig:"STOCKPILOT_CONNECTOR_PAGE_SIZE" default:"200"`

	// Base URL overrides, used by tests and self-hosted platform installs.
	TiendanubeBaseURL  string `envconfig:"STOCKPILOT_TIENDANUBE_BASE_URL"`
	ShopifyBaseURL     string `envconfig:"STOCKPILOT_SHOPIFY_BASE_URL"`
	WooCommerceBaseURL string `envconfig:"STOCKPILOT_WOOCOMMERCE_BASE_URL"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOCKPILOT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOCKPILOT_GCP_PROJECT_ID"`
}

// PubSubConfig names the inventory eventing topic. Eventing is optional:
// when the topic or GCP project is empty the publisher is not wired.
type PubSubConfig struct {
	InventoryTopic        string `envconfig:"STOCKPILOT_PUBSUB_INVENTORY_TOPIC"`
	InventorySubscription string `envconfig:"STOCKPILOT_PUBSUB_INVENTORY_SUBSCRIPTION"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
