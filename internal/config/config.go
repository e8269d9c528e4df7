// Package config manages environment variables.
//
// It reads variables from the process environment (and an optional `.env`
// file), loads them on top of built-in defaults into structured Go types and
// validates them so the service fails fast on bad or missing configuration.
//
// Env vars use the TAREAS_ prefix and a double underscore to separate nesting
// levels:
//
//	TAREAS_SERVER__PORT          -> server.port
//	TAREAS_STORE__MONGO__URI     -> store.mongo.uri
//	TAREAS_REDIS__ADDRESS        -> redis.address
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads `.env` into the process env before anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix every configuration env var must carry.
	EnvPrefix = "TAREAS_"

	// ServiceName is the name reported to logs and New Relic.
	ServiceName = "tareas"

	// StoreDriverMongo selects the MongoDB document store.
	StoreDriverMongo = "mongo"

	// StoreDriverPostgres selects the PostgreSQL JSONB document store.
	StoreDriverPostgres = "postgres"
)

// Config is the root configuration object for the application.
//
// Observability is always populated by LoadConfig, since its defaults are
// part of the base layer that env variables override.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Store         StoreConfig          `koanf:"store" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Cache         CacheConfig          `koanf:"cache"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Notifications NotificationsConfig  `koanf:"notifications"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port         string `koanf:"port" validate:"required"`
	ReadTimeout  int    `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout int    `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout  int    `koanf:"idle_timeout" validate:"required,min=1"`

	// CORSAllowOrigin is written verbatim to Access-Control-Allow-Origin.
	CORSAllowOrigin string `koanf:"cors_allow_origin" validate:"required"`

	// StrictNotFound maps missing tareas to 404 instead of the historical 400.
	StrictNotFound bool `koanf:"strict_not_found"`

	// LenientAccept also accepts wildcards and comma separated media ranges
	// in the Accept header of read endpoints.
	LenientAccept bool `koanf:"lenient_accept"`
}

// StoreConfig selects and configures the document store backing the tareas.
type StoreConfig struct {
	Driver   string         `koanf:"driver" validate:"required,oneof=mongo postgres"`
	Mongo    MongoConfig    `koanf:"mongo"`
	Postgres PostgresConfig `koanf:"postgres"`
}

// MongoConfig contains the MongoDB connection parameters.
type MongoConfig struct {
	URI            string `koanf:"uri"`
	Database       string `koanf:"database"`
	Collection     string `koanf:"collection"`
	ConnectTimeout int    `koanf:"connect_timeout"`
}

// PostgresConfig contains PostgreSQL connection parameters and pool tuning.
type PostgresConfig struct {
	Host            string `koanf:"host"`
	Port            int    `koanf:"port"`
	User            string `koanf:"user"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name"`
	SSLMode         string `koanf:"ssl_mode"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time"`
}

// RedisConfig contains Redis connection details.
// An empty Address disables the read cache and the background jobs.
type RedisConfig struct {
	Address string `koanf:"address"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// CacheConfig controls the cache-aside layer in front of the store.
type CacheConfig struct {
	Prefix string        `koanf:"prefix"`
	TTL    time.Duration `koanf:"ttl" validate:"min=0"`
}

// IntegrationConfig stores credentials for third-party services.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
}

// NotificationsConfig controls the lifecycle notification emails.
type NotificationsConfig struct {
	EmailTo   string `koanf:"email_to" validate:"omitempty,email"`
	EmailFrom string `koanf:"email_from"`
}

// Enabled reports whether lifecycle emails should be sent.
func (n NotificationsConfig) Enabled(integration IntegrationConfig) bool {
	return n.EmailTo != "" && integration.ResendAPIKey != ""
}

func defaults() map[string]interface{} {
	d := map[string]interface{}{
		"primary.env":                       "development",
		"server.port":                       "8080",
		"server.read_timeout":               30,
		"server.write_timeout":              30,
		"server.idle_timeout":               60,
		"server.cors_allow_origin":          "*",
		"server.strict_not_found":           false,
		"server.lenient_accept":             false,
		"store.driver":                      StoreDriverMongo,
		"store.mongo.uri":                   "mongodb://localhost:27017",
		"store.mongo.database":              "tareas",
		"store.mongo.collection":            "tareas",
		"store.mongo.connect_timeout":       10,
		"store.postgres.port":               5432,
		"store.postgres.ssl_mode":           "disable",
		"store.postgres.max_open_conns":     25,
		"store.postgres.conn_max_lifetime":  300,
		"store.postgres.conn_max_idle_time": 300,
		"cache.prefix":                      "tareas:",
		"cache.ttl":                         "5m",
		"notifications.email_from":          "Tareas <onboarding@resend.dev>",
	}

	for key, value := range observabilityDefaults() {
		d[key] = value
	}
	return d
}

// envKey maps TAREAS_STORE__MONGO__URI to store.mongo.uri.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// LoadConfig loads defaults and environment variables, unmarshals them into
// Config and validates the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("could not load default config: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Store.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	// Service name and environment always follow the primary config.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// Validate checks the settings required by the selected driver.
func (s StoreConfig) Validate() error {
	switch s.Driver {
	case StoreDriverMongo:
		if s.Mongo.URI == "" {
			return fmt.Errorf("store.mongo.uri is required")
		}
		if s.Mongo.Database == "" || s.Mongo.Collection == "" {
			return fmt.Errorf("store.mongo.database and store.mongo.collection are required")
		}
	case StoreDriverPostgres:
		p := s.Postgres
		if p.Host == "" || p.User == "" || p.Name == "" {
			return fmt.Errorf("store.postgres.host, user and name are required")
		}
		if p.Port <= 0 {
			return fmt.Errorf("store.postgres.port must be positive")
		}
	default:
		return fmt.Errorf("unknown store driver %q", s.Driver)
	}
	return nil
}
