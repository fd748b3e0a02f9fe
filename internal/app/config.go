package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvironmentProduction marks deployments where generated secrets are not acceptable.
const EnvironmentProduction = "prod"

// Config represents the runtime configuration shared by the web server and the worker.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Auth        AuthConfig        `mapstructure:"auth"`
	PubSub      PubSubConfig      `mapstructure:"pubsub"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the web HTTP server.
type ServerConfig struct {
	Port        int        `mapstructure:"port"`
	LogLevel    string     `mapstructure:"log_level"`
	Environment string     `mapstructure:"environment"`
	CSRF        CSRFConfig `mapstructure:"csrf"`
}

// IsProduction reports whether the server runs with production safeguards.
func (c ServerConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), EnvironmentProduction)
}

// CSRFConfig controls CSRF protection middleware.
type CSRFConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// WorkerConfig configures the push worker HTTP server.
type WorkerConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	Postgres        DBAuthConfig  `mapstructure:"postgres"`
	MySQL           DBAuthConfig  `mapstructure:"mysql"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig selects the cache backend: redis, database or none.
type CacheConfig struct {
	Driver   string           `mapstructure:"driver"`
	ItemsTTL time.Duration    `mapstructure:"items_ttl"`
	Redis    RedisCacheConfig `mapstructure:"redis"`
}

// RedisCacheConfig holds Redis connection options. URL takes precedence over the discrete fields.
type RedisCacheConfig struct {
	URL       string        `mapstructure:"url"`
	Address   string        `mapstructure:"address"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	TLS       bool          `mapstructure:"tls"`
	Timeout   time.Duration `mapstructure:"timeout"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	Session        SessionSettings        `mapstructure:"session"`
	RateLimit      RateLimitSettings      `mapstructure:"rate_limit"`
	BootstrapAdmin BootstrapAdminSettings `mapstructure:"bootstrap_admin"`
}

// SessionSettings configures the signed session cookie.
type SessionSettings struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	CookieName string        `mapstructure:"cookie_name"`
	MaxAge     time.Duration `mapstructure:"max_age"`
	Secure     bool          `mapstructure:"secure"`
}

// RateLimitSettings bounds login and registration attempts per client.
type RateLimitSettings struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// BootstrapAdminSettings provisions a superuser at startup when Email is set.
type BootstrapAdminSettings struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// PubSubConfig configures job publishing and push delivery.
type PubSubConfig struct {
	ProjectID       string           `mapstructure:"project_id"`
	Topic           string           `mapstructure:"topic"`
	CredentialsFile string           `mapstructure:"credentials_file"`
	PublishTimeout  time.Duration    `mapstructure:"publish_timeout"`
	PushAuth        PushAuthSettings `mapstructure:"push_auth"`
}

// PushAuthSettings enables verification of the OIDC token Pub/Sub attaches to push requests.
type PushAuthSettings struct {
	Enabled             bool   `mapstructure:"enabled"`
	Audience            string `mapstructure:"audience"`
	ServiceAccountEmail string `mapstructure:"service_account_email"`
	Issuer              string `mapstructure:"issuer"`
}

// MonitoringConfig enables metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// MaintenanceConfig schedules background housekeeping.
type MaintenanceConfig struct {
	CacheCleanupSchedule string `mapstructure:"cache_cleanup_schedule"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
// Environment variables use the STACKAPP_ prefix with dots replaced by underscores.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("STACKAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Every key needs a default, otherwise AutomaticEnv cannot override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.csrf.enabled", false)

	v.SetDefault("worker.port", 8081)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/stackapp.sqlite")
	v.SetDefault("database.dsn", "")
	for _, vendor := range []string{"postgres", "mysql"} {
		v.SetDefault("database."+vendor+".host", "")
		v.SetDefault("database."+vendor+".port", 0)
		v.SetDefault("database."+vendor+".database", "")
		v.SetDefault("database."+vendor+".username", "")
		v.SetDefault("database."+vendor+".password", "")
	}
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.max_idle_conns", 0)
	v.SetDefault("database.conn_max_lifetime", "0s")

	v.SetDefault("cache.driver", "none")
	v.SetDefault("cache.items_ttl", "30s")
	v.SetDefault("cache.redis.url", "")
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.username", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "500ms")
	v.SetDefault("cache.redis.key_prefix", "stackapp")

	v.SetDefault("auth.session.secret", "")
	v.SetDefault("auth.session.issuer", "stackapp")
	v.SetDefault("auth.session.cookie_name", "session")
	v.SetDefault("auth.session.max_age", "168h")
	v.SetDefault("auth.session.secure", false)
	v.SetDefault("auth.rate_limit.requests", 10)
	v.SetDefault("auth.rate_limit.window", "1m")
	v.SetDefault("auth.bootstrap_admin.email", "")
	v.SetDefault("auth.bootstrap_admin.password", "")

	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "")
	v.SetDefault("pubsub.credentials_file", "")
	v.SetDefault("pubsub.publish_timeout", "10s")
	v.SetDefault("pubsub.push_auth.enabled", false)
	v.SetDefault("pubsub.push_auth.audience", "")
	v.SetDefault("pubsub.push_auth.service_account_email", "")
	v.SetDefault("pubsub.push_auth.issuer", "")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")

	v.SetDefault("maintenance.cache_cleanup_schedule", "@hourly")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
