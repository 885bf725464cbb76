package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service and the form client.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Waitlist     WaitlistConfig
	RateLimit    RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"waitlist-service"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	MigrationsDir  string `env:"POSTGRES_MIGRATIONS_DIR" envDefault:"migrations"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	KeyPrefix          string `env:"REDIS_KEY_PREFIX" envDefault:"waitlist:"`
	PoolSize           int    `env:"REDIS_POOL_SIZE"`
	DialTimeoutSeconds int    `env:"REDIS_DIAL_TIMEOUT_SECONDS" envDefault:"5"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
	Name   string `env:"LOG_NAME"`
	// File redirects output away from stdout; the terminal form sets it so
	// log lines never land on the screen.
	File string `env:"LOG_FILE"`
}

// AuthConfig defines admin authentication parameters.
type AuthConfig struct {
	JWTSecret             string `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"60"`
	AdminEmail            string `env:"AUTH_ADMIN_EMAIL"`
	AdminPasswordHash     string `env:"AUTH_ADMIN_PASSWORD_HASH"`
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string `env:"NOTIFY_EMAIL_FROM" envDefault:"noreply@example.com"`
	WebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
	QueueSize  int    `env:"NOTIFY_QUEUE_SIZE" envDefault:"64"`
}

// WaitlistConfig points the form client at the collection endpoint. An empty
// APIURL is not a load error: it surfaces when the user submits.
type WaitlistConfig struct {
	APIURL                string `env:"WAITLIST_API_URL"`
	CountURL              string `env:"WAITLIST_COUNT_URL"`
	RequestTimeoutSeconds int    `env:"WAITLIST_REQUEST_TIMEOUT_SECONDS" envDefault:"15"`
	LogFile               string `env:"WAITLIST_LOG_FILE" envDefault:"waitlist.log"`
}

// RateLimitConfig bounds joins per client address.
type RateLimitConfig struct {
	JoinsPerWindow int `env:"RATE_LIMIT_JOINS" envDefault:"5"`
	WindowSeconds  int `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	return seconds(a.RequestTimeoutSeconds)
}

// RequestTimeout bounds one submission request.
func (w WaitlistConfig) RequestTimeout() time.Duration {
	return seconds(w.RequestTimeoutSeconds)
}

// Window returns the rate limit window.
func (r RateLimitConfig) Window() time.Duration {
	return seconds(r.WindowSeconds)
}

// AccessTokenTTL returns the admin token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
