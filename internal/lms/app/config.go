package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	UserStoreSQLite = "sqlite"
	UserStoreMongo  = "mongo"

	SessionStoreRedis  = "redis"
	SessionStoreSQLite = "sqlite"
)

// Config is the service configuration. Values come from an optional YAML
// file overlaid with environment variables.
type Config struct {
	Env       string `yaml:"env" env:"ENV" env-default:"development"`        // development, production
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`   // debug, info, warn, error
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"` // json, text
	Port      int    `yaml:"port" env:"PORT" env-default:"8000"`

	Issuer string `yaml:"issuer" env:"ISSUER" env-default:"lms"`

	// Separate HMAC secrets per token family.
	AccessSecret     string `yaml:"access_token" env:"ACCESS_TOKEN" env-required:"true"`
	RefreshSecret    string `yaml:"refresh_token" env:"REFRESH_TOKEN" env-required:"true"`
	ActivationSecret string `yaml:"activation_secret" env:"ACTIVATION_SECRET" env-required:"true"`

	AccessTTL     time.Duration `yaml:"access_token_expire" env:"ACCESS_TOKEN_EXPIRE" env-default:"5m"`
	RefreshTTL    time.Duration `yaml:"refresh_token_expire" env:"REFRESH_TOKEN_EXPIRE" env-default:"72h"`
	ActivationTTL time.Duration `yaml:"activation_token_expire" env:"ACTIVATION_TOKEN_EXPIRE" env-default:"5m"`
	SessionTTL    time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"168h"`

	UserStore         string        `yaml:"user_store" env:"USER_STORE" env-default:"sqlite"`
	DatabaseFile      string        `yaml:"database_file" env:"DATABASE_FILE" env-default:"lms.db"`
	DBURI             string        `yaml:"db_uri" env:"DB_URI"`
	DBConnectAttempts int           `yaml:"db_connect_attempts" env:"DB_CONNECT_ATTEMPTS" env-default:"10"`
	DBConnectDelay    time.Duration `yaml:"db_connect_delay" env:"DB_CONNECT_DELAY" env-default:"5s"`

	SessionStore     string `yaml:"session_store" env:"SESSION_STORE" env-default:"redis"`
	RedisURL         string `yaml:"redis_url" env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
	SessionKeyPrefix string `yaml:"session_key_prefix" env:"SESSION_KEY_PREFIX" env-default:"lms:session:"`

	SMTP SMTPConfig `yaml:"smtp"`

	// SocialAuthEnabled exposes the social sign-in route, which trusts the
	// email reported by the client.
	SocialAuthEnabled bool `yaml:"social_auth_enabled" env:"SOCIAL_AUTH_ENABLED" env-default:"false"`

	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period" env:"SHUTDOWN_GRACE_PERIOD" env-default:"10s"`
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval" env:"HOUSEKEEPING_INTERVAL" env-default:"1h"`

	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:","`
}

// SMTPConfig configures outgoing mail. An empty Host logs messages instead.
type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM" env-default:"no-reply@lms.local"`
}

// IsProduction reports whether cookies must be marked Secure.
func (c Config) IsProduction() bool { return c.Env == "production" }

// Validate checks the combinations cleanenv cannot express with tags.
func (c Config) Validate() error {
	var errs []error

	for name, secret := range map[string]string{
		"ACCESS_TOKEN":      c.AccessSecret,
		"REFRESH_TOKEN":     c.RefreshSecret,
		"ACTIVATION_SECRET": c.ActivationSecret,
	} {
		if secret == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	switch c.UserStore {
	case UserStoreSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite user store"))
		}
	case UserStoreMongo:
		if c.DBURI == "" {
			errs = append(errs, errors.New("DB_URI is required for the mongo user store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown USER_STORE %q", c.UserStore))
	}

	switch c.SessionStore {
	case SessionStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis session store"))
		}
	case SessionStoreSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore))
	}

	if c.IsProduction() && c.SMTP.Host == "" {
		errs = append(errs, errors.New("SMTP_HOST is required in production"))
	}

	if c.DBConnectAttempts < 1 {
		errs = append(errs, errors.New("DB_CONNECT_ATTEMPTS must be at least 1"))
	}

	for name, ttl := range map[string]time.Duration{
		"ACCESS_TOKEN_EXPIRE":     c.AccessTTL,
		"REFRESH_TOKEN_EXPIRE":    c.RefreshTTL,
		"ACTIVATION_TOKEN_EXPIRE": c.ActivationTTL,
		"SESSION_TTL":             c.SessionTTL,
	} {
		if ttl <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	return errors.Join(errs...)
}

// LoadConfig reads the configuration file at path (or CONFIG_PATH when path
// is empty) and overlays the environment. Without a file only the
// environment is read.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
