package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	minBcryptCost     = 4
	maxBcryptCost     = 31
	defaultBcryptCost = 12

	placeholderTokenSecret = "change-me-to-a-32-byte-secret"
	minTokenSecretLength   = 32
)

// Config aggregates runtime configuration for the contacts API.
type Config struct {
	Server   ServerConfig   `envPrefix:"CONTACTS_API_"`
	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	MinIO    MinIOConfig    `envPrefix:"MINIO_"`
	Auth     AuthConfig     `envPrefix:"CONTACTS_AUTH_"`
	Metrics  MetricsConfig  `envPrefix:"CONTACTS_METRICS_"`
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string        `env:"HOST" envDefault:"0.0.0.0"`
	Port         int           `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"contacts_app"`
	Password string `env:"PASSWORD" envDefault:"change-me"`
	Database string `env:"DB" envDefault:"contacts"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"`
	MaxConns int32  `env:"MAX_CONNS" envDefault:"10"`
	MinConns int32  `env:"MIN_CONNS" envDefault:"0"`
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, strings.ToLower(p.SSLMode))
}

// MinIOConfig carries object storage settings for contact avatars.
type MinIOConfig struct {
	Endpoint        string        `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKeyID     string        `env:"ROOT_USER" envDefault:"contacts"`
	SecretAccessKey string        `env:"ROOT_PASSWORD" envDefault:"change-me-strong-password"`
	Bucket          string        `env:"BUCKET" envDefault:"contacts"`
	UseSSL          bool          `env:"USE_SSL" envDefault:"false"`
	Region          string        `env:"REGION"`
	PresignTTL      time.Duration `env:"PRESIGN_TTL" envDefault:"15m"`
}

// AuthConfig groups the token and password hashing settings.
// It is built once at startup and handed to the token manager and credential store.
type AuthConfig struct {
	TokenSecret     string        `env:"JWT_SECRET" envDefault:"change-me-to-a-32-byte-secret"`
	Issuer          string        `env:"JWT_ISSUER" envDefault:"contactbook"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"12"`
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string `env:"PATH" envDefault:"/metrics"`
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Auth.BcryptCost < minBcryptCost || cfg.Auth.BcryptCost > maxBcryptCost {
		cfg.Auth.BcryptCost = defaultBcryptCost
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	switch secret := strings.TrimSpace(c.Auth.TokenSecret); {
	case secret == "":
		errs = append(errs, errors.New("CONTACTS_AUTH_JWT_SECRET must not be empty"))
	case secret == placeholderTokenSecret:
		errs = append(errs, errors.New("CONTACTS_AUTH_JWT_SECRET must be changed from the example value"))
	case len(secret) < minTokenSecretLength:
		errs = append(errs, fmt.Errorf("CONTACTS_AUTH_JWT_SECRET must be at least %d bytes", minTokenSecretLength))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("CONTACTS_AUTH_ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("CONTACTS_AUTH_REFRESH_TOKEN_TTL must exceed the access token TTL"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("CONTACTS_API_PORT %d out of range", c.Server.Port))
	}
	return errors.Join(errs...)
}
