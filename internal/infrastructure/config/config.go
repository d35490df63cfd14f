package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// DevJWTSecret signs sessions when JWT_SECRET is unset in development and
// test. Validate refuses it everywhere else.
const DevJWTSecret = "agentdex-dev-secret-change-me"

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// ActivationCodesPublicStatus exposes GET /activation-codes/status/{status}
	// without a session. Off unless explicitly enabled.
	ActivationCodesPublicStatus bool `env:"ACTIVATION_CODES_PUBLIC_STATUS, default=false"`

	Session  SessionConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Provider ProviderConfig
	Jobs     JobsConfig
}

type SessionConfig struct {
	JWTSecret  string `env:"JWT_SECRET"`
	Issuer     string `env:"JWT_ISSUER,   default=agentdex"`
	Audience   string `env:"JWT_AUDIENCE, default=agentdex-web"`
	CookieName string `env:"SESSION_COOKIE_NAME, default=auth-token"`
	BcryptCost int    `env:"BCRYPT_COST, default=10"`

	LoginMaxFailures int           `env:"LOGIN_MAX_FAILURES, default=5"`
	LoginWindow      time.Duration `env:"LOGIN_FAILURE_WINDOW, default=15m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=agentdex"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type StorageConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT,   default=localhost:9000"`
	AccessKey string `env:"MINIO_ACCESS_KEY, default=minioadmin"`
	SecretKey string `env:"MINIO_SECRET_KEY, default=minioadmin"`
	UseSSL    bool   `env:"MINIO_USE_SSL,    default=false"`
	Bucket    string `env:"MINIO_BUCKET,     default=agentdex-media"`
	// PublicBaseURL prefixes object URLs; defaults to the endpoint.
	PublicBaseURL string `env:"MINIO_PUBLIC_BASE_URL"`
}

type UploadConfig struct {
	MaxBytes int64 `env:"UPLOAD_MAX_BYTES, default=5242880"`
}

// ProviderConfig carries the AI provider defaults shown to administrators.
type ProviderConfig struct {
	Name    string `env:"AI_DEFAULT_PROVIDER, default=openai"`
	Model   string `env:"AI_DEFAULT_MODEL,    default=gpt-4o-mini"`
	BaseURL string `env:"AI_BASE_URL"`
	APIKey  string `env:"AI_API_KEY"`
}

type JobsConfig struct {
	ExpireCodesSpec string `env:"JOBS_EXPIRE_CODES_SPEC, default=@every 15m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.IsDevelopment() && cfg.Session.JWTSecret == "" {
		cfg.Session.JWTSecret = DevJWTSecret
	}
	return &cfg, nil
}

// IsDevelopment reports whether relaxed defaults are allowed.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "development", "dev", "test", "local":
		return true
	}
	return false
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// UsesDevSecret reports whether sessions are signed with the built-in secret.
func (c *Config) UsesDevSecret() bool {
	return c.Session.JWTSecret == DevJWTSecret
}

// Validate fails fast on settings that must never reach a shared deployment.
func (c *Config) Validate() error {
	var errs []error
	if !c.IsDevelopment() {
		if c.Session.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required outside development"))
		} else if c.UsesDevSecret() {
			errs = append(errs, errors.New("JWT_SECRET must not be the development default"))
		}
	}
	if c.Session.LoginMaxFailures < 1 {
		errs = append(errs, errors.New("LOGIN_MAX_FAILURES must be at least 1"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if strings.TrimSpace(c.Jobs.ExpireCodesSpec) == "" {
		errs = append(errs, errors.New("JOBS_EXPIRE_CODES_SPEC must not be empty"))
	}
	return errors.Join(errs...)
}
