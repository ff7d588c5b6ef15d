package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/99minutos/passport/internal/core/domain"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// RateLimitRPS throttles the verification endpoint per client IP.
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS, default=1"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Verify VerifyConfig
	Mail   MailConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=passport"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type AuthConfig struct {
	LoginExpire time.Duration `env:"LOGIN_EXPIRE, default=1h"`
	BcryptCost  int           `env:"BCRYPT_COST,  default=10"`
}

type VerifyConfig struct {
	CodeTTL time.Duration `env:"VERIFY_CODE_TTL, default=5m"`
	Window  time.Duration `env:"VERIFY_WINDOW,   default=1m"`
	Limit   int           `env:"VERIFY_LIMIT,    default=3"`
}

type MailConfig struct {
	ResendAPIKey string `env:"RESEND_API_KEY"`
	From         string `env:"MAIL_FROM, default=passport@example.com"`
}

// CodePolicy converts the verification settings into the domain policy.
func (v VerifyConfig) CodePolicy() domain.CodePolicy {
	return domain.CodePolicy{TTL: v.CodeTTL, Window: v.Window, Limit: v.Limit}
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through the given lookuper and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" && !c.IsLocal() {
		errs = append(errs, errors.New("JWT_SECRET is required outside ENV=local"))
	}
	if !c.IsLocal() && c.Mail.ResendAPIKey == "" {
		errs = append(errs, errors.New("RESEND_API_KEY is required outside ENV=local"))
	}
	if c.Auth.LoginExpire <= 0 {
		errs = append(errs, errors.New("LOGIN_EXPIRE must be positive"))
	}
	if c.Verify.Limit <= 0 {
		errs = append(errs, errors.New("VERIFY_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}
