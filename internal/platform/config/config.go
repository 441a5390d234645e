package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Database selects the system of record. An empty URL runs on in-memory stores.
type Database struct {
	URL     string
	Timeout time.Duration
}

// Auth holds session token settings.
type Auth struct {
	SigningKey        string
	RefreshSigningKey string
	Issuer            string
	Audience          string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	LoginRatePerSec   float64
	LoginRateBurst    int
	BcryptCost        int
}

// RedisConfig configures the refresh-token revocation list. Empty URL keeps it in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures optional audit streaming. No brokers disables it.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// Bootstrap seeds the first Master account when the credential store has none.
type Bootstrap struct {
	MasterEmail  string
	MasterSecret string
	SectorCode   string
	SectorName   string
}

// Config is the full process configuration.
type Config struct {
	Server                 Server
	Database               Database
	Auth                   Auth
	Redis                  RedisConfig
	Kafka                  Kafka
	Bootstrap              Bootstrap
	OnboardingServiceToken string
}

// IsDevelopment enables text logs and stack traces in error bodies.
func (c Config) IsDevelopment() bool {
	return c.Server.Env == EnvDevelopment
}

const (
	devSigningKey        = "dev-signing-key-change-in-production"
	devRefreshSigningKey = "dev-refresh-key-change-in-production"
)

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []error
	cfg := Config{
		Server: Server{
			Addr: envString("GOVPORTAL_ADDR", ":8080"),
			Env:  strings.ToLower(envString("GOVPORTAL_ENV", EnvProduction)),

			ReadTimeout:     envDuration("HTTP_READ_TIMEOUT", 15*time.Second, &errs),
			WriteTimeout:    envDuration("HTTP_WRITE_TIMEOUT", 30*time.Second, &errs),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		},
		Database: Database{
			URL:     os.Getenv("DATABASE_URL"),
			Timeout: envDuration("DB_TIMEOUT", 5*time.Second, &errs),
		},
		Auth: Auth{
			SigningKey:        os.Getenv("JWT_SIGNING_KEY"),
			RefreshSigningKey: os.Getenv("JWT_REFRESH_SIGNING_KEY"),
			Issuer:            envString("JWT_ISSUER", "govportal"),
			Audience:          envString("JWT_AUDIENCE", "govportal-api"),
			AccessTTL:         envDuration("ACCESS_TOKEN_TTL", 8*time.Hour, &errs),
			RefreshTTL:        envDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour, &errs),
			LoginRatePerSec:   envFloat("LOGIN_RATE_LIMIT", 1, &errs),
			LoginRateBurst:    envInt("LOGIN_RATE_BURST", 5, &errs),
			BcryptCost:        envInt("BCRYPT_COST", 12, &errs),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Kafka: Kafka{
			Brokers:    envList("KAFKA_BROKERS"),
			AuditTopic: envString("AUDIT_TOPIC", "govportal.audit"),
		},
		Bootstrap: Bootstrap{
			MasterEmail:  os.Getenv("BOOTSTRAP_MASTER_EMAIL"),
			MasterSecret: os.Getenv("BOOTSTRAP_MASTER_SECRET"),
			SectorCode:   envString("BOOTSTRAP_SECTOR_CODE", "ADM"),
			SectorName:   envString("BOOTSTRAP_SECTOR_NAME", "Administration"),
		},
		OnboardingServiceToken: os.Getenv("ONBOARDING_SERVICE_TOKEN"),
	}

	if cfg.IsDevelopment() {
		if cfg.Auth.SigningKey == "" {
			cfg.Auth.SigningKey = devSigningKey
		}
		if cfg.Auth.RefreshSigningKey == "" {
			cfg.Auth.RefreshSigningKey = devRefreshSigningKey
		}
	}
	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error
	if c.Server.Env != EnvDevelopment && c.Server.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("GOVPORTAL_ENV must be %q or %q", EnvDevelopment, EnvProduction))
	}
	if len(c.Auth.SigningKey) < 32 {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be at least 32 bytes"))
	}
	if len(c.Auth.RefreshSigningKey) < 32 {
		errs = append(errs, errors.New("JWT_REFRESH_SIGNING_KEY must be at least 32 bytes"))
	}
	if c.Auth.SigningKey != "" && c.Auth.SigningKey == c.Auth.RefreshSigningKey {
		errs = append(errs, errors.New("access and refresh signing keys must differ"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL < c.Auth.AccessTTL {
		errs = append(errs, errors.New("token TTLs must be positive and refresh must outlive access"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.Database.Timeout <= 0 {
		errs = append(errs, errors.New("DB_TIMEOUT must be positive"))
	}
	if (c.Bootstrap.MasterEmail == "") != (c.Bootstrap.MasterSecret == "") {
		errs = append(errs, errors.New("BOOTSTRAP_MASTER_EMAIL and BOOTSTRAP_MASTER_SECRET must be set together"))
	}
	return errs
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envDuration(key string, def time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func envInt(key string, def int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func envFloat(key string, def float64, errs *[]error) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}
