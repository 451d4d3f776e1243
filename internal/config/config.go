// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; when empty the service falls back to in-memory stores.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to a PEM file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to a PEM file.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim stamped on issued tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim stamped on issued tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTExpiresIn is the session token lifetime (e.g. "1h").
	JWTExpiresIn string `mapstructure:"JWT_EXPIRES_IN"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// MaxSessions is the per-account concurrent session ceiling; default 3.
	MaxSessions int `mapstructure:"MAX_SESSIONS"`

	// KafkaBrokers is a comma-separated list of broker addresses (e.g. "localhost:9092").
	// When empty, lifecycle events are disabled.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// LoginTopic is the Kafka topic user_login events are published to.
	LoginTopic string `mapstructure:"KAFKA_LOGIN_TOPIC"`
	// LogoutTopic is the Kafka topic user_logout and user_logout_all events are published to.
	LogoutTopic string `mapstructure:"KAFKA_LOGOUT_TOPIC"`
	// KafkaGroupID is the consumer group ID for the event worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext OTLP connection regardless of the endpoint scheme.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_ISSUER", "auth-session-service")
	v.SetDefault("JWT_AUDIENCE", "auth-session-clients")
	v.SetDefault("JWT_EXPIRES_IN", "1h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("MAX_SESSIONS", 3)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_LOGIN_TOPIC", "login")
	v.SetDefault("KAFKA_LOGOUT_TOPIC", "logout")
	v.SetDefault("KAFKA_GROUP_ID", "auth-consumer-group")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.MaxSessions < 1 {
		return nil, errors.New("config: MAX_SESSIONS must be at least 1")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.LoginTopic == "" || cfg.LogoutTopic == "" {
		return nil, errors.New("config: KAFKA_LOGIN_TOPIC and KAFKA_LOGOUT_TOPIC must be set")
	}

	return &cfg, nil
}

// TokenTTL parses JWTExpiresIn as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTExpiresIn)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// KafkaBrokersList returns broker addresses from the comma-separated config.
// Used to decide if event emission is enabled (non-empty list) and to create the writer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
