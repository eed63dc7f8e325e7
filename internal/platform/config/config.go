// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full gateway configuration. Optional backing services left
// unset fall back to in-memory implementations so a bare `opsdash` binary
// still starts for local development.
type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	Identity Identity
	Database Database
	Redis    Redis
	Audit    Audit
	Push     Push
	Session  Session
}

// Identity configures the hosted identity provider.
type Identity struct {
	BaseURL string        `envconfig:"IDENTITY_URL"`
	APIKey  string        `envconfig:"IDENTITY_API_KEY"`
	Timeout time.Duration `envconfig:"IDENTITY_HTTP_TIMEOUT" default:"10s"`

	// JWTSecret enables HS256 verification of provider access tokens.
	JWTSecret string `envconfig:"IDENTITY_JWT_SECRET"`
	// WebhookSecret gates the provider event webhook when set.
	WebhookSecret string `envconfig:"IDENTITY_WEBHOOK_SECRET"`
}

// Database configures the profile store. Empty URL selects the in-memory
// store.
type Database struct {
	URL string `envconfig:"DATABASE_URL"`
}

// Redis configures the tab-state store. Empty URL selects the in-memory
// store.
type Redis struct {
	URL string `envconfig:"REDIS_URL"`
}

// Audit configures the audit sink. With brokers set, events are published to
// Kafka; with a database URL set they are appended to Postgres; otherwise
// they are kept in memory.
type Audit struct {
	Brokers []string `envconfig:"AUDIT_KAFKA_BROKERS"`
	Topic   string   `envconfig:"AUDIT_KAFKA_TOPIC" default:"opsdash.audit.session"`
}

// Push configures the push-subscription trigger webhook. Empty URL disables
// the trigger.
type Push struct {
	WebhookURL string        `envconfig:"PUSH_WEBHOOK_URL"`
	Timeout    time.Duration `envconfig:"PUSH_TIMEOUT" default:"5s"`
}

// Session holds the lifecycle engine budgets. Defaults match product
// behavior; tests compress them.
type Session struct {
	MFATimeout      time.Duration `envconfig:"SESSION_MFA_TIMEOUT" default:"5s"`
	LivenessTimeout time.Duration `envconfig:"SESSION_LIVENESS_TIMEOUT" default:"3s"`
	DeletionTimeout time.Duration `envconfig:"SESSION_DELETION_TIMEOUT" default:"3s"`
	RetryInitial    time.Duration `envconfig:"SESSION_RETRY_INITIAL" default:"2s"`
	RetryInterval   time.Duration `envconfig:"SESSION_RETRY_INTERVAL" default:"10s"`
	RetryMax        int           `envconfig:"SESSION_RETRY_MAX" default:"5"`
}

// Load reads configuration from OPSDASH_* environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("opsdash", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
