// Package config loads service configuration from environment variables so
// main stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures the full runtime configuration.
type Server struct {
	Addr string `env:"IR_GATEWAY_ADDR" envDefault:":8080"`

	// DatabaseURL selects the PostgreSQL applicant store. Empty keeps the
	// in-memory store, which is enough for local development.
	DatabaseURL string `env:"IR_GATEWAY_DATABASE_URL"`

	Redis      RedisConfig
	Generation GenerationConfig
	Mail       MailConfig
	Invite     InviteConfig
}

// RedisConfig configures the optional Redis client used for the generation
// provider cooldown cache.
type RedisConfig struct {
	URL          string        `env:"IR_GATEWAY_REDIS_URL"`
	PoolSize     int           `env:"IR_GATEWAY_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"IR_GATEWAY_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"IR_GATEWAY_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"IR_GATEWAY_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"IR_GATEWAY_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// GenerationConfig configures the style-adaptation providers. An empty APIKey
// disables generation entirely; composition degrades to the literal template.
type GenerationConfig struct {
	APIKey        string        `env:"IR_GATEWAY_GENERATION_API_KEY"`
	ResponsesURL  string        `env:"IR_GATEWAY_GENERATION_URL" envDefault:"https://api.openai.com/v1/responses"`
	PrimaryModel  string        `env:"IR_GATEWAY_GENERATION_PRIMARY_MODEL" envDefault:"gpt-4o-mini"`
	FallbackModel string        `env:"IR_GATEWAY_GENERATION_FALLBACK_MODEL" envDefault:"gpt-4o"`
	Timeout       time.Duration `env:"IR_GATEWAY_GENERATION_TIMEOUT" envDefault:"5s"`
	CooldownTTL   time.Duration `env:"IR_GATEWAY_GENERATION_COOLDOWN_TTL" envDefault:"30s"`
}

// MailConfig configures the delivery provider.
type MailConfig struct {
	APIURL      string        `env:"IR_GATEWAY_MAIL_API_URL" envDefault:"https://api.sendgrid.com/v3/mail/send"`
	APIKey      string        `env:"IR_GATEWAY_MAIL_API_KEY"`
	FromAddress string        `env:"IR_GATEWAY_MAIL_FROM" envDefault:"investor-relations@example.com"`
	FromName    string        `env:"IR_GATEWAY_MAIL_FROM_NAME" envDefault:"Investor Relations"`
	ReplyTo     string        `env:"IR_GATEWAY_MAIL_REPLY_TO"`
	Timeout     time.Duration `env:"IR_GATEWAY_MAIL_TIMEOUT" envDefault:"10s"`
}

// InviteConfig configures invitation links and token signing.
type InviteConfig struct {
	// PublicBaseURL is the externally reachable base for tracking endpoints.
	PublicBaseURL string `env:"IR_GATEWAY_PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	// RegistrationBaseURL is where claimed-account registration happens.
	RegistrationBaseURL string `env:"IR_GATEWAY_REGISTRATION_BASE_URL" envDefault:"http://localhost:3000/register"`
	// TokenSigningKey signs registration-link and tracking tokens.
	TokenSigningKey string        `env:"IR_GATEWAY_TOKEN_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Validity        time.Duration `env:"IR_GATEWAY_INVITE_VALIDITY" envDefault:"720h"`
}

// FromEnv builds a Server config from environment variables.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
