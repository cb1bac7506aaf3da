// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port       string
	LogLevel   string
	DB         PostgresConfig
	Stripe     StripeConfig
	ElevenLabs ElevenLabsConfig
	Storage    StorageConfig
	OpenAI     OpenAIConfig
	PostHog    PostHogConfig
	Frontend   FrontendConfig
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
	Database string
	SSLMode  string
}

type StripeConfig struct {
	SecretKey      string
	WebhookSecret  string
	PriceIDWeekend string
	PriceIDMonthly string
	PriceIDAnnual  string
}

type ElevenLabsConfig struct {
	APIKey        string
	BaseURL       string
	VoiceIDFemale string
	VoiceIDMale   string
}

type StorageConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	PublicURL string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type PostHogConfig struct {
	APIKey string
	Host   string
}

type FrontendConfig struct {
	URL              string
	RevalidateSecret string
}

// DSN builds the Postgres connection string.
func (p PostgresConfig) DSN() string {
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.Username,
		p.Password,
		p.URL,
		p.Port,
		p.Database,
		sslmode,
	)
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:     envOr("PORT", "8080"),
		LogLevel: envOr("LOG_LEVEL", "info"),
		DB: PostgresConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PWD"),
			URL:      os.Getenv("POSTGRES_URL"),
			Port:     envOr("POSTGRES_PORT", "5432"),
			Database: envOr("POSTGRES_DB", "bedtijd"),
			SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
		},
		Stripe: StripeConfig{
			SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceIDWeekend: os.Getenv("STRIPE_PRICE_WEEKEND"),
			PriceIDMonthly: os.Getenv("STRIPE_PRICE_MONTHLY"),
			PriceIDAnnual:  os.Getenv("STRIPE_PRICE_ANNUAL"),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:        os.Getenv("ELEVENLABS_API_KEY"),
			BaseURL:       envOr("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
			VoiceIDFemale: os.Getenv("EL_VOICE_FEMALE"),
			VoiceIDMale:   os.Getenv("EL_VOICE_MALE"),
		},
		Storage: StorageConfig{
			Bucket:    os.Getenv("STORAGE_BUCKET"),
			Region:    envOr("STORAGE_REGION", "auto"),
			Endpoint:  os.Getenv("STORAGE_ENDPOINT"),
			PublicURL: strings.TrimRight(os.Getenv("STORAGE_PUBLIC_URL"), "/"),
		},
		OpenAI: OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  envOr("OPENAI_MODEL", "gpt-4o-mini"),
		},
		PostHog: PostHogConfig{
			APIKey: os.Getenv("POSTHOG_API_KEY"),
			Host:   envOr("POSTHOG_HOST", "https://app.posthog.com"),
		},
		Frontend: FrontendConfig{
			URL:              strings.TrimRight(os.Getenv("FRONTEND_URL"), "/"),
			RevalidateSecret: os.Getenv("REVALIDATE_SECRET"),
		},
	}

	return cfg, nil
}

// Validate checks the settings the workflows cannot run without. Optional
// integrations (PostHog, revalidation) degrade to no-ops instead.
func (c *Config) Validate() error {
	var missing []string
	if c.DB.Username == "" || c.DB.URL == "" {
		missing = append(missing, "POSTGRES_USER/POSTGRES_URL")
	}
	if c.Stripe.SecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.Stripe.WebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if c.ElevenLabs.APIKey == "" {
		missing = append(missing, "ELEVENLABS_API_KEY")
	}
	if c.ElevenLabs.VoiceIDFemale == "" {
		missing = append(missing, "EL_VOICE_FEMALE")
	}
	if c.Storage.Bucket == "" {
		missing = append(missing, "STORAGE_BUCKET")
	}
	if len(missing) > 0 {
		return errors.New("missing required config: " + strings.Join(missing, ", "))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
