package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	// JWTSecret is the shared secret of the external identity provider.
	// This service only validates tokens; it never issues them.
	JWTSecret string

	TrialPeriod time.Duration

	Paddle WebhookConfig
	Fondy  WebhookConfig
	Stripe WebhookConfig
}

type WebhookConfig struct {
	Secret string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	trialPeriod, err := time.ParseDuration(getEnv("TRIAL_PERIOD", "336h"))
	if err != nil {
		trialPeriod = 14 * 24 * time.Hour
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnvOrPanic("JWT_SECRET"),

		TrialPeriod: trialPeriod,

		Paddle: WebhookConfig{Secret: getEnv("PADDLE_WEBHOOK_SECRET", "")},
		Fondy:  WebhookConfig{Secret: getEnv("FONDY_WEBHOOK_SECRET", "")},
		Stripe: WebhookConfig{Secret: getEnv("STRIPE_WEBHOOK_SECRET", "")},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
