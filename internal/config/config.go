package config

import (
	"os"
	"strconv"

	"fitcoach-service/internal/pkg/jwt"
)

type AppConfig struct {
	// Server
	HTTPAddr  string
	RedisAddr string
	RedisPass string

	// JWT (verify-only; tokens are issued by the identity provider)
	JWT jwt.Config

	// Stripe
	StripeAPIKey        string
	StripeWebhookSecret string
	PriceStarter        string
	PricePro            string
	PriceElite          string

	// Checkout
	TrialDays          int64
	CheckoutSuccessURL string
	CheckoutCancelURL  string
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8000"),
		RedisAddr: getEnv("REDIS_ADDR", "redis-fitcoach:6379"),
		RedisPass: getEnv("REDIS_PASS", ""),

		JWT: jwt.Config{
			PubPath:  getEnv("JWT_PUBLIC_KEY_PATH", "/app/secrets/jwt_public.pem"),
			Issuer:   getEnv("JWT_ISSUER", "fitcoach-identity"),
			Audience: getEnv("JWT_AUDIENCE", "fitcoach-users"),
		},

		StripeAPIKey:        getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		PriceStarter:        getEnv("STRIPE_PRICE_STARTER", ""),
		PricePro:            getEnv("STRIPE_PRICE_PRO", ""),
		PriceElite:          getEnv("STRIPE_PRICE_ELITE", ""),

		TrialDays:          getEnvInt64("TRIAL_PERIOD_DAYS", 14),
		CheckoutSuccessURL: getEnv("CHECKOUT_SUCCESS_URL", "https://app.fitcoach.example/billing/success"),
		CheckoutCancelURL:  getEnv("CHECKOUT_CANCEL_URL", "https://app.fitcoach.example/billing/cancel"),
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
