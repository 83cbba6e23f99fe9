package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds everything read from the environment at startup.
// The commission rate is read once here and snapshotted into each
// transaction at creation, so changing the env var never rewrites history.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	PaystackSecretKey string
	PaystackBaseURL   string
	ProviderTimeout   time.Duration

	CommissionRate float64
	// How long funds sit in a wallet's pending bucket before the
	// release sweep promotes them to available.
	ReleaseWindow time.Duration

	ResendAPIKey string
	FromEmail    string
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		ProviderTimeout:   getDuration("PAYMENT_PROVIDER_TIMEOUT", 15*time.Second),
		CommissionRate:    getFloat("PLATFORM_COMMISSION_RATE", 0.10),
		ReleaseWindow:     getDuration("PENDING_RELEASE_WINDOW", 72*time.Hour),
		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		FromEmail:         getEnv("FROM_EMAIL", "notifications@fixly.app"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
