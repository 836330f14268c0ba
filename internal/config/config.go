// Package config handles application configuration.
package config

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// Clerk Authentication
	ClerkIssuerURL     string // e.g., "https://xxx.clerk.accounts.dev"
	ClerkSecretKey     string // Clerk Backend API secret key (sk_xxx)
	ClerkWebhookSecret string // Svix signing secret for Clerk webhooks

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceIDPro    string // Price ID for the pro subscription

	// Journal encryption
	JournalSecret string // Secret the AES-256 key is derived from
	EncryptionKey []byte // 32-byte key for AES-256-GCM encryption

	// LLM companion backend
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// Speech services
	SpeechAPIKey  string
	SpeechBaseURL string

	// Spotify (companion music suggestions)
	SpotifyClientID     string
	SpotifyClientSecret string

	// CORS
	CORSOrigins []string

	// Object Storage (Tigris/S3-compatible) for voice audio
	StorageEnabled   bool
	StorageEndpoint  string // AWS_ENDPOINT_URL_S3 for Tigris
	StorageAccessKey string // AWS_ACCESS_KEY_ID
	StorageSecretKey string // AWS_SECRET_ACCESS_KEY
	StorageBucket    string // Bucket name (one per environment)
	StorageRegion    string // Region (auto for Tigris)

	// Plan limits
	Limits PlanLimits

	// Usage retention
	RetentionEnabled  bool
	RetentionPeriods  int           // Monthly periods of usage history to keep
	RetentionInterval time.Duration // How often the sweep runs

	// Worker
	WorkerPollInterval time.Duration

	// Entitlement cache
	EntitlementCacheTTL time.Duration

	// Idle shutdown settings (for scale-to-zero on Fly.io)
	IdleTimeout time.Duration // Time before shutting down when idle (0 = disabled)
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:kindred.db?_journal=WAL&_timeout=5000"),

		ClerkIssuerURL:     getEnv("CLERK_ISSUER_URL", ""),
		ClerkSecretKey:     getEnv("CLERK_SECRET_KEY", ""),
		ClerkWebhookSecret: getEnv("CLERK_WEBHOOK_SECRET", ""),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceIDPro:    getEnv("STRIPE_PRICE_ID_PRO", ""),

		JournalSecret: getEnv("JOURNAL_SECRET", ""),

		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:   getEnv("LLM_MODEL", "gpt-4o-mini"),

		SpeechAPIKey:  getEnv("SPEECH_API_KEY", ""),
		SpeechBaseURL: getEnv("SPEECH_BASE_URL", ""),

		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		// Object Storage (Tigris/S3-compatible) - uses Fly's standard env vars
		// BUCKET_NAME is set automatically by `fly storage create`
		StorageEndpoint:  getEnv("AWS_ENDPOINT_URL_S3", ""),
		StorageAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StorageBucket:    getEnvWithFallback("BUCKET_NAME", "STORAGE_BUCKET", ""),
		StorageRegion:    getEnv("AWS_REGION", "auto"),
	}

	cfg.StorageEnabled = cfg.StorageBucket != "" && cfg.StorageEndpoint != ""

	cfg.Limits = loadPlanLimits()

	// Retention sweep configuration
	cfg.RetentionEnabled = getEnvBool("RETENTION_ENABLED", true)
	cfg.RetentionPeriods = getEnvInt("RETENTION_PERIODS", 12)
	cfg.RetentionInterval = getEnvDuration("RETENTION_INTERVAL", 24*time.Hour)

	cfg.WorkerPollInterval = getEnvDuration("WORKER_POLL_INTERVAL", time.Minute)

	cfg.EntitlementCacheTTL = getEnvDuration("ENTITLEMENT_CACHE_TTL", time.Minute)

	// Idle shutdown configuration (for Fly.io scale-to-zero)
	cfg.IdleTimeout = getEnvDuration("IDLE_TIMEOUT", 0) // 0 = disabled

	if cfg.ClerkIssuerURL == "" {
		return nil, fmt.Errorf("CLERK_ISSUER_URL is required")
	}

	// Set up journal encryption key
	encKeyStr := getEnv("ENCRYPTION_KEY", "")
	switch {
	case encKeyStr != "":
		decoded, err := base64.StdEncoding.DecodeString(encKeyStr)
		if err != nil || len(decoded) != 32 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be a base64-encoded 32-byte key")
		}
		cfg.EncryptionKey = decoded
	case cfg.JournalSecret != "":
		cfg.EncryptionKey = deriveEncryptionKey(cfg.JournalSecret)
	default:
		return nil, fmt.Errorf("either ENCRYPTION_KEY or JOURNAL_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}

// deriveEncryptionKey creates a 32-byte AES-256 key from a secret string using HKDF.
// HKDF (HMAC-based Key Derivation Function) is appropriate for deriving keys from
// high-entropy secrets. For low-entropy passwords, use Argon2 instead.
func deriveEncryptionKey(secret string) []byte {
	salt := []byte("kindred-api-encryption-key-v1")
	info := []byte("aes-256-gcm-journal")

	hkdfReader := hkdf.New(sha256.New, []byte(secret), salt, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		panic("hkdf: failed to derive key: " + err.Error())
	}

	return key
}
