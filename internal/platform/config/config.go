package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backend selection values.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	Storage           string // postgres | memory
	IsProduction      bool
	EnableDBCheck     bool
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Rate limits in ulule/limiter notation, e.g. "20-M" for 20/minute.
	AuthRateLimit    string
	WebhookRateLimit string

	// CORSAllowedOrigins lists the back-office frontend origins. Empty means
	// allow all, which is only acceptable outside production.
	CORSAllowedOrigins []string

	// HouseFallbackOnEmptyPool routes pool tips with no members to the house
	// account instead of rejecting them.
	HouseFallbackOnEmptyPool bool

	PosthogAPIKey string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("STORAGE", StoragePostgres)
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "12h")
	viper.SetDefault("JWT_ISSUER", "tipengine")
	viper.SetDefault("AUTH_RATE_LIMIT", "20-M")
	viper.SetDefault("WEBHOOK_RATE_LIMIT", "600-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")
	viper.SetDefault("HOUSE_FALLBACK_ON_EMPTY_POOL", false)
	viper.SetDefault("POSTHOG_API_KEY", "")

	// Environment variables override defaults and .env file values.
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	cfg.Storage = viper.GetString("STORAGE")
	if cfg.Storage != StoragePostgres && cfg.Storage != StorageMemory {
		log.Printf("Warning: Unknown STORAGE value %q. Defaulting to %s.\n", cfg.Storage, StoragePostgres)
		cfg.Storage = StoragePostgres
	}
	if cfg.Storage == StoragePostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	// JWT expiry covers a full double shift so staff stay signed in all day.
	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = 12 * time.Hour
		if jwtExpiryStr != "" {
			log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
		}
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration

	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "tipengine"
		log.Printf("Warning: JWT_ISSUER not set. Defaulting to %s.\n", cfg.JWTIssuer)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.AuthRateLimit = viper.GetString("AUTH_RATE_LIMIT")
	cfg.WebhookRateLimit = viper.GetString("WEBHOOK_RATE_LIMIT")

	if origins := viper.GetString("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = strings.Split(origins, ",")
	}
	if len(cfg.CORSAllowedOrigins) == 0 && cfg.IsProduction {
		log.Println("Warning: CORS_ALLOWED_ORIGINS not set in production. Allowing all origins.")
	}
	cfg.HouseFallbackOnEmptyPool = viper.GetBool("HOUSE_FALLBACK_ON_EMPTY_POOL")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	return cfg, nil
}
