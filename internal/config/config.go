package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	Port     string // HTTP port to listen on
	LogLevel string // debug | info | warn | error

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret  string        // secret used to sign access tokens (HS256)
	AccessTTL  time.Duration // access token lifetime
	RefreshTTL time.Duration // refresh token lifetime
	BcryptCost int           // bcrypt cost for password hashing

	// ReaperInterval enables periodic purging of expired refresh tokens
	// when positive. Zero keeps every record as an audit trail.
	ReaperInterval time.Duration
}

// JWTConfig is the slice of configuration the token issuer and verifier
// need. It is passed explicitly at construction; nothing reads the secret
// from a package variable.
type JWTConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// JWT returns the token settings derived from c.
func (c Config) JWT() JWTConfig {
	return JWTConfig{
		Secret:     []byte(c.JWTSecret),
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
	}
}

// Load reads an optional .env file and then the environment. Required
// variables are enforced by must() and missing values cause the program to
// exit with a fatal log message.
func Load() Config {
	// .env is a development convenience; its absence is not an error.
	_ = godotenv.Load()

	return Config{
		Env:      getenv("APP_ENV", "dev"),
		Port:     must("APP_PORT"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: must("DB_HOST"),
		DBPort: getenv("DB_PORT", "3306"),
		DBName: must("DB_NAME"),

		JWTSecret:  must("JWT_SECRET"),
		AccessTTL:  envDur("ACCESS_TOKEN_TTL", 5*time.Minute),
		RefreshTTL: envDur("REFRESH_TOKEN_TTL", 6*730*time.Hour), // ~6 months
		BcryptCost: envInt("BCRYPT_COST", 12),

		ReaperInterval: envDur("REAPER_INTERVAL", 0),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
