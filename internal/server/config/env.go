package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from environment variables, first loading
// a .env file from the working directory when one exists. Unset variables
// leave the current value untouched.
//
// Recognized variables: ADDRESS, DATABASE_URL, SECRET_KEY, SESSION_TTL
// (Go duration string), BCRYPT_COST, CORS_ORIGIN.
func parseEnv(config *Config) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	if v := os.Getenv("ADDRESS"); v != "" {
		config.EndpointAddrHTTP = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.SessionTTL = d
		}
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = n
		}
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		config.CORSOrigin = v
	}
}
