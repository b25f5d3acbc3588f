package config

import (
	"fmt"     // For DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort             string        // Application port
	DBDriver            string        // Database driver: mysql or postgres
	DBUser              string        // Database user
	DBPassword          string        // Database password
	DBHost              string        // Database host
	DBPort              string        // Database port
	DBName              string        // Database name
	JWTSecret           string        // Secret used to sign new tokens
	JWTPreviousSecrets  []string      // Retired secrets still accepted for verification
	TokenTTL            time.Duration // Validity window of issued tokens
	RedisAddr           string        // Redis server address
	RedisPass           string        // Redis password
	RedisDB             int           // Redis database number
	CacheTTL            time.Duration // TTL of cached task lists and profiles
	IsProd              bool          // Is production environment
	LogLevel            string        // logrus level name
	AuthRateLimit       float64       // Allowed /authenticate requests per second per client
	AuthRateBurst       int           // Burst size for /authenticate
	ReferralCodeLength  int           // Initial referral code length
	ReferralMaxAttempts int           // Reservation attempts per code length
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:             getEnv("APP_PORT", "3300"),
		DBDriver:            getEnv("DB_DRIVER", "mysql"),
		DBUser:              os.Getenv("DB_USER"),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBHost:              getEnv("DB_HOST", "127.0.0.1"),
		DBPort:              os.Getenv("DB_PORT"),
		DBName:              os.Getenv("DB_NAME"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTPreviousSecrets:  splitList(os.Getenv("JWT_PREVIOUS_SECRETS")),
		TokenTTL:            getDuration("TOKEN_TTL", time.Hour),
		RedisAddr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPass:           os.Getenv("REDIS_PASS"),
		RedisDB:             getInt("REDIS_DB", 0),
		CacheTTL:            getDuration("CACHE_TTL", 60*time.Second),
		IsProd:              os.Getenv("IS_PROD") == "true",
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		AuthRateLimit:       getFloat("AUTH_RATE_LIMIT", 5),
		AuthRateBurst:       getInt("AUTH_RATE_BURST", 10),
		ReferralCodeLength:  getInt("REFERRAL_CODE_LENGTH", 6),
		ReferralMaxAttempts: getInt("REFERRAL_MAX_ATTEMPTS", 8),
	}
}

// VerificationSecrets returns the signing secret followed by the retired ones
func (c *Config) VerificationSecrets() []string {
	return append([]string{c.JWTSecret}, c.JWTPreviousSecrets...)
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, port, c.DBUser, c.DBPassword, c.DBName)
	}
	port := c.DBPort
	if port == "" {
		port = "3306"
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// splitList parses a comma separated list, dropping blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
