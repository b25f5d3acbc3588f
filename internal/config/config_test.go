package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "DB_DRIVER", "TOKEN_TTL", "CACHE_TTL", "REFERRAL_CODE_LENGTH", "REFERRAL_MAX_ATTEMPTS", "JWT_PREVIOUS_SECRETS", "AUTH_RATE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "3300", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, 6, cfg.ReferralCodeLength)
	assert.Equal(t, 8, cfg.ReferralMaxAttempts)
	assert.Equal(t, 5.0, cfg.AuthRateLimit)
	assert.Empty(t, cfg.JWTPreviousSecrets)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "current")
	t.Setenv("JWT_PREVIOUS_SECRETS", "old-1, ,old-2")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("IS_PROD", "true")

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, []string{"old-1", "old-2"}, cfg.JWTPreviousSecrets)
	assert.Equal(t, []string{"current", "old-1", "old-2"}, cfg.VerificationSecrets())
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.IsProd)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "db", DBName: "rewards"}
	assert.Equal(t, "u:p@tcp(db:3306)/rewards?parseTime=true", cfg.DSN())

	cfg.DBDriver = "postgres"
	cfg.DBPort = "6543"
	assert.Equal(t, "host=db port=6543 user=u password=p dbname=rewards sslmode=disable", cfg.DSN())
}
