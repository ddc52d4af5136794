package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "DB_QUERY_TIMEOUT", "REGISTRATION_NUMBER_MAX_ATTEMPTS", "DATABASE_URL", "OTP_DEMO_MODE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.True(t, cfg.UsesDatabase())
	assert.Equal(t, 5*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 10, cfg.RegistrationNumberMaxAttempts)
	assert.Equal(t, 100, cfg.RegistrationListLimit)
	assert.Equal(t, "UDYAM", cfg.RegistrationNumberPrefix)
	assert.True(t, cfg.OTPDemoMode)
	assert.False(t, cfg.RequireAadhaarVerification)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DB_QUERY_TIMEOUT", "250ms")
	t.Setenv("REGISTRATION_NUMBER_MAX_ATTEMPTS", "3")
	t.Setenv("OTP_DEMO_MODE", "false")
	t.Setenv("REGISTRATION_LIST_LIMIT", "not-a-number")

	cfg := Load()

	assert.False(t, cfg.UsesDatabase())
	assert.Equal(t, 250*time.Millisecond, cfg.QueryTimeout)
	assert.Equal(t, 3, cfg.RegistrationNumberMaxAttempts)
	assert.False(t, cfg.OTPDemoMode)
	assert.Equal(t, 100, cfg.RegistrationListLimit, "invalid values fall back to defaults")
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())

	cfg.DatabaseURL = "postgres://u:p@db:5432/n"
	assert.Equal(t, "postgres://u:p@db:5432/n", cfg.DSN())
}
