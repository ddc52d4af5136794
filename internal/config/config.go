package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	// Database
	DatabaseURL  string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	QueryTimeout time.Duration
	StoreDriver  string

	// Redis (OTP store). Empty means in-process storage.
	RedisURL string

	// OTP simulation
	OTPTTL                     time.Duration
	OTPDemoMode                bool
	VerificationSecret         string
	VerificationTokenTTL       time.Duration
	RequireAadhaarVerification bool

	// Registration numbers
	RegistrationNumberPrefix      string
	RegistrationNumberMaxAttempts int
	RegistrationListLimit         int

	// Form schema artifact; empty uses the embedded copy.
	FormSchemaPath string

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string

	LogRetention time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", ""),
		DBName:       getEnv("DB_NAME", "udyam_db"),
		DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
		QueryTimeout: parseDuration(getEnv("DB_QUERY_TIMEOUT", "5s"), 5*time.Second),
		StoreDriver:  getEnv("STORE_DRIVER", StoreDriverPostgres),

		RedisURL: getEnv("REDIS_URL", ""),

		OTPTTL:                     parseDuration(getEnv("OTP_TTL", "5m"), 5*time.Minute),
		OTPDemoMode:                parseBool(getEnv("OTP_DEMO_MODE", "true"), true),
		VerificationSecret:         getEnv("VERIFICATION_SECRET", ""),
		VerificationTokenTTL:       parseDuration(getEnv("VERIFICATION_TOKEN_TTL", "15m"), 15*time.Minute),
		RequireAadhaarVerification: parseBool(getEnv("REQUIRE_AADHAAR_VERIFICATION", "false"), false),

		RegistrationNumberPrefix:      getEnv("REGISTRATION_NUMBER_PREFIX", "UDYAM"),
		RegistrationNumberMaxAttempts: parseInt(getEnv("REGISTRATION_NUMBER_MAX_ATTEMPTS", "10"), 10),
		RegistrationListLimit:         parseInt(getEnv("REGISTRATION_LIST_LIMIT", "100"), 100),

		FormSchemaPath: getEnv("FORM_SCHEMA_PATH", ""),

		Port:        getEnv("PORT", "5000"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		LogRetention: parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),
	}
}

// DSN prefers DATABASE_URL and otherwise assembles a key/value DSN.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func (c *Config) UsesDatabase() bool {
	return c.StoreDriver != StoreDriverMemory
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}
