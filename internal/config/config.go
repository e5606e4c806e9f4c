package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, read from the environment.
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string
	RedisURL string

	JWTSecret string
	TokenTTL  time.Duration

	// SpecPath overrides the embedded assessment document when set.
	SpecPath string

	// OptionalUnanswered treats unanswered sections as excluded from the
	// overall denominator instead of scoring them as zero.
	OptionalUnanswered bool

	// Report spool directory and how long rendered files are kept.
	SpoolDir  string
	ReportTTL time.Duration

	SMTP SMTPConfig

	// Login attempts allowed per client per window.
	LoginRateMax    int
	LoginRateWindow time.Duration
}

// SMTPConfig holds outgoing mail settings. Mail is disabled when Host is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled returns true if an SMTP relay is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnvOrDefault("PORT", "8080"),
		MongoURI: getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnvOrDefault("MONGO_DB", "pmtctportal"),
		RedisURL: getEnvOrDefault("REDIS_URL", "localhost:6379"),

		JWTSecret: getEnvOrDefault("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 12*time.Hour),

		SpecPath:           os.Getenv("ASSESSMENT_SPEC_PATH"),
		OptionalUnanswered: getEnvBool("OPTIONAL_UNANSWERED", false),

		SpoolDir:  getEnvOrDefault("REPORT_SPOOL_DIR", os.TempDir()),
		ReportTTL: getEnvDuration("REPORT_TTL", time.Hour),

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnvOrDefault("SMTP_FROM", "noreply@pmtctportal.local"),
		},

		LoginRateMax:    getEnvInt("LOGIN_RATE_MAX", 10),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
