package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AuthSecret string // Required: HMAC secret for verifying bearer tokens
	AuthIssuer string // Optional: issuer claim expected on tokens (default: provision)

	LinkTemplate string // Required: base URL acceptance links are built from

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./provision.db)
	InviteExpiryDays    int           // Optional: invite token lifetime in days (default: 7)
	MailMode            string        // Optional: mail dispatch mode (log, smtp) (default: log)
	SMTPHost            string        // Required when MailMode=smtp
	SMTPPort            int           // Optional: SMTP port (default: 587)
	SMTPUser            string        // Optional: SMTP auth username
	SMTPPassword        string        // Optional: SMTP auth password
	MailFrom            string        // Optional: From address on invitation emails
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	AuditRetention       time.Duration // Audit event retention (default: 90 days)
}

func LoadConfig() Config {
	cfg := Config{
		AuthSecret:           os.Getenv("PROVISION_AUTH_SECRET"),
		AuthIssuer:           getEnvOrDefault("PROVISION_AUTH_ISSUER", "provision"),
		LinkTemplate:         os.Getenv("PROVISION_LINK_TEMPLATE"),
		DatabaseFile:         getEnvOrDefault("PROVISION_DATABASE_FILE", "provision.db"),
		InviteExpiryDays:     getEnvIntOrDefault("PROVISION_INVITE_EXPIRY_DAYS", 7),
		MailMode:             getEnvOrDefault("PROVISION_MAIL_MODE", "log"),
		SMTPHost:             os.Getenv("PROVISION_SMTP_HOST"),
		SMTPPort:             getEnvIntOrDefault("PROVISION_SMTP_PORT", 587),
		SMTPUser:             os.Getenv("PROVISION_SMTP_USER"),
		SMTPPassword:         os.Getenv("PROVISION_SMTP_PASSWORD"),
		MailFrom:             getEnvOrDefault("PROVISION_MAIL_FROM", "no-reply@localhost"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		AuditRetention:       getEnvDurationOrDefault("PROVISION_AUDIT_RETENTION", 90*24*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Duration strings first (e.g. "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Fall back to integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
