// Package config loads application configuration from environment
// variables.  A .env file, when present, is loaded by main before Load
// runs.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // VENUE_TIMEZONE must resolve on hosts without zoneinfo
)

// Store drivers.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.
type Config struct {
	Env         string // APP_ENV: dev, test, prod
	Port        string // APP_PORT
	LogLevel    string // LOG_LEVEL
	StoreDriver string // STORE_DRIVER: mysql (default) or memory
	JWTSecret   string // JWT_SECRET, shared with the auth service

	DB DBConfig

	VenueName     string         // VENUE_NAME, shown in emails
	VenueTimezone string         // VENUE_TIMEZONE
	Location      *time.Location // resolved VenueTimezone
	MaxPerDay     int            // QUOTA_MAX_PER_DAY
	DashboardURL  string         // DASHBOARD_URL, linked from staff emails

	RabbitURL  string // RABBITMQ_URL; empty sends emails inline
	EmailQueue string // EMAIL_QUEUE

	MailerSendAPIKey string // MAILERSEND_API_KEY; empty logs emails instead
	MailFrom         string // MAILERSEND_EMAIL
	MailFromName     string // MAILERSEND_FROM_NAME

	RealtimeChannel string // REALTIME_CHANNEL

	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// DBConfig is the MySQL connection and transaction configuration.
type DBConfig struct {
	User      string // DB_USER
	Pass      string // DB_PASS (empty allowed)
	Host      string // DB_HOST
	Port      string // DB_PORT
	Name      string // DB_NAME
	Migrate   bool   // DB_MIGRATE: apply the embedded schema on start
	TxRetries int    // DB_TX_RETRIES: re-runs after deadlock or lock timeout
}

// Load reads the environment.  Every missing required variable is
// reported in the returned error.
func Load() (Config, error) {
	var missing []string
	must := func(key string) string {
		v := getenv(key, "")
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Env:         getenv("APP_ENV", "dev"),
		Port:        getenv("APP_PORT", "8080"),
		LogLevel:    getenv("LOG_LEVEL", ""),
		StoreDriver: strings.ToLower(getenv("STORE_DRIVER", DriverMySQL)),
		JWTSecret:   must("JWT_SECRET"),

		VenueName:     getenv("VENUE_NAME", "The Room"),
		VenueTimezone: getenv("VENUE_TIMEZONE", "Africa/Tunis"),
		MaxPerDay:     envInt("QUOTA_MAX_PER_DAY", 3),
		DashboardURL:  getenv("DASHBOARD_URL", ""),

		RabbitURL:  firstNonEmpty(getenv("RABBITMQ_URL", ""), getenv("AMQP_URL", "")),
		EmailQueue: getenv("EMAIL_QUEUE", "reservation.emails"),

		MailerSendAPIKey: getenv("MAILERSEND_API_KEY", ""),
		MailFrom:         getenv("MAILERSEND_EMAIL", ""),
		MailFromName:     getenv("MAILERSEND_FROM_NAME", "The Room"),

		RealtimeChannel: getenv("REALTIME_CHANNEL", "notifications"),

		Redis:     LoadRedisConfig(),
		Cache:     LoadCacheConfig(),
		RateLimit: LoadRateLimitConfig(),
	}

	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DB = DBConfig{
			User:      must("DB_USER"),
			Pass:      getenv("DB_PASS", ""),
			Host:      must("DB_HOST"),
			Port:      getenv("DB_PORT", "3306"),
			Name:      must("DB_NAME"),
			Migrate:   envBool("DB_MIGRATE", false),
			TxRetries: envInt("DB_TX_RETRIES", 3),
		}
	case DriverMemory:
	default:
		return cfg, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.MailerSendAPIKey != "" && cfg.MailFrom == "" {
		missing = append(missing, "MAILERSEND_EMAIL")
	}
	if len(missing) > 0 {
		return cfg, errors.New("missing required env vars: " + strings.Join(missing, ", "))
	}

	loc, err := time.LoadLocation(cfg.VenueTimezone)
	if err != nil {
		return cfg, fmt.Errorf("invalid VENUE_TIMEZONE %q: %w", cfg.VenueTimezone, err)
	}
	cfg.Location = loc
	return cfg, nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
