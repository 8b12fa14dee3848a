package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into a case.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "APP_PORT", "LOG_LEVEL", "STORE_DRIVER", "JWT_SECRET",
		"DB_USER", "DB_PASS", "DB_HOST", "DB_PORT", "DB_NAME", "DB_MIGRATE", "DB_TX_RETRIES",
		"VENUE_NAME", "VENUE_TIMEZONE", "QUOTA_MAX_PER_DAY", "DASHBOARD_URL",
		"RABBITMQ_URL", "AMQP_URL", "EMAIL_QUEUE",
		"MAILERSEND_API_KEY", "MAILERSEND_EMAIL", "MAILERSEND_FROM_NAME",
		"REALTIME_CHANNEL", "REDIS_ADDR", "REDIS_HOST", "REDIS_PORT",
		"CACHE_ENABLED", "CACHE_TTL", "RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_MemoryDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "Memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.MaxPerDay)
	assert.Equal(t, "reservation.emails", cfg.EmailQueue)
	assert.Equal(t, "notifications", cfg.RealtimeChannel)
	require.NotNil(t, cfg.Location)
	assert.Equal(t, "Africa/Tunis", cfg.Location.String())
	assert.Empty(t, cfg.DB.User)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ReportsEveryMissingVar(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	for _, k := range []string{"JWT_SECRET", "DB_USER", "DB_HOST", "DB_NAME"} {
		assert.Contains(t, err.Error(), k)
	}
}

func TestLoad_MySQL(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_USER", "room")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "booking")
	t.Setenv("DB_MIGRATE", "yes")
	t.Setenv("DB_TX_RETRIES", "5")
	t.Setenv("APP_ENV", "prod")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DBConfig{User: "room", Host: "db", Port: "3306", Name: "booking", Migrate: true, TxRetries: 5}, cfg.DB)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_UnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("VENUE_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VENUE_TIMEZONE")
}

func TestLoad_AMQPFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AMQP_URL", "amqp://guest:guest@mq:5672/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.RabbitURL)

	t.Setenv("RABBITMQ_URL", "amqp://primary/")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "amqp://primary/", cfg.RabbitURL)
}

func TestLoad_MailerSendNeedsSender(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("MAILERSEND_API_KEY", "key")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAILERSEND_EMAIL")

	t.Setenv("MAILERSEND_EMAIL", "booking@theroom.example")
	_, err = Load()
	require.NoError(t, err)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "90s")
	t.Setenv("X_STR", "  padded  ")

	assert.False(t, envBool("X_BOOL", true))
	assert.True(t, envBool("X_UNSET_BOOL", true))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, 90*time.Second, envDur("X_DUR", time.Second))
	assert.Equal(t, "padded", getenv("X_STR", ""))
}

func TestLoadRedisConfig_HostPortOverride(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")

	assert.Equal(t, "redis:6380", LoadRedisConfig().Addr)
}

func TestLoadSubConfigs_Defaults(t *testing.T) {
	clearEnv(t)

	c := LoadCacheConfig()
	assert.True(t, c.Enabled)
	assert.Equal(t, 5*time.Second, c.TTL)

	rl := LoadRateLimitConfig()
	assert.True(t, rl.Enabled)
	assert.Equal(t, 10, rl.Capacity)
	assert.Equal(t, "ip_route", rl.KeyStrategy)
}
