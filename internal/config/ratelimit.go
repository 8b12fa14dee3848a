package config

import "time"

// RateLimitConfig configures the Redis token bucket guarding the public
// reservation endpoint.
type RateLimitConfig struct {
	Enabled        bool          // RATE_LIMIT_ENABLED
	Capacity       int           // RATE_LIMIT_CAPACITY: bucket size
	RefillTokens   int           // RATE_LIMIT_REFILL_TOKENS per interval
	RefillInterval time.Duration // RATE_LIMIT_REFILL_INTERVAL
	TTL            time.Duration // RATE_LIMIT_TTL: idle bucket expiry
	KeyStrategy    string        // RATE_LIMIT_KEY_STRATEGY: ip, route, ip_route
	Prefix         string        // RATE_LIMIT_PREFIX
}

func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 30*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    getenv("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
	}
}
