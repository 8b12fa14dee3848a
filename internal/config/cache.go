package config

import "time"

// CacheConfig drives the response cache in front of the public slot
// calendar.  Entries are short-lived because every reservation changes
// availability.
type CacheConfig struct {
	Enabled      bool          // CACHE_ENABLED
	TTL          time.Duration // CACHE_TTL
	Prefix       string        // CACHE_PREFIX
	MaxBodyBytes int           // CACHE_MAX_BODY_BYTES; larger responses are not cached
}

func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 5*time.Second),
		Prefix:       getenv("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
