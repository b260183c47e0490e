package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	LimitsFile string // optional path to limits.yaml overriding widget limits

	SweepInterval  time.Duration // interval between cleanup sweeps (default: 24h)
	SweepRetention time.Duration // idle time before a widget is purged (default: 8760h)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	TrustProxy bool // true => trust X-Forwarded-For headers (e.g. cloudflared)

	// Rate limiting, per client IP
	RateLimitRequests int           // requests per window (0 = disabled)
	RateLimitWindow   time.Duration // window size (ex: 1m)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("EMBEDKIT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("EMBEDKIT_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("EMBEDKIT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("EMBEDKIT_PRETTY_LOG", true),

		// Widget limits
		LimitsFile: getenv("EMBEDKIT_LIMITS_FILE", ""), // Optional, empty = built-in limits

		// Cleanup sweep
		SweepInterval:  mustDuration("EMBEDKIT_SWEEP_INTERVAL", 24*time.Hour),
		SweepRetention: mustDuration("EMBEDKIT_SWEEP_RETENTION", 365*24*time.Hour),

		// Redis settings
		RedisAddr:             requireEnv("EMBEDKIT_REDIS_ADDR"),
		RedisUser:             getenv("EMBEDKIT_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("EMBEDKIT_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("EMBEDKIT_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("EMBEDKIT_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		TrustProxy: mustBool("EMBEDKIT_TRUST_PROXY", true),

		// Rate limiting
		RateLimitRequests: getenvInt("EMBEDKIT_RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   mustDuration("EMBEDKIT_RATE_LIMIT_WINDOW", time.Minute),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: EMBEDKIT_REDIS_PASSWORD is required when EMBEDKIT_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
