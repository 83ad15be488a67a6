package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ExecutionMode tells the crawler whether browser launches are worth
// attempting at all. It is resolved once at startup and passed in
// explicitly; nothing below main reads the environment for it.
type ExecutionMode string

const (
	// ModeUnrestricted allows real browser launches.
	ModeUnrestricted ExecutionMode = "unrestricted"

	// ModeRestricted marks a hosted serverless sandbox where launches
	// are known to fail; crawls short-circuit to mock results.
	ModeRestricted ExecutionMode = "restricted"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Crawl     CrawlConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls browser provisioning.
type BrowserConfig struct {
	// BrowserBin overrides executable resolution with an explicit path.
	BrowserBin string

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// ViewportWidth / ViewportHeight set the fixed page viewport.
	ViewportWidth  int // default: 1280
	ViewportHeight int // default: 800
}

// CrawlConfig controls crawl behavior and timeouts.
type CrawlConfig struct {
	// Mode is the execution mode resolved at startup.
	Mode ExecutionMode

	// NavigationTimeout bounds navigation plus network quiescence.
	// Constrained deployments should lower this to ~15s.
	NavigationTimeout time.Duration // default: 30s

	// SelectorTimeout is the per-candidate deadline of the
	// results-ready selector race.
	SelectorTimeout time.Duration // default: 5s

	// ChallengeWait is how long to pause for out-of-band resolution
	// after a bot challenge is detected.
	ChallengeWait time.Duration // default: 60s

	// SettleDelay is the pause after auto-scrolling, letting lazy
	// content finish rendering before the screenshot.
	SettleDelay time.Duration // default: 1s

	// RequestTimeout is the caller-side deadline raced against the
	// whole crawl call.
	RequestTimeout time.Duration // default: 60s

	// SimulateTyping drives the engine's own search box (focus, typed
	// characters, submit) instead of navigating straight to the
	// results URL, on profiles that support it.
	SimulateTyping bool // default: false

	// ScreenshotQuality is the JPEG quality (1-100).
	ScreenshotQuality int // default: 40
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per identity.
	Burst int // default: 5
}

// CacheConfig controls the per-engine result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached engine results.
	MaxEntries int // default: 500

	// MaxAge is how long a cached result stays fresh. Zero disables caching.
	MaxAge time.Duration // default: 0 (disabled)
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SERPCRAWL_HOST", "0.0.0.0"),
			Port: envIntOr("SERPCRAWL_PORT", 8080),
			Mode: envOr("SERPCRAWL_MODE", "release"),
		},
		Browser: BrowserConfig{
			BrowserBin:     os.Getenv("SERPCRAWL_BROWSER_BIN"),
			Headless:       envBoolOr("SERPCRAWL_HEADLESS", true),
			ViewportWidth:  envIntOr("SERPCRAWL_VIEWPORT_WIDTH", 1280),
			ViewportHeight: envIntOr("SERPCRAWL_VIEWPORT_HEIGHT", 800),
		},
		Crawl: CrawlConfig{
			Mode:              DetectExecutionMode(),
			NavigationTimeout: envDurationOr("SERPCRAWL_NAV_TIMEOUT", 30*time.Second),
			SelectorTimeout:   envDurationOr("SERPCRAWL_SELECTOR_TIMEOUT", 5*time.Second),
			ChallengeWait:     envDurationOr("SERPCRAWL_CHALLENGE_WAIT", 60*time.Second),
			SettleDelay:       envDurationOr("SERPCRAWL_SETTLE_DELAY", time.Second),
			RequestTimeout:    envDurationOr("SERPCRAWL_REQUEST_TIMEOUT", 60*time.Second),
			SimulateTyping:    envBoolOr("SERPCRAWL_SIMULATE_TYPING", false),
			ScreenshotQuality: envIntOr("SERPCRAWL_SCREENSHOT_QUALITY", 40),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SERPCRAWL_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SERPCRAWL_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SERPCRAWL_RATE_RPS", 2.0),
			Burst:             envIntOr("SERPCRAWL_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SERPCRAWL_CACHE_MAX_ENTRIES", 500),
			MaxAge:     envDurationOr("SERPCRAWL_CACHE_MAX_AGE", 0),
		},
		Log: LogConfig{
			Level:  envOr("SERPCRAWL_LOG_LEVEL", "info"),
			Format: envOr("SERPCRAWL_LOG_FORMAT", "json"),
		},
	}
}

// DetectExecutionMode inspects the hosting platform's environment
// signals once, at startup. SERPCRAWL_FORCE_MOCK overrides for local
// testing of the degraded path.
func DetectExecutionMode() ExecutionMode {
	if envBoolOr("SERPCRAWL_FORCE_MOCK", false) {
		return ModeRestricted
	}
	if os.Getenv("VERCEL") != "" || os.Getenv("AWS_LAMBDA_FUNCTION_VERSION") != "" {
		return ModeRestricted
	}
	return ModeUnrestricted
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
