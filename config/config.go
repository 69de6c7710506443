package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Gate      GateConfig
	Districts DistrictConfig
	Auth      AuthConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// CORSOrigins restricts cross-origin callers. Empty allows any origin.
	CORSOrigins []string
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserAgent overrides the browser user agent for registry requests.
	UserAgent string
}

// ScraperConfig controls the retry-governed form interaction.
type ScraperConfig struct {
	// InquiryURL is the registry's inquiry form.
	InquiryURL string // default: https://www.elections.eg/inquiry

	// MaxRetries is the number of attempts per lookup.
	MaxRetries int // default: 3

	// RetryBaseDelay is the base of the exponential backoff between
	// attempts: attempt n waits RetryBaseDelay * 2^(n-2).
	RetryBaseDelay time.Duration // default: 2s

	// NavigationSettle is the fixed wait after navigation before the form
	// is touched.
	NavigationSettle time.Duration // default: 2s

	// ElementWait is the budget for locating the frame, input and submit
	// control.
	ElementWait time.Duration // default: 15s

	// SubmitSettle is the fixed wait after clicking submit.
	SubmitSettle time.Duration // default: 3s

	// ResultWait is the best-effort budget for a result phrase to appear.
	ResultWait time.Duration // default: 10s

	// DefaultTimeout bounds a whole lookup (all retries) when the caller
	// supplies none. MaxTimeout caps caller-supplied values.
	DefaultTimeout time.Duration // default: 30s
	MaxTimeout     time.Duration // default: 120s

	// PaceInterval spaces navigations to the registry; the original tool
	// slept between requests for the same reason.
	PaceInterval time.Duration // default: 1s
}

// GateConfig controls admission at the service boundary.
type GateConfig struct {
	// MaxConcurrent is the permit pool capacity: how many lookups may use
	// the browser at once.
	MaxConcurrent int // default: 3

	// Quota is the per-identity request allowance within Window.
	Quota  int           // default: 1000
	Window time.Duration // default: 60s

	// RedisAddr switches the rate window to Redis when set (multi-instance
	// deployments). Empty means in-process.
	RedisAddr     string
	RedisPassword string
}

// DistrictConfig is the jurisdiction allow-list.
type DistrictConfig struct {
	// Allowed lists the sections whose records are returned in full.
	Allowed []string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// CacheConfig controls the lookup result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached lookups. 0 disables.
	MaxEntries int // default: 10000

	// TTL is how long a cached lookup stays valid.
	TTL time.Duration // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// defaultDistricts are the Port Said sections the service was built for.
var defaultDistricts = []string{
	"قسم الشرق",
	"قسم العرب",
	"قسم الضواحى",
	"قسم أول بورفؤاد",
	"قسم ثان بورفؤاد",
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        envOr("VOTER_HOST", "0.0.0.0"),
			Port:        envIntOr("VOTER_PORT", 8080),
			Mode:        envOr("VOTER_MODE", "release"),
			CORSOrigins: envSliceOr("VOTER_CORS_ORIGINS", nil),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("VOTER_HEADLESS", true),
			NoSandbox:  envBoolOr("VOTER_NO_SANDBOX", false),
			BrowserBin: os.Getenv("VOTER_BROWSER_BIN"),
			UserAgent:  os.Getenv("VOTER_USER_AGENT"),
		},
		Scraper: ScraperConfig{
			InquiryURL:       envOr("VOTER_INQUIRY_URL", "https://www.elections.eg/inquiry"),
			MaxRetries:       envIntOr("VOTER_MAX_RETRIES", 3),
			RetryBaseDelay:   envDurationOr("VOTER_RETRY_BASE_DELAY", 2*time.Second),
			NavigationSettle: envDurationOr("VOTER_NAV_SETTLE", 2*time.Second),
			ElementWait:      envDurationOr("VOTER_ELEMENT_WAIT", 15*time.Second),
			SubmitSettle:     envDurationOr("VOTER_SUBMIT_SETTLE", 3*time.Second),
			ResultWait:       envDurationOr("VOTER_RESULT_WAIT", 10*time.Second),
			DefaultTimeout:   envDurationOr("VOTER_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:       envDurationOr("VOTER_MAX_TIMEOUT", 120*time.Second),
			PaceInterval:     envDurationOr("VOTER_PACE_INTERVAL", time.Second),
		},
		Gate: GateConfig{
			MaxConcurrent: envIntOr("VOTER_MAX_CONCURRENT", 3),
			Quota:         envIntOr("VOTER_RATE_QUOTA", 1000),
			Window:        envDurationOr("VOTER_RATE_WINDOW", 60*time.Second),
			RedisAddr:     os.Getenv("VOTER_REDIS_ADDR"),
			RedisPassword: os.Getenv("VOTER_REDIS_PASSWORD"),
		},
		Districts: DistrictConfig{
			Allowed: envSliceOr("VOTER_ALLOWED_DISTRICTS", defaultDistricts),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("VOTER_AUTH_ENABLED", false),
			APIKeys: envSliceOr("VOTER_API_KEYS", nil),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("VOTER_CACHE_MAX_ENTRIES", 10000),
			TTL:        envDurationOr("VOTER_CACHE_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("VOTER_LOG_LEVEL", "info"),
			Format: envOr("VOTER_LOG_FORMAT", "json"),
		},
	}
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
