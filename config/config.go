package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Engine    EngineConfig
	LLM       LLMConfig
	Telegram  TelegramConfig
	CORS      CORSConfig
}

// EngineConfig controls the multi-engine racing dispatcher.
type EngineConfig struct {
	// EnableMultiEngine toggles the multi-engine dispatcher. When off, every
	// fetch goes straight to the browser.
	EnableMultiEngine bool // default: true

	// EnableHTTP adds the plain HTTP tier in front of the browser tiers.
	EnableHTTP bool // default: true

	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s, 8s]

	// HTTPTimeout is the deadline for the pure HTTP engine.
	HTTPTimeout time.Duration // default: 5s

	// MemoryTTL is how long the winning engine is remembered per route.
	MemoryTTL time.Duration // default: 6h
}

// CacheConfig controls the listing cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached listing sets.
	MaxEntries int // default: 500

	// TTL is the age after which entries are swept regardless of max_age.
	TTL time.Duration // default: 1h
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// DefaultProxy is the proxy URL for browser and HTTP fetches.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// AcceptLanguage is sent with every fetch and decides the card locale.
	AcceptLanguage string // default: "en-US,en;q=0.9"
}

// ScraperConfig controls how a results page is loaded.
type ScraperConfig struct {
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout time.Duration // default: 45s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// FeedTimeout bounds the wait for the results feed to appear.
	FeedTimeout time.Duration // default: 15s

	// ScrollRounds is the default number of feed scrolls.
	ScrollRounds int // default: 10

	// ScrollPause is the pause between feed scrolls.
	ScrollPause time.Duration // default: 1200ms

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BatchConcurrency caps concurrent collections within one batch.
	BatchConcurrency int // default: 3
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// LLMConfig holds the server-side chat-completion defaults.
type LLMConfig struct {
	APIKey  string
	BaseURL string        // default: "https://api.mistral.ai/v1"
	Model   string        // default: "mistral-small-latest"
	Timeout time.Duration // default: 60s
}

// TelegramConfig holds the server-side bot defaults. Requests may override
// the credentials.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string        // default: "https://api.telegram.org"
	Timeout  time.Duration // default: 15s
}

// CORSConfig controls cross-origin access to the API.
type CORSConfig struct {
	AllowOrigins []string // default: ["*"]
	MaxAge       time.Duration
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}
	return fromEnv()
}

func fromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("MAPSCONTACTS_HOST", "0.0.0.0"),
			Port: envIntOr("MAPSCONTACTS_PORT", 8080),
			Mode: envOr("MAPSCONTACTS_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("MAPSCONTACTS_HEADLESS", true),
			MaxPages:       envIntOr("MAPSCONTACTS_MAX_PAGES", 4),
			DefaultProxy:   os.Getenv("MAPSCONTACTS_PROXY"),
			NoSandbox:      envBoolOr("MAPSCONTACTS_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("MAPSCONTACTS_BROWSER_BIN"),
			AcceptLanguage: envOr("MAPSCONTACTS_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
		},
		Scraper: ScraperConfig{
			DefaultTimeout: envDurationOr("MAPSCONTACTS_DEFAULT_TIMEOUT", 45*time.Second),
			MaxTimeout:     envDurationOr("MAPSCONTACTS_MAX_TIMEOUT", 120*time.Second),
			FeedTimeout:    envDurationOr("MAPSCONTACTS_FEED_TIMEOUT", 15*time.Second),
			ScrollRounds:   envIntOr("MAPSCONTACTS_SCROLL_ROUNDS", 10),
			ScrollPause:    envDurationOr("MAPSCONTACTS_SCROLL_PAUSE", 1200*time.Millisecond),
			BlockedResourceTypes: envSliceOr("MAPSCONTACTS_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BatchConcurrency: envIntOr("MAPSCONTACTS_BATCH_CONCURRENCY", 3),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("MAPSCONTACTS_AUTH_ENABLED", true),
			APIKeys: envSliceOr("MAPSCONTACTS_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("MAPSCONTACTS_RATE_RPS", 2.0),
			Burst:             envIntOr("MAPSCONTACTS_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("MAPSCONTACTS_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("MAPSCONTACTS_CACHE_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("MAPSCONTACTS_LOG_LEVEL", "info"),
			Format: envOr("MAPSCONTACTS_LOG_FORMAT", "json"),
		},
		Engine: EngineConfig{
			EnableMultiEngine: envBoolOr("MAPSCONTACTS_MULTI_ENGINE", true),
			EnableHTTP:        envBoolOr("MAPSCONTACTS_HTTP_ENGINE", true),
			EscalationDelays:  envDurationSliceOr("MAPSCONTACTS_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 8 * time.Second}),
			HTTPTimeout:       envDurationOr("MAPSCONTACTS_HTTP_TIMEOUT", 5*time.Second),
			MemoryTTL:         envDurationOr("MAPSCONTACTS_ENGINE_MEMORY_TTL", 6*time.Hour),
		},
		LLM: LLMConfig{
			APIKey:  os.Getenv("MAPSCONTACTS_LLM_API_KEY"),
			BaseURL: envOr("MAPSCONTACTS_LLM_BASE_URL", "https://api.mistral.ai/v1"),
			Model:   envOr("MAPSCONTACTS_LLM_MODEL", "mistral-small-latest"),
			Timeout: envDurationOr("MAPSCONTACTS_LLM_TIMEOUT", 60*time.Second),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("MAPSCONTACTS_TELEGRAM_BOT_TOKEN"),
			ChatID:   os.Getenv("MAPSCONTACTS_TELEGRAM_CHAT_ID"),
			BaseURL:  envOr("MAPSCONTACTS_TELEGRAM_BASE_URL", "https://api.telegram.org"),
			Timeout:  envDurationOr("MAPSCONTACTS_TELEGRAM_TIMEOUT", 15*time.Second),
		},
		CORS: CORSConfig{
			AllowOrigins: envSliceOr("MAPSCONTACTS_CORS_ORIGINS", []string{"*"}),
			MaxAge:       envDurationOr("MAPSCONTACTS_CORS_MAX_AGE", 12*time.Hour),
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
		var result []string
		for _, p := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

// envDurationSliceOr parses a comma-separated list of durations. Entries
// that do not parse are skipped; an all-invalid list yields fallback.
func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	var result []time.Duration
	for _, s := range envSliceOr(key, nil) {
		if d, err := time.ParseDuration(s); err == nil {
			result = append(result, d)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
