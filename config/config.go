package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Browser   BrowserConfig
	Collector CollectorConfig
	Export    ExportConfig
	API       APIConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// WebhookConfig controls end-of-run notifications.
type WebhookConfig struct {
	// URL receives a run.completed/run.faulted POST when set.
	URL string

	// Secret signs the payload with HMAC-SHA256 when set.
	Secret string
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL for all requests.
	Proxy string

	// Stealth toggles stealth JS injection before navigation.
	Stealth bool // default: true

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 30s
}

// CollectorConfig controls the collection loop.
type CollectorConfig struct {
	// MaxStimuli bounds the number of scroll stimuli per run.
	MaxStimuli int // default: 30

	// MaxStall is the stall-increment threshold that exhausts the page.
	MaxStall int // default: 3

	// StallWindow is the consecutive-unchanged-extent window counted as
	// one stall increment.
	StallWindow int // default: 2

	// StimulusInterval is the base pacing between stimuli.
	StimulusInterval time.Duration // default: 2s

	// JitterMax bounds the random extra wait added to each interval.
	JitterMax time.Duration // default: 1s

	// IncrementLogDir overrides the increment log directory. Empty means
	// the XDG data directory.
	IncrementLogDir string
}

// ExportConfig controls output file locations.
type ExportConfig struct {
	// OutputDir is where CSV/JSONL exports and reports are written.
	OutputDir string // default: "out"
}

// APIConfig controls the run-monitor HTTP server.
type APIConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:          envBoolOr("PRICEPIVOT_HEADLESS", true),
			NoSandbox:         envBoolOr("PRICEPIVOT_NO_SANDBOX", false),
			BrowserBin:        os.Getenv("PRICEPIVOT_BROWSER_BIN"),
			Proxy:             os.Getenv("PRICEPIVOT_PROXY"),
			Stealth:           envBoolOr("PRICEPIVOT_STEALTH", true),
			NavigationTimeout: envDurationOr("PRICEPIVOT_NAV_TIMEOUT", 30*time.Second),
		},
		Collector: CollectorConfig{
			MaxStimuli:       envIntOr("PRICEPIVOT_MAX_STIMULI", 30),
			MaxStall:         envIntOr("PRICEPIVOT_MAX_STALL", 3),
			StallWindow:      envIntOr("PRICEPIVOT_STALL_WINDOW", 2),
			StimulusInterval: envDurationOr("PRICEPIVOT_STIMULUS_INTERVAL", 2*time.Second),
			JitterMax:        envDurationOr("PRICEPIVOT_JITTER_MAX", time.Second),
			IncrementLogDir:  os.Getenv("PRICEPIVOT_INCREMENT_DIR"),
		},
		Export: ExportConfig{
			OutputDir: envOr("PRICEPIVOT_OUTPUT_DIR", "out"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("PRICEPIVOT_WEBHOOK_URL"),
			Secret: os.Getenv("PRICEPIVOT_WEBHOOK_SECRET"),
		},
		API: APIConfig{
			Host: envOr("PRICEPIVOT_HOST", "0.0.0.0"),
			Port: envIntOr("PRICEPIVOT_PORT", 8080),
			Mode: envOr("PRICEPIVOT_MODE", "release"),
		},
		Log: LogConfig{
			Level:  envOr("PRICEPIVOT_LOG_LEVEL", "info"),
			Format: envOr("PRICEPIVOT_LOG_FORMAT", "text"),
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
