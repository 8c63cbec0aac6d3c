package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// MaxCredentials is the number of numbered credential slots recognized in
// the environment (GOOGLE_SEARCH_API_KEY1..6 on top of the unnumbered key).
const MaxCredentials = 7

// Duration is a time.Duration that decodes from TOML strings like "30s" or
// "24h". go-toml cannot unmarshal a TOML string into time.Duration
// directly, so config fields use this wrapper and unwrap with Std at
// wiring time.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Watchlist   WatchlistConfig `toml:"watchlist"`
	Search      SearchConfig    `toml:"search"`
	Cache       CacheConfig     `toml:"cache"`
	Fetcher     FetcherConfig   `toml:"fetcher"`
	Artifacts   ArtifactsConfig `toml:"artifacts"`
	Reports     ReportsConfig   `toml:"reports"`
	Schedule    ScheduleConfig  `toml:"schedule"`
	Logging     LoggingConfig   `toml:"logging"`
}

// WatchlistConfig controls watchlist loading and validation.
type WatchlistConfig struct {
	Path     string `toml:"path" validate:"required"` // CSV file of 代號,名稱 rows
	Validate bool   `toml:"validate"`                 // Enforce watchlist membership in the scorer (off for backtests)
}

// SearchConfig contains Google Custom Search credentials and driver behavior.
type SearchConfig struct {
	APIKeys         []string `toml:"api_keys"` // Ordered credential keys; env vars take precedence
	CSEIDs          []string `toml:"cse_ids"`  // Matching engine IDs; reused cyclically when fewer than keys
	RatePerSecond   float64  `toml:"rate_per_second" validate:"gt=0"`
	DailyQuota      int      `toml:"daily_quota"` // Informational soft limit per credential
	MinQuality      int      `toml:"min_quality" validate:"gte=0,lte=10"`
	DesiredCount    int      `toml:"desired_count" validate:"gt=0"` // Accepted artifacts per company before moving on
	TopHitsPerQuery int      `toml:"top_hits_per_query" validate:"gt=0"`
	RequestTimeout  Duration `toml:"request_timeout"`
	BackoffInitial  Duration `toml:"backoff_initial"`
	BackoffMax      Duration `toml:"backoff_max"`
	CatalogPath     string   `toml:"catalog_path"` // Optional catalog.yaml overriding the built-in query templates
	ProgressPath    string   `toml:"progress_path"`
}

// CacheConfig controls the on-disk search response cache.
type CacheConfig struct {
	Dir    string   `toml:"dir"`
	MaxAge Duration `toml:"max_age"`
}

// FetcherConfig controls candidate article fetching.
type FetcherConfig struct {
	UserAgent   string   `toml:"user_agent"`
	Timeout     Duration `toml:"timeout"`
	MaxBodySize int      `toml:"max_body_size"`
	ConvertHTML bool     `toml:"convert_html"` // Convert HTML bodies to markdown before storage
}

// ArtifactsConfig controls the artifact store.
type ArtifactsConfig struct {
	Dir string `toml:"dir" validate:"required"`
}

// ReportsConfig controls aggregated report output.
type ReportsConfig struct {
	Dir             string `toml:"dir"`
	ArtifactBaseURL string `toml:"artifact_base_url"` // Public URL prefix for artifact links in the detailed report
}

// ScheduleConfig controls the cron-driven collect+report loop.
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"` // Standard 5-field cron expression
}

// LoggingConfig controls arbor logger output.
type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings belong in factwatch.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Watchlist: WatchlistConfig{
			Path:     "./watchlist.csv",
			Validate: true,
		},
		Search: SearchConfig{
			RatePerSecond:   1.0,
			DailyQuota:      100,
			MinQuality:      3,
			DesiredCount:    3,
			TopHitsPerQuery: 5,
			RequestTimeout:  Duration(30 * time.Second),
			BackoffInitial:  Duration(60 * time.Second),
			BackoffMax:      Duration(300 * time.Second),
			ProgressPath:    "./data/progress.json",
		},
		Cache: CacheConfig{
			Dir:    "./data/cache",
			MaxAge: Duration(24 * time.Hour),
		},
		Fetcher: FetcherConfig{
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Timeout:     Duration(10 * time.Second),
			MaxBodySize: 5 * 1024 * 1024, // 5MB
			ConvertHTML: false,
		},
		Artifacts: ArtifactsConfig{
			Dir: "./data/md",
		},
		Reports: ReportsConfig{
			Dir: "./data/reports",
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 7 * * *", // Daily at 07:00
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FACTWATCH_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Search credentials: GOOGLE_SEARCH_API_KEY plus numbered slots 1..6.
	// Environment credentials replace any file-configured set entirely.
	if envKeys := credentialsFromEnv("GOOGLE_SEARCH_API_KEY"); len(envKeys) > 0 {
		config.Search.APIKeys = envKeys
	}
	if envIDs := credentialsFromEnv("GOOGLE_SEARCH_CSE_ID"); len(envIDs) > 0 {
		config.Search.CSEIDs = envIDs
	}

	if v := os.Getenv("SEARCH_RATE_LIMIT_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Search.RatePerSecond = f
		}
	}
	if v := os.Getenv("SEARCH_DAILY_QUOTA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Search.DailyQuota = n
		}
	}
	if v := os.Getenv("MIN_QUALITY_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Search.MinQuality = n
		}
	}

	// Path overrides
	if v := os.Getenv("FACTWATCH_WATCHLIST_PATH"); v != "" {
		config.Watchlist.Path = v
	}
	if v := os.Getenv("FACTWATCH_WATCHLIST_VALIDATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Watchlist.Validate = b
		}
	}
	if v := os.Getenv("FACTWATCH_ARTIFACTS_DIR"); v != "" {
		config.Artifacts.Dir = v
	}
	if v := os.Getenv("FACTWATCH_CACHE_DIR"); v != "" {
		config.Cache.Dir = v
	}
	if v := os.Getenv("FACTWATCH_REPORTS_DIR"); v != "" {
		config.Reports.Dir = v
	}

	// Logging configuration
	if level := os.Getenv("FACTWATCH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("FACTWATCH_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// credentialsFromEnv collects PREFIX, PREFIX1, PREFIX2, ... in slot order.
// The unnumbered variable is slot 0; a gap in the numbered slots ends the scan.
func credentialsFromEnv(prefix string) []string {
	var values []string
	if v := os.Getenv(prefix); v != "" {
		values = append(values, v)
	}
	for i := 1; i < MaxCredentials; i++ {
		v := os.Getenv(fmt.Sprintf("%s%d", prefix, i))
		if v == "" {
			break
		}
		values = append(values, v)
	}
	return values
}

// Validate checks the configuration for fatal startup errors. Missing
// credentials or watchlist path stop the process before any pipeline work.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if len(c.Search.APIKeys) == 0 {
		return fmt.Errorf("no search credentials configured: set GOOGLE_SEARCH_API_KEY")
	}
	if len(c.Search.CSEIDs) == 0 {
		return fmt.Errorf("no search engine IDs configured: set GOOGLE_SEARCH_CSE_ID")
	}

	return nil
}
