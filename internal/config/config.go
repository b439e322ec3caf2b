package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Digital-Shane/quickfill/internal/quickfill"
	"github.com/Digital-Shane/quickfill/internal/script"
	"github.com/Digital-Shane/quickfill/internal/shortener"
)

// Config holds parser policies, script output settings and the keys of
// the remote services.
type Config struct {
	// Parser policies
	DefaultResolution          string   `json:"default_resolution"`
	InheritContext             bool     `json:"inherit_context"`
	AnchorProvider             string   `json:"anchor_provider"`
	DedupeEmbedHosts           []string `json:"dedupe_embed_hosts"`
	MovieRoundRobinProvider    string   `json:"movie_round_robin_provider"`
	MovieRoundRobinResolutions []string `json:"movie_round_robin_resolutions"`

	// Script output
	Subbed         string   `json:"subbed"`
	TitleSuffix    string   `json:"title_suffix"`
	ShortenHosts   []string `json:"shorten_hosts"`
	OutputDir      string   `json:"output_dir"`
	ScriptFilename string   `json:"script_filename"`

	// Shortener
	OuoAPIKey             string `json:"ouo_api_key"`
	ShortenTimeoutSeconds int    `json:"shorten_timeout_seconds"`
	ShortenThrottleMs     int    `json:"shorten_throttle_ms"`
	ShortenCacheHours     int    `json:"shorten_cache_hours"`

	// Metadata lookup
	EnableMetadataLookup bool   `json:"enable_metadata_lookup"`
	TMDBAPIKey           string `json:"tmdb_api_key"`
	OMDBAPIKey           string `json:"omdb_api_key"`
	MetadataWorkerCount  int    `json:"metadata_worker_count"`

	// Logging
	EnableLogging    bool   `json:"enable_logging"`
	LogRetentionDays int    `json:"log_retention_days"`
	LogLevel         string `json:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultResolution:          quickfill.DefaultResolution,
		InheritContext:             true,
		AnchorProvider:             "Mirrored",
		DedupeEmbedHosts:           []string{"FileMoon"},
		MovieRoundRobinProvider:    "Terabox",
		MovieRoundRobinResolutions: []string{"720p", "1080p"},
		Subbed:                     "Sub",
		TitleSuffix:                "Subtitle Indonesia",
		ShortenHosts:               []string{},
		OutputDir:                  "quickfill_scripts",
		ScriptFilename:             "quickfill_{series}_E{episode}.js",
		ShortenTimeoutSeconds:      10,
		ShortenThrottleMs:          500,
		ShortenCacheHours:          168,
		MetadataWorkerCount:        4,
		EnableLogging:              true,
		LogRetentionDays:           30,
		LogLevel:                   "warn",
	}
}

// Dir returns the directory holding the config, the logs and the
// shortener cache.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".quickfill"), nil
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ShortenerCachePath returns where memoized short links are persisted.
func ShortenerCachePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "shortlinks.gob"), nil
}

// Load reads the configuration from disk, then applies environment
// overrides. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.fillDefaults(data)
	cfg.applyEnv()
	return &cfg, nil
}

// fillDefaults fills fields missing from the file. Booleans are only
// defaulted when their key is absent, since false is a valid setting.
func (cfg *Config) fillDefaults(data []byte) {
	defaults := DefaultConfig()
	if cfg.DefaultResolution == "" {
		cfg.DefaultResolution = defaults.DefaultResolution
	}
	if cfg.AnchorProvider == "" {
		cfg.AnchorProvider = defaults.AnchorProvider
	}
	if cfg.DedupeEmbedHosts == nil {
		cfg.DedupeEmbedHosts = defaults.DedupeEmbedHosts
	}
	if cfg.MovieRoundRobinProvider == "" {
		cfg.MovieRoundRobinProvider = defaults.MovieRoundRobinProvider
	}
	if len(cfg.MovieRoundRobinResolutions) == 0 {
		cfg.MovieRoundRobinResolutions = defaults.MovieRoundRobinResolutions
	}
	if cfg.Subbed == "" {
		cfg.Subbed = defaults.Subbed
	}
	if cfg.ShortenHosts == nil {
		cfg.ShortenHosts = defaults.ShortenHosts
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaults.OutputDir
	}
	if cfg.ScriptFilename == "" {
		cfg.ScriptFilename = defaults.ScriptFilename
	}
	if cfg.ShortenTimeoutSeconds == 0 {
		cfg.ShortenTimeoutSeconds = defaults.ShortenTimeoutSeconds
	}
	if cfg.ShortenCacheHours == 0 {
		cfg.ShortenCacheHours = defaults.ShortenCacheHours
	}
	if cfg.MetadataWorkerCount == 0 {
		cfg.MetadataWorkerCount = defaults.MetadataWorkerCount
	}
	if cfg.LogRetentionDays == 0 {
		cfg.LogRetentionDays = defaults.LogRetentionDays
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return
	}
	if _, ok := present["inherit_context"]; !ok {
		cfg.InheritContext = defaults.InheritContext
	}
	if _, ok := present["enable_logging"]; !ok {
		cfg.EnableLogging = defaults.EnableLogging
	}
	if _, ok := present["shorten_throttle_ms"]; !ok {
		cfg.ShortenThrottleMs = defaults.ShortenThrottleMs
	}
	if _, ok := present["title_suffix"]; !ok {
		cfg.TitleSuffix = defaults.TitleSuffix
	}
}

func (cfg *Config) applyEnv() {
	if v := firstEnv("QUICKFILL_OUO_API_KEY", "OUO_API_KEY"); v != "" {
		cfg.OuoAPIKey = v
	}
	if v := firstEnv("TMDB_API_KEY"); v != "" {
		cfg.TMDBAPIKey = v
	}
	if v := firstEnv("OMDB_API_KEY"); v != "" {
		cfg.OMDBAPIKey = v
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// Save writes the configuration to disk
func (cfg *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ParserOptions maps the parser policies into quickfill options.
func (cfg *Config) ParserOptions() quickfill.Options {
	opts := quickfill.DefaultOptions()
	opts.DefaultResolution = cfg.DefaultResolution
	opts.InheritContext = cfg.InheritContext
	opts.AnchorProvider = cfg.AnchorProvider
	opts.DedupeEmbedHosts = append([]string(nil), cfg.DedupeEmbedHosts...)
	opts.MovieRoundRobinProvider = cfg.MovieRoundRobinProvider
	opts.MovieRoundRobinResolutions = append([]string(nil), cfg.MovieRoundRobinResolutions...)
	return opts
}

// ScriptOptions returns the emitter options. The shortener is left for
// the caller to attach.
func (cfg *Config) ScriptOptions() script.Options {
	return script.Options{
		Subbed:       cfg.Subbed,
		TitleSuffix:  cfg.TitleSuffix,
		ShortenHosts: append([]string(nil), cfg.ShortenHosts...),
	}
}

// ShortenerOptions returns the shortener client options.
func (cfg *Config) ShortenerOptions() shortener.Options {
	opts := shortener.DefaultOptions(cfg.OuoAPIKey)
	opts.Timeout = time.Duration(cfg.ShortenTimeoutSeconds) * time.Second
	opts.Throttle = time.Duration(cfg.ShortenThrottleMs) * time.Millisecond
	opts.CacheTTL = time.Duration(cfg.ShortenCacheHours) * time.Hour
	return opts
}
