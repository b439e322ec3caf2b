package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// isolate points HOME at a temp dir and clears key overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{"QUICKFILL_OUO_API_KEY", "OUO_API_KEY", "TMDB_API_KEY", "OMDB_API_KEY"} {
		t.Setenv(name, "")
	}
	return home
}

func writeConfig(t *testing.T, home, body string) {
	t.Helper()
	dir := filepath.Join(home, ".quickfill")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	want := &Config{
		DefaultResolution:          "720p",
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

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("DefaultConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigPath(t *testing.T) {
	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() error = %v, want nil", err)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("ConfigPath() = %v, want absolute path", path)
	}
	if filepath.Base(filepath.Dir(path)) != ".quickfill" {
		t.Errorf("ConfigPath() = %v, want path containing .quickfill directory", path)
	}
	if filepath.Base(path) != "config.json" {
		t.Errorf("ConfigPath() = %v, want path ending with config.json", path)
	}
}

func TestLoad(t *testing.T) {
	t.Run("MissingFileYieldsDefaults", func(t *testing.T) {
		isolate(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("PartialFileKeepsExplicitFalse", func(t *testing.T) {
		home := isolate(t)
		writeConfig(t, home, `{
			"default_resolution": "480p",
			"inherit_context": false,
			"title_suffix": "",
			"shorten_hosts": ["Terabox"],
			"log_retention_days": 60
		}`)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		want := DefaultConfig()
		want.DefaultResolution = "480p"
		want.InheritContext = false
		want.TitleSuffix = ""
		want.ShortenHosts = []string{"Terabox"}
		want.LogRetentionDays = 60
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		home := isolate(t)
		writeConfig(t, home, `{invalid json}`)

		if _, err := Load(); err == nil {
			t.Error("Load() with invalid JSON error = nil, want error")
		}
	})

	t.Run("EnvironmentOverridesKeys", func(t *testing.T) {
		home := isolate(t)
		writeConfig(t, home, `{"ouo_api_key": "from-file", "tmdb_api_key": "file-tmdb"}`)
		t.Setenv("OUO_API_KEY", "legacy")
		t.Setenv("QUICKFILL_OUO_API_KEY", "preferred")
		t.Setenv("OMDB_API_KEY", "env-omdb")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.OuoAPIKey != "preferred" {
			t.Errorf("OuoAPIKey = %q, want preferred", cfg.OuoAPIKey)
		}
		if cfg.TMDBAPIKey != "file-tmdb" {
			t.Errorf("TMDBAPIKey = %q, want file-tmdb", cfg.TMDBAPIKey)
		}
		if cfg.OMDBAPIKey != "env-omdb" {
			t.Errorf("OMDBAPIKey = %q, want env-omdb", cfg.OMDBAPIKey)
		}
	})
}

func TestSave(t *testing.T) {
	home := isolate(t)

	cfg := DefaultConfig()
	cfg.OutputDir = "out"
	cfg.ShortenHosts = []string{"Terabox", "Gofile"}
	cfg.EnableLogging = false

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v, want nil", err)
	}

	data, err := os.ReadFile(filepath.Join(home, ".quickfill", "config.json"))
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}
	var saved Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Failed to parse saved config: %v", err)
	}
	if diff := cmp.Diff(cfg, &saved); diff != "" {
		t.Errorf("Saved config mismatch (-want +got):\n%s", diff)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() after Save() error = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("Load() after Save() mismatch (-want +got):\n%s", diff)
	}
}

func TestDerivedOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultResolution = "1080p"
	cfg.InheritContext = false
	cfg.ShortenHosts = []string{"Terabox"}
	cfg.ShortenThrottleMs = 0

	popts := cfg.ParserOptions()
	if popts.DefaultResolution != "1080p" || popts.InheritContext {
		t.Errorf("ParserOptions() = %+v, want 1080p without inheritance", popts)
	}
	if diff := cmp.Diff([]string{"720p", "1080p"}, popts.MovieRoundRobinResolutions); diff != "" {
		t.Errorf("ParserOptions() cycle mismatch (-want +got):\n%s", diff)
	}

	sopts := cfg.ScriptOptions()
	if sopts.Subbed != "Sub" || sopts.TitleSuffix != "Subtitle Indonesia" {
		t.Errorf("ScriptOptions() = %+v", sopts)
	}
	if diff := cmp.Diff([]string{"Terabox"}, sopts.ShortenHosts); diff != "" {
		t.Errorf("ScriptOptions() hosts mismatch (-want +got):\n%s", diff)
	}

	shopts := cfg.ShortenerOptions()
	if shopts.Timeout != 10*time.Second || shopts.Throttle != 0 || shopts.CacheTTL != 168*time.Hour {
		t.Errorf("ShortenerOptions() = timeout %v throttle %v ttl %v", shopts.Timeout, shopts.Throttle, shopts.CacheTTL)
	}
}
