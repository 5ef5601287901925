// Package config loads dexlabel's TOML configuration.
//
// A missing file is not an error: every field has a default, and a file only
// needs to name the values it changes.
package config

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/youruser/dexlabel/internal/util"
)

// DefaultPath is where the commands look for a config file.
const DefaultPath = "dexlabel.toml"

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config is the top-level configuration.
type Config struct {
	API    APIConfig    `toml:"api"`
	Assets AssetsConfig `toml:"assets"`
	Fonts  FontsConfig  `toml:"fonts"`
	Cry    CryConfig    `toml:"cry"`
	Output OutputConfig `toml:"output"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// APIConfig points at the creature data service.
type APIConfig struct {
	// BaseURL is the API root; creature records live at {base}/pokemon/{slug}.
	BaseURL string `toml:"base_url"`
	// TimeoutSeconds bounds each request attempt.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// Retries is how many times a failed request is retried.
	Retries int `toml:"retries"`
}

// AssetsConfig controls image loading.
type AssetsConfig struct {
	// BadgeBase is a directory or URL holding <type>.png badges. Empty draws
	// the badges instead.
	BadgeBase string `toml:"badge_base"`
	// TimeoutSeconds bounds each image load.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// Retries is how many times a failed image download is retried.
	Retries int `toml:"retries"`
}

// FontsConfig names optional TTF, OTF or WOFF2 files. Empty uses Go fonts.
type FontsConfig struct {
	Regular string `toml:"regular"`
	Bold    string `toml:"bold"`
	Italic  string `toml:"italic"`
}

// CryConfig locates the cry audio the QR code links to.
type CryConfig struct {
	// URL is a template; {name} is replaced by the lower-cased name.
	URL string `toml:"url"`
}

// OutputConfig controls where the CLI writes labels.
type OutputConfig struct {
	Dir string `toml:"dir"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `toml:"port"`
	// Mode is the gin mode: debug, release or test.
	Mode string `toml:"mode"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// File, when set, receives logs with size-based rotation.
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Timeout returns the per-request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Timeout returns the per-image timeout.
func (a AssetsConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Addr is the listen address for the server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://pokeapi.co/api/v2",
			TimeoutSeconds: 10,
			Retries:        2,
		},
		Assets: AssetsConfig{
			TimeoutSeconds: 15,
			Retries:        1,
		},
		Cry: CryConfig{
			URL: "https://play.pokemonshowdown.com/audio/cries/{name}.mp3",
		},
		Output: OutputConfig{
			Dir: "labels",
		},
		Server: ServerConfig{
			Port: 8080,
			Mode: "release",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads the configuration at path over the defaults. If the file doesn't
// exist, returns DefaultConfig.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parse config: unknown keys %s", strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Encode writes the config as TOML.
func (c *Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Save writes the config to disk as TOML using an atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return err
	}
	return util.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if err := validateHTTPURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be > 0, got %d", c.API.TimeoutSeconds)
	}
	if c.API.Retries < 0 || c.API.Retries > 10 {
		return fmt.Errorf("api.retries must be between 0 and 10, got %d", c.API.Retries)
	}

	if c.Assets.TimeoutSeconds <= 0 {
		return fmt.Errorf("assets.timeout_seconds must be > 0, got %d", c.Assets.TimeoutSeconds)
	}
	if c.Assets.Retries < 0 || c.Assets.Retries > 10 {
		return fmt.Errorf("assets.retries must be between 0 and 10, got %d", c.Assets.Retries)
	}

	if !strings.Contains(c.Cry.URL, "{name}") {
		return fmt.Errorf("invalid cry.url %q: must contain {name}", c.Cry.URL)
	}
	if err := validateHTTPURL("cry.url", c.Cry.URL); err != nil {
		return err
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server.mode %q: must be debug, release, or test", c.Server.Mode)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(strings.ReplaceAll(raw, "{name}", "x"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an http or https URL", field, raw)
	}
	return nil
}
