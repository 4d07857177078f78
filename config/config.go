// Package config provides configuration loading for lookup using TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Wiktionary endpoints
type Wiktionary struct {
	APIURL    string `toml:"apiURL"`    // parse API; the escaped page name is appended
	PageURL   string `toml:"pageURL"`   // canonical page prefix
	SearchURL string `toml:"searchURL"` // opensearch API; the escaped query is appended
}

// HTTP fetching settings
type Fetcher struct {
	UserAgent       string `toml:"userAgent"`
	TimeoutSeconds  int    `toml:"timeoutSeconds"`
	ChromePath      string `toml:"chromePath"`
	BrowserFallback bool   `toml:"browserFallback"`
}

// History settings
type History struct {
	Size int `toml:"size"`
}

// Rendering settings
type Rendering struct {
	DefaultWidth int `toml:"defaultWidth"`
}

// Settings storage
type Settings struct {
	Path string `toml:"path"` // empty = ~/.config/lookup/settings.db
}

// Server settings
type Server struct {
	Addr string `toml:"addr"`
}

// Config is the main configuration struct
type Config struct {
	Wiktionary Wiktionary `toml:"wiktionary"`
	Fetcher    Fetcher    `toml:"fetcher"`
	History    History    `toml:"history"`
	Rendering  Rendering  `toml:"rendering"`
	Settings   Settings   `toml:"settings"`
	Server     Server     `toml:"server"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Wiktionary: Wiktionary{
			APIURL:    "https://en.wiktionary.org/w/api.php?origin=*&action=parse&format=json&formatversion=2&page=",
			PageURL:   "https://en.wiktionary.org/wiki/",
			SearchURL: "https://en.wiktionary.org/w/api.php?action=opensearch&format=json&limit=10&search=",
		},
		Fetcher: Fetcher{
			UserAgent:      "lookup/1.0 (Terminal Dictionary)",
			TimeoutSeconds: 15,
		},
		History: History{
			Size: 30,
		},
		Rendering: Rendering{
			DefaultWidth: 80,
		},
		Server: Server{
			Addr: "127.0.0.1:8088",
		},
	}
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lookup"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// SettingsPath returns the settings database path, expanding a leading ~.
func (c *Config) SettingsPath() (string, error) {
	if c.Settings.Path == "" {
		dir, err := Dir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "settings.db"), nil
	}
	return expandHome(c.Settings.Path)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Load loads configuration, layering user config on top of defaults.
// Returns the default config if no user config exists.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return Default(), nil // Return defaults if we can't determine path
	}
	return LoadFile(configPath)
}

// LoadFile loads the config at path over the defaults. A missing file
// yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	userCfg, err := loadFromTOML(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	return merge(cfg, userCfg), nil
}

// loadFromTOML loads a TOML config file and returns the config.
func loadFromTOML(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}
	return &cfg, nil
}

// merge layers user config on top of defaults.
// Only non-zero values from user config override defaults.
func merge(defaults, user *Config) *Config {
	result := *defaults

	mergeString(&result.Wiktionary.APIURL, user.Wiktionary.APIURL)
	mergeString(&result.Wiktionary.PageURL, user.Wiktionary.PageURL)
	mergeString(&result.Wiktionary.SearchURL, user.Wiktionary.SearchURL)

	mergeString(&result.Fetcher.UserAgent, user.Fetcher.UserAgent)
	if user.Fetcher.TimeoutSeconds != 0 {
		result.Fetcher.TimeoutSeconds = user.Fetcher.TimeoutSeconds
	}
	mergeString(&result.Fetcher.ChromePath, user.Fetcher.ChromePath)
	// Booleans can only be switched on; false is indistinguishable from unset.
	if user.Fetcher.BrowserFallback {
		result.Fetcher.BrowserFallback = true
	}

	if user.History.Size > 0 {
		result.History.Size = user.History.Size
	}
	if user.Rendering.DefaultWidth > 0 {
		result.Rendering.DefaultWidth = user.Rendering.DefaultWidth
	}
	mergeString(&result.Settings.Path, user.Settings.Path)
	mergeString(&result.Server.Addr, user.Server.Addr)

	return &result
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// DefaultTOML returns the default configuration as a TOML string.
// Used for --init-config to generate a user config file.
func DefaultTOML() string {
	return `# lookup configuration
# Save to ~/.config/lookup/config.toml and customize
# Only include settings you want to change from defaults

# Wiktionary endpoints
[wiktionary]
apiURL = "https://en.wiktionary.org/w/api.php?origin=*&action=parse&format=json&formatversion=2&page="
pageURL = "https://en.wiktionary.org/wiki/"
searchURL = "https://en.wiktionary.org/w/api.php?action=opensearch&format=json&limit=10&search="

# HTTP fetching settings
[fetcher]
userAgent = "lookup/1.0 (Terminal Dictionary)"
timeoutSeconds = 15
chromePath = ""               # Path to Chrome/Chromium (empty = auto-detect)
browserFallback = false       # Retry failed plain page views in headless Chrome

# Back navigation
[history]
size = 30

# Rendering settings
[rendering]
defaultWidth = 80             # Width when piping output (not in terminal)

# Language and section filters
[settings]
path = ""                     # empty = ~/.config/lookup/settings.db

# lookup-server
[server]
addr = "127.0.0.1:8088"
`
}

// FormatError formats a configuration error for user display.
func FormatError(err error) string {
	return fmt.Sprintf("Configuration error:\n\n%s", err.Error())
}
