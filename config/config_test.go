package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestDefaultTOMLMatchesDefault(t *testing.T) {
	var cfg Config
	if _, err := toml.Decode(DefaultTOML(), &cfg); err != nil {
		t.Fatalf("decoding DefaultTOML: %v", err)
	}
	if cfg != *Default() {
		t.Errorf("DefaultTOML decodes to %+v, want %+v", cfg, *Default())
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoadFileMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	src := `
[wiktionary]
pageURL = "https://fr.wiktionary.org/wiki/"

[fetcher]
timeoutSeconds = 5
browserFallback = true

[history]
size = 10
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	d := Default()
	tests := []struct {
		name      string
		got, want any
	}{
		{"pageURL", cfg.Wiktionary.PageURL, "https://fr.wiktionary.org/wiki/"},
		{"apiURL kept", cfg.Wiktionary.APIURL, d.Wiktionary.APIURL},
		{"timeout", cfg.Fetcher.TimeoutSeconds, 5},
		{"userAgent kept", cfg.Fetcher.UserAgent, d.Fetcher.UserAgent},
		{"browserFallback", cfg.Fetcher.BrowserFallback, true},
		{"history", cfg.History.Size, 10},
		{"width kept", cfg.Rendering.DefaultWidth, 80},
		{"addr kept", cfg.Server.Addr, "127.0.0.1:8088"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[history\nsize = "), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(FormatError(err), "Configuration error:") {
		t.Errorf("FormatError = %q", FormatError(err))
	}
}

func TestSettingsPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		path string
		want string
	}{
		{"", filepath.Join(home, ".config", "lookup", "settings.db")},
		{"~/data/lookup.db", filepath.Join(home, "data", "lookup.db")},
		{"/var/lib/lookup.db", "/var/lib/lookup.db"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Settings.Path = tt.path
		got, err := cfg.SettingsPath()
		if err != nil {
			t.Fatalf("SettingsPath(%q): %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("SettingsPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
