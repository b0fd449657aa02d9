package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the sentinel.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Trust   TrustConfig   `yaml:"trust"`
	Watcher WatcherConfig `yaml:"watcher"`
	Remap   RemapConfig   `yaml:"remap"`
	Audit   AuditConfig   `yaml:"audit"`
}

type BrowserConfig struct {
	// ControlURL attaches to an already-running browser (DevTools
	// websocket). Empty means launch a fresh one.
	ControlURL string `yaml:"controlUrl,omitempty"`
	// PageURL selects the chat tab to attach to; matched as a prefix
	// against open tabs when attaching, navigated to when launching.
	PageURL  string `yaml:"pageUrl"`
	Headless bool   `yaml:"headless"`
}

type TrustConfig struct {
	// Tools are exact tool names approved automatically.
	Tools []string `yaml:"tools"`
	// Prefixes approve any tool whose name starts with one of them.
	Prefixes []string `yaml:"prefixes,omitempty"`
	// Patterns are glob patterns over tool names.
	Patterns []string `yaml:"patterns,omitempty"`
	// ExtraPhrases are additional tool-name extraction regexps tried
	// after the built-in English and Japanese ones. Group 1 must capture
	// the tool name.
	ExtraPhrases []string `yaml:"extraPhrases,omitempty"`
	// AffirmativeLabels override the recognized approve-button labels.
	AffirmativeLabels []string `yaml:"affirmativeLabels,omitempty"`
}

type WatcherConfig struct {
	// CooldownMs is the minimum gap between policy evaluations, in
	// milliseconds.
	CooldownMs int `yaml:"cooldownMs"`
	// ScreenshotOnApprove captures a page screenshot for every
	// auto-approved dialog.
	ScreenshotOnApprove bool   `yaml:"screenshotOnApprove"`
	ScreenshotDir       string `yaml:"screenshotDir,omitempty"`
}

// Cooldown returns the debounce window as a duration.
func (w WatcherConfig) Cooldown() time.Duration {
	return time.Duration(w.CooldownMs) * time.Millisecond
}

type RemapConfig struct {
	// Enabled installs the Enter-to-Shift+Enter key hook.
	Enabled bool `yaml:"enabled"`
}

type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"dbPath,omitempty"`
}

// DefaultConfigDir is ~/.sentinel.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sentinel"
	}
	return filepath.Join(home, ".sentinel")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Defaults returns a working configuration with an empty trust list.
func Defaults() *Config {
	return &Config{
		Browser: BrowserConfig{
			PageURL:  "",
			Headless: false,
		},
		Trust: TrustConfig{
			Tools: []string{},
		},
		Watcher: WatcherConfig{
			CooldownMs:    500,
			ScreenshotDir: filepath.Join(DefaultConfigDir(), "screenshots"),
		},
		Remap: RemapConfig{
			Enabled: true,
		},
		Audit: AuditConfig{
			Enabled: true,
			DBPath:  filepath.Join(DefaultConfigDir(), "audit.db"),
		},
	}
}

// Load reads the YAML config at path, filling unset fields from
// Defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Watcher.CooldownMs <= 0 {
		cfg.Watcher.CooldownMs = 500
	}

	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
