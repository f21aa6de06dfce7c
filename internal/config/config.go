// Package config loads and persists cgate settings and resolves the
// on-disk directories the tool works with.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all cgate configuration.
type Config struct {
	General   GeneralConfig   `toml:"general"`
	Usage     UsageConfig     `toml:"usage"`
	Cooldown  CooldownConfig  `toml:"cooldown"`
	Retention RetentionConfig `toml:"retention"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	ClaudeDir string `toml:"claude_dir,omitempty"`
	// SaveCommand is the slash command block reasons tell the user to run.
	SaveCommand string `toml:"save_command"`
}

// UsageConfig holds context-consumption gate settings.
type UsageConfig struct {
	// Capacity is the context window size assumed when the model is
	// unknown or has no table entry.
	Capacity int64 `toml:"capacity"`
	// ThresholdPercent is the consumption percentage at or above which
	// a session stop is blocked.
	ThresholdPercent int `toml:"threshold_percent"`
	// SubagentThresholdPercent is the same gate for subagent stops.
	// Subagents are cheap to resume, so they warn earlier.
	SubagentThresholdPercent int `toml:"subagent_threshold_percent"`
	// CapacityOverrides maps model-name substrings to context window
	// sizes. Overrides beat the built-in table.
	CapacityOverrides map[string]int64 `toml:"capacity_overrides,omitempty"`
}

// CooldownConfig holds repeat-suppression windows in seconds.
// Zero means unset (the default applies). Negative disables suppression
// for that gate.
type CooldownConfig struct {
	UsageWindowSecs   int `toml:"usage_window_secs"`
	PatternWindowSecs int `toml:"pattern_window_secs"`
}

// RetentionConfig holds prune ages in days. Zero means unset; negative
// exempts that store from pruning.
type RetentionConfig struct {
	MarkerDays  int `toml:"marker_days"`
	JournalDays int `toml:"journal_days"`
}

// Default gate parameters. The capacity matches the standard context
// window of current Claude models.
const (
	DefaultCapacity          = 200_000
	DefaultThresholdPercent  = 80
	DefaultSubagentThreshold = 70
	DefaultUsageWindowSecs   = 60
	DefaultPatternWindowSecs = 300
	DefaultMarkerDays        = 30
	DefaultJournalDays       = 90
	DefaultSaveCommand       = "/checkpoint"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			SaveCommand: DefaultSaveCommand,
		},
		Usage: UsageConfig{
			Capacity:                 DefaultCapacity,
			ThresholdPercent:         DefaultThresholdPercent,
			SubagentThresholdPercent: DefaultSubagentThreshold,
		},
		Cooldown: CooldownConfig{
			UsageWindowSecs:   DefaultUsageWindowSecs,
			PatternWindowSecs: DefaultPatternWindowSecs,
		},
		Retention: RetentionConfig{
			MarkerDays:  DefaultMarkerDays,
			JournalDays: DefaultJournalDays,
		},
	}
}

// normalize fills unset fields with defaults and clamps thresholds to a
// sane range. Negative cooldown and retention values pass through; they
// mean "disabled".
func (c *Config) normalize() {
	if c.General.SaveCommand == "" {
		c.General.SaveCommand = DefaultSaveCommand
	}
	if c.Usage.Capacity <= 0 {
		c.Usage.Capacity = DefaultCapacity
	}
	c.Usage.ThresholdPercent = normalizePercent(c.Usage.ThresholdPercent, DefaultThresholdPercent)
	c.Usage.SubagentThresholdPercent = normalizePercent(c.Usage.SubagentThresholdPercent, DefaultSubagentThreshold)
	if c.Cooldown.UsageWindowSecs == 0 {
		c.Cooldown.UsageWindowSecs = DefaultUsageWindowSecs
	}
	if c.Cooldown.PatternWindowSecs == 0 {
		c.Cooldown.PatternWindowSecs = DefaultPatternWindowSecs
	}
	if c.Retention.MarkerDays == 0 {
		c.Retention.MarkerDays = DefaultMarkerDays
	}
	if c.Retention.JournalDays == 0 {
		c.Retention.JournalDays = DefaultJournalDays
	}
}

func normalizePercent(v, def int) int {
	switch {
	case v <= 0:
		return def
	case v > 100:
		return 100
	default:
		return v
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cgate")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cgate")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// StateDir returns the XDG-compliant state directory. Cooldown markers
// and the firing journal live here: they are machine-local runtime
// state, not configuration.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "cgate")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "cgate")
}

// MarkersDir returns the directory holding cooldown marker files.
func MarkersDir() string {
	return filepath.Join(StateDir(), "markers")
}

// JournalPath returns the path to the firing journal database.
func JournalPath() string {
	return filepath.Join(StateDir(), "journal.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// ClaudeDir resolves the Claude Code data directory. The
// CLAUDE_CONFIG_DIR environment variable wins over the config file,
// matching how Claude Code itself resolves it.
func ClaudeDir(cfg Config) string {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return dir
	}
	if cfg.General.ClaudeDir != "" {
		return cfg.General.ClaudeDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}
