// Package config loads runtime settings in priority order: defaults, the TOML
// config file, TIMELINE_* environment variables. Command-line flags are
// applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sandeepkv93/timeline/internal/logging"
	"github.com/sandeepkv93/timeline/internal/scheduler"
)

const appName = "timeline"

type Config struct {
	DBPath                 string `toml:"db_path"`
	LogLevel               string `toml:"log_level"`
	LogFormat              string `toml:"log_format"`
	LogFile                string `toml:"log_file"`
	DefaultDurationMinutes int    `toml:"default_duration_minutes"`
	BulkPolicy             string `toml:"bulk_policy"`
	Alerts                 bool   `toml:"alerts"`
	AlertBuffer            int    `toml:"alert_buffer"`
	LeadMinutes            int    `toml:"lead_minutes"`
	DesktopNotifications   bool   `toml:"desktop_notifications"`
}

func Default() Config {
	return Config{
		DBPath:                 filepath.Join(dataDir(), "timeline.db"),
		LogLevel:               "info",
		LogFormat:              "text",
		DefaultDurationMinutes: 60,
		BulkPolicy:             string(scheduler.BulkStrict),
		Alerts:                 true,
		AlertBuffer:            64,
		LeadMinutes:            5,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/timeline/config.toml, falling back to
// ~/.config. It returns "" when no home directory is known.
func DefaultPath() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// Load builds the config from defaults, the file at path and the
// environment. An explicit path must exist; when path is empty DefaultPath is
// used if present.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	cfg = FromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// FromEnv overlays TIMELINE_* variables onto base. Unparsable or
// non-positive numbers are ignored.
func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("TIMELINE_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := getEnvString("TIMELINE_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := getEnvString("TIMELINE_LOG_FORMAT"); ok {
		cfg.LogFormat = v
	}
	if v, ok := getEnvString("TIMELINE_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvInt("TIMELINE_DEFAULT_DURATION_MINUTES"); ok && v > 0 {
		cfg.DefaultDurationMinutes = v
	}
	if v, ok := getEnvString("TIMELINE_BULK_POLICY"); ok {
		cfg.BulkPolicy = v
	}
	if v, ok := getEnvBool("TIMELINE_ALERTS"); ok {
		cfg.Alerts = v
	}
	if v, ok := getEnvInt("TIMELINE_ALERT_BUFFER"); ok && v > 0 {
		cfg.AlertBuffer = v
	}
	if v, ok := getEnvInt("TIMELINE_LEAD_MINUTES"); ok && v >= 0 {
		cfg.LeadMinutes = v
	}
	if v, ok := getEnvBool("TIMELINE_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("config: db_path is required")
	}
	if c.DefaultDurationMinutes <= 0 {
		return fmt.Errorf("config: default_duration_minutes must be positive, got %d", c.DefaultDurationMinutes)
	}
	if c.LeadMinutes < 0 {
		return fmt.Errorf("config: lead_minutes must not be negative, got %d", c.LeadMinutes)
	}
	if _, err := scheduler.ParseBulkPolicy(c.BulkPolicy); err != nil {
		return fmt.Errorf("config: bulk_policy: %w", err)
	}
	return nil
}

func (c Config) DefaultDuration() time.Duration {
	return time.Duration(c.DefaultDurationMinutes) * time.Minute
}

func (c Config) Lead() time.Duration {
	return time.Duration(c.LeadMinutes) * time.Minute
}

// Policy returns the bulk policy, strict when unset or unknown.
func (c Config) Policy() scheduler.BulkPolicy {
	p, err := scheduler.ParseBulkPolicy(c.BulkPolicy)
	if err != nil {
		return scheduler.BulkStrict
	}
	return p
}

func (c Config) Logging() logging.Options {
	opts := logging.DefaultOptions()
	if c.LogLevel != "" {
		opts.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		opts.Format = c.LogFormat
	}
	return opts
}

func dataDir() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", appName)
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
