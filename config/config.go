// Package config loads memo settings from defaults, an optional YAML
// file and MEMO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	PickerAuto     = "auto"
	PickerExternal = "external"
	PickerTUI      = "tui"
	PickerPrompt   = "prompt"
)

type Config struct {
	DBPath           string `yaml:"db_path" mapstructure:"db_path"`
	Driver           string `yaml:"driver" mapstructure:"driver"`
	BusyTimeout      int    `yaml:"busy_timeout" mapstructure:"busy_timeout"`
	Retries          int    `yaml:"retries" mapstructure:"retries"`
	Limit            int    `yaml:"limit" mapstructure:"limit"`
	Cap              int    `yaml:"cap" mapstructure:"cap"`
	Picker           string `yaml:"picker" mapstructure:"picker"`
	PickerCommand    string `yaml:"picker_command" mapstructure:"picker_command"`
	HistoryFile      string `yaml:"history_file" mapstructure:"history_file"`
	Shell            string `yaml:"shell" mapstructure:"shell"`
	ConfirmDangerous bool   `yaml:"confirm_dangerous" mapstructure:"confirm_dangerous"`
	WidgetKey        string `yaml:"widget_key" mapstructure:"widget_key"`
	LogLevel         string `yaml:"log_level" mapstructure:"log_level"`
}

func DefaultConfig() *Config {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "sh"
	}
	return &Config{
		DBPath:           DefaultDBPath(),
		Driver:           "sqlite3",
		BusyTimeout:      5000,
		Retries:          5,
		Limit:            10,
		Cap:              200,
		Picker:           PickerAuto,
		Shell:            shell,
		ConfirmDangerous: true,
		WidgetKey:        "^I",
		LogLevel:         "warn",
	}
}

// DefaultDBPath is $XDG_STATE_HOME/memo/memo.sqlite3, falling back to
// ~/.local/state/memo/memo.sqlite3.
func DefaultDBPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "memo", "memo.sqlite3")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "memo", "memo.sqlite3")
}

// Load reads configuration. An explicit path must exist; otherwise
// config.yaml is looked up in $XDG_CONFIG_HOME/memo and ~/.config/memo
// and its absence is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "memo"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "memo"))
		}
	}

	// Defaults make every key known to AutomaticEnv.
	defaults := map[string]any{
		"db_path":           cfg.DBPath,
		"driver":            cfg.Driver,
		"busy_timeout":      cfg.BusyTimeout,
		"retries":           cfg.Retries,
		"limit":             cfg.Limit,
		"cap":               cfg.Cap,
		"picker":            cfg.Picker,
		"picker_command":    cfg.PickerCommand,
		"history_file":      cfg.HistoryFile,
		"shell":             cfg.Shell,
		"confirm_dangerous": cfg.ConfirmDangerous,
		"widget_key":        cfg.WidgetKey,
		"log_level":         cfg.LogLevel,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix("MEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.DBPath = expandHome(cfg.DBPath)
	cfg.HistoryFile = expandHome(cfg.HistoryFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("config: db_path is required")
	}
	if c.Driver != "sqlite3" && c.Driver != "sqlite" {
		return fmt.Errorf("config: driver %q must be sqlite3 or sqlite", c.Driver)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("config: busy_timeout must be non-negative, got %d", c.BusyTimeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("config: retries must be non-negative, got %d", c.Retries)
	}
	if c.Limit < 0 {
		return fmt.Errorf("config: limit must be non-negative, got %d", c.Limit)
	}
	if c.Cap < 0 {
		return fmt.Errorf("config: cap must be non-negative, got %d", c.Cap)
	}
	switch c.Picker {
	case PickerAuto, PickerExternal, PickerTUI, PickerPrompt:
	default:
		return fmt.Errorf("config: picker %q must be auto, external, tui or prompt", c.Picker)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log_level %q: %w", s, err)
	}
	return l, nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	return out, nil
}

func expandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~/")
	if !ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}
