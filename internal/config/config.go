package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Parser modes accepted by parser_mode. They select the PHP grammar used for
// syntax validation.
const (
	ParserModePHP5 = "PREFER_PHP5"
	ParserModePHP7 = "PREFER_PHP7"
	ParserModePHP8 = "PREFER_PHP8"
)

// DefaultConfigFile is read when no --config flag is given. Its absence is not an error.
const DefaultConfigFile = "config.yaml"

// EnvPrefix is prepended to upper-cased keys for environment overrides,
// e.g. GOPTG_PURGE=true.
const EnvPrefix = "GOPTG"

// Config holds all settings for a skeleton generation run.
// Struct tags control how Viper maps config file keys and environment variables.
type Config struct {
	// Plugin location
	MoodleRoot string `yaml:"moodle_root" mapstructure:"moodle_root"` // Moodle dirroot the plugin path is relative to
	PluginPath string `yaml:"plugin_path" mapstructure:"plugin_path"` // e.g. local/housekeeping
	Component  string `yaml:"component,omitempty" mapstructure:"component"`

	// General behavior
	Silent       bool `yaml:"silent" mapstructure:"silent"`
	DebugMode    bool `yaml:"debug_mode" mapstructure:"debug_mode"`
	AbortOnError bool `yaml:"abort_on_error" mapstructure:"abort_on_error"`
	Purge        bool `yaml:"purge" mapstructure:"purge"`     // Overwrite existing test files
	DryRun       bool `yaml:"dry_run" mapstructure:"dry_run"` // Report what would be written

	// File handling
	PhpExtensions []string `yaml:"php_extensions" mapstructure:"php_extensions"`
	// Exclusion globs. A leading / anchors a pattern to the plugin root;
	// otherwise it also matches the base name at any depth.
	ExcludeFiles []string `yaml:"exclude_files" mapstructure:"exclude_files"`
	ExcludeDirs  []string `yaml:"exclude_dirs" mapstructure:"exclude_dirs"`
	TestsDir      string   `yaml:"tests_dir" mapstructure:"tests_dir"`

	// Analysis
	ValidateSyntax bool   `yaml:"validate_syntax" mapstructure:"validate_syntax"`
	ParserMode     string `yaml:"parser_mode" mapstructure:"parser_mode"`

	// Rendering
	SkipMoodleForms   bool `yaml:"skip_moodleforms" mapstructure:"skip_moodleforms"`
	EventTriggerTests bool `yaml:"event_trigger_tests" mapstructure:"event_trigger_tests"`

	// Watch mode
	WatchDebounceMs int `yaml:"watch_debounce_ms" mapstructure:"watch_debounce_ms"`
}

// DefaultConfig returns a configuration with default settings.
func DefaultConfig() *Config {
	return &Config{
		MoodleRoot:        ".",
		AbortOnError:      false,
		PhpExtensions:     []string{"php"},
		ExcludeFiles:      []string{"/settings.php", "/version.php"},
		ExcludeDirs:       []string{"/tests", "/db", "/lang", "vendor", ".git"},
		TestsDir:          "tests",
		ValidateSyntax:    true,
		ParserMode:        ParserModePHP8,
		SkipMoodleForms:   true,
		EventTriggerTests: true,
		WatchDebounceMs:   500,
	}
}

// defaults mirrors DefaultConfig as viper keys so environment variables bind.
func defaults() map[string]interface{} {
	d := DefaultConfig()
	return map[string]interface{}{
		"moodle_root":         d.MoodleRoot,
		"plugin_path":         d.PluginPath,
		"component":           d.Component,
		"silent":              d.Silent,
		"debug_mode":          d.DebugMode,
		"abort_on_error":      d.AbortOnError,
		"purge":               d.Purge,
		"dry_run":             d.DryRun,
		"php_extensions":      d.PhpExtensions,
		"exclude_files":       d.ExcludeFiles,
		"exclude_dirs":        d.ExcludeDirs,
		"tests_dir":           d.TestsDir,
		"validate_syntax":     d.ValidateSyntax,
		"parser_mode":         d.ParserMode,
		"skip_moodleforms":    d.SkipMoodleForms,
		"event_trigger_tests": d.EventTriggerTests,
		"watch_debounce_ms":   d.WatchDebounceMs,
	}
}

// LoadConfig reads configuration from defaults, an optional YAML file and
// GOPTG_* environment variables, in increasing order of precedence.
// An empty configPath means DefaultConfigFile, which may be absent.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigFile
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if explicit {
			return nil, fmt.Errorf("specified config file not found: %s", configPath)
		}
	} else {
		return nil, fmt.Errorf("error checking config file %s: %w", configPath, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes the default configuration to configPath as YAML.
func SaveConfig(configPath string) error {
	yamlData, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("error marshalling default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating directory for config file %s: %w", configPath, err)
	}
	if err := os.WriteFile(configPath, yamlData, 0644); err != nil {
		return fmt.Errorf("error writing config file %s: %w", configPath, err)
	}
	return nil
}

// Validate reports settings that cannot produce a working run.
func (c *Config) Validate() error {
	switch strings.ToUpper(c.ParserMode) {
	case "", ParserModePHP5, ParserModePHP7, ParserModePHP8,
		"ONLY_PHP5", "ONLY_PHP7", "ONLY_PHP8":
	default:
		return fmt.Errorf("invalid parser_mode %q", c.ParserMode)
	}
	if strings.TrimSpace(c.TestsDir) == "" {
		return fmt.Errorf("tests_dir must not be empty")
	}
	if c.WatchDebounceMs < 0 {
		return fmt.Errorf("watch_debounce_ms must not be negative, got %d", c.WatchDebounceMs)
	}
	return nil
}

// WatchDebounce returns the watch debounce window as a duration.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMs) * time.Millisecond
}

// NewLogger builds the text logger used across a run. Silent keeps warnings
// and errors only; DebugMode enables debug records.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case c.DebugMode:
		level = slog.LevelDebug
	case c.Silent:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
