package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-java-cfg/internal/log"
)

// Output formats accepted in the format field.
var validFormats = []string{"text", "json", "dot"}

// Config holds all configuration for jcfg
type Config struct {
	// Format is the default output format: text, json or dot
	Format string `yaml:"format" env:"JCFG_FORMAT"`

	// OutputDir receives one file per method graph. Empty means stdout.
	OutputDir string `yaml:"output_dir" env:"JCFG_OUTPUT_DIR"`

	// Verify checks the structural properties of every built graph
	Verify bool `yaml:"verify" env:"JCFG_VERIFY"`

	// Result cache settings
	CacheEnabled bool   `yaml:"cache_enabled" env:"JCFG_CACHE_ENABLED"`
	CacheDir     string `yaml:"cache_dir" env:"JCFG_CACHE_DIR"`
	CacheSize    int    `yaml:"cache_size" env:"JCFG_CACHE_SIZE"`

	// Logging
	LogLevel string `yaml:"log_level" env:"JCFG_LOG_LEVEL"`
	LogJSON  bool   `yaml:"log_json" env:"JCFG_LOG_JSON"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Format:       "text",
		OutputDir:    "",
		Verify:       false,
		CacheEnabled: true,
		CacheDir:     filepath.Join(".jcfg", "cache"),
		CacheSize:    512,
		LogLevel:     "warn",
		LogJSON:      false,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.jcfg/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".jcfg", "config.yaml")
	}
	return filepath.Join(home, ".jcfg", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.jcfg/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".jcfg", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Project-level config (./.jcfg/config.yaml)
// 2. Environment variables
// 3. Global config (~/.jcfg/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	return load(GlobalConfigFilePath(), ProjectConfigFilePath())
}

func load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if err := mergeFile(cfg, globalPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := mergeFile(cfg, projectPath); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile overlays the fields set in the YAML file at path. A missing file
// is ignored.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JCFG_FORMAT"); v != "" {
		cfg.Format = strings.ToLower(v)
	}
	if v := os.Getenv("JCFG_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("JCFG_VERIFY"); v != "" {
		cfg.Verify = parseBool(v)
	}
	if v := os.Getenv("JCFG_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = parseBool(v)
	}
	if v := os.Getenv("JCFG_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("JCFG_CACHE_SIZE"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheSize = i
		}
	}
	if v := os.Getenv("JCFG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JCFG_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	valid := false
	for _, f := range validFormats {
		if c.Format == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid format: %s (must be one of %s)", c.Format, strings.Join(validFormats, ", "))
	}

	if c.CacheEnabled {
		if c.CacheSize <= 0 {
			return fmt.Errorf("cache_size must be positive when the cache is enabled")
		}
		if c.CacheDir == "" {
			return fmt.Errorf("cache_dir is required when the cache is enabled")
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	return nil
}

// Level returns the parsed log level. It falls back to warn for values that
// did not pass validation.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.WarnLevel
	}
	return level
}

// parseBool accepts true/1/yes in any case
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
