package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/joshharrison/specloom/internal/tasks"
)

// Config is the effective specloom configuration.
type Config struct {
	// Directory holding one sub-directory per change
	ChangesDir string `json:"changes_dir" yaml:"changes_dir" mapstructure:"changes_dir"`

	// Format written by `tasks init`: checkbox or enhanced
	DefaultFormat string `json:"default_format" yaml:"default_format" mapstructure:"default_format"`

	// Claude model used by infer-deps; empty means the client default
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	Color bool `json:"color" yaml:"color" mapstructure:"color"`

	// Optional text/template file for agent prompts
	PromptTemplate string `json:"prompt_template" yaml:"prompt_template" mapstructure:"prompt_template"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		ChangesDir:    "changes",
		DefaultFormat: "enhanced",
		Color:         true,
	}
}

// Load merges the global and project config files over the defaults, then
// applies SPECLOOM_* environment variables.
func Load() (*Config, error) {
	return LoadFrom(GlobalConfigPath(), ProjectConfigPath())
}

// LoadFrom merges the given YAML files in order; later files override
// earlier ones and missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	def := DefaultConfig()
	v.SetDefault("changes_dir", def.ChangesDir)
	v.SetDefault("default_format", def.DefaultFormat)
	v.SetDefault("model", def.Model)
	v.SetDefault("color", def.Color)
	v.SetDefault("prompt_template", def.PromptTemplate)

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("specloom")
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if _, err := cfg.Format(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format parses DefaultFormat.
func (c *Config) Format() (tasks.Format, error) {
	return tasks.ParseFormat(c.DefaultFormat)
}

// YAML renders the configuration as it would appear in a config file.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".specloom", "config.yaml")
}

// ProjectConfigPath returns the path to the project config file
func ProjectConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".specloom", "config.yaml")
}
