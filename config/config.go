// Package config loads runtime configuration from YAML files and environment
// variables. It maps onto graph.Config but stays serializable: the CLI and
// embedding applications resolve providers and stores from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted in the provider.name field.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Checkpoint backends accepted in the checkpoint.backend field.
const (
	CheckpointNone   = "none"
	CheckpointMemory = "memory"
	CheckpointSQLite = "sqlite"
)

// Error reports an invalid configuration value by its key.
type Error struct {
	Key     string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Key, e.Message)
}

// Config is the full serializable runtime configuration.
type Config struct {
	Provider   ProviderConfig   `mapstructure:"provider"`
	Turn       TurnConfig       `mapstructure:"turn"`
	Planner    PlannerConfig    `mapstructure:"planner"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Features   FeaturesConfig   `mapstructure:"features"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ProviderConfig selects and parameterizes the chat model.
type ProviderConfig struct {
	Name        string  `mapstructure:"name"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
}

// TurnConfig bounds a single turn.
type TurnConfig struct {
	MaxModelCalls    int           `mapstructure:"max_model_calls"`
	MaxRetries       int           `mapstructure:"max_retries"`
	InitialDelay     time.Duration `mapstructure:"initial_delay"`
	BackoffFactor    float64       `mapstructure:"backoff_factor"`
	MaxParallelTools int           `mapstructure:"max_parallel_tools"`
}

// PlannerConfig selects the planning strategy. Model, when set, names a
// provider model used for planning decisions instead of the main one.
type PlannerConfig struct {
	Strategy string `mapstructure:"strategy"`
	Model    string `mapstructure:"model"`
}

// CheckpointConfig selects conversation persistence.
type CheckpointConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// FeaturesConfig toggles turn features.
type FeaturesConfig struct {
	DisableTodo         bool `mapstructure:"disable_todo"`
	DisableTodoFeedback bool `mapstructure:"disable_todo_feedback"`
	DisablePIIScan      bool `mapstructure:"disable_pii_scan"`
}

// LoggingConfig sets the log level (debug, info, warn, error).
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration with the following precedence, highest first:
//
//  1. AGENTGRAPH_* environment variables (dots become underscores, e.g.
//     AGENTGRAPH_PROVIDER_API_KEY).
//  2. Project config (.agentgraph.yaml in the working directory).
//  3. User config (~/.config/agentgraph/config.yaml).
//  4. Built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if project := findProjectConfig(); project != "" {
		pv := viper.New()
		pv.SetConfigFile(project)

		if err := pv.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(pv.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	return unmarshal(v)
}

// LoadFromPath reads configuration from an explicit file, plus environment
// overrides.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	bindEnv(v)

	return unmarshal(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("AGENTGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Provider.APIKey = os.ExpandEnv(cfg.Provider.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.name", ProviderOpenAI)
	v.SetDefault("provider.temperature", 0.7)
	v.SetDefault("provider.max_tokens", 4096)

	v.SetDefault("turn.max_model_calls", 10)
	v.SetDefault("turn.max_retries", 3)
	v.SetDefault("turn.initial_delay", 500*time.Millisecond)
	v.SetDefault("turn.backoff_factor", 2.0)
	v.SetDefault("turn.max_parallel_tools", 1)

	v.SetDefault("planner.strategy", "auto")

	v.SetDefault("checkpoint.backend", CheckpointNone)

	v.SetDefault("logging.level", "info")
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		return &Error{Key: "provider.name", Message: fmt.Sprintf("unknown provider %q", c.Provider.Name)}
	}

	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		return &Error{Key: "provider.temperature", Message: "must be between 0 and 2"}
	}

	if c.Turn.MaxModelCalls < 1 {
		return &Error{Key: "turn.max_model_calls", Message: "must be at least 1"}
	}

	if c.Turn.MaxRetries < 1 {
		return &Error{Key: "turn.max_retries", Message: "must be at least 1"}
	}

	if c.Turn.BackoffFactor < 1 {
		return &Error{Key: "turn.backoff_factor", Message: "must be at least 1"}
	}

	if c.Turn.MaxParallelTools < 0 {
		return &Error{Key: "turn.max_parallel_tools", Message: "must not be negative"}
	}

	switch c.Planner.Strategy {
	case "heuristic", "model", "auto":
	default:
		return &Error{Key: "planner.strategy", Message: fmt.Sprintf("unknown strategy %q", c.Planner.Strategy)}
	}

	switch c.Checkpoint.Backend {
	case CheckpointNone, CheckpointMemory:
	case CheckpointSQLite:
		if c.Checkpoint.Path == "" {
			return &Error{Key: "checkpoint.path", Message: "required for the sqlite backend"}
		}
	default:
		return &Error{Key: "checkpoint.backend", Message: fmt.Sprintf("unknown backend %q", c.Checkpoint.Backend)}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &Error{Key: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}

	return nil
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "agentgraph")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "agentgraph")
}

// findProjectConfig walks up from the working directory looking for an
// .agentgraph.yaml file.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ".agentgraph.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}
