// Package config loads runtime settings from a YAML file with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backend identifiers accepted in Config.Session.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Duration wraps time.Duration so YAML values like "90s" or "2m" decode
// directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(dur)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ModelConfig selects the LLM provider and model.
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
	APIKey      string  `yaml:"api_key"`
}

// SessionConfig selects and configures the session store backend.
type SessionConfig struct {
	Backend      string `yaml:"backend"`
	Dir          string `yaml:"dir"`
	SQLitePath   string `yaml:"sqlite_path"`
	HistoryLimit int    `yaml:"history_limit"`
}

// PromptConfig points at the versioned prompt pack directory.
type PromptConfig struct {
	Dir     string `yaml:"dir"`
	Version string `yaml:"version"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// EngineConfig tunes orchestration behavior.
type EngineConfig struct {
	DefaultAgent    string   `yaml:"default_agent"`
	CallTimeout     Duration `yaml:"call_timeout"`
	StepTimeout     Duration `yaml:"step_timeout"`
	EventBufferSize int      `yaml:"event_buffer_size"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full runtime configuration.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Session SessionConfig `yaml:"session"`
	Prompt  PromptConfig  `yaml:"prompt"`
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the configuration used when no file or overrides are
// present.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    "anthropic",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Session: SessionConfig{
			Backend:      BackendFile,
			Dir:          "sessions",
			SQLitePath:   "sessions.db",
			HistoryLimit: 20,
		},
		Prompt: PromptConfig{
			Dir: "prompts",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration(30 * time.Second),
			WriteTimeout: Duration(10 * time.Minute),
		},
		Engine: EngineConfig{
			DefaultAgent:    "general_assistant",
			CallTimeout:     Duration(60 * time.Second),
			StepTimeout:     Duration(120 * time.Second),
			EventBufferSize: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the given YAML file, applies environment
// overrides and validates the result. An empty path loads defaults plus
// environment overrides only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as runtime faults.
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Session.HistoryLimit < 1 {
		return fmt.Errorf("session history_limit must be at least 1")
	}
	if c.Engine.CallTimeout <= 0 {
		return fmt.Errorf("engine call_timeout must be positive")
	}
	if c.Engine.StepTimeout <= 0 {
		return fmt.Errorf("engine step_timeout must be positive")
	}
	if c.Engine.EventBufferSize < 1 {
		return fmt.Errorf("engine event_buffer_size must be at least 1")
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Model.Provider, "AGENTPILOT_MODEL_PROVIDER")
	setString(&c.Model.Name, "AGENTPILOT_MODEL_NAME")
	setString(&c.Model.APIKey, "AGENTPILOT_API_KEY")
	setString(&c.Session.Backend, "AGENTPILOT_SESSION_BACKEND")
	setString(&c.Session.Dir, "AGENTPILOT_SESSION_DIR")
	setString(&c.Session.SQLitePath, "AGENTPILOT_SQLITE_PATH")
	setInt(&c.Session.HistoryLimit, "AGENTPILOT_HISTORY_LIMIT")
	setString(&c.Prompt.Dir, "AGENTPILOT_PROMPT_DIR")
	setString(&c.Prompt.Version, "AGENTPILOT_PROMPT_VERSION")
	setString(&c.Server.Addr, "AGENTPILOT_SERVER_ADDR")
	setString(&c.Engine.DefaultAgent, "AGENTPILOT_DEFAULT_AGENT")
	setString(&c.Logging.Level, "AGENTPILOT_LOG_LEVEL")
	setString(&c.Logging.Format, "AGENTPILOT_LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
