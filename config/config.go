// Package config loads engine configuration from YAML with environment
// variable overrides. A missing config file is not an error; defaults apply.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agenthive/agent"
)

// Config is the root configuration document.
type Config struct {
	Engine       EngineConfig       `yaml:"engine"`
	Workspace    WorkspaceConfig    `yaml:"workspace"`
	NATS         NATSConfig         `yaml:"nats"`
	Models       ModelsConfig       `yaml:"models"`
	RemoteAgents []agent.RemoteSpec `yaml:"remote_agents"`
}

// EngineConfig bounds scheduler execution.
type EngineConfig struct {
	MaxAgentTurns           int    `yaml:"max_agent_turns"`
	MaxCycles               int    `yaml:"max_cycles"`
	DoneMarker              string `yaml:"done_marker"`
	MaxConcurrentWorkspaces int    `yaml:"max_concurrent_workspaces"`
}

// WorkspaceConfig bounds the workspace hierarchy.
type WorkspaceConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// NATSConfig holds the connection URL for NATS-based remote agents.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// ModelsConfig carries provider credentials. Prefer environment variables
// over committing keys to config files.
type ModelsConfig struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
}

func defaults() Config {
	return Config{
		Engine: EngineConfig{
			MaxAgentTurns:           25,
			DoneMarker:              "TASK_COMPLETE",
			MaxConcurrentWorkspaces: 10,
		},
		Workspace: WorkspaceConfig{
			MaxDepth: 5,
		},
		NATS: NATSConfig{
			URL: "nats://127.0.0.1:4222",
		},
	}
}

// Load reads the config file named by AGENTHIVE_CONFIG (default
// config/agenthive.yaml). A .env file in the working directory is loaded
// first so ${VAR} expansion and env overrides see it.
func Load() (*Config, error) {
	path := os.Getenv("AGENTHIVE_CONFIG")
	if path == "" {
		path = "config/agenthive.yaml"
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path, falling back to defaults when the
// file does not exist.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults + env
	} else {
		// Expand environment variables in YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Models.AnthropicAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Models.OpenAIAPIKey = v
	}
	if v := os.Getenv("AGENTHIVE_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("AGENTHIVE_MAX_AGENT_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxAgentTurns = n
		}
	}
	if v := os.Getenv("AGENTHIVE_MAX_CYCLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxCycles = n
		}
	}
	if v := os.Getenv("AGENTHIVE_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workspace.MaxDepth = n
		}
	}
	if v := os.Getenv("AGENTHIVE_DONE_MARKER"); v != "" {
		cfg.Engine.DoneMarker = v
	}
}

func validate(cfg *Config) error {
	if cfg.Engine.MaxAgentTurns < 0 {
		return fmt.Errorf("engine.max_agent_turns must not be negative")
	}
	if cfg.Engine.MaxCycles < 0 {
		return fmt.Errorf("engine.max_cycles must not be negative")
	}
	if cfg.Workspace.MaxDepth < 1 {
		return fmt.Errorf("workspace.max_depth must be at least 1")
	}
	for i, spec := range cfg.RemoteAgents {
		if spec.Role == "" {
			return fmt.Errorf("remote_agents[%d]: role is required", i)
		}
	}
	return nil
}
