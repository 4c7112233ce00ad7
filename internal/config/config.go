// Package config loads the A2A client configuration from .a2a/config.json
// with environment variable overrides. Operator-edited settings (API keys,
// custom instructions) are persisted in the durable store; this package only
// supplies bootstrap values and defaults.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"a2aclient/internal/types"
)

// DefaultAIInstruction is the system instruction sent with primary-provider
// chat completions until the operator overrides it.
const DefaultAIInstruction = `You are an expert AI agent, a member of a coordinated "AI Family." Your primary role is to assist the user clearly and concisely. Always be aware that you can collaborate with other agents. When providing information, be proactive, anticipate the user's next steps, and suggest how other specialized agents in the family could contribute to complex tasks. Maintain a professional, helpful, and slightly futuristic tone. Your responses should be structured for maximum clarity and actionability.`

// DefaultSystemInstruction is the orchestrator instruction used for hint
// generation and task simulation until the operator overrides it.
const DefaultSystemInstruction = `You are the master System Orchestrator for the A2A (Agent-to-Agent) ecosystem. Your goal is to ensure seamless, efficient, and intelligent operation of all integrated applications and AI agents. When generating plans, hints, or simulations, prioritize strategic alignment with the user's mission objectives, clarity, and actionability. Always think in terms of multi-step workflows, efficient task handoffs, and resource optimization. Your outputs must guide the user towards the most effective use of the entire AI Family, promoting synergy between agents and providing a clear path to mission completion.`

// LoggingConfig controls the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories,omitempty"`
	Level      string          `json:"level,omitempty"`
}

// Config is the full application configuration.
type Config struct {
	Workspace string `json:"-"`

	GeminiAPIKey string        `json:"gemini_api_key,omitempty"`
	Keys         types.APIKeys `json:"api_keys"`

	Instructions types.CustomInstructions `json:"instructions"`

	// Pacing delays for simulated activity. Zero values fall back to the
	// documented defaults; tests set them near zero.
	StepDelay       time.Duration `json:"-"`
	DelegationDelay time.Duration `json:"-"`
	IntroDelay      time.Duration `json:"-"`

	Logging LoggingConfig `json:"logging"`
}

// Default returns the configuration used when no config file exists.
func Default(workspace string) *Config {
	return &Config{
		Workspace: workspace,
		Instructions: types.CustomInstructions{
			AI:     DefaultAIInstruction,
			System: DefaultSystemInstruction,
		},
		StepDelay:       500 * time.Millisecond,
		DelegationDelay: time.Second,
		IntroDelay:      300 * time.Millisecond,
	}
}

// Load reads .a2a/config.json under workspace, falling back to defaults, and
// applies environment overrides. A missing file is not an error.
func Load(workspace string) (*Config, error) {
	cfg := Default(workspace)

	path := filepath.Join(workspace, ".a2a", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.Instructions.AI == "" {
		cfg.Instructions.AI = DefaultAIInstruction
	}
	if cfg.Instructions.System == "" {
		cfg.Instructions.System = DefaultSystemInstruction
	}
	if cfg.StepDelay == 0 {
		cfg.StepDelay = 500 * time.Millisecond
	}
	if cfg.DelegationDelay == 0 {
		cfg.DelegationDelay = time.Second
	}
	if cfg.IntroDelay == 0 {
		cfg.IntroDelay = 300 * time.Millisecond
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets environment variables win over the config file.
// GEMINI_API_KEY falls back to API_KEY for compatibility with hosted builds.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	} else if v := os.Getenv("API_KEY"); v != "" && c.GeminiAPIKey == "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Keys.OpenAI = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.Keys.GitHubToken = v
	}
	if v := os.Getenv("GITHUB_REPO"); v != "" {
		c.Keys.GitHubRepo = v
	}
}

// DBPath returns the SQLite database location for this workspace.
func (c *Config) DBPath() string {
	return filepath.Join(c.Workspace, ".a2a", "a2a.db")
}
