// Package config loads the agent execution core's configuration: YAML
// (or JSON5) documents with $include merging and environment variable
// expansion, decoded into typed, validated structs.
package config

import "time"

// Config is the root configuration document.
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	Tools   ToolsConfig   `yaml:"tools"`
	Budget  BudgetConfig  `yaml:"budget"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Cache   CacheConfig   `yaml:"cache"`
	Retry   RetryConfig   `yaml:"retry"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Store   StoreConfig   `yaml:"store"`
}

// Load reads path (resolving $include directives and expanding
// environment variables), decodes it into a Config, and validates it.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Agent = c.Agent.withDefaults()
	c.Tools.Policy = c.Tools.Policy.withDefaults()
	c.Budget = c.Budget.withDefaults()
	c.Bridge = c.Bridge.withDefaults()
	c.Retry = c.Retry.withDefaults()
	c.Store = c.Store.withDefaults()
	c.Sandbox = c.Sandbox.withDefaults()
}

// Validate checks cross-field invariants the individual section
// validators can't see on their own.
func (c *Config) Validate() error {
	if err := c.Agent.Validate(); err != nil {
		return err
	}
	if err := c.Tools.Policy.Validate(); err != nil {
		return err
	}
	if err := c.Budget.Validate(); err != nil {
		return err
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	if err := c.Sandbox.Validate(); err != nil {
		return err
	}
	return nil
}

// AgentConfig configures the agent loop (§4.1).
type AgentConfig struct {
	MaxIterations   int           `yaml:"max_iterations"`
	MaxToolCalls    int           `yaml:"max_tool_calls"`
	MaxWallTime     time.Duration `yaml:"max_wall_time"`
	MaxResponseSize int           `yaml:"max_response_size"`
	BasePath        string        `yaml:"base_path"`
	SystemPrompt    string        `yaml:"system_prompt"`
	ConfidenceHalt  float64       `yaml:"confidence_halt"`
}

func (a AgentConfig) withDefaults() AgentConfig {
	if a.MaxIterations <= 0 {
		a.MaxIterations = 50
	}
	if a.MaxToolCalls <= 0 {
		a.MaxToolCalls = 16
	}
	if a.MaxWallTime <= 0 {
		a.MaxWallTime = 10 * time.Minute
	}
	if a.MaxResponseSize <= 0 {
		a.MaxResponseSize = 1 << 20
	}
	if a.ConfidenceHalt <= 0 {
		a.ConfidenceHalt = 0.6
	}
	return a
}

// Validate reports a descriptive error for an unusable AgentConfig.
func (a AgentConfig) Validate() error {
	if a.MaxIterations <= 0 {
		return errConfig("agent.max_iterations must be positive")
	}
	return nil
}
