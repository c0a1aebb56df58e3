package config

import "time"

// ToolsConfig groups the tool registry's sub-configurations.
type ToolsConfig struct {
	Policy    PolicyConfig    `yaml:"policy"`
	Execution ExecutionConfig `yaml:"execution"`
}

// PolicyConfig configures the permission classifier (§4.2).
type PolicyConfig struct {
	// Mode is one of strict, auto-safe, interactive, yolo.
	Mode string `yaml:"mode"`

	// Allowlist/Denylist hold tool-name patterns: exact, "*", "prefix*",
	// "*suffix", or "mcp:*".
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`

	// SafeBins are additional binaries treated as safe regardless of the
	// danger classifier's verdict.
	SafeBins []string `yaml:"safe_bins"`

	RequestTTL time.Duration `yaml:"request_ttl"`
}

func (p PolicyConfig) withDefaults() PolicyConfig {
	if p.Mode == "" {
		p.Mode = "auto-safe"
	}
	if p.RequestTTL <= 0 {
		p.RequestTTL = 5 * time.Minute
	}
	return p
}

// Validate reports a descriptive error for an unusable PolicyConfig.
func (p PolicyConfig) Validate() error {
	switch p.Mode {
	case "strict", "auto-safe", "interactive", "yolo":
		return nil
	default:
		return errConfig("tools.policy.mode must be one of strict, auto-safe, interactive, yolo")
	}
}

// ExecutionConfig controls tool execution concurrency and timeouts.
type ExecutionConfig struct {
	Parallelism int           `yaml:"parallelism"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SandboxConfig configures the bash policy evaluator (§4.2): it maps
// (Mode, WriteProtection) and a command string to an allow/block decision
// in security.EvaluateBashPolicy.
type SandboxConfig struct {
	// Mode is one of disabled, read_only, task_scoped, full.
	Mode string `yaml:"mode"`
	// WriteProtection is "off" or "block_file_mutation".
	WriteProtection string `yaml:"write_protection"`
}

func (s SandboxConfig) withDefaults() SandboxConfig {
	if s.Mode == "" {
		s.Mode = "full"
	}
	if s.WriteProtection == "" {
		s.WriteProtection = "off"
	}
	return s
}

// Validate reports a descriptive error for an unusable SandboxConfig.
func (s SandboxConfig) Validate() error {
	switch s.Mode {
	case "disabled", "read_only", "task_scoped", "full":
	default:
		return errConfig("sandbox.mode must be one of disabled, read_only, task_scoped, full")
	}
	switch s.WriteProtection {
	case "off", "block_file_mutation":
	default:
		return errConfig("sandbox.write_protection must be one of off, block_file_mutation")
	}
	return nil
}
