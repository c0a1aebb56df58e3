package config

import "time"

// RetryConfig configures the retry/backoff layer (§4.3).
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialDelay   time.Duration `yaml:"initial_delay"`
	MaxDelay       time.Duration `yaml:"max_delay"`
}

func (r RetryConfig) withDefaults() RetryConfig {
	if r.MaxRetries <= 0 {
		r.MaxRetries = 3
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 100 * time.Millisecond
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = 5 * time.Second
	}
	return r
}

// Validate reports a descriptive error for an unusable RetryConfig.
func (r RetryConfig) Validate() error {
	if r.InitialDelay > r.MaxDelay {
		return errConfig("retry.initial_delay must not exceed retry.max_delay")
	}
	return nil
}
