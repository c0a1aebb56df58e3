package config

// BridgeConfig configures the protocol bridge's queues (§4.4).
type BridgeConfig struct {
	SubmissionQueueCapacity int `yaml:"submission_queue_capacity"`
	RecentEventsCapacity    int `yaml:"recent_events_capacity"`
	Workers                 int `yaml:"workers"`
}

func (b BridgeConfig) withDefaults() BridgeConfig {
	if b.SubmissionQueueCapacity <= 0 {
		b.SubmissionQueueCapacity = 64
	}
	if b.RecentEventsCapacity <= 0 {
		b.RecentEventsCapacity = 100
	}
	if b.Workers <= 0 {
		b.Workers = 1
	}
	return b
}

// CacheConfig toggles the cache-aware context assembler (§4.6).
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
}
