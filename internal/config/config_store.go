package config

// StoreConfig configures the run-history persistence adapter. Driver is
// "sqlite" or "postgres"; DSN is the driver-specific connection string.
// An empty Driver disables persistence.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

func (s StoreConfig) withDefaults() StoreConfig {
	if s.Driver == "" {
		return s
	}
	if s.DSN == "" && s.Driver == "sqlite" {
		s.DSN = "agentcore.db"
	}
	return s
}
