package config

// BudgetConfig configures the shared budget pool (§4.5).
type BudgetConfig struct {
	TotalTokens       int64   `yaml:"total_tokens"`
	TotalCost         float64 `yaml:"total_cost"`
	MaxTokensPerChild int64   `yaml:"max_tokens_per_child"`
	MaxCostPerChild   float64 `yaml:"max_cost_per_child"`
	ParentReserveRatio float64 `yaml:"parent_reserve_ratio"`
}

func (b BudgetConfig) withDefaults() BudgetConfig {
	if b.MaxTokensPerChild <= 0 {
		b.MaxTokensPerChild = 100_000
	}
	if b.ParentReserveRatio <= 0 {
		b.ParentReserveRatio = 0.25
	}
	return b
}

// Validate reports a descriptive error for an unusable BudgetConfig.
func (b BudgetConfig) Validate() error {
	if b.TotalTokens < 0 {
		return errConfig("budget.total_tokens must be non-negative")
	}
	if b.ParentReserveRatio < 0 || b.ParentReserveRatio >= 1 {
		return errConfig("budget.parent_reserve_ratio must be in [0, 1)")
	}
	return nil
}
