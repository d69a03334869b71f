package models

// ModelPricing defines per-1K token costs for a (provider, model) pair.
type ModelPricing struct {
	Provider   string  `json:"provider" yaml:"provider"`
	Model      string  `json:"model" yaml:"model"`
	InputCost  float64 `json:"input_cost_per_1k" yaml:"input_cost_per_1k"`
	OutputCost float64 `json:"output_cost_per_1k" yaml:"output_cost_per_1k"`
}
