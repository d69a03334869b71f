package models

import "time"

// UsageRecord is one row of the append-only accounting log. Exactly one
// record exists per attempted provider call; cache hits never produce one.
type UsageRecord struct {
	ID           int64         `json:"id"`
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	Fingerprint  string        `json:"fingerprint"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	TotalTokens  int           `json:"total_tokens"`
	Cost         float64       `json:"cost"`
	Latency      time.Duration `json:"latency"`
	Success      bool          `json:"success"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// UsageSummary aggregates usage per provider and model.
type UsageSummary struct {
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	RequestCount int     `json:"request_count"`
	Failures     int     `json:"failures"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalTokens  int64   `json:"total_tokens"`
	TotalCost    float64 `json:"total_cost"`
}

// UsageTotals holds overall counters for a trailing window.
type UsageTotals struct {
	RequestCount int     `json:"request_count"`
	Failures     int     `json:"failures"`
	TotalTokens  int64   `json:"total_tokens"`
	TotalCost    float64 `json:"total_cost"`
}
