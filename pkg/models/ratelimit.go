package models

import "time"

// RateLimitStatus reports a provider's current window for UI display.
type RateLimitStatus struct {
	Provider  string        `json:"provider"`
	Limit     int           `json:"limit"`
	Remaining int           `json:"remaining"`
	ResetIn   time.Duration `json:"reset_in"`
}
