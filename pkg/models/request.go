package models

import "time"

// Params holds the decoding parameters of a generation request. They are part
// of the request fingerprint, so every field must marshal deterministically.
type Params struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopP        float64 `json:"top_p,omitempty"`
}

// NormalizedRequest is the provider-agnostic form of a generation request.
type NormalizedRequest struct {
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	Prompt       string        `json:"prompt"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
	Params       Params        `json:"params"`
	ProjectID    string        `json:"project_id,omitempty"`
	Timeout      time.Duration `json:"-"`
}

// ContextBlock is project context merged into prompts before dispatch.
type ContextBlock struct {
	Genre      string   `json:"genre,omitempty"`
	Tone       string   `json:"tone,omitempty"`
	Characters []string `json:"characters,omitempty"`
	RecentText string   `json:"recent_text,omitempty"`
}

// ProviderResult is the common shape every provider adapter returns.
type ProviderResult struct {
	Text         string `json:"text"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Response is the caller-visible result of a gateway request.
type Response struct {
	Text         string  `json:"text"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
	CostKnown    bool    `json:"cost_known"`
	Cached       bool    `json:"cached"`
}
