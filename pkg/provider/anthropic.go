package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

const (
	defaultAnthropicURL = "https://api.anthropic.com"
	anthropicVersion    = "2023-06-01"
)

// Anthropic calls the messages endpoint.
type Anthropic struct {
	apiKey  string
	baseURL string
	opts    Options
}

// NewAnthropic creates an Anthropic adapter.
func NewAnthropic(apiKey, baseURL string, opts Options) *Anthropic {
	if baseURL == "" {
		baseURL = defaultAnthropicURL
	}
	return &Anthropic{apiKey: apiKey, baseURL: baseURL, opts: opts}
}

// Name implements Client.
func (c *Anthropic) Name() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Send implements Client.
func (c *Anthropic) Send(ctx context.Context, req models.NormalizedRequest) (*models.ProviderResult, error) {
	payload := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.Params.MaxTokens,
		Temperature: req.Params.Temperature,
		System:      req.SystemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	body, err := postJSON(ctx, c.Name(), c.opts, c.baseURL+"/v1/messages", headers, payload, req.Timeout)
	if err != nil {
		return nil, tagProvider(c.Name(), err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("anthropic: decode response: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("anthropic: response contained no content blocks")
	}

	return &models.ProviderResult{
		Text:         resp.Content[0].Text,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
