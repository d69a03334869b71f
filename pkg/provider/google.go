package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

const defaultGoogleURL = "https://generativelanguage.googleapis.com"

// Google calls the Gemini generateContent endpoint.
type Google struct {
	apiKey  string
	baseURL string
	opts    Options
}

// NewGoogle creates a Google adapter.
func NewGoogle(apiKey, baseURL string, opts Options) *Google {
	if baseURL == "" {
		baseURL = defaultGoogleURL
	}
	return &Google{apiKey: apiKey, baseURL: baseURL, opts: opts}
}

// Name implements Client.
func (c *Google) Name() string { return "google" }

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googleRequest struct {
	Contents         []googleContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Send implements Client. The system prompt is prepended to the user prompt;
// the v1 endpoint has no separate system slot.
func (c *Google) Send(ctx context.Context, req models.NormalizedRequest) (*models.ProviderResult, error) {
	prompt := req.Prompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\n" + prompt
	}

	var payload googleRequest
	payload.Contents = []googleContent{{Parts: []googlePart{{Text: prompt}}}}
	payload.GenerationConfig.Temperature = req.Params.Temperature
	payload.GenerationConfig.MaxOutputTokens = req.Params.MaxTokens

	endpoint := fmt.Sprintf("%s/v1/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(req.Model), url.QueryEscape(c.apiKey))

	body, err := postJSON(ctx, c.Name(), c.opts, endpoint, nil, payload, req.Timeout)
	if err != nil {
		return nil, tagProvider(c.Name(), err)
	}

	var resp googleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("google: decode response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("google: response contained no candidates")
	}

	return &models.ProviderResult{
		Text:         resp.Candidates[0].Content.Parts[0].Text,
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
	}, nil
}
