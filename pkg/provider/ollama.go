package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama calls a local Ollama server. Local models are free and need no
// credentials.
type Ollama struct {
	baseURL string
	opts    Options
}

// NewOllama creates an Ollama adapter.
func NewOllama(baseURL string, opts Options) *Ollama {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return &Ollama{baseURL: baseURL, opts: opts}
}

// Name implements Client.
func (c *Ollama) Name() string { return "ollama" }

type ollamaRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	System  string `json:"system,omitempty"`
	Stream  bool   `json:"stream"`
	Options struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict,omitempty"`
	} `json:"options"`
}

type ollamaResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Send implements Client.
func (c *Ollama) Send(ctx context.Context, req models.NormalizedRequest) (*models.ProviderResult, error) {
	payload := ollamaRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		System: req.SystemPrompt,
		Stream: false,
	}
	payload.Options.Temperature = req.Params.Temperature
	payload.Options.NumPredict = req.Params.MaxTokens

	body, err := postJSON(ctx, c.Name(), c.opts, c.baseURL+"/api/generate", nil, payload, req.Timeout)
	if err != nil {
		return nil, tagProvider(c.Name(), err)
	}

	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}

	return &models.ProviderResult{
		Text:         resp.Response,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
	}, nil
}
