package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

const defaultOpenAIURL = "https://api.openai.com"

// OpenAI calls the chat completions endpoint.
type OpenAI struct {
	apiKey  string
	baseURL string
	opts    Options
}

// NewOpenAI creates an OpenAI adapter. baseURL overrides the public endpoint
// when non-empty.
func NewOpenAI(apiKey, baseURL string, opts Options) *OpenAI {
	if baseURL == "" {
		baseURL = defaultOpenAIURL
	}
	return &OpenAI{apiKey: apiKey, baseURL: baseURL, opts: opts}
}

// Name implements Client.
func (c *OpenAI) Name() string { return "openai" }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	TopP        float64         `json:"top_p,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Send implements Client.
func (c *OpenAI) Send(ctx context.Context, req models.NormalizedRequest) (*models.ProviderResult, error) {
	var messages []openAIMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: req.Prompt})

	payload := openAIRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.Params.MaxTokens,
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	body, err := postJSON(ctx, c.Name(), c.opts, c.baseURL+"/v1/chat/completions", headers, payload, req.Timeout)
	if err != nil {
		return nil, tagProvider(c.Name(), err)
	}

	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: response contained no choices")
	}

	return &models.ProviderResult{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}
