// Package pricing estimates provider call cost from a static per-1K-token
// table.
package pricing

import (
	"errors"
	"fmt"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

// ErrUnknownPricing is returned for (provider, model) pairs with no table
// entry, so callers can flag uninstrumented cost instead of assuming zero.
var ErrUnknownPricing = errors.New("unknown pricing")

// builtin holds the default per-1K token prices in USD.
var builtin = []models.ModelPricing{
	{Provider: "openai", Model: "gpt-3.5-turbo", InputCost: 0.0015, OutputCost: 0.002},
	{Provider: "openai", Model: "gpt-4", InputCost: 0.03, OutputCost: 0.06},
	{Provider: "openai", Model: "gpt-4-turbo", InputCost: 0.01, OutputCost: 0.03},
	{Provider: "anthropic", Model: "claude-3-opus", InputCost: 0.015, OutputCost: 0.075},
	{Provider: "anthropic", Model: "claude-3-sonnet", InputCost: 0.003, OutputCost: 0.015},
	{Provider: "anthropic", Model: "claude-3-haiku", InputCost: 0.00025, OutputCost: 0.00125},
	{Provider: "google", Model: "gemini-pro", InputCost: 0.00025, OutputCost: 0.0005},
}

// Estimator is a pure lookup over the pricing table. Safe for concurrent use
// after construction.
type Estimator struct {
	table map[string]models.ModelPricing
}

func key(provider, model string) string {
	return provider + "/" + model
}

// New builds an Estimator from the built-in table with overrides layered on
// top. Ollama models are local and free regardless of overrides.
func New(overrides []models.ModelPricing) *Estimator {
	table := make(map[string]models.ModelPricing, len(builtin)+len(overrides))
	for _, p := range builtin {
		table[key(p.Provider, p.Model)] = p
	}
	for _, p := range overrides {
		table[key(p.Provider, p.Model)] = p
	}
	return &Estimator{table: table}
}

// Estimate returns the cost of a call in USD.
func (e *Estimator) Estimate(provider, model string, inputTokens, outputTokens int) (float64, error) {
	if provider == "ollama" {
		return 0, nil
	}
	p, ok := e.table[key(provider, model)]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnknownPricing, provider, model)
	}
	return float64(inputTokens)/1000*p.InputCost + float64(outputTokens)/1000*p.OutputCost, nil
}

// Table returns the effective pricing entries, for display.
func (e *Estimator) Table() []models.ModelPricing {
	out := make([]models.ModelPricing, 0, len(e.table))
	for _, p := range e.table {
		out = append(out, p)
	}
	return out
}
