package pricing

import (
	"errors"
	"testing"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

func TestEstimateDeterminism(t *testing.T) {
	e := New(nil)

	// estimate(p, m, 1000, 1000) must equal price_in + price_out exactly.
	for _, p := range e.Table() {
		got, err := e.Estimate(p.Provider, p.Model, 1000, 1000)
		if err != nil {
			t.Fatalf("%s/%s: %v", p.Provider, p.Model, err)
		}
		want := p.InputCost + p.OutputCost
		if got != want {
			t.Errorf("%s/%s: got %v, want %v", p.Provider, p.Model, got, want)
		}
	}
}

func TestEstimateProportional(t *testing.T) {
	e := New(nil)

	got, err := e.Estimate("openai", "gpt-4", 500, 250)
	if err != nil {
		t.Fatal(err)
	}
	want := 0.5*0.03 + 0.25*0.06
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestUnknownPricing(t *testing.T) {
	e := New(nil)

	_, err := e.Estimate("openai", "gpt-99", 1000, 1000)
	if !errors.Is(err, ErrUnknownPricing) {
		t.Errorf("expected ErrUnknownPricing, got %v", err)
	}
}

func TestOllamaIsFree(t *testing.T) {
	e := New(nil)

	got, err := e.Estimate("ollama", "llama2", 5000, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("local models are free, got %v", got)
	}
}

func TestOverrides(t *testing.T) {
	e := New([]models.ModelPricing{
		{Provider: "openai", Model: "gpt-4", InputCost: 0.01, OutputCost: 0.02},
		{Provider: "mistral", Model: "mistral-large", InputCost: 0.004, OutputCost: 0.012},
	})

	got, err := e.Estimate("openai", "gpt-4", 1000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0.03 {
		t.Errorf("override not applied: got %v", got)
	}

	if _, err := e.Estimate("mistral", "mistral-large", 1000, 1000); err != nil {
		t.Errorf("new pair from override should be priced, got %v", err)
	}
}
