package provider

import (
	"log"

	"github.com/inkwell-ai/inkgate/pkg/config"
)

// Registry resolves provider names to configured adapters.
type Registry struct {
	clients map[string]Client
	order   []string
}

// NewRegistry builds adapters for every configured provider. Unknown names
// are skipped with a log line. Ollama is always available, with a default
// local URL when not configured explicitly.
func NewRegistry(cfg *config.Config, opts Options) *Registry {
	r := &Registry{clients: make(map[string]Client)}

	for _, p := range cfg.Providers {
		var client Client
		switch p.Name {
		case "openai":
			client = NewOpenAI(p.APIKey, p.BaseURL, opts)
		case "anthropic":
			client = NewAnthropic(p.APIKey, p.BaseURL, opts)
		case "google":
			client = NewGoogle(p.APIKey, p.BaseURL, opts)
		case "ollama":
			client = NewOllama(p.BaseURL, opts)
		default:
			log.Printf("skipping unknown provider %q", p.Name)
			continue
		}
		r.add(client)
	}

	if _, ok := r.clients["ollama"]; !ok {
		r.add(NewOllama("", opts))
	}

	return r
}

func (r *Registry) add(c Client) {
	if _, ok := r.clients[c.Name()]; ok {
		return
	}
	r.clients[c.Name()] = c
	r.order = append(r.order, c.Name())
}

// Get returns the adapter for a provider name.
func (r *Registry) Get(name string) (Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Available lists provider names in configuration order.
func (r *Registry) Available() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
