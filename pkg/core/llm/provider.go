// Package llm talks to text generation backends. Providers perform a single call;
// Client adds per-attempt timeouts and retries on top.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Options are sampling parameters forwarded to the backend.
type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Request is a single generation call.
type Request struct {
	Model   string
	Prompt  string
	System  string
	Images  []string // base64 encoded, routed to the vision model
	Options Options
}

// Provider is the interface for all LLM providers.
// Implementations classify failures with the Err* sentinels so Client can decide
// whether to retry.
type Provider interface {
	GenerateResponse(ctx context.Context, req Request) (string, error)
	Name() string
}

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	Name          string // "ollama" (default) or "gemini"
	OllamaBaseURL string
	GeminiAPIKey  string
}

// NewProvider returns the provider named in cfg.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(cfg.Name) {
	case "", "ollama":
		return NewOllamaProvider(cfg.OllamaBaseURL), nil
	case "gemini":
		return NewGeminiProvider(cfg.GeminiAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Name)
	}
}
