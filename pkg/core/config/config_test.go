package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"financial_insights/pkg/core/calc"
	"financial_insights/pkg/core/insight"
	"financial_insights/pkg/core/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "insights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", env(nil))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.OllamaBaseURL)
	assert.Equal(t, "llama3.2", cfg.DefaultTextModel)

	cc := cfg.ClientConfig()
	assert.Equal(t, 3, cc.MaxRetries)
	assert.Equal(t, time.Second, cc.RetryDelay)
	assert.Equal(t, 120*time.Second, cc.Timeout)
	assert.Equal(t, 2000, cc.Options.MaxTokens)

	ic := cfg.InsightConfig()
	assert.Equal(t, insight.PolicyFallback, ic.Policies[prompt.KindCashFlow])
	assert.Equal(t, insight.PolicyPropagate, ic.Policies[prompt.KindHealth])
	assert.Equal(t, calc.PercentileZScore, ic.PercentileMethod)
	assert.Empty(t, ic.Models)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
provider: ollama
default_text_model: mistral
max_retries: 5
retry_delay_seconds: 0.5
percentile_method: quartile
analyses:
  risk:
    model: qwen2.5
    on_failure: fallback
  cashflow:
    model: llama3.1
`)

	cfg, err := load(path, env(map[string]string{
		"DEFAULT_TEXT_MODEL": "phi3",
		"MAX_RETRIES":        "",
		"TEMPERATURE":        "0.2",
	}))
	require.NoError(t, err)

	assert.Equal(t, "phi3", cfg.DefaultTextModel)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 500*time.Millisecond, cfg.ClientConfig().RetryDelay)
	assert.Equal(t, "qwen2.5", cfg.ModelFor(prompt.KindRisk))
	assert.Equal(t, insight.PolicyFallback, cfg.PolicyFor(prompt.KindRisk))
	// An override without on_failure keeps the cashflow default.
	assert.Equal(t, insight.PolicyFallback, cfg.PolicyFor(prompt.KindCashFlow))
	assert.Equal(t, "llama3.1", cfg.InsightConfig().Models[prompt.KindCashFlow])
	assert.Equal(t, calc.PercentileQuartile, cfg.InsightConfig().PercentileMethod)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
		want string
	}{
		{"provider", "provider: openai", nil, `unknown provider "openai"`},
		{"percentile", "percentile_method: median", nil, `unknown percentile_method "median"`},
		{"retries", "max_retries: 0", nil, "max_retries must be at least 1"},
		{"analysis", "analyses:\n  poetry:\n    model: x", nil, `unknown analysis "poetry"`},
		{"policy", "analyses:\n  risk:\n    on_failure: retry", nil, `unknown on_failure "retry"`},
		{"env int", "", map[string]string{"MAX_TOKENS": "lots"}, `invalid MAX_TOKENS "lots"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(writeConfig(t, tt.yaml), env(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), env(nil))
	assert.Error(t, err)
}

func TestProviderConfigAndRedacted(t *testing.T) {
	cfg, err := load("", env(map[string]string{
		"LLM_PROVIDER":   "Gemini",
		"GEMINI_API_KEY": "secret",
		"DATABASE_URL":   "postgres://u:p@db/insights",
	}))
	require.NoError(t, err)

	pc := cfg.ProviderConfig()
	assert.Equal(t, "gemini", pc.Name)
	assert.Equal(t, "secret", pc.GeminiAPIKey)

	red := cfg.Redacted()
	assert.Equal(t, "***", red.GeminiAPIKey)
	assert.Equal(t, "***", red.DatabaseURL)
	assert.Equal(t, "secret", cfg.GeminiAPIKey)
}
