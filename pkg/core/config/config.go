// Package config loads service settings from a YAML file, an optional .env file
// and environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"financial_insights/pkg/core/calc"
	"financial_insights/pkg/core/insight"
	"financial_insights/pkg/core/llm"
	"financial_insights/pkg/core/prompt"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config is the full service configuration.
type Config struct {
	Provider          string  `yaml:"provider"` // ollama | gemini
	OllamaBaseURL     string  `yaml:"ollama_base_url"`
	GeminiAPIKey      string  `yaml:"gemini_api_key"`
	DefaultTextModel  string  `yaml:"default_text_model"`
	VisionModel       string  `yaml:"vision_model"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	TopP              float64 `yaml:"top_p"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	MaxRetries        int     `yaml:"max_retries"`
	RetryDelaySeconds float64 `yaml:"retry_delay_seconds"`

	DatabaseURL   string `yaml:"database_url"`
	PromptsDir    string `yaml:"prompts_dir"`
	BenchmarksDir string `yaml:"benchmarks_dir"`
	ListenAddr    string `yaml:"listen_addr"`

	PercentileMethod string  `yaml:"percentile_method"` // zscore | quartile
	AnomalyThreshold float64 `yaml:"anomaly_threshold"`
	DefaultIndustry  string  `yaml:"default_industry"`

	// Per-analysis overrides keyed by kind (health, risk, cashflow, ...).
	Analyses map[string]AnalysisConfig `yaml:"analyses"`
}

// AnalysisConfig overrides the model and failure policy of one analysis kind.
type AnalysisConfig struct {
	Model       string `yaml:"model"`
	OnFailure   string `yaml:"on_failure"` // propagate | fallback
	Description string `yaml:"description"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Provider:          "ollama",
		OllamaBaseURL:     "http://localhost:11434",
		DefaultTextModel:  "llama3.2",
		VisionModel:       "llava",
		MaxTokens:         2000,
		Temperature:       0.7,
		TopP:              0.9,
		TimeoutSeconds:    120,
		MaxRetries:        3,
		RetryDelaySeconds: 1,
		ListenAddr:        ":8080",
		PercentileMethod:  string(calc.PercentileZScore),
		AnomalyThreshold:  2.0,
		DefaultIndustry:   "General",
	}
}

// Load reads .env (when present), then path (when non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LLM_PROVIDER":       &c.Provider,
		"OLLAMA_BASE_URL":    &c.OllamaBaseURL,
		"GEMINI_API_KEY":     &c.GeminiAPIKey,
		"DEFAULT_TEXT_MODEL": &c.DefaultTextModel,
		"VISION_MODEL":       &c.VisionModel,
		"DATABASE_URL":       &c.DatabaseURL,
		"PROMPTS_DIR":        &c.PromptsDir,
		"BENCHMARKS_DIR":     &c.BenchmarksDir,
		"LISTEN_ADDR":        &c.ListenAddr,
		"PERCENTILE_METHOD":  &c.PercentileMethod,
		"DEFAULT_INDUSTRY":   &c.DefaultIndustry,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MAX_TOKENS":      &c.MaxTokens,
		"TIMEOUT_SECONDS": &c.TimeoutSeconds,
		"MAX_RETRIES":     &c.MaxRetries,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"TEMPERATURE":         &c.Temperature,
		"TOP_P":               &c.TopP,
		"RETRY_DELAY_SECONDS": &c.RetryDelaySeconds,
		"ANOMALY_THRESHOLD":   &c.AnomalyThreshold,
	}
	for key, dst := range floats {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = f
		}
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var problems []string

	switch strings.ToLower(c.Provider) {
	case "", "ollama", "gemini":
	default:
		problems = append(problems, fmt.Sprintf("unknown provider %q", c.Provider))
	}
	switch calc.PercentileMethod(c.PercentileMethod) {
	case calc.PercentileZScore, calc.PercentileQuartile:
	default:
		problems = append(problems, fmt.Sprintf("unknown percentile_method %q", c.PercentileMethod))
	}
	if c.MaxRetries < 1 {
		problems = append(problems, "max_retries must be at least 1")
	}
	if c.TimeoutSeconds <= 0 {
		problems = append(problems, "timeout_seconds must be positive")
	}
	if c.RetryDelaySeconds < 0 {
		problems = append(problems, "retry_delay_seconds must not be negative")
	}

	kinds := make([]string, 0, len(c.Analyses))
	for k := range c.Analyses {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		if _, ok := prompt.ParseKind(k); !ok {
			problems = append(problems, fmt.Sprintf("unknown analysis %q", k))
		}
		switch insight.FailurePolicy(c.Analyses[k].OnFailure) {
		case "", insight.PolicyPropagate, insight.PolicyFallback:
		default:
			problems = append(problems, fmt.Sprintf("analysis %s: unknown on_failure %q", k, c.Analyses[k].OnFailure))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ModelFor returns the model configured for kind, "" for the client default.
func (c *Config) ModelFor(kind prompt.Kind) string {
	return c.Analyses[string(kind)].Model
}

// PolicyFor returns the failure policy of kind. Unset kinds keep the service
// default: fallback for cashflow, propagate for everything else.
func (c *Config) PolicyFor(kind prompt.Kind) insight.FailurePolicy {
	if p := c.Analyses[string(kind)].OnFailure; p != "" {
		return insight.FailurePolicy(p)
	}
	if p, ok := insight.DefaultConfig().Policies[kind]; ok {
		return p
	}
	return insight.PolicyPropagate
}

// ProviderConfig selects the generation backend.
func (c *Config) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Name:          strings.ToLower(c.Provider),
		OllamaBaseURL: c.OllamaBaseURL,
		GeminiAPIKey:  c.GeminiAPIKey,
	}
}

// ClientConfig returns the retry and model settings of the generation client.
func (c *Config) ClientConfig() llm.ClientConfig {
	return llm.ClientConfig{
		DefaultModel: c.DefaultTextModel,
		VisionModel:  c.VisionModel,
		Options: llm.Options{
			Temperature: c.Temperature,
			TopP:        c.TopP,
			MaxTokens:   c.MaxTokens,
		},
		Timeout:    time.Duration(c.TimeoutSeconds) * time.Second,
		MaxRetries: c.MaxRetries,
		RetryDelay: time.Duration(c.RetryDelaySeconds * float64(time.Second)),
	}
}

// InsightConfig returns the per-kind models and failure policies of the insight service.
func (c *Config) InsightConfig() insight.Config {
	cfg := insight.Config{
		Models:           make(map[prompt.Kind]string),
		Policies:         make(map[prompt.Kind]insight.FailurePolicy),
		PercentileMethod: calc.PercentileMethod(c.PercentileMethod),
		AnomalyThreshold: c.AnomalyThreshold,
		DefaultIndustry:  c.DefaultIndustry,
	}
	for _, kind := range prompt.AllKinds {
		if m := c.ModelFor(kind); m != "" {
			cfg.Models[kind] = m
		}
		cfg.Policies[kind] = c.PolicyFor(kind)
	}
	return cfg
}

// Redacted returns a copy that is safe to log or serve.
func (c *Config) Redacted() Config {
	out := *c
	if out.GeminiAPIKey != "" {
		out.GeminiAPIKey = "***"
	}
	if out.DatabaseURL != "" {
		out.DatabaseURL = "***"
	}
	return out
}
