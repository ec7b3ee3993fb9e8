package config

import (
	"encoding/json"
	"net/http"

	"financial_insights/pkg/core/config"
	"financial_insights/pkg/core/prompt"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AnalysisSettings is the effective model and failure policy of one kind.
type AnalysisSettings struct {
	Kind      prompt.Kind `json:"kind"`
	Model     string      `json:"model"`
	OnFailure string      `json:"on_failure"`
}

type Response struct {
	Provider         string             `json:"provider"`
	DefaultTextModel string             `json:"default_text_model"`
	VisionModel      string             `json:"vision_model"`
	MaxRetries       int                `json:"max_retries"`
	TimeoutSeconds   int                `json:"timeout_seconds"`
	PercentileMethod string             `json:"percentile_method"`
	DatabaseEnabled  bool               `json:"database_enabled"`
	Analyses         []AnalysisSettings `json:"analyses"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	cfg *config.Config
}

// NewHandler creates a new config handler
func NewHandler(cfg *config.Config) *Handler {
	return &Handler{cfg: cfg}
}

// Routes mounts the config endpoint.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/config", h.HandleConfig)
}

// HandleConfig reports the effective settings. Secrets are never included.
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Provider:         h.cfg.ProviderConfig().Name,
		DefaultTextModel: h.cfg.DefaultTextModel,
		VisionModel:      h.cfg.VisionModel,
		MaxRetries:       h.cfg.MaxRetries,
		TimeoutSeconds:   h.cfg.TimeoutSeconds,
		PercentileMethod: h.cfg.PercentileMethod,
		DatabaseEnabled:  h.cfg.DatabaseURL != "",
	}
	for _, kind := range prompt.AllKinds {
		model := h.cfg.ModelFor(kind)
		if model == "" {
			model = h.cfg.DefaultTextModel
		}
		resp.Analyses = append(resp.Analyses, AnalysisSettings{
			Kind:      kind,
			Model:     model,
			OnFailure: string(h.cfg.PolicyFor(kind)),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode config")
	}
}
