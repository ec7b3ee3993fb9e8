package insight

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	coreInsight "financial_insights/pkg/core/insight"
	"financial_insights/pkg/core/llm"
	"financial_insights/pkg/core/prompt"
	"financial_insights/pkg/core/store"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Runner produces insights. *insight.Service implements it.
type Runner interface {
	Run(ctx context.Context, documentID int64, kind prompt.Kind, req coreInsight.Request) (any, error)
}

// History serves previously generated insights. *store.InsightRepo implements it.
type History interface {
	Latest(ctx context.Context, documentID int64, kind string) (*store.StoredInsight, error)
}

// Catalog lists the registered prompt templates. *prompt.Registry implements it.
type Catalog interface {
	ListByCategory(category string) []*prompt.PromptTemplate
}

// InsightRequest is the optional body of a generate request.
type InsightRequest struct {
	Question string `json:"question"`
	Industry string `json:"industry"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler holds dependencies for insight endpoints
type Handler struct {
	runner  Runner
	history History
	catalog Catalog
}

// NewHandler creates a new insight handler. history may be nil when no database is configured.
// Kinds are listed from the built-in templates until SetCatalog is called.
func NewHandler(runner Runner, history History) *Handler {
	return &Handler{runner: runner, history: history, catalog: prompt.NewRegistry()}
}

// SetCatalog lists kinds from c, typically the registry holding loaded overrides.
func (h *Handler) SetCatalog(c Catalog) {
	h.catalog = c
}

// Routes mounts the insight endpoints under a document.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/documents/{id}/insights/{kind}", h.HandleGenerate)
	r.Get("/documents/{id}/insights/{kind}/latest", h.HandleLatest)
	r.Get("/insights/kinds", h.HandleKinds)
}

// HandleGenerate runs one analysis and returns its DTO.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	docID, kind, ok := pathParams(w, r)
	if !ok {
		return
	}

	// The body is optional.
	var req InsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.runner.Run(ctx, docID, kind, coreInsight.Request{Question: req.Question, Industry: req.Industry})
	if err != nil {
		status := statusFor(err)
		logger.Error().
			Err(err).
			Int64("document_id", docID).
			Str("kind", string(kind)).
			Int("status", status).
			Msg("insight request failed")
		writeError(w, status, err.Error())
		return
	}

	writeJSON(ctx, w, http.StatusOK, result)
}

// HandleLatest returns the most recent stored insight of a kind.
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	docID, kind, ok := pathParams(w, r)
	if !ok {
		return
	}
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "insight history is not configured")
		return
	}

	stored, err := h.history.Latest(r.Context(), docID, string(kind))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to load insight history")
		writeError(w, http.StatusInternalServerError, "failed to load insight")
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, stored)
}

// KindInfo describes one analysis kind and the template behind it.
type KindInfo struct {
	Kind        prompt.Kind `json:"kind"`
	Structured  bool        `json:"structured"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
}

// HandleKinds lists the analysis kinds with a registered template, structured kinds
// first, each group sorted by template ID.
func (h *Handler) HandleKinds(w http.ResponseWriter, r *http.Request) {
	kinds := make([]KindInfo, 0, len(prompt.AllKinds))
	for _, category := range []string{prompt.CategoryStructured, prompt.CategoryNarrative} {
		for _, pt := range h.catalog.ListByCategory(category) {
			kind, ok := prompt.KindFromID(pt.ID)
			if !ok {
				continue
			}
			kinds = append(kinds, KindInfo{
				Kind:        kind,
				Structured:  kind.Structured(),
				Name:        pt.Name,
				Description: pt.Description,
				Version:     pt.Version,
			})
		}
	}
	writeJSON(r.Context(), w, http.StatusOK, kinds)
}

func pathParams(w http.ResponseWriter, r *http.Request) (int64, prompt.Kind, bool) {
	docID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || docID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return 0, "", false
	}
	kind, ok := prompt.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown insight kind")
		return 0, "", false
	}
	return docID, kind, true
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, coreInsight.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, coreInsight.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, coreInsight.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, llm.ErrUnavailable), errors.Is(err, llm.ErrEmptyResponse), errors.Is(err, llm.ErrBadRequest):
		return http.StatusBadGateway
	}
	var genErr *llm.GenerationError
	if errors.As(err, &genErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
