package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	coreInsight "financial_insights/pkg/core/insight"
	"financial_insights/pkg/core/llm"
	"financial_insights/pkg/core/prompt"
	"financial_insights/pkg/core/store"
	"financial_insights/pkg/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, documentID int64, kind prompt.Kind, req coreInsight.Request) (any, error) {
	args := m.Called(ctx, documentID, kind, req)
	return args.Get(0), args.Error(1)
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) Latest(ctx context.Context, documentID int64, kind string) (*store.StoredInsight, error) {
	args := m.Called(ctx, documentID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.StoredInsight), args.Error(1)
}

func setupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestHandleGenerate(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           string
		setupMock      func(*mockRunner)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "health insight",
			path: "/documents/1/insights/health",
			setupMock: func(m *mockRunner) {
				m.On("Run", mock.Anything, int64(1), prompt.KindHealth, coreInsight.Request{}).
					Return(&models.FinancialHealth{HealthScore: 85, Rating: "Good"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "custom question in body",
			path: "/documents/2/insights/custom",
			body: `{"question":"Is pricing right?"}`,
			setupMock: func(m *mockRunner) {
				m.On("Run", mock.Anything, int64(2), prompt.KindCustom, coreInsight.Request{Question: "Is pricing right?"}).
					Return(&models.AIInsight{Summary: "yes"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad document id",
			path:           "/documents/abc/insights/health",
			setupMock:      func(m *mockRunner) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid document id",
		},
		{
			name:           "unknown kind",
			path:           "/documents/1/insights/poetry",
			setupMock:      func(m *mockRunner) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "unknown insight kind",
		},
		{
			name:           "malformed body",
			path:           "/documents/1/insights/benchmark",
			body:           `{"industry":`,
			setupMock:      func(m *mockRunner) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
		{
			name: "document not found",
			path: "/documents/9/insights/risk",
			setupMock: func(m *mockRunner) {
				m.On("Run", mock.Anything, int64(9), prompt.KindRisk, mock.Anything).
					Return(nil, fmt.Errorf("document 9: %w", coreInsight.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "document 9: document not found",
		},
		{
			name: "generation timeout",
			path: "/documents/1/insights/growth",
			setupMock: func(m *mockRunner) {
				m.On("Run", mock.Anything, int64(1), prompt.KindGrowth, mock.Anything).
					Return(nil, fmt.Errorf("generate growth insight: %w", &llm.GenerationError{Model: "llama3.2", Attempts: 3, Err: llm.ErrTimeout}))
			},
			expectedStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mockRunner)
			tt.setupMock(runner)
			router := setupRouter(NewHandler(runner, nil))

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.expectedError != "" {
				var resp ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, tt.expectedError, resp.Error)
			}
			runner.AssertExpectations(t)
		})
	}
}

func TestHandleGenerate_ResponseBody(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, int64(3), prompt.KindCashFlow, coreInsight.Request{}).
		Return(&models.CashFlowOptimization{CurrentCashPosition: 75000, MonthlyBurnRate: 8000, RunwayMonths: 9.4, IsFallback: true}, nil)

	rec := httptest.NewRecorder()
	setupRouter(NewHandler(runner, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/documents/3/insights/cashflow", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got models.CashFlowOptimization
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.True(t, got.IsFallback)
	assert.Equal(t, 9.4, got.RunwayMonths)
}

func TestHandleLatest(t *testing.T) {
	history := new(mockHistory)
	history.On("Latest", mock.Anything, int64(1), "risk").
		Return(&store.StoredInsight{ID: "abc", DocumentID: 1, Kind: "risk", Content: json.RawMessage(`{"risk_level":"Low"}`)}, nil)
	history.On("Latest", mock.Anything, int64(1), "growth").
		Return(nil, fmt.Errorf("no growth insight: %w", store.ErrNotFound))
	history.On("Latest", mock.Anything, int64(2), "risk").
		Return(nil, errors.New("connection refused"))
	router := setupRouter(NewHandler(new(mockRunner), history))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/1/insights/risk/latest", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"risk_level":"Low"}`, string(decodeStored(t, rec).Content))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/1/insights/growth/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/2/insights/risk/latest", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	history.AssertExpectations(t)
}

func TestHandleLatest_NoHistory(t *testing.T) {
	rec := httptest.NewRecorder()
	setupRouter(NewHandler(new(mockRunner), nil)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/1/insights/risk/latest", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleKinds(t *testing.T) {
	rec := httptest.NewRecorder()
	setupRouter(NewHandler(new(mockRunner), nil)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/insights/kinds", nil))

	var kinds []KindInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&kinds))
	require.Len(t, kinds, len(prompt.AllKinds))

	// Structured kinds first, sorted by template ID.
	assert.Equal(t, prompt.KindBenchmark, kinds[0].Kind)
	assert.True(t, kinds[0].Structured)
	assert.NotEmpty(t, kinds[0].Name)
	assert.Equal(t, prompt.KindAnomaly, kinds[7].Kind)
	assert.False(t, kinds[7].Structured)
}

func TestHandleKinds_FromCatalog(t *testing.T) {
	registry := prompt.NewRegistry()
	health, err := registry.GetPrompt(prompt.KindHealth.ID())
	require.NoError(t, err)
	override := *health
	override.Version = "2"
	override.Description = "Tuned health prompt"
	require.NoError(t, registry.Register(&override))
	require.NoError(t, registry.Register(&prompt.PromptTemplate{ID: "scratch.notes", Category: prompt.CategoryNarrative}))

	h := NewHandler(new(mockRunner), nil)
	h.SetCatalog(registry)
	rec := httptest.NewRecorder()
	setupRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/insights/kinds", nil))

	var kinds []KindInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&kinds))
	require.Len(t, kinds, len(prompt.AllKinds))
	for _, k := range kinds {
		if k.Kind == prompt.KindHealth {
			assert.Equal(t, "2", k.Version)
			assert.Equal(t, "Tuned health prompt", k.Description)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", coreInsight.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("x: %w", coreInsight.ErrNoData), http.StatusUnprocessableEntity},
		{&llm.GenerationError{Attempts: 3, Err: llm.ErrUnavailable}, http.StatusBadGateway},
		{&llm.GenerationError{Attempts: 1, Err: llm.ErrBadRequest}, http.StatusBadGateway},
		{&llm.GenerationError{Attempts: 3, Err: llm.ErrEmptyResponse}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func decodeStored(t *testing.T, rec *httptest.ResponseRecorder) store.StoredInsight {
	t.Helper()
	var s store.StoredInsight
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
	return s
}
