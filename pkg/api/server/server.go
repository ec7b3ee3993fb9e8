// Package server wires the HTTP handlers into a chi router and runs it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	configapi "financial_insights/pkg/api/config"
	insightapi "financial_insights/pkg/api/insight"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Pinger checks a backend dependency for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Insights *insightapi.Handler
	Config   *configapi.Handler
	Backend  Pinger // optional
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(Logger(&logger))
	router.Use(middleware.Recoverer)
	router.Use(CORS)

	router.Get("/healthz", healthz(config.Dependencies.Backend))
	router.Route("/api/v1", func(r chi.Router) {
		if config.Dependencies.Insights != nil {
			config.Dependencies.Insights.Routes(r)
		}
		if config.Dependencies.Config != nil {
			config.Dependencies.Config.Routes(r)
		}
	})

	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: config.ShutdownTimeout,
	}
}

// Handler exposes the router (for testing).
func (w *WebAPI) Handler() http.Handler {
	return w.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		sctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(sctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}
		return err
	}
}

func healthz(backend Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := map[string]string{"status": "ok", "backend": "unchecked"}
		if backend != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := backend.Ping(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("generation backend unreachable")
				status["backend"] = "unreachable"
			} else {
				status["backend"] = "ok"
			}
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode health status")
		}
	}
}
