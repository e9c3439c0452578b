// Package webhook exposes the engine over HTTP: inbound payment and
// chat-bot webhooks, device registration, workflow triggers and the live
// monitoring reads.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/servicex-id/netops/config"
	"github.com/servicex-id/netops/orchestrator"
	"github.com/servicex-id/netops/types"
)

// Server wires the HTTP surface to one engine.
type Server struct {
	engine *orchestrator.Engine
	cfg    *config.Config
	log    zerolog.Logger
	router chi.Router
}

func New(engine *orchestrator.Engine, cfg *config.Config, log zerolog.Logger) *Server {
	s := &Server{
		engine: engine,
		cfg:    cfg,
		log:    log.With().Str("component", "http").Logger(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the assembled router, exported for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/bank", s.handleBankMutation)
		r.Post("/chatbot", s.handleChatbot)
	})

	r.Route("/devices", func(r chi.Router) {
		r.Get("/", s.handleListDevices)
		r.Post("/register", s.handleRegisterDevice)
		r.Get("/{id}/optical", s.handleOpticalRead)
	})

	r.Route("/workflows", func(r chi.Router) {
		r.Post("/isolir", s.handleIsolir)
		r.Post("/qos", s.handleQosSync)
		r.Post("/provision", s.handleProvision)
	})

	r.Route("/monitoring", func(r chi.Router) {
		r.Get("/routers", s.handleRouterHealth)
		r.Get("/routers/{id}/sessions", s.handleSessions)
	})

	return r
}

// Serve runs the listener until ctx is cancelled, then drains in-flight
// requests before returning.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.ListenAddr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return srv.Close()
	}
	s.log.Info().Msg("http server stopped")
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps engine errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrUnreachable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
