// Package httpapi exposes the DECIPHER/UNDERSTAND/SEARCH pipeline over
// HTTP, using the same chi router plus Logger/Recoverer/Timeout middleware
// stack and respondJSON/respondError handler pair as the pack's
// nico-hyperjump-sagasu internal/server package.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/sugyasearch/internal/app"
)

// Server is the HTTP server for the sugya-search API.
type Server struct {
	app    *app.App
	router chi.Router
	server *http.Server
}

// NewServer builds a Server wired to application.
func NewServer(application *app.App) *Server {
	s := &Server{app: application}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Post("/decipher", s.handleDecipher)
	r.Post("/decipher/confirm", s.handleDecipherConfirm)
	r.Post("/decipher/reject", s.handleDecipherReject)
	r.Post("/search", s.handleSearch)
	r.Post("/search/clarify", s.handleSearchClarify)
	r.Get("/health", s.handleHealth)
	return r
}

// ListenAndServe starts the HTTP server on addr and blocks until it stops.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{Addr: addr, Handler: s.router}
	log.Info().Str("addr", addr).Msg("starting sugyasearch server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests to
// finish or ctx to expire, whichever comes first.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
