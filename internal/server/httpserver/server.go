// Package httpserver exposes the MediaVault services over an HTTP/JSON API.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/atomic"

	"github.com/dmitrijs2005/mediavault/internal/logging"
	"github.com/dmitrijs2005/mediavault/internal/server/config"
	"github.com/dmitrijs2005/mediavault/internal/server/services"
)

type Server struct {
	cfg     *config.Config
	log     logging.Logger
	isReady atomic.Bool

	users    *services.UserService
	identity *services.IdentityService
	media    *services.MediaService
	access   *services.AccessService

	srv *http.Server
}

func New(cfg *config.Config, log logging.Logger,
	users *services.UserService, identity *services.IdentityService,
	media *services.MediaService, access *services.AccessService) *Server {

	s := &Server{
		cfg:      cfg,
		log:      log,
		users:    users,
		identity: identity,
		media:    media,
		access:   access,
	}
	s.isReady.Store(true)

	s.srv = &http.Server{
		Addr:         cfg.EndpointAddrHTTP,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}
	return s
}

func (s *Server) Router() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)

	mux.Get("/livez", s.handleLivenessCheck)
	mux.Get("/readyz", s.handleReadinessCheck)

	mux.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/salt", s.handleSalt)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Put("/keys", s.handlePublishKeys)
			r.Get("/users/{userID}/keys", s.handleGetKeys)

			r.Post("/items", s.handleCreateItem)
			r.Get("/items", s.handleListItems)
			r.Get("/items/my", s.handleListMyItems)
			r.Get("/items/{itemID}", s.handleGetItem)
			r.Get("/items/{itemID}/content", s.handleDownload)
			r.Get("/items/{itemID}/verify", s.handleVerify)
			r.Get("/items/{itemID}/access", s.handleQueryAccess)
			r.Post("/items/{itemID}/requests", s.handleOpenRequest)

			r.Get("/requests/incoming", s.handleIncomingRequests)
			r.Get("/requests/outgoing", s.handleOutgoingRequests)
			r.Get("/requests/{requestID}/requester-key", s.handleRequesterKey)
			r.Post("/requests/{requestID}/approve", s.handleApprove)
			r.Post("/requests/{requestID}/reject", s.handleReject)
		})
	})

	return mux
}

func (s *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"alive"}`))
}

func (s *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.isReady.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// SetReady flips the readiness probe, used while draining before shutdown.
func (s *Server) SetReady(ready bool) {
	s.isReady.Store(ready)
}

func (s *Server) RunInBackground() {
	go func() {
		ctx := context.Background()
		s.log.Info(ctx, "starting HTTP server", "addr", s.cfg.EndpointAddrHTTP)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(ctx, "HTTP server failed", "err", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) {
	s.isReady.Store(false)
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Error(ctx, "graceful HTTP server shutdown failed", "err", err)
	} else {
		s.log.Info(ctx, "HTTP server gracefully stopped")
	}
}
