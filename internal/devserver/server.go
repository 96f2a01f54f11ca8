// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package devserver is an in-memory stand-in for the qbitwebui backend. It
// serves the cross-seed, auth, instance and integration endpoints with
// knobs for failure injection, and backs the dev-server command and the
// session tests.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Server struct {
	server         *http.Server
	logger         zerolog.Logger
	host           string
	port           int
	backend        *Backend
	sessionManager *scs.SessionManager
}

type Dependencies struct {
	Host           string
	Port           int
	Backend        *Backend
	SessionManager *scs.SessionManager
}

// NewSessionManager returns an in-memory scs manager using the qbitwebui cookie.
func NewSessionManager() *scs.SessionManager {
	sm := scs.New()
	sm.Store = memstore.New()
	sm.Lifetime = 7 * 24 * time.Hour
	sm.Cookie.Name = "qbitwebui_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	return sm
}

func NewServer(deps *Dependencies) *Server {
	sm := deps.SessionManager
	if sm == nil {
		sm = NewSessionManager()
	}
	backend := deps.Backend
	if backend == nil {
		backend = NewBackend()
	}

	return &Server{
		server: &http.Server{
			ReadHeaderTimeout: time.Second * 15,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      120 * time.Second,
			IdleTimeout:       180 * time.Second,
		},
		logger:         log.Logger.With().Str("module", "devserver").Logger(),
		host:           deps.Host,
		port:           deps.Port,
		backend:        backend,
		sessionManager: sm,
	}
}

// Backend exposes the server's state for test knobs.
func (s *Server) Backend() *Backend {
	return s.backend
}

func (s *Server) ListenAndServe() error {
	return s.open(nil)
}

// ListenAndServeReady behaves like ListenAndServe but signals once the listener is active.
func (s *Server) ListenAndServeReady(ready chan<- struct{}) error {
	return s.open(ready)
}

func (s *Server) open(ready chan<- struct{}) error {
	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))

	var lastErr error
	for _, proto := range []string{"tcp", "tcp4", "tcp6"} {
		err := s.tryToServe(addr, proto, ready)
		if err == nil {
			return nil
		}

		if errors.Is(err, http.ErrServerClosed) {
			return err
		}

		s.logger.Error().Err(err).Str("addr", addr).Str("proto", proto).Msgf("Failed to start server")
		lastErr = err
	}

	return lastErr
}

func (s *Server) tryToServe(addr, protocol string, ready chan<- struct{}) error {
	listener, err := net.Listen(protocol, addr)
	if err != nil {
		return err
	}

	host := listener.Addr().String()
	if strings.HasPrefix(host, "0.0.0.0:") || strings.HasPrefix(host, "[::]:") {
		host = strings.Replace(host, "0.0.0.0:", "localhost:", 1)
		host = strings.Replace(host, "[::]:", "localhost:", 1)
	}

	s.logger.Info().
		Str("protocol", protocol).
		Str("addr", listener.Addr().String()).
		Msgf("Starting dev server - Open: http://%s", host)

	handler, err := s.Handler()
	if err != nil {
		listener.Close()
		return fmt.Errorf("build dev router: %w", err)
	}

	s.server.Handler = handler

	if ready != nil {
		select {
		case ready <- struct{}{}:
		default:
		}
	}

	return s.server.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) Handler() (*chi.Mux, error) {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	compressor, err := httpcompression.DefaultAdapter(
		httpcompression.MinSize(1024),
		httpcompression.GzipCompressionLevel(2),
		httpcompression.Prefer(httpcompression.PreferServer),
	)
	if err != nil {
		return nil, fmt.Errorf("create compression adapter: %w", err)
	}
	r.Use(compressor)

	corsMiddleware := cors.New(cors.Options{
		AllowCredentials: true,
		AllowedMethods:   []string{"HEAD", "OPTIONS", "GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Content-Type", requestIDHeader},
		AllowOriginFunc:  func(origin string) bool { return true },
		MaxAge:           300,
	})
	r.Use(corsMiddleware.Handler)

	r.Use(s.sessionManager.LoadAndSave)

	authHandler := NewAuthHandler(s.backend, s.sessionManager)
	resourcesHandler := NewResourcesHandler(s.backend)
	crossSeedHandler := NewCrossSeedHandler(s.backend)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(Logger(s.logger))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.With(IsAuthenticated(s.backend, s.sessionManager)).Post("/password", authHandler.ChangePassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(IsAuthenticated(s.backend, s.sessionManager))

			r.Get("/instances", resourcesHandler.ListInstances)
			r.Get("/integrations", resourcesHandler.ListIntegrations)
			crossSeedHandler.Routes(r)
		})
	})

	return r, nil
}
