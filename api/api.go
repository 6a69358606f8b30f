// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves the read-only governance query surface over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultListenAddress = ":8080"
	requestIDHeader      = "X-Request-Id"
	shutdownTimeout      = 30 * time.Second
)

type Config struct {
	ListenAddress string
}

// Server is the HTTP query API
type Server struct {
	config     Config
	logger     *slog.Logger
	engine     Engine
	httpServer *http.Server
	listenAddr net.Addr
	mu         sync.Mutex
}

func New(cfg Config, engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	return &Server{
		config: cfg,
		logger: logger.With("component", "api"),
		engine: engine,
	}
}

// Handler returns the routed handler with request ID tracking
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v0/accounts/{account}/units", s.handleAccountUnits)
	mux.HandleFunc("GET /api/v0/units/{unit}", s.handleUnit)
	mux.HandleFunc("GET /api/v0/units/{unit}/members", s.handleUnitMembers)
	mux.HandleFunc("GET /api/v0/units/{unit}/proposals", s.handleUnitProposals)
	mux.HandleFunc("GET /api/v0/units/{unit}/proposals/{call}", s.handleUnitProposal)
	mux.HandleFunc("GET /api/v0/units/{unit}/executions", s.handleUnitExecutions)
	return s.withRequestID(mux)
}

// Start binds the listener and serves in the background until Stop is
// called or ctx is done
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return errors.New("server already started")
	}
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}
	s.httpServer = server
	s.listenAddr = ln.Addr()
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(
			context.WithoutCancel(ctx),
			shutdownTimeout,
		)
		defer cancel()
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error("failed to shut down API server", "error", err)
		}
	}()
	s.logger.Info("API listener started on " + ln.Addr().String())
	return nil
}

// Addr returns the bound listener address, or nil when not running
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listenAddr = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}

type requestIDKey struct{}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		s.logger.Debug(
			"request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", reqID,
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}
