// Package api exposes the agent over HTTP REST.
//
// Endpoints:
//
//	GET    /health                        liveness probe
//	GET    /ready                         readiness probe
//	POST   /api/chat                      answer one visitor message
//	POST   /api/sessions                  create a chat session
//	POST   /api/documents                 create a document and queue ingestion
//	GET    /api/documents                 list the tenant's documents
//	GET    /api/documents/{id}            read one document
//	DELETE /api/documents/{id}            delete one document
//	POST   /api/documents/{id}/reprocess  re-run ingestion
//	GET    /api/persona                   read the tenant's persona
//	PUT    /api/persona                   save the tenant's persona
//
// Every /api route is tenant-scoped through the X-Tenant-ID header.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arlo-ai/arlo/internal/chat"
	"github.com/arlo-ai/arlo/internal/ingest"
	"github.com/arlo-ai/arlo/internal/knowledge"
	"github.com/arlo-ai/arlo/internal/log"
	"github.com/arlo-ai/arlo/internal/persona"
	"github.com/arlo-ai/arlo/internal/session"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds request header reads.
	ReadHeaderTimeout = 10 * time.Second

	ReadTimeout  = 30 * time.Second
	WriteTimeout = 120 * time.Second
	IdleTimeout  = 120 * time.Second
)

// Server is the HTTP server for the agent's REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// Deps carries the collaborators the handlers need.
type Deps struct {
	Chat        *chat.Service
	Pipeline    *ingest.Pipeline
	Documents   knowledge.DocumentStore
	Transcripts session.TranscriptStore
	Personas    persona.Store
	Pool        *pgxpool.Pool
	Logger      log.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	mux := http.NewServeMux()
	NewHealthHandler(deps.Pool, logger).RegisterRoutes(mux)
	NewChatHandler(deps.Chat, deps.Transcripts, logger).RegisterRoutes(mux)
	NewDocumentHandler(deps.Pipeline, deps.Documents, logger).RegisterRoutes(mux)
	NewPersonaHandler(deps.Personas, logger).RegisterRoutes(mux)

	return &Server{mux: mux, logger: logger}
}

// Handler returns the handler with middleware applied.
// Order: recovery wraps logging wraps routes.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
