// Package server exposes a loaded cohort catalog over a small JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/teranos/qntx-cohort/cohort"
	"github.com/teranos/qntx-cohort/cohort/storage"
	"github.com/teranos/qntx-cohort/errors"
)

// Options configures the HTTP server
type Options struct {
	Port           int
	AllowedOrigins []string
}

// CohortServer serves catalog reads, loads and snapshot management
type CohortServer struct {
	catalog *cohort.Catalog
	store   *storage.SnapshotStore // nil disables snapshot routes
	opts    Options
	logger  *zap.SugaredLogger
	router  chi.Router
	state   atomic.Int32
}

// New builds the server and its routes; store and logger may be nil
func New(catalog *cohort.Catalog, store *storage.SnapshotStore, opts Options, logger *zap.SugaredLogger) *CohortServer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &CohortServer{
		catalog: catalog,
		store:   store,
		opts:    opts,
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler, for tests and embedding
func (s *CohortServer) Handler() http.Handler {
	return s.router
}

func (s *CohortServer) getState() ServerState {
	return ServerState(s.state.Load())
}

func (s *CohortServer) setState(next ServerState) {
	s.state.Store(int32(next))
	s.logger.Infow("Server state changed", "new_state", next.String())
}

func (s *CohortServer) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/subjects", s.handleSubjects)
		r.Get("/subjects/{id}", s.handleSubject)
		r.Post("/load", s.handleLoad)

		if s.store != nil {
			r.Get("/snapshots", s.handleListSnapshots)
			r.Post("/snapshots", s.handleSaveSnapshot)
			r.Post("/snapshots/{id}/restore", s.handleRestoreSnapshot)
			r.Delete("/snapshots/{id}", s.handleDeleteSnapshot)
		}
	})

	return r
}

// requestLogger logs one line per request with the chi request id
func (s *CohortServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []interface{}{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Warnw("HTTP request", fields...)
			return
		}
		s.logger.Debugw("HTTP request", fields...)
	})
}

// Serve runs until ctx is cancelled, then drains in-flight requests for up
// to ShutdownTimeout
func (s *CohortServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.setState(ServerStateRunning)
	s.logger.Infow("Cohort API listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		s.setState(ServerStateStopped)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	s.setState(ServerStateDraining)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.setState(ServerStateStopped)
	if err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

// ListenAndServe listens on opts.Port (all interfaces) and calls Serve
func (s *CohortServer) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.opts.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WithHintf(errors.Wrapf(err, "listen on %s", addr),
			"another process may be using port %d; set server.port or COHORT_SERVER_PORT", s.opts.Port)
	}
	return s.Serve(ctx, ln)
}
