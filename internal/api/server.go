package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"pedalcoach/internal/metrics"
)

const shutdownTimeout = 15 * time.Second

type ServerParams struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Coach        Coach
	Metrics      *metrics.Manager
	Registry     *prometheus.Registry
}

// Server exposes the coach over HTTP
type Server struct {
	httpServer *http.Server
	handler    *Handler
	metrics    *metrics.Manager
	registry   *prometheus.Registry
}

func NewServer(params ServerParams) *Server {
	s := &Server{
		handler:  NewHandler(params.Coach),
		metrics:  params.Metrics,
		registry: params.Registry,
	}
	s.httpServer = &http.Server{
		Addr:         params.Address,
		Handler:      s.Router(),
		ReadTimeout:  params.ReadTimeout,
		WriteTimeout: params.WriteTimeout,
	}
	return s
}

// Router builds the route table with its middleware
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", handleHealth).Methods("GET").Name("health")
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET").Name("metrics")
	}

	s.handler.SetupRoutes(r.PathPrefix("/api").Subrouter())

	r.Use(PanicRecovery(s.metrics))
	r.Use(LogRequest())
	r.Use(RequestMetrics(s.metrics))

	return r
}

// Serve listens until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		log.Infof(" > server listening on: [%s]", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen and serve: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Debug("graceful shutdown initiated ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	log.Info("server shut down")
	return <-errCh
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
