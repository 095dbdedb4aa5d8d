package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/arloliu/zonetrack/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readHeaderTimeout = 5 * time.Second

// HealthFunc reports whether the service is healthy. A non-nil error turns
// /healthz into a 503 carrying the error text.
type HealthFunc func() error

// Server serves /metrics and /healthz.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger logger.Logger
	done   chan error
}

// NewRouter builds the HTTP routes for gatherer and health.
func NewRouter(gatherer prometheus.Gatherer, health HealthFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if health != nil {
			if err := health(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

// Start binds addr and serves handler in the background.
func Start(addr string, handler http.Handler, l logger.Logger) (*Server, error) {
	if l == nil {
		l = logger.GetLogger()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen %s: %w", addr, err)
	}

	s := &Server{
		srv:    &http.Server{Handler: handler, ReadHeaderTimeout: readHeaderTimeout},
		ln:     ln,
		logger: l,
		done:   make(chan error, 1),
	}

	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			s.logger.Error("metrics server stopped", "error", err)
		}
		s.done <- err
	}()

	s.logger.Info("metrics server listening", "address", ln.Addr().String())

	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Shutdown stops the server gracefully, waiting at most until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics: shutdown: %w", err)
	}

	return <-s.done
}
