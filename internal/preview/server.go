package preview

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
	"git.home.luguber.info/inful/docarchive/internal/logfields"
)

// Server serves one built archive. The listener is claimed up front so an
// unavailable port fails at startup, not at first request.
type Server struct {
	port     int
	archive  string
	listener net.Listener
	http     *http.Server
}

// NewServer claims the port and registers the server. A busy port is an
// immediate CategoryPreview error.
func NewServer(port int, archiveRoot string, registry prometheus.Gatherer) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryPreview, archerr.SeverityFatal,
			fmt.Sprintf("port %d is not available", port))
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(archiveRoot)))
	if registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	s := &Server{
		port:     port,
		archive:  archiveRoot,
		listener: listener,
		http: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	if err := sharedRegistry.register(port, s); err != nil {
		listener.Close()
		return nil, archerr.Wrap(err, archerr.CategoryPreview, archerr.SeverityFatal, "register preview server")
	}
	return s, nil
}

// Serve blocks until the context is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		if err := s.http.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()
	slog.Info("Preview server listening",
		slog.Int("port", s.port),
		logfields.URL(fmt.Sprintf("http://localhost:%d/documentation", s.port)))

	select {
	case err := <-errc:
		sharedRegistry.remove(s.port)
		return archerr.Wrap(err, archerr.CategoryPreview, archerr.SeverityFatal, "preview server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)
	sharedRegistry.remove(s.port)
	return err
}

// Port returns the bound port.
func (s *Server) Port() int { return s.port }

// Close releases the listener and deregisters without serving.
func (s *Server) Close() error {
	sharedRegistry.remove(s.port)
	return s.listener.Close()
}
