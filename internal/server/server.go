package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/franckalain/nutriscan/internal/ml"
	"github.com/franckalain/nutriscan/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// ScanService is the scan API the handlers are built on
type ScanService interface {
	Ingest(ctx context.Context, p models.ScanPayload) (*models.ScanRecord, error)
	List(ctx context.Context, userID string) ([]*models.ScanRecord, error)
	History(ctx context.Context, userID string) ([]models.ScanView, error)
	Summary(ctx context.Context, userID string) (models.Summary, error)
	Delete(ctx context.Context, id, userID string) error
}

// Assistant answers chat messages
type Assistant interface {
	Reply(ctx context.Context, message string) (string, error)
}

type Server struct {
	scans     ScanService
	model     ml.Model
	assistant Assistant
	logger    *slog.Logger
	metrics   *Metrics
	registry  *prometheus.Registry
	clients   sync.Map // client id -> *wsClient
	staticDir string
	debug     bool
}

// Options carries the optional collaborators of a Server
type Options struct {
	// Assistant enables /api/chat when set
	Assistant Assistant
	Logger    *slog.Logger
	StaticDir string
	Debug     bool
}

func New(scans ScanService, model ml.Model, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := prometheus.NewRegistry()
	s := &Server{
		scans:     scans,
		model:     model,
		assistant: opts.Assistant,
		logger:    logger.With("component", "server"),
		metrics:   NewMetrics(registry),
		registry:  registry,
		staticDir: opts.StaticDir,
		debug:     opts.Debug,
	}
	if s.debug {
		s.logger.Debug("debug logging enabled")
	}
	return s
}

// Start serves on port until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start(port string) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
	}

	s.logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.closeClients()
	return srv.Shutdown(ctx)
}
