package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bioshield/lens/internal/adapters/reporting"
	"github.com/bioshield/lens/internal/adapters/web/websocket"
	"github.com/bioshield/lens/internal/core/ports"
	"github.com/bioshield/lens/internal/core/services/scheduler"
	"github.com/bioshield/lens/internal/core/services/trend"
)

// Server exposes the read-only dashboard API over the data the pipeline
// maintains. It never writes to the store.
type Server struct {
	Addr       string
	Store      ports.VulnerabilityStore
	Trends     ports.TrendStore
	Classifier ports.Classifier
	TrendSvc   *trend.Service
	Scheduler  *scheduler.Scheduler
	WSManager  *websocket.WSManager
	PDF        *reporting.PDFExporter
	APIKeyHash string

	srv *http.Server
}

// NewServer creates a web server over the given collaborators.
func NewServer(addr string, store ports.VulnerabilityStore, trends ports.TrendStore, classifier ports.Classifier, trendSvc *trend.Service, sched *scheduler.Scheduler, apiKeyHash string) *Server {
	return &Server{
		Addr:       addr,
		Store:      store,
		Trends:     trends,
		Classifier: classifier,
		TrendSvc:   trendSvc,
		Scheduler:  sched,
		WSManager:  websocket.NewWSManager(),
		PDF:        reporting.NewPDFExporter(),
		APIKeyHash: apiKeyHash,
	}
}

// Run starts the server and blocks until ctx is cancelled or the listener
// fails.
func (s *Server) Run(ctx context.Context) error {
	handler := otelhttp.NewHandler(SetupRoutes(s), "bioshield-server")

	s.srv = &http.Server{
		Addr:    s.Addr,
		Handler: handler,
	}

	// Graceful Shutdown implementation
	go func() {
		<-ctx.Done()
		slog.Info("Web server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Web server shutdown error", "error", err)
		}
	}()

	slog.Info("Web server listening", "addr", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
