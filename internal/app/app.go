package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bioshield/lens/internal/adapters/feed"
	"github.com/bioshield/lens/internal/adapters/storage"
	"github.com/bioshield/lens/internal/adapters/web"
	"github.com/bioshield/lens/internal/config"
	"github.com/bioshield/lens/internal/core/services/classify"
	"github.com/bioshield/lens/internal/core/services/ingest"
	"github.com/bioshield/lens/internal/core/services/scheduler"
	"github.com/bioshield/lens/internal/core/services/trend"
	"github.com/bioshield/lens/internal/telemetry"
)

// Application holds the wired components and manages their lifecycle.
type Application struct {
	Config    *config.Config
	Storage   *storage.SQLiteAdapter
	Scheduler *scheduler.Scheduler
	WebServer *web.Server
}

// New wires all application components from configuration.
func New(cfg *config.Config) (*Application, error) {
	telemetry.InitMetrics()

	store, err := storage.NewSQLiteAdapter(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	feedClient := feed.NewNVDClient(cfg.FeedURL)
	ingestSvc := ingest.NewService(feedClient, store)
	classifier := classify.NewRuleClassifier()
	trendSvc := trend.NewService(store, store)

	sched := scheduler.New(ingestSvc, classifier, store, trendSvc,
		cfg.StartupDelay, cfg.FetchInterval, cfg.MaxResults, cfg.ClassifyBatch)

	server := web.NewServer(cfg.Addr, store, store, classifier, trendSvc, sched, cfg.APIKeyHash)

	// Push each pass summary to connected dashboard clients.
	sched.SetPassListener(func(summary scheduler.PassSummary) {
		server.WSManager.Broadcast("pass_summary", summary)
	})

	return &Application{
		Config:    cfg,
		Storage:   store,
		Scheduler: sched,
		WebServer: server,
	}, nil
}

// Run starts the scheduler and the web server, blocking until ctx is
// cancelled or the server fails.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting BioShield Lens components...",
		"interval", app.Config.FetchInterval,
		"startup_delay", app.Config.StartupDelay)

	app.Scheduler.Start(ctx)

	err := app.WebServer.Run(ctx)

	slog.Info("Cleaning up resources...")
	if closeErr := app.Storage.Close(); closeErr != nil {
		slog.Error("Failed to close storage", "error", closeErr)
	}

	return err
}
