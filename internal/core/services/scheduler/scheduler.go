package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bioshield/lens/internal/core/ports"
	"github.com/bioshield/lens/internal/core/services/ingest"
	"github.com/bioshield/lens/internal/core/services/trend"
	"github.com/bioshield/lens/internal/telemetry"
)

// State reports what the scheduler is currently doing.
type State string

const (
	StateIdle    State = "Idle"
	StateRunning State = "Running"
)

// PassSummary describes the outcome of one completed pipeline pass.
type PassSummary struct {
	StartedAt        time.Time `json:"started_at"`
	Imported         int       `json:"imported"`
	Classified       int       `json:"classified"`
	ClassifyFailures int       `json:"classify_failures"`
	Err              string    `json:"error,omitempty"`
}

// Scheduler drives the ingest → classify → trend pipeline on a fixed
// interval. A single background goroutine runs passes sequentially; the next
// wait begins only after the previous pass fully completes, so passes never
// overlap.
type Scheduler struct {
	ingest     *ingest.Service
	classifier ports.Classifier
	store      ports.VulnerabilityStore
	trends     *trend.Service

	startupDelay  time.Duration
	interval      time.Duration
	maxResults    int
	classifyBatch int

	// onPass, when set, receives each pass summary (used for the live feed).
	onPass func(PassSummary)

	mu    sync.RWMutex
	state State
}

// New creates a scheduler over the pipeline stages.
func New(ing *ingest.Service, classifier ports.Classifier, store ports.VulnerabilityStore, trends *trend.Service, startupDelay, interval time.Duration, maxResults, classifyBatch int) *Scheduler {
	return &Scheduler{
		ingest:        ing,
		classifier:    classifier,
		store:         store,
		trends:        trends,
		startupDelay:  startupDelay,
		interval:      interval,
		maxResults:    maxResults,
		classifyBatch: classifyBatch,
		state:         StateIdle,
	}
}

// SetPassListener registers a callback invoked after every pass.
func (s *Scheduler) SetPassListener(fn func(PassSummary)) {
	s.mu.Lock()
	s.onPass = fn
	s.mu.Unlock()
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Start launches the scheduling loop. It returns immediately; the loop stops
// when ctx is cancelled, both during waits and between pipeline stages.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		if !sleepCtx(ctx, s.startupDelay) {
			return
		}
		for {
			s.setState(StateRunning)
			summary := s.RunPass(ctx)
			s.setState(StateIdle)

			s.mu.RLock()
			onPass := s.onPass
			s.mu.RUnlock()
			if onPass != nil {
				onPass(summary)
			}

			if !sleepCtx(ctx, s.interval) {
				return
			}
		}
	}()
}

// RunPass executes one full pipeline pass: ingest, classify, trend. A stage
// failure ends the pass early; later stages of that pass are skipped and
// retried wholesale on the next scheduled pass.
func (s *Scheduler) RunPass(ctx context.Context) PassSummary {
	summary := PassSummary{StartedAt: time.Now().UTC()}
	slog.Info("Starting scheduled pipeline pass")

	imported, err := s.ingest.Run(ctx, s.maxResults, "")
	if err != nil {
		slog.Error("Ingest stage failed", "error", err)
		summary.Err = err.Error()
		telemetry.PassesTotal.WithLabelValues("failed").Inc()
		return summary
	}
	summary.Imported = imported
	telemetry.VulnerabilitiesImported.Add(float64(imported))

	if ctx.Err() != nil {
		summary.Err = ctx.Err().Error()
		return summary
	}

	classified, classifyFailures, err := s.classifyPending(ctx)
	if err != nil {
		slog.Error("Classification stage failed", "error", err)
		summary.Err = err.Error()
		telemetry.PassesTotal.WithLabelValues("failed").Inc()
		return summary
	}
	summary.Classified, summary.ClassifyFailures = classified, classifyFailures

	if ctx.Err() != nil {
		summary.Err = ctx.Err().Error()
		return summary
	}

	if err := s.trends.Recompute(ctx); err != nil {
		slog.Error("Trend stage failed", "error", err)
		summary.Err = err.Error()
		telemetry.PassesTotal.WithLabelValues("failed").Inc()
		return summary
	}

	telemetry.PassesTotal.WithLabelValues("ok").Inc()
	slog.Info("Pipeline pass complete",
		"imported", summary.Imported,
		"classified", summary.Classified,
		"classify_failures", summary.ClassifyFailures)
	return summary
}

// classifyPending classifies up to classifyBatch unclassified records.
// Per-item failures are logged and skipped without aborting the batch; the
// failed item stays unclassified and is picked up again on a later pass.
// A failure of the unclassified query itself is a stage failure and is
// returned to the caller, ending the pass.
func (s *Scheduler) classifyPending(ctx context.Context) (classified, failures int, err error) {
	pending, err := s.store.ListUnclassified(ctx, s.classifyBatch)
	if err != nil {
		return 0, 0, err
	}

	now := time.Now().UTC()
	for i := range pending {
		v := &pending[i]
		result := s.classifier.Classify(*v)
		result.Apply(v, now)

		if err := s.store.SaveClassification(ctx, v); err != nil {
			slog.Warn("Error classifying vulnerability", "cve_id", v.CVEID, "error", err)
			telemetry.ClassificationErrors.Inc()
			failures++
			continue
		}
		telemetry.VulnerabilitiesClassified.Inc()
		classified++
	}
	return classified, failures, nil
}

// sleepCtx waits for d, returning false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
