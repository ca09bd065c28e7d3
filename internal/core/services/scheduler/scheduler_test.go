package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioshield/lens/internal/adapters/storage"
	"github.com/bioshield/lens/internal/core/domain"
	"github.com/bioshield/lens/internal/core/services/classify"
	"github.com/bioshield/lens/internal/core/services/ingest"
	"github.com/bioshield/lens/internal/core/services/trend"
)

type fakeFeed struct {
	records []domain.FeedRecord
	err     error
	calls   int
}

func (f *fakeFeed) Fetch(ctx context.Context, maxResults int, keywordFilter string) ([]domain.FeedRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// flakyStore fails SaveClassification for one targeted CVE ID, once.
type flakyStore struct {
	*storage.SQLiteAdapter
	failID string
	failed bool
}

func (s *flakyStore) SaveClassification(ctx context.Context, v *domain.Vulnerability) error {
	if v.CVEID == s.failID && !s.failed {
		s.failed = true
		return fmt.Errorf("%w: simulated write failure", domain.ErrStore)
	}
	return s.SQLiteAdapter.SaveClassification(ctx, v)
}

func hospitalRecord(i int) domain.FeedRecord {
	return domain.FeedRecord{
		ID: fmt.Sprintf("CVE-2026-%04d", i),
		Descriptions: []domain.FeedDescription{
			{Lang: "en", Value: fmt.Sprintf("Hospital management flaw %d", i)},
		},
		Published: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		ScoresV31: []float64{8.1},
	}
}

func newPipeline(t *testing.T, feed *fakeFeed, failID string) (*Scheduler, *storage.SQLiteAdapter) {
	t.Helper()
	adapter, err := storage.NewSQLiteAdapter(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	vstore := &flakyStore{SQLiteAdapter: adapter, failID: failID}

	ing := ingest.NewService(feed, vstore)
	trends := trend.NewService(vstore, adapter)
	sched := New(ing, classify.NewRuleClassifier(), vstore, trends, 0, time.Hour, 100, 50)
	return sched, adapter
}

func TestRunPassFullPipeline(t *testing.T) {
	feed := &fakeFeed{records: []domain.FeedRecord{hospitalRecord(1), hospitalRecord(2), hospitalRecord(3)}}
	sched, adapter := newPipeline(t, feed, "")
	ctx := context.Background()

	summary := sched.RunPass(ctx)

	assert.Empty(t, summary.Err)
	assert.Equal(t, 3, summary.Imported)
	assert.Equal(t, 3, summary.Classified)
	assert.Equal(t, 0, summary.ClassifyFailures)

	critical, err := adapter.ListByUrgency(ctx, domain.UrgencyCritical)
	require.NoError(t, err)
	assert.Len(t, critical, 3)

	trends, err := adapter.ListAllTrends(ctx)
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, domain.SectorHealthcare, trends[0].Category)
}

func TestRunPassContainsClassifyFailure(t *testing.T) {
	feed := &fakeFeed{records: []domain.FeedRecord{hospitalRecord(1), hospitalRecord(2), hospitalRecord(3)}}
	sched, adapter := newPipeline(t, feed, "CVE-2026-0002")
	ctx := context.Background()

	summary := sched.RunPass(ctx)

	assert.Empty(t, summary.Err, "a per-item failure must not fail the pass")
	assert.Equal(t, 2, summary.Classified)
	assert.Equal(t, 1, summary.ClassifyFailures)

	// The failed record stays unclassified and is picked up next pass.
	pending, err := adapter.ListUnclassified(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "CVE-2026-0002", pending[0].CVEID)

	summary = sched.RunPass(ctx)
	assert.Equal(t, 1, summary.Classified)
	assert.Equal(t, 0, summary.ClassifyFailures)

	// Trend stage still ran on both passes.
	trends, err := adapter.ListAllTrends(ctx)
	require.NoError(t, err)
	assert.Len(t, trends, 1)
}

// failingListStore breaks the unclassified query itself, as opposed to a
// single classification write.
type failingListStore struct {
	*storage.SQLiteAdapter
}

func (s *failingListStore) ListUnclassified(ctx context.Context, limit int) ([]domain.Vulnerability, error) {
	return nil, fmt.Errorf("%w: simulated query failure", domain.ErrStore)
}

func TestRunPassStoreFailureSkipsTrendStage(t *testing.T) {
	adapter, err := storage.NewSQLiteAdapter(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })
	ctx := context.Background()

	// A previously classified record, so the trend stage would write a row
	// if it ran.
	now := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	seed := domain.Vulnerability{
		CVEID: "CVE-2026-9999", Description: "Hospital device flaw", Source: "NVD",
		DateDiscovered: now, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, adapter.SaveBatch(ctx, []domain.Vulnerability{seed}))
	result := classify.NewRuleClassifier().Classify(seed)
	result.Apply(&seed, now)
	require.NoError(t, adapter.SaveClassification(ctx, &seed))

	feed := &fakeFeed{records: []domain.FeedRecord{hospitalRecord(1)}}
	vstore := &failingListStore{SQLiteAdapter: adapter}
	ing := ingest.NewService(feed, vstore)
	trends := trend.NewService(vstore, adapter)
	sched := New(ing, classify.NewRuleClassifier(), vstore, trends, 0, time.Hour, 100, 50)

	summary := sched.RunPass(ctx)

	assert.NotEmpty(t, summary.Err, "a store failure in the classify stage must fail the pass")
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 0, summary.Classified)

	trendRows, err := adapter.ListAllTrends(ctx)
	require.NoError(t, err)
	assert.Empty(t, trendRows, "trend stage must be skipped after a stage failure")
}

func TestRunPassIngestFailureEndsPass(t *testing.T) {
	feed := &fakeFeed{err: fmt.Errorf("%w: upstream 503", domain.ErrFeedUnavailable)}
	sched, adapter := newPipeline(t, feed, "")

	summary := sched.RunPass(context.Background())

	assert.NotEmpty(t, summary.Err)
	assert.Equal(t, 0, summary.Imported)

	count, err := adapter.CountAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRunPassRespectsCancellation(t *testing.T) {
	feed := &fakeFeed{records: []domain.FeedRecord{hospitalRecord(1)}}
	sched, _ := newPipeline(t, feed, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := sched.RunPass(ctx)
	assert.NotEmpty(t, summary.Err)
}

func TestStartStopsOnCancel(t *testing.T) {
	feed := &fakeFeed{records: nil}
	sched, _ := newPipeline(t, feed, "")

	done := make(chan PassSummary, 4)
	sched.SetPassListener(func(p PassSummary) { done <- p })

	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never ran a pass")
	}
	cancel()

	// After cancellation the loop winds down and no new passes begin.
	time.Sleep(50 * time.Millisecond)
	drained := len(done)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, drained, len(done))
	assert.Equal(t, StateIdle, sched.State())
}

func TestSleepCtx(t *testing.T) {
	assert.True(t, sleepCtx(context.Background(), 0))
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, 0))
	assert.False(t, sleepCtx(ctx, time.Hour))
}
