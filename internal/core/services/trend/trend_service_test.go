package trend

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioshield/lens/internal/adapters/storage"
	"github.com/bioshield/lens/internal/core/domain"
)

// fixedNow pins the aggregator's clock mid-August 2026.
var fixedNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) (*Service, *storage.SQLiteAdapter) {
	t.Helper()
	adapter, err := storage.NewSQLiteAdapter(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	svc := NewService(adapter, adapter)
	svc.now = func() time.Time { return fixedNow }
	return svc, adapter
}

// seedSector stores and classifies `count` records for a sector, discovered
// in the given month.
func seedSector(t *testing.T, adapter *storage.SQLiteAdapter, sector domain.Sector, discovered time.Time, count int) {
	t.Helper()
	ctx := context.Background()

	var batch []domain.Vulnerability
	for i := 0; i < count; i++ {
		batch = append(batch, domain.Vulnerability{
			CVEID:          fmt.Sprintf("CVE-2026-%s-%s-%d", sector, discovered.Format("01"), i),
			Description:    "seeded record",
			Source:         "NVD",
			DateDiscovered: discovered,
			CreatedAt:      fixedNow,
			UpdatedAt:      fixedNow,
		})
	}
	require.NoError(t, adapter.SaveBatch(ctx, batch))

	pending, err := adapter.ListUnclassified(ctx, 1000)
	require.NoError(t, err)
	for i := range pending {
		if !strings.Contains(pending[i].CVEID, string(sector)) {
			continue
		}
		result := domain.ClassificationResult{
			BioImpactScore: 5, HumanImpactScore: 5,
			UrgencyLevel: domain.UrgencyMonitor, AffectedSector: sector,
		}
		result.Apply(&pending[i], fixedNow)
		require.NoError(t, adapter.SaveClassification(ctx, &pending[i]))
	}
}

func TestRecomputeMonthOverMonth(t *testing.T) {
	svc, adapter := newFixture(t)
	ctx := context.Background()

	thisMonth := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

	seedSector(t, adapter, domain.SectorHealthcare, thisMonth, 10)
	seedSector(t, adapter, domain.SectorHealthcare, lastMonth, 5)

	require.NoError(t, svc.Recompute(ctx))

	trends, err := adapter.ListByMonth(ctx, "2026-08")
	require.NoError(t, err)
	require.Len(t, trends, 1)

	tr := trends[0]
	assert.Equal(t, domain.SectorHealthcare, tr.Category)
	require.NotNil(t, tr.ChangePercentage)
	assert.Equal(t, 100.0, *tr.ChangePercentage)
	assert.Equal(t, "10 vulnerabilities this month vs 5 last month", tr.Notes)
}

func TestRecomputeFromNothingIncrease(t *testing.T) {
	svc, adapter := newFixture(t)
	ctx := context.Background()

	seedSector(t, adapter, domain.SectorAgriculture, time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC), 3)

	require.NoError(t, svc.Recompute(ctx))

	trends, err := adapter.ListByMonth(ctx, "2026-08")
	require.NoError(t, err)
	require.Len(t, trends, 1)
	require.NotNil(t, trends[0].ChangePercentage)
	assert.Equal(t, 100.0, *trends[0].ChangePercentage)
	assert.Equal(t, "3 vulnerabilities this month vs 0 last month", trends[0].Notes)
}

func TestRecomputeNoActivityEitherMonth(t *testing.T) {
	svc, adapter := newFixture(t)
	ctx := context.Background()

	// Sector exists in the store but all activity predates the window.
	seedSector(t, adapter, domain.SectorBiotech, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), 2)

	require.NoError(t, svc.Recompute(ctx))

	trends, err := adapter.ListByMonth(ctx, "2026-08")
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Nil(t, trends[0].ChangePercentage, "no baseline and no activity leaves change absent")
	assert.Equal(t, "0 vulnerabilities this month vs 0 last month", trends[0].Notes)
}

func TestRecomputeDecrease(t *testing.T) {
	svc, adapter := newFixture(t)
	ctx := context.Background()

	seedSector(t, adapter, domain.SectorHealthcare, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), 1)
	seedSector(t, adapter, domain.SectorHealthcare, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC), 4)

	require.NoError(t, svc.Recompute(ctx))

	trends, err := adapter.ListByMonth(ctx, "2026-08")
	require.NoError(t, err)
	require.Len(t, trends, 1)
	require.NotNil(t, trends[0].ChangePercentage)
	assert.Equal(t, -75.0, *trends[0].ChangePercentage)
}

func TestRecomputeUpsertsInPlace(t *testing.T) {
	svc, adapter := newFixture(t)
	ctx := context.Background()

	seedSector(t, adapter, domain.SectorHealthcare, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), 2)

	require.NoError(t, svc.Recompute(ctx))
	require.NoError(t, svc.Recompute(ctx))

	trends, err := adapter.ListAllTrends(ctx)
	require.NoError(t, err)
	assert.Len(t, trends, 1, "re-running within the month must not duplicate rows")
}

func TestSummary(t *testing.T) {
	svc, adapter := newFixture(t)
	ctx := context.Background()

	seedSector(t, adapter, domain.SectorHealthcare, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), 10)
	seedSector(t, adapter, domain.SectorHealthcare, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC), 5)
	require.NoError(t, svc.Recompute(ctx))

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Contains(t, summary, "Healthcare: 100.0% increase.")
	assert.Contains(t, summary, "10 vulnerabilities this month vs 5 last month")
}

func TestSummaryNoData(t *testing.T) {
	svc, _ := newFixture(t)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No trend data available for the current month.", summary)
}
