package trend

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/bioshield/lens/internal/core/domain"
	"github.com/bioshield/lens/internal/core/ports"
	"github.com/bioshield/lens/internal/telemetry"
)

// Service computes per-sector month-over-month vulnerability trends.
type Service struct {
	vulns  ports.VulnerabilityStore
	trends ports.TrendStore
	now    func() time.Time
}

// NewService creates a trend aggregator.
func NewService(vulns ports.VulnerabilityStore, trends ports.TrendStore) *Service {
	return &Service{vulns: vulns, trends: trends, now: time.Now}
}

// Recompute upserts one trend row per sector present in the store, keyed by
// the current UTC calendar month. Re-running within the same month updates
// the existing rows in place.
func (s *Service) Recompute(ctx context.Context) error {
	now := s.now().UTC()
	currentMonth := domain.MonthKey(now)
	lastMonth := domain.MonthKey(now.AddDate(0, -1, 0))

	sectors, err := s.vulns.DistinctSectors(ctx)
	if err != nil {
		return fmt.Errorf("%w: listing sectors: %v", domain.ErrStore, err)
	}

	for _, sector := range sectors {
		currentCount, err := s.vulns.CountBySectorMonth(ctx, sector, currentMonth)
		if err != nil {
			return fmt.Errorf("%w: counting %s/%s: %v", domain.ErrStore, sector, currentMonth, err)
		}
		lastCount, err := s.vulns.CountBySectorMonth(ctx, sector, lastMonth)
		if err != nil {
			return fmt.Errorf("%w: counting %s/%s: %v", domain.ErrStore, sector, lastMonth, err)
		}

		var change *float64
		switch {
		case lastCount > 0:
			pct := (float64(currentCount) - float64(lastCount)) / float64(lastCount) * 100
			change = &pct
		case currentCount > 0:
			// From-nothing increase: no baseline, treated as +100%.
			pct := 100.0
			change = &pct
		}

		t := &domain.Trend{
			Category:         sector,
			Month:            currentMonth,
			ChangePercentage: change,
			Notes:            fmt.Sprintf("%d vulnerabilities this month vs %d last month", currentCount, lastCount),
			CreatedAt:        now,
		}
		if err := s.trends.Upsert(ctx, t); err != nil {
			return fmt.Errorf("%w: upserting trend %s/%s: %v", domain.ErrStore, sector, currentMonth, err)
		}
		telemetry.TrendUpserts.Inc()
	}

	slog.Info("Trend recompute complete", "sectors", len(sectors), "month", currentMonth)
	return nil
}

// Summary renders the current month's trends as human-readable lines, one
// per sector with a non-zero change percentage.
func (s *Service) Summary(ctx context.Context) (string, error) {
	currentMonth := domain.MonthKey(s.now())
	trends, err := s.trends.ListByMonth(ctx, currentMonth)
	if err != nil {
		return "", fmt.Errorf("%w: listing trends: %v", domain.ErrStore, err)
	}
	if len(trends) == 0 {
		return "No trend data available for the current month.", nil
	}

	var b strings.Builder
	for _, t := range trends {
		if t.ChangePercentage == nil || *t.ChangePercentage == 0 {
			continue
		}
		direction := "increase"
		if *t.ChangePercentage < 0 {
			direction = "decrease"
		}
		fmt.Fprintf(&b, "%s: %.1f%% %s. %s\n", t.Category, math.Abs(*t.ChangePercentage), direction, t.Notes)
	}
	return b.String(), nil
}
