package ports

import (
	"context"

	"github.com/bioshield/lens/internal/core/domain"
)

// VulnerabilityStore defines persistence behavior for advisory records.
type VulnerabilityStore interface {
	// ExistingIDs reports which of the given CVE identifiers are already
	// stored. Used by ingestion for idempotent dedup.
	ExistingIDs(ctx context.Context, cveIDs []string) (map[string]bool, error)

	// SaveBatch inserts new records in a single transaction. It never
	// updates or deletes existing rows.
	SaveBatch(ctx context.Context, vulns []domain.Vulnerability) error

	// ListUnclassified returns up to limit records lacking an urgency level,
	// oldest first.
	ListUnclassified(ctx context.Context, limit int) ([]domain.Vulnerability, error)

	// SaveClassification writes the classification fields of a record,
	// keyed by CVE identifier.
	SaveClassification(ctx context.Context, v *domain.Vulnerability) error

	ListAll(ctx context.Context) ([]domain.Vulnerability, error)
	ListByUrgency(ctx context.Context, level domain.UrgencyLevel) ([]domain.Vulnerability, error)

	// Search matches keyword as a substring of description or CVE identifier,
	// newest first.
	Search(ctx context.Context, keyword string) ([]domain.Vulnerability, error)

	// CountByUrgency returns per-bucket counts for classified records.
	CountByUrgency(ctx context.Context) (map[domain.UrgencyLevel]int64, error)
	CountAll(ctx context.Context) (int64, error)

	// DistinctSectors returns the sectors currently present on classified
	// records.
	DistinctSectors(ctx context.Context) ([]domain.Sector, error)

	// CountBySectorMonth counts records of a sector discovered within the
	// given YYYY-MM month (UTC).
	CountBySectorMonth(ctx context.Context, sector domain.Sector, month string) (int64, error)

	Close() error
}

// TrendStore defines persistence behavior for trend rollups.
type TrendStore interface {
	// Upsert creates or replaces the trend row keyed by (category, month).
	Upsert(ctx context.Context, trend *domain.Trend) error

	// ListAllTrends returns all trends, newest month first, then by category.
	ListAllTrends(ctx context.Context) ([]domain.Trend, error)

	// ListByMonth returns the trends of a single YYYY-MM month.
	ListByMonth(ctx context.Context, month string) ([]domain.Trend, error)
}
