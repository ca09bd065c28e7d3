package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/bioshield/lens/internal/core/domain"
	"github.com/bioshield/lens/internal/core/ports"
)

const noDescription = "No description available"

// Service orchestrates the feed client, relevance filter and score extractor
// and persists new vulnerabilities.
type Service struct {
	feed  ports.FeedClient
	store ports.VulnerabilityStore
	now   func() time.Time
}

// NewService creates an ingestion service.
func NewService(feedClient ports.FeedClient, store ports.VulnerabilityStore) *Service {
	return &Service{feed: feedClient, store: store, now: time.Now}
}

// Run fetches up to maxResults records and imports the new, in-scope subset
// as unclassified vulnerabilities in a single batch. It returns the count
// actually added. Dedup is keyed on the CVE identifier, so re-running over
// an overlapping publication window is a no-op for already-seen records.
// An explicit keywordFilter bypasses the bio-relevance gate: the search term
// already narrowed intent server-side.
func (s *Service) Run(ctx context.Context, maxResults int, keywordFilter string) (int, error) {
	records, err := s.feed.Fetch(ctx, maxResults, keywordFilter)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	known, err := s.store.ExistingIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	var fresh []domain.Vulnerability
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		if known[rec.ID] || seen[rec.ID] {
			continue
		}
		if keywordFilter == "" && !IsBioRelated(rec) {
			continue
		}
		seen[rec.ID] = true

		desc, ok := rec.EnglishDescription()
		if !ok {
			desc = noDescription
		}

		discovered := rec.Published
		if discovered.IsZero() {
			discovered = now
		}

		v := domain.Vulnerability{
			CVEID:          rec.ID,
			Description:    desc,
			Source:         "NVD",
			DateDiscovered: discovered,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if score, ok := ExtractScore(rec); ok {
			v.SeverityScore = &score
		}

		fresh = append(fresh, v)
	}

	if len(fresh) == 0 {
		slog.Info("Feed ingest complete", "fetched", len(records), "imported", 0)
		return 0, nil
	}

	if err := s.store.SaveBatch(ctx, fresh); err != nil {
		return 0, err
	}

	slog.Info("Feed ingest complete", "fetched", len(records), "imported", len(fresh))
	return len(fresh), nil
}
