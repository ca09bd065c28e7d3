package ports

import (
	"context"

	"github.com/bioshield/lens/internal/core/domain"
)

// FeedClient fetches raw advisories from the external vulnerability feed.
type FeedClient interface {
	// Fetch returns up to maxResults records published in the feed's recent
	// window, optionally narrowed by a server-side keyword search. Transport
	// failures and malformed responses surface as domain.ErrFeedUnavailable.
	Fetch(ctx context.Context, maxResults int, keywordFilter string) ([]domain.FeedRecord, error)
}

// Classifier maps a vulnerability onto bio-impact scores, an urgency level
// and an affected sector.
type Classifier interface {
	// Classify is a pure function of its input. It always produces a result,
	// even for empty or unrecognized text.
	Classify(v domain.Vulnerability) domain.ClassificationResult

	// Summarize produces a deterministic human-readable digest of a set of
	// classified vulnerabilities.
	Summarize(vulns []domain.Vulnerability) string
}
