package ingest

import "github.com/bioshield/lens/internal/core/domain"

// ExtractScore selects a single severity score from whichever CVSS schemes
// the record carries, preferring the newest scheme version (v3.1, then v3.0,
// then v2) and the first reported score within it. ok is false when the
// record carries no score at all: "no score" is not the same as zero.
func ExtractScore(rec domain.FeedRecord) (float64, bool) {
	for _, scores := range [][]float64{rec.ScoresV31, rec.ScoresV30, rec.ScoresV2} {
		if len(scores) > 0 {
			return scores[0], true
		}
	}
	return 0, false
}
