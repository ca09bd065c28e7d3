package domain

import "time"

// FeedRecord is one raw advisory as fetched from the external feed, before
// relevance filtering and score extraction. Field layout mirrors what the
// feed actually reports rather than what the store keeps.
type FeedRecord struct {
	ID           string
	Descriptions []FeedDescription

	// Published is the feed's publication timestamp. Zero when the feed
	// omitted it or reported something unparseable.
	Published time.Time

	// Scores per CVSS scheme, in the order the feed reported them.
	// Zero or more schemes may be present on any record.
	ScoresV31 []float64
	ScoresV30 []float64
	ScoresV2  []float64
}

// FeedDescription is a localized description entry.
type FeedDescription struct {
	Lang  string
	Value string
}

// EnglishDescription returns the first en-language entry, or ok=false.
func (r FeedRecord) EnglishDescription() (string, bool) {
	for _, d := range r.Descriptions {
		if d.Lang == "en" {
			return d.Value, true
		}
	}
	return "", false
}
