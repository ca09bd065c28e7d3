package ingest

import (
	"strings"

	"github.com/bioshield/lens/internal/core/domain"
)

// bioKeywords identifies advisories touching healthcare, biotech/lab or
// agriculture/biosecurity systems. Matching is case-insensitive substring
// over description and CVE identifier.
var bioKeywords = []string{
	"medical", "hospital", "healthcare", "biotech", "biotechnology",
	"laboratory", "lab", "pharmaceutical", "pharma", "clinical",
	"diagnostic", "biomedical", "genetic", "dna", "rna", "sequencing",
	"agriculture", "farming", "crop", "livestock", "food safety",
	"epidemiology", "pathogen", "biosafety", "biosecurity",
}

// IsBioRelated reports whether a feed record plausibly affects a
// bio-adjacent sector.
func IsBioRelated(rec domain.FeedRecord) bool {
	desc, _ := rec.EnglishDescription()
	desc = strings.ToLower(desc)
	id := strings.ToLower(rec.ID)

	for _, kw := range bioKeywords {
		if strings.Contains(desc, kw) || strings.Contains(id, kw) {
			return true
		}
	}
	return false
}
