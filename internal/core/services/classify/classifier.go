package classify

import (
	"fmt"
	"strings"

	"github.com/bioshield/lens/internal/core/domain"
)

// rule is one entry of the ordered classification table. Rules are evaluated
// top-down against the lower-cased description; the first keyword hit wins.
type rule struct {
	keywords         []string
	bioImpactScore   float64
	humanImpactScore float64
	sector           domain.Sector
	urgency          func(severity float64) domain.UrgencyLevel
	intelNotes       string
}

// rules is the fixed classification table. Note the agriculture rule maps
// high severity to Monitor rather than Critical; downstream consumers
// depend on that asymmetry, so it is kept as-is.
var rules = []rule{
	{
		keywords:         []string{"medical", "hospital", "healthcare", "patient", "clinical"},
		bioImpactScore:   8,
		humanImpactScore: 9,
		sector:           domain.SectorHealthcare,
		urgency: func(severity float64) domain.UrgencyLevel {
			if severity >= 7 {
				return domain.UrgencyCritical
			}
			return domain.UrgencyMonitor
		},
		intelNotes: "This vulnerability affects healthcare systems and could impact patient safety.",
	},
	{
		keywords:         []string{"biotech", "laboratory", "lab", "pharmaceutical", "genetic"},
		bioImpactScore:   7,
		humanImpactScore: 6,
		sector:           domain.SectorBiotech,
		urgency: func(severity float64) domain.UrgencyLevel {
			if severity >= 7 {
				return domain.UrgencyCritical
			}
			return domain.UrgencyMonitor
		},
		intelNotes: "This vulnerability affects biotechnology or laboratory systems.",
	},
	{
		keywords:         []string{"agriculture", "farming", "crop", "livestock", "food"},
		bioImpactScore:   6,
		humanImpactScore: 5,
		sector:           domain.SectorAgriculture,
		urgency: func(severity float64) domain.UrgencyLevel {
			if severity >= 7 {
				return domain.UrgencyMonitor
			}
			return domain.UrgencyLowPriority
		},
		intelNotes: "This vulnerability affects agricultural systems.",
	},
}

// RuleClassifier implements ports.Classifier as a deterministic keyword
// rule table. No model, no network: every outcome is explainable from the
// table above.
type RuleClassifier struct{}

// NewRuleClassifier creates the classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify maps a vulnerability onto impact scores, urgency and sector.
// Pure function of its input; always returns a result.
func (c *RuleClassifier) Classify(v domain.Vulnerability) domain.ClassificationResult {
	description := strings.ToLower(v.Description)
	severity := v.Severity()

	for _, r := range rules {
		if matchesAny(description, r.keywords) {
			return domain.ClassificationResult{
				BioImpactScore:   r.bioImpactScore,
				HumanImpactScore: r.humanImpactScore,
				UrgencyLevel:     r.urgency(severity),
				AffectedSector:   r.sector,
				IntelNotes:       r.intelNotes,
			}
		}
	}

	// No sector keyword matched: fall back to severity-driven scoring.
	return domain.ClassificationResult{
		BioImpactScore:   severity,
		HumanImpactScore: severity,
		UrgencyLevel:     severityUrgency(severity),
		AffectedSector:   domain.SectorGeneral,
	}
}

func matchesAny(description string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(description, kw) {
			return true
		}
	}
	return false
}

func severityUrgency(severity float64) domain.UrgencyLevel {
	switch {
	case severity >= 9:
		return domain.UrgencyCritical
	case severity >= 7:
		return domain.UrgencyMonitor
	default:
		return domain.UrgencyLowPriority
	}
}

// Summarize produces a deterministic digest of a set of vulnerabilities:
// total count, then one clause per non-zero bucket in fixed order.
func (c *RuleClassifier) Summarize(vulns []domain.Vulnerability) string {
	if len(vulns) == 0 {
		return "No vulnerabilities to analyze."
	}

	var critical, healthcare, biotech, agriculture int
	for _, v := range vulns {
		if v.UrgencyLevel != nil && *v.UrgencyLevel == domain.UrgencyCritical {
			critical++
		}
		if v.AffectedSector == nil {
			continue
		}
		switch *v.AffectedSector {
		case domain.SectorHealthcare:
			healthcare++
		case domain.SectorBiotech:
			biotech++
		case domain.SectorAgriculture:
			agriculture++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analysis of %d vulnerabilities: ", len(vulns))
	if critical > 0 {
		fmt.Fprintf(&b, "%d require immediate attention. ", critical)
	}
	if healthcare > 0 {
		fmt.Fprintf(&b, "Healthcare sector affected by %d vulnerabilities. ", healthcare)
	}
	if biotech > 0 {
		fmt.Fprintf(&b, "Biotech sector shows %d vulnerabilities. ", biotech)
	}
	if agriculture > 0 {
		fmt.Fprintf(&b, "Agriculture sector has %d vulnerabilities. ", agriculture)
	}
	b.WriteString("Review individual vulnerabilities for detailed impact assessment.")

	return b.String()
}
