package domain

import (
	"errors"
	"time"
)

// UrgencyLevel is the discrete priority bucket assigned by classification.
type UrgencyLevel string

const (
	UrgencyCritical    UrgencyLevel = "Critical to Act Now"
	UrgencyMonitor     UrgencyLevel = "Monitor"
	UrgencyLowPriority UrgencyLevel = "Low Priority"
)

// Sector identifies which bio-adjacent industry a vulnerability touches.
type Sector string

const (
	SectorHealthcare  Sector = "Healthcare"
	SectorBiotech     Sector = "Biotech"
	SectorAgriculture Sector = "Agriculture"
	SectorGeneral     Sector = "General"
)

// Domain Errors
var (
	ErrFeedUnavailable = errors.New("vulnerability feed unavailable")
	ErrStore           = errors.New("vulnerability store failure")
)

// Vulnerability is a publicly disclosed advisory tracked by the system.
// The CVE identifier is the authoritative identity: dedup during ingestion
// and classification writes are both keyed on it.
type Vulnerability struct {
	ID          uint      `json:"-"`
	CVEID       string    `json:"cve_id"`
	Description string    `json:"description"`
	Source      string    `json:"source"`

	// SeverityScore is the CVSS base score as reported by the feed.
	// nil means the feed supplied none, which is distinct from 0.
	SeverityScore *float64 `json:"severity_score"`

	// Classification output. All nil until the classifier has run;
	// a record is considered classified iff UrgencyLevel is non-nil.
	BioImpactScore   *float64      `json:"bio_impact_score"`
	HumanImpactScore *float64      `json:"human_impact_score"`
	UrgencyLevel     *UrgencyLevel `json:"urgency_level"`
	AffectedSector   *Sector       `json:"affected_sector"`
	IntelNotes       string        `json:"intel_notes,omitempty"`

	DateDiscovered time.Time `json:"date_discovered"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Classified reports whether the record has been through the classifier.
func (v *Vulnerability) Classified() bool {
	return v.UrgencyLevel != nil
}

// Severity returns the feed score, or 0 when absent.
func (v *Vulnerability) Severity() float64 {
	if v.SeverityScore == nil {
		return 0
	}
	return *v.SeverityScore
}

// ClassificationResult is the classifier's output contract. It is transient:
// the caller copies the fields onto the Vulnerability and persists them.
type ClassificationResult struct {
	BioImpactScore   float64
	HumanImpactScore float64
	UrgencyLevel     UrgencyLevel
	AffectedSector   Sector
	IntelNotes       string
}

// Apply copies the classification onto the vulnerability.
func (r ClassificationResult) Apply(v *Vulnerability, now time.Time) {
	bio, human := r.BioImpactScore, r.HumanImpactScore
	urgency, sector := r.UrgencyLevel, r.AffectedSector
	v.BioImpactScore = &bio
	v.HumanImpactScore = &human
	v.UrgencyLevel = &urgency
	v.AffectedSector = &sector
	v.IntelNotes = r.IntelNotes
	v.UpdatedAt = now
}
