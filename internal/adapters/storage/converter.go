package storage

import (
	"github.com/bioshield/lens/internal/core/domain"
)

// toVulnModel converts a domain entity to its database model.
func toVulnModel(v domain.Vulnerability) VulnerabilityModel {
	m := VulnerabilityModel{
		ID:               v.ID,
		CVEID:            v.CVEID,
		Description:      v.Description,
		Source:           v.Source,
		SeverityScore:    v.SeverityScore,
		BioImpactScore:   v.BioImpactScore,
		HumanImpactScore: v.HumanImpactScore,
		IntelNotes:       v.IntelNotes,
		DateDiscovered:   v.DateDiscovered,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
	if v.UrgencyLevel != nil {
		s := string(*v.UrgencyLevel)
		m.UrgencyLevel = &s
	}
	if v.AffectedSector != nil {
		s := string(*v.AffectedSector)
		m.AffectedSector = &s
	}
	return m
}

// toVulnDomain converts a database model to a domain entity.
func toVulnDomain(m VulnerabilityModel) domain.Vulnerability {
	v := domain.Vulnerability{
		ID:               m.ID,
		CVEID:            m.CVEID,
		Description:      m.Description,
		Source:           m.Source,
		SeverityScore:    m.SeverityScore,
		BioImpactScore:   m.BioImpactScore,
		HumanImpactScore: m.HumanImpactScore,
		IntelNotes:       m.IntelNotes,
		DateDiscovered:   m.DateDiscovered,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.UrgencyLevel != nil {
		lvl := domain.UrgencyLevel(*m.UrgencyLevel)
		v.UrgencyLevel = &lvl
	}
	if m.AffectedSector != nil {
		sec := domain.Sector(*m.AffectedSector)
		v.AffectedSector = &sec
	}
	return v
}

func toVulnDomains(models []VulnerabilityModel) []domain.Vulnerability {
	vulns := make([]domain.Vulnerability, len(models))
	for i, m := range models {
		vulns[i] = toVulnDomain(m)
	}
	return vulns
}

func toTrendModel(t domain.Trend) TrendModel {
	return TrendModel{
		ID:               t.ID,
		Category:         string(t.Category),
		Month:            t.Month,
		ChangePercentage: t.ChangePercentage,
		Notes:            t.Notes,
		CreatedAt:        t.CreatedAt,
	}
}

func toTrendDomain(m TrendModel) domain.Trend {
	return domain.Trend{
		ID:               m.ID,
		Category:         domain.Sector(m.Category),
		Month:            m.Month,
		ChangePercentage: m.ChangePercentage,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
	}
}

func toTrendDomains(models []TrendModel) []domain.Trend {
	trends := make([]domain.Trend, len(models))
	for i, m := range models {
		trends[i] = toTrendDomain(m)
	}
	return trends
}
