package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bioshield/lens/internal/core/domain"
)

// ExportJSON writes vulnerabilities as a JSON array
func ExportJSON(w io.Writer, vulns []domain.Vulnerability) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(vulns)
}

// ExportCSV writes vulnerabilities as CSV with headers
func ExportCSV(w io.Writer, vulns []domain.Vulnerability) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	headers := []string{
		"CVE ID", "Description", "Severity Score", "Bio Impact",
		"Human Impact", "Urgency Level", "Affected Sector", "Date Discovered",
	}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, v := range vulns {
		row := []string{
			v.CVEID,
			v.Description,
			formatScore(v.SeverityScore),
			formatScore(v.BioImpactScore),
			formatScore(v.HumanImpactScore),
			formatUrgency(v.UrgencyLevel),
			formatSector(v.AffectedSector),
			v.DateDiscovered.UTC().Format("2006-01-02"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

// ExportTrendsCSV writes trend rollups as CSV with headers
func ExportTrendsCSV(w io.Writer, trends []domain.Trend) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Category", "Month", "Change %", "Notes"}); err != nil {
		return err
	}

	for _, t := range trends {
		change := ""
		if t.ChangePercentage != nil {
			change = fmt.Sprintf("%.1f", *t.ChangePercentage)
		}
		if err := writer.Write([]string{string(t.Category), t.Month, change, t.Notes}); err != nil {
			return err
		}
	}

	return writer.Error()
}

func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *score)
}

func formatUrgency(level *domain.UrgencyLevel) string {
	if level == nil {
		return ""
	}
	return string(*level)
}

func formatSector(sector *domain.Sector) string {
	if sector == nil {
		return ""
	}
	return string(*sector)
}
