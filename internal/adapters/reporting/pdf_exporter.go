package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"github.com/bioshield/lens/internal/core/domain"
)

// maxReportEntries caps how many vulnerabilities are listed per report.
const maxReportEntries = 50

// VulnerabilityReport bundles everything the PDF renders.
type VulnerabilityReport struct {
	ReportID        string
	GeneratedAt     time.Time
	Total           int64
	CountsByUrgency map[domain.UrgencyLevel]int64
	Vulnerabilities []domain.Vulnerability
	Trends          []domain.Trend
}

// NewVulnerabilityReport assembles a report with a fresh identifier.
func NewVulnerabilityReport(total int64, counts map[domain.UrgencyLevel]int64, vulns []domain.Vulnerability, trends []domain.Trend) *VulnerabilityReport {
	return &VulnerabilityReport{
		ReportID:        uuid.NewString(),
		GeneratedAt:     time.Now().UTC(),
		Total:           total,
		CountsByUrgency: counts,
		Vulnerabilities: vulns,
		Trends:          trends,
	}
}

// PDFExporter exports vulnerability reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export generates a PDF from the report.
func (e *PDFExporter) Export(report *VulnerabilityReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addStatistics(pdf, report)
	e.addTrends(pdf, report)
	e.addVulnerabilities(pdf, report)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report *VulnerabilityReport) {
	pdf.SetFont("Arial", "B", 20)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 12, "BioShield Lens - Vulnerability Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Report %s", report.ReportID), "", 1, "C", false, 0, "")
	pdf.Ln(6)
}

func (e *PDFExporter) addStatistics(pdf *gofpdf.Fpdf, report *VulnerabilityReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Summary Statistics", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	stats := []struct {
		label string
		value int64
		color []int
	}{
		{"Total Vulnerabilities", report.Total, []int{0, 102, 204}},
		{"Critical to Act Now", report.CountsByUrgency[domain.UrgencyCritical], []int{220, 53, 69}},
		{"Monitor", report.CountsByUrgency[domain.UrgencyMonitor], []int{255, 149, 0}},
		{"Low Priority", report.CountsByUrgency[domain.UrgencyLowPriority], []int{52, 199, 89}},
	}

	pdf.SetFont("Arial", "", 11)
	for _, s := range stats {
		pdf.SetTextColor(s.color[0], s.color[1], s.color[2])
		pdf.CellFormat(0, 7, fmt.Sprintf("%s: %d", s.label, s.value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (e *PDFExporter) addTrends(pdf *gofpdf.Fpdf, report *VulnerabilityReport) {
	if len(report.Trends) == 0 {
		return
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Sector Trends", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(60, 60, 60)
	for _, t := range report.Trends {
		line := fmt.Sprintf("%s %s", t.Category, t.Month)
		if t.ChangePercentage != nil {
			line = fmt.Sprintf("%s (%+.1f%%)", line, *t.ChangePercentage)
		}
		if t.Notes != "" {
			line = line + " - " + t.Notes
		}
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (e *PDFExporter) addVulnerabilities(pdf *gofpdf.Fpdf, report *VulnerabilityReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Vulnerabilities", "", 1, "L", false, 0, "")
	pdf.Ln(1)

	vulns := report.Vulnerabilities
	if len(vulns) > maxReportEntries {
		vulns = vulns[:maxReportEntries]
	}

	for _, v := range vulns {
		title := v.CVEID
		if v.UrgencyLevel != nil {
			title = fmt.Sprintf("%s - %s", v.CVEID, *v.UrgencyLevel)
		}
		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(40, 40, 40)
		pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")

		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 5, v.Description, "", "L", false)

		if v.IntelNotes != "" {
			pdf.SetFont("Arial", "I", 8)
			pdf.SetTextColor(120, 120, 120)
			pdf.MultiCell(0, 4, "Intel: "+v.IntelNotes, "", "L", false)
		}
		pdf.Ln(2)
	}
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report *VulnerabilityReport) {
	pdf.SetY(-20)
	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(150, 150, 150)
	footer := fmt.Sprintf("Generated on %s", report.GeneratedAt.Format("2006-01-02 15:04 UTC"))
	pdf.CellFormat(0, 5, footer, "", 1, "C", false, 0, "")
}
