package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bioshield/lens/internal/adapters/reporting"
	"github.com/bioshield/lens/internal/core/domain"
	"github.com/bioshield/lens/internal/core/services/export"
)

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// listForPriority resolves the optional ?priority= filter shared by the list
// and export endpoints.
func (s *Server) listForPriority(r *http.Request) ([]domain.Vulnerability, error) {
	priority := r.URL.Query().Get("priority")
	if priority == "" {
		return s.Store.ListAll(r.Context())
	}
	return s.Store.ListByUrgency(r.Context(), domain.UrgencyLevel(priority))
}

func (s *Server) handleListVulnerabilities(w http.ResponseWriter, r *http.Request) {
	vulns, err := s.listForPriority(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, vulns)
}

func (s *Server) handleSearchVulnerabilities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}
	vulns, err := s.Store.Search(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, vulns)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	total, err := s.Store.CountAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	counts, err := s.Store.CountByUrgency(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	stats := map[string]int64{
		"Total":                           total,
		string(domain.UrgencyCritical):    counts[domain.UrgencyCritical],
		string(domain.UrgencyMonitor):     counts[domain.UrgencyMonitor],
		string(domain.UrgencyLowPriority): counts[domain.UrgencyLowPriority],
	}
	s.writeJSON(w, stats)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := s.Trends.ListAllTrends(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, trends)
}

func (s *Server) handleIntelSummary(w http.ResponseWriter, r *http.Request) {
	vulns, err := s.Store.ListAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	trendSummary, err := s.TrendSvc.Summary(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, map[string]string{
		"intel":  s.Classifier.Summarize(vulns),
		"trends": trendSummary,
	})
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"state": string(s.Scheduler.State())})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	vulns, err := s.listForPriority(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="vulnerabilities_%s.csv"`, time.Now().UTC().Format("20060102")))
	if err := export.ExportCSV(w, vulns); err != nil {
		slog.Error("CSV export failed", "error", err)
	}
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	vulns, err := s.listForPriority(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="vulnerabilities_%s.json"`, time.Now().UTC().Format("20060102")))
	if err := export.ExportJSON(w, vulns); err != nil {
		slog.Error("JSON export failed", "error", err)
	}
}

func (s *Server) handleExportTrendsCSV(w http.ResponseWriter, r *http.Request) {
	trends, err := s.Trends.ListAllTrends(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="trends_%s.csv"`, time.Now().UTC().Format("20060102")))
	if err := export.ExportTrendsCSV(w, trends); err != nil {
		slog.Error("Trend CSV export failed", "error", err)
	}
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	vulns, err := s.listForPriority(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	total, err := s.Store.CountAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	counts, err := s.Store.CountByUrgency(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	trends, err := s.Trends.ListAllTrends(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	report := reporting.NewVulnerabilityReport(total, counts, vulns, trends)
	data, err := s.PDF.Export(report)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="vulnerabilities_%s.pdf"`, time.Now().UTC().Format("20060102")))
	w.Write(data)
}
