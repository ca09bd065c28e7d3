package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bioshield/lens/internal/adapters/web/middleware"
)

// SetupRoutes wires the read-only API surface.
func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/vulnerabilities", s.handleListVulnerabilities).Methods(http.MethodGet)
	api.HandleFunc("/vulnerabilities/search", s.handleSearchVulnerabilities).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/trends", s.handleTrends).Methods(http.MethodGet)
	api.HandleFunc("/intel/summary", s.handleIntelSummary).Methods(http.MethodGet)
	api.HandleFunc("/scheduler/status", s.handleSchedulerStatus).Methods(http.MethodGet)

	// Exports can carry the whole dataset; key-protected when configured.
	protect := middleware.APIKeyMiddleware(s.APIKeyHash)
	export := r.PathPrefix("/export").Subrouter()
	export.Use(protect)
	export.HandleFunc("/csv", s.handleExportCSV).Methods(http.MethodGet)
	export.HandleFunc("/json", s.handleExportJSON).Methods(http.MethodGet)
	export.HandleFunc("/pdf", s.handleExportPDF).Methods(http.MethodGet)
	export.HandleFunc("/trends.csv", s.handleExportTrendsCSV).Methods(http.MethodGet)

	r.HandleFunc("/ws", s.WSManager.HandleWebSocket)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
