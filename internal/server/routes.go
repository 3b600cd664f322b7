package server

import "net/http"

// registerRoutes wires the request surface of §6: supply read, import,
// manual job submission, job polling, telemetry, alerts, probes, admin
// GC, the push WebSocket, and the two collaborator stubs restored from
// original_source (/performance/summary, /me), grounded on the teacher's
// registerRoutes in internal/server/routes.go.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /questions", s.handleFetchQuestions)
	mux.HandleFunc("POST /questions/import", s.handleImportQuestions)

	mux.HandleFunc("POST /generate_questions_async", s.handleGenerateQuestionsAsync)
	mux.HandleFunc("GET /generation_status/{job_id}", s.handleGenerationStatus)

	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /metrics/prometheus", s.handleMetricsPrometheus)
	mux.HandleFunc("GET /alerts", s.handleAlerts)
	mux.HandleFunc("GET /performance/summary", s.handlePerformanceSummary)

	mux.HandleFunc("GET /health", s.handleHealthLiveness)
	mux.HandleFunc("GET /health/ready", s.handleHealthReadiness)
	mux.HandleFunc("GET /health/detailed", s.handleHealthDetailed)

	mux.HandleFunc("POST /admin/cleanup_jobs", s.handleAdminCleanupJobs)

	mux.HandleFunc("GET /me", s.handleMe)

	mux.HandleFunc("GET /ws/{recipient_id}", s.handlePushStream)
}
