package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bobmcallan/trivia/internal/interfaces"
	"github.com/bobmcallan/trivia/internal/models"
)

// handleFetchQuestions implements GET /questions — the Supply
// Controller's read path.
func (s *Server) handleFetchQuestions(w http.ResponseWriter, r *http.Request) {
	rc, ok := recipientFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "missing recipient identity")
		return
	}

	q := r.URL.Query()
	limit := 10
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var age *int
	if v := q.Get("age"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			age = &n
		}
	}

	topic := q.Get("topic")

	questions, err := s.app.Supply.FetchQuestions(r.Context(), rc.RecipientID, limit, age, topic)
	if err != nil {
		s.logger.Error().Err(err).Msg("FetchQuestions failed")
		WriteError(w, http.StatusInternalServerError, "failed to fetch questions")
		return
	}

	if questions == nil {
		questions = []*models.Question{}
	}
	WriteJSON(w, http.StatusOK, questions)
}

// importRequest is the body of POST /questions/import.
type importRequest struct {
	Questions []struct {
		Prompt  string   `json:"prompt"`
		Options []string `json:"options"`
		Answer  string   `json:"answer"`
		Topic   string   `json:"topic"`
		MinAge  int      `json:"min_age"`
		MaxAge  int      `json:"max_age"`
	} `json:"questions"`
}

// handleImportQuestions implements POST /questions/import.
func (s *Server) handleImportQuestions(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	batch := make([]*models.Question, 0, len(req.Questions))
	for _, item := range req.Questions {
		batch = append(batch, &models.Question{
			Prompt:  item.Prompt,
			Options: item.Options,
			Answer:  item.Answer,
			Topic:   item.Topic,
			MinAge:  item.MinAge,
			MaxAge:  item.MaxAge,
		})
	}

	imported, skipped, err := s.app.Store.ImportBatch(r.Context(), batch)
	if err != nil {
		s.logger.Error().Err(err).Msg("ImportBatch failed")
		WriteError(w, http.StatusInternalServerError, "import failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"imported": imported,
		"skipped":  skipped,
		"total":    len(batch),
		"message":  "import complete",
	})
}

// generateRequest is the body of POST /generate_questions_async.
type generateRequest struct {
	TargetCount int              `json:"target_count"`
	AgeRange    *models.AgeRange `json:"age_range"`
	Topic       string           `json:"topic"`
}

// handleGenerateQuestionsAsync implements POST /generate_questions_async
// — the manual job-submission path. Unlike the Supply Controller's
// auto-trigger, manual submissions are never subject to the
// one-active-job-per-recipient constraint.
func (s *Server) handleGenerateQuestionsAsync(w http.ResponseWriter, r *http.Request) {
	rc, ok := recipientFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "missing recipient identity")
		return
	}

	var req generateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	jobID, err := s.app.JobManager.Enqueue(r.Context(), rc.RecipientID, req.TargetCount, req.AgeRange, req.Topic, false)
	if err != nil {
		s.logger.Error().Err(err).Msg("Enqueue failed")
		WriteError(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]any{
		"job_id":  jobID,
		"status":  models.JobStatusPending,
		"message": "job submitted",
	})
}

// handleGenerationStatus implements GET /generation_status/{job_id}.
func (s *Server) handleGenerationStatus(w http.ResponseWriter, r *http.Request) {
	rc, ok := recipientFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "missing recipient identity")
		return
	}

	jobID := r.PathValue("job_id")
	job, err := s.app.JobManager.Status(jobID, rc.RecipientID)
	switch {
	case errors.Is(err, interfaces.ErrJobNotFound):
		WriteError(w, http.StatusNotFound, "job not found")
		return
	case errors.Is(err, interfaces.ErrJobForbidden):
		WriteError(w, http.StatusForbidden, "job not owned by requester")
		return
	case err != nil:
		WriteError(w, http.StatusInternalServerError, "failed to read job status")
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// handleMetrics implements GET /metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot := s.app.Telemetry.Snapshot(s.app.JobManager.ActiveCount(), s.app.Hub.StreamCount())
	WriteJSON(w, http.StatusOK, snapshot)
}

// handleMetricsPrometheus implements the domain-stack addition GET
// /metrics/prometheus, exposing the same counters in the Prometheus
// exposition format alongside the spec's own JSON /metrics.
func (s *Server) handleMetricsPrometheus(w http.ResponseWriter, r *http.Request) {
	s.app.Telemetry.Snapshot(s.app.JobManager.ActiveCount(), s.app.Hub.StreamCount())
	s.app.Telemetry.Handler().ServeHTTP(w, r)
}

// handleAlerts implements GET /alerts.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	snapshot := s.app.Telemetry.Snapshot(s.app.JobManager.ActiveCount(), s.app.Hub.StreamCount())
	alerts := s.app.Telemetry.Alerts(snapshot)

	status := "healthy"
	for _, a := range alerts {
		if a.Level == "critical" {
			status = "unhealthy"
			break
		}
		status = "warning"
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"alerts":        alerts,
		"system_status": status,
	})
}

// handlePerformanceSummary implements GET /performance/summary,
// supplemented from original_source/backend/main.py's
// get_performance_summary — a derived-metrics view combining rates,
// active job count, and push-stream count against configured
// thresholds.
func (s *Server) handlePerformanceSummary(w http.ResponseWriter, r *http.Request) {
	snapshot := s.app.Telemetry.Snapshot(s.app.JobManager.ActiveCount(), s.app.Hub.StreamCount())
	alerts := s.app.Telemetry.Alerts(snapshot)

	WriteJSON(w, http.StatusOK, map[string]any{
		"success_rate":         snapshot.SuccessRate,
		"questions_per_minute": snapshot.QuestionsPerMinute,
		"duplicate_ratio":      snapshot.DuplicateRatio,
		"active_jobs":          snapshot.ActiveJobs,
		"concurrent_streams":   snapshot.ConcurrentStreams,
		"alerts":               alerts,
	})
}

// handleHealthLiveness implements GET /health — a static OK.
func (s *Server) handleHealthLiveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHealthReadiness implements GET /health/ready — verifies the
// Store responds to a trivial query.
func (s *Server) handleHealthReadiness(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Store.Ping(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleHealthDetailed implements GET /health/detailed — aggregates
// component statuses into {healthy, warning, unhealthy}.
func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	storeStatus := "healthy"
	if err := s.app.Store.Ping(r.Context()); err != nil {
		storeStatus = "unhealthy"
	}

	snapshot := s.app.Telemetry.Snapshot(s.app.JobManager.ActiveCount(), s.app.Hub.StreamCount())
	alerts := s.app.Telemetry.Alerts(snapshot)

	overall := "healthy"
	if storeStatus == "unhealthy" {
		overall = "unhealthy"
	} else {
		for _, a := range alerts {
			if a.Level == "critical" {
				overall = "unhealthy"
			} else if overall == "healthy" {
				overall = "warning"
			}
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status": overall,
		"components": map[string]string{
			"store": storeStatus,
		},
		"alerts": alerts,
	})
}

// handleAdminCleanupJobs implements POST /admin/cleanup_jobs.
func (s *Server) handleAdminCleanupJobs(w http.ResponseWriter, r *http.Request) {
	removed := s.app.JobManager.Cleanup(s.app.Config.JobManager.GetMaxJobAge())
	WriteJSON(w, http.StatusOK, map[string]any{
		"removed_count":   removed,
		"remaining_jobs":  s.app.JobManager.ActiveCount(),
	})
}

// handleMe implements GET /me, supplemented from original_source — a
// read-only echo of the bearer token's claims, costing nothing beyond
// the JWT verifier already required by every other authenticated route.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	rc, ok := recipientFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "missing recipient identity")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"recipient_id": rc.RecipientID,
		"claims":       rc.Claims,
	})
}

// handlePushStream implements the Stream /ws/{recipient_id} upgrade.
func (s *Server) handlePushStream(w http.ResponseWriter, r *http.Request) {
	recipientID := r.PathValue("recipient_id")
	if recipientID == "" {
		WriteError(w, http.StatusBadRequest, "recipient_id is required")
		return
	}
	s.app.Hub.ServeWS(w, r, recipientID)
}
