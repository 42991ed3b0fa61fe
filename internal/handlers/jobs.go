package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"viralib-backend/internal/logger"
	"viralib-backend/internal/middleware"
	"viralib-backend/internal/models"
	"viralib-backend/internal/repository"
	"viralib-backend/internal/worker"
)

// maxImportBatch caps one bulk request; each URL costs a full pipeline run.
const maxImportBatch = 20

// JobsHandler enqueues bulk imports and reports their status.
type JobsHandler struct {
	jobRepo *repository.JobRepo
	redis   *redis.Client
	log     *logger.Logger
}

func NewJobsHandler(jobRepo *repository.JobRepo, redisClient *redis.Client, log *logger.Logger) *JobsHandler {
	return &JobsHandler{jobRepo: jobRepo, redis: redisClient, log: log}
}

func (h *JobsHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req models.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.URLs) == 0 {
		writeErrorMsg(w, http.StatusBadRequest, "At least one URL is required")
		return
	}
	if len(req.URLs) > maxImportBatch {
		writeErrorMsg(w, http.StatusBadRequest, "Too many URLs in one batch")
		return
	}

	userID := middleware.GetUserID(r.Context())

	jobs := make([]*models.ImportJob, 0, len(req.URLs))
	for _, url := range req.URLs {
		if url == "" {
			continue
		}

		job := &models.ImportJob{UserID: userID, SourceURL: url}
		if err := h.jobRepo.Create(r.Context(), job); err != nil {
			h.log.WithRequest(r).WithError(err).Error("failed to create import job")
			continue
		}

		payload, _ := json.Marshal(models.ImportJobPayload{
			JobID:     job.ID,
			UserID:    userID,
			SourceURL: url,
		})
		if err := h.redis.LPush(r.Context(), worker.ImportQueue, string(payload)).Err(); err != nil {
			h.log.WithRequest(r).WithError(err).Error("failed to enqueue import job")
			h.jobRepo.MarkFailed(r.Context(), job.ID, "failed to enqueue")
			continue
		}

		jobs = append(jobs, job)
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"jobs":     jobs,
		"enqueued": len(jobs),
	})
}

func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil {
		writeErrorMsg(w, http.StatusNotFound, "Job not found")
		return
	}

	if job.UserID != middleware.GetUserID(r.Context()) {
		writeErrorMsg(w, http.StatusForbidden, "Access denied")
		return
	}

	writeJSON(w, http.StatusOK, job)
}
