package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"viralib-backend/internal/logger"
	"viralib-backend/internal/middleware"
	"viralib-backend/internal/models"
)

type pipelineRunner interface {
	Run(ctx context.Context, req models.AnalysisRequest, userID uuid.UUID) *models.PipelineResult
}

type videoCreator interface {
	Create(ctx context.Context, v *models.ReferenceVideo) error
}

// AnalyzeHandler is the boundary for single-video analysis: validate input,
// run the pipeline, persist the library row and answer 200 — degraded
// analyses included. Only bad input or an escaping panic yield non-200.
type AnalyzeHandler struct {
	pipeline  pipelineRunner
	videoRepo videoCreator
	redis     *redis.Client
	cacheTTL  time.Duration
	log       *logger.Logger
}

func NewAnalyzeHandler(pipeline pipelineRunner, videoRepo videoCreator, redisClient *redis.Client, cacheTTL time.Duration, log *logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		pipeline:  pipeline,
		videoRepo: videoRepo,
		redis:     redisClient,
		cacheTTL:  cacheTTL,
		log:       log,
	}
}

func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.WithRequest(r).Errorf("panic in analyze handler: %v", rec)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "Internal Server Error",
				"message": fmt.Sprintf("%v", rec),
			})
		}
	}()

	var req models.AnalyzeVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		writeErrorMsg(w, http.StatusBadRequest, "URL is required")
		return
	}

	userID := middleware.GetUserID(r.Context())

	if cached, ok := h.cachedAnalysis(r.Context(), req.URL); ok {
		result := &models.PipelineResult{
			RequestID: uuid.New().String(),
			VideoID:   req.VideoID,
			Analysis:  cached,
		}
		if result.VideoID == "" {
			result.VideoID = uuid.New().String()
		}
		writeJSON(w, http.StatusOK, models.NewAnalyzeVideoResponse(result))
		return
	}

	result := h.pipeline.Run(r.Context(), models.AnalysisRequest{
		SourceURL: req.URL,
		VideoID:   req.VideoID,
	}, userID)

	// The analysis already succeeded from the caller's perspective; a
	// persistence failure is logged, never surfaced.
	video := models.NewReferenceVideo(userID, req.URL, result)
	if err := h.videoRepo.Create(r.Context(), video); err != nil {
		h.log.WithVideo(result.VideoID).WithError(err).Warn("failed to persist reference video")
	}

	if !result.Degraded {
		h.cacheAnalysis(r.Context(), req.URL, result.Analysis)
	}

	writeJSON(w, http.StatusOK, models.NewAnalyzeVideoResponse(result))
}

func analysisCacheKey(url string) string {
	return "cache:analysis:" + url
}

func (h *AnalyzeHandler) cachedAnalysis(ctx context.Context, url string) (models.VideoAnalysis, bool) {
	if h.redis == nil {
		return models.VideoAnalysis{}, false
	}
	raw, err := h.redis.Get(ctx, analysisCacheKey(url)).Result()
	if err != nil {
		return models.VideoAnalysis{}, false
	}
	var analysis models.VideoAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return models.VideoAnalysis{}, false
	}
	return analysis, true
}

func (h *AnalyzeHandler) cacheAnalysis(ctx context.Context, url string, analysis models.VideoAnalysis) {
	if h.redis == nil {
		return
	}
	data, _ := json.Marshal(analysis)
	h.redis.Set(ctx, analysisCacheKey(url), string(data), h.cacheTTL)
}

// Shared response helpers.

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeErrorMsg(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
