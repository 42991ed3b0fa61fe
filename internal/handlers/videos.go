package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"viralib-backend/internal/logger"
	"viralib-backend/internal/middleware"
	"viralib-backend/internal/models"
	"viralib-backend/internal/repository"
	"viralib-backend/internal/services"
)

type nicheAdapter interface {
	AdaptToNiche(ctx context.Context, analysis models.VideoAnalysis, niche string) (models.AdaptedContent, error)
}

// VideosHandler serves the reference library: list/search, curation
// updates, viral scoring, niche adaptation and export.
type VideosHandler struct {
	videoRepo *repository.VideoRepo
	adapter   nicheAdapter
	log       *logger.Logger
}

func NewVideosHandler(videoRepo *repository.VideoRepo, adapter nicheAdapter, log *logger.Logger) *VideosHandler {
	return &VideosHandler{videoRepo: videoRepo, adapter: adapter, log: log}
}

func (h *VideosHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	params := models.VideoListParams{
		Search:        q.Get("search"),
		Theme:         q.Get("theme"),
		Tag:           q.Get("tag"),
		FavoritesOnly: q.Get("favorites") == "true",
		Sort:          q.Get("sort"),
		Limit:         limit,
		Offset:        offset,
	}

	videos, total, err := h.videoRepo.ListByUser(r.Context(), userID, params)
	if err != nil {
		h.log.WithRequest(r).WithError(err).Error("failed to list videos")
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to list videos")
		return
	}
	if videos == nil {
		videos = []*models.ReferenceVideo{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"videos": videos,
		"total":  total,
	})
}

// ownedVideo loads a video and enforces ownership. Writes the error
// response itself and returns nil when the caller should stop.
func (h *VideosHandler) ownedVideo(w http.ResponseWriter, r *http.Request) *models.ReferenceVideo {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid video ID")
		return nil
	}

	video, err := h.videoRepo.GetByID(r.Context(), id)
	if err != nil {
		writeErrorMsg(w, http.StatusNotFound, "Video not found")
		return nil
	}

	if video.UserID != middleware.GetUserID(r.Context()) {
		writeErrorMsg(w, http.StatusForbidden, "Access denied")
		return nil
	}

	return video
}

func (h *VideosHandler) Get(w http.ResponseWriter, r *http.Request) {
	video := h.ownedVideo(w, r)
	if video == nil {
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (h *VideosHandler) Update(w http.ResponseWriter, r *http.Request) {
	video := h.ownedVideo(w, r)
	if video == nil {
		return
	}

	var req models.UpdateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TagsAI != nil {
		video.TagsAI = *req.TagsAI
	}
	if req.Notes != nil {
		video.Notes = req.Notes
	}
	if req.Metrics != nil {
		video.Metrics = *req.Metrics
	}
	if req.IsFavorite != nil {
		video.IsFavorite = *req.IsFavorite
	}

	if err := h.videoRepo.Update(r.Context(), video); err != nil {
		h.log.WithRequest(r).WithError(err).Error("failed to update video")
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to update video")
		return
	}

	writeJSON(w, http.StatusOK, video)
}

func (h *VideosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	video := h.ownedVideo(w, r)
	if video == nil {
		return
	}

	if err := h.videoRepo.Delete(r.Context(), video.ID); err != nil {
		h.log.WithRequest(r).WithError(err).Error("failed to delete video")
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to delete video")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *VideosHandler) Score(w http.ResponseWriter, r *http.Request) {
	video := h.ownedVideo(w, r)
	if video == nil {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"video_id":    video.ID,
		"viral_score": services.ViralScore(video.Metrics),
		"metrics":     video.Metrics,
	})
}

func (h *VideosHandler) Adapt(w http.ResponseWriter, r *http.Request) {
	video := h.ownedVideo(w, r)
	if video == nil {
		return
	}

	var req models.AdaptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Niche == "" {
		writeErrorMsg(w, http.StatusBadRequest, "Niche is required")
		return
	}

	adapted, err := h.adapter.AdaptToNiche(r.Context(), video.Analysis, req.Niche)
	if err != nil {
		h.log.WithRequest(r).WithError(err).Error("niche adaptation failed")
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to adapt content")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"video_id": video.ID,
		"niche":    req.Niche,
		"adapted":  adapted,
	})
}

// Export writes the caller's whole library as an .xlsx workbook.
func (h *VideosHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	videos, _, err := h.videoRepo.ListByUser(r.Context(), userID, models.VideoListParams{Limit: 100})
	if err != nil {
		h.log.WithRequest(r).WithError(err).Error("failed to load library for export")
		writeErrorMsg(w, http.StatusInternalServerError, "Failed to export library")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Video ID", "Source URL", "Hook", "CTA", "Estilo", "Tema", "Categoria", "Views", "Likes", "Viral Score", "Created"}
	for i, head := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, head)
	}

	for row, v := range videos {
		values := []interface{}{
			v.VideoID, v.SourceURL, v.Analysis.Hook, v.Analysis.CTA,
			v.Analysis.EditingStyle, v.Analysis.Theme, v.TamAI,
			v.Metrics.Views, v.Metrics.Likes, services.ViralScore(v.Metrics),
			v.CreatedAt.Format("2006-01-02"),
		}
		for col, val := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, val)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=viralib-export-%s.xlsx", userID))
	if err := f.Write(w); err != nil {
		h.log.WithRequest(r).WithError(err).Error("failed to write xlsx export")
	}
}
