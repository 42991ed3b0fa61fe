package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"viralib-backend/internal/logger"
	"viralib-backend/internal/models"
)

// Pipeline stage names, also used as the FailedStage marker.
const (
	StageDownloading = "downloading"
	StageUploading   = "uploading"
	StageAnalyzing   = "analyzing"
	StageCleanup     = "cleanup"
	StageDone        = "done"
)

type fileFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

type fileUploader interface {
	Upload(ctx context.Context, data []byte, mimeType, displayName string) (*models.RemoteFile, error)
	Delete(ctx context.Context, name string) error
}

type videoAnalyzer interface {
	Analyze(ctx context.Context, file *models.RemoteFile) (models.VideoAnalysis, error)
}

// Pipeline runs one video through download → upload → analysis → cleanup.
// Stage failures never escape: the caller always gets a schema-conforming
// result, degraded ones signal failure through the Error theme.
type Pipeline struct {
	fetcher  fileFetcher
	uploader fileUploader
	analyzer videoAnalyzer
	redis    *redis.Client
	log      *logger.Logger
}

func NewPipeline(fetcher fileFetcher, uploader fileUploader, analyzer videoAnalyzer, redisClient *redis.Client, log *logger.Logger) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		uploader: uploader,
		analyzer: analyzer,
		redis:    redisClient,
		log:      log,
	}
}

// Run executes the stages strictly sequentially; each depends on the
// previous stage's output. It never returns an error.
func (p *Pipeline) Run(ctx context.Context, req models.AnalysisRequest, userID uuid.UUID) *models.PipelineResult {
	result := &models.PipelineResult{
		RequestID: uuid.New().String(),
		VideoID:   req.VideoID,
		StartedAt: time.Now().UTC(),
	}
	if result.VideoID == "" {
		result.VideoID = uuid.New().String()
	}

	result.Analysis, result.FailedStage = p.run(ctx, req.SourceURL, result.VideoID, userID)
	result.Degraded = result.Analysis.Theme == models.ThemeError
	result.FinishedAt = time.Now().UTC()

	p.publishStage(ctx, userID, result.VideoID, StageDone)
	return result
}

// run returns the analysis plus the stage that failed ("" on success). The
// remote file, once created, is deleted on every exit path.
func (p *Pipeline) run(ctx context.Context, sourceURL, videoID string, userID uuid.UUID) (analysis models.VideoAnalysis, failedStage string) {
	log := p.log.WithVideo(videoID)

	p.publishStage(ctx, userID, videoID, StageDownloading)
	data, mimeType, err := p.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		log.WithError(err).Warn("download stage failed")
		return models.DegradedAnalysis(err.Error()), StageDownloading
	}

	p.publishStage(ctx, userID, videoID, StageUploading)
	file, err := p.uploader.Upload(ctx, data, mimeType, "reference-video-"+videoID)
	if err != nil {
		log.WithError(err).Warn("upload stage failed")
		return models.DegradedAnalysis(err.Error()), StageUploading
	}

	// The remote file is not the user's problem: delete it on every exit
	// path, log and swallow failures.
	defer func() {
		p.publishStage(ctx, userID, videoID, StageCleanup)
		if delErr := p.uploader.Delete(context.WithoutCancel(ctx), file.Name); delErr != nil {
			log.WithError(delErr).Warn("remote file cleanup failed")
		}
	}()

	p.publishStage(ctx, userID, videoID, StageAnalyzing)
	analysis, err = p.analyzer.Analyze(ctx, file)
	if err != nil {
		log.WithError(err).Warn("analysis stage failed")
		return models.DegradedAnalysis(err.Error()), StageAnalyzing
	}

	return analysis, ""
}

// publishStage pushes a progress update onto the user's pub/sub channel for
// the websocket hub to relay. Fire and forget.
func (p *Pipeline) publishStage(ctx context.Context, userID uuid.UUID, videoID, stage string) {
	if p.redis == nil {
		return
	}
	msg := models.WSMessage{
		Type:    "pipeline_stage",
		Payload: models.StageUpdate{VideoID: videoID, Stage: stage},
	}
	data, _ := json.Marshal(msg)
	p.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data))
}
