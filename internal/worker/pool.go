package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"viralib-backend/internal/logger"
	"viralib-backend/internal/models"
	"viralib-backend/internal/repository"
)

// ImportQueue is the redis list bulk-import jobs are pushed onto.
const ImportQueue = "queue:video-import"

type importPipeline interface {
	Run(ctx context.Context, req models.AnalysisRequest, userID uuid.UUID) *models.PipelineResult
}

// Pool consumes the import queue: each worker pops a job, runs the full
// analysis pipeline and persists the result. Degraded analyses still
// complete the job — the library row carries the Error theme.
type Pool struct {
	redis       *redis.Client
	pipeline    importPipeline
	videoRepo   *repository.VideoRepo
	jobRepo     *repository.JobRepo
	log         *logger.Logger
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, pipeline importPipeline, videoRepo *repository.VideoRepo, jobRepo *repository.JobRepo, log *logger.Logger, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		pipeline:    pipeline,
		videoRepo:   videoRepo,
		jobRepo:     jobRepo,
		log:         log,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	p.log.Infof("started %d import workers", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			p.log.Debugf("import worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()
		result, err := p.redis.BRPop(ctx, 2*time.Second, ImportQueue).Result()
		if err != nil {
			// redis.Nil on timeout; loop back to check for shutdown
			continue
		}
		if len(result) < 2 {
			continue
		}

		var payload models.ImportJobPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			p.log.WithError(err).Error("invalid import job payload")
			continue
		}

		p.process(ctx, payload)
	}
}

func (p *Pool) process(ctx context.Context, payload models.ImportJobPayload) {
	log := p.log.WithField("job_id", payload.JobID)

	if err := p.jobRepo.MarkProcessing(ctx, payload.JobID); err != nil {
		log.WithError(err).Error("failed to mark job processing")
	}

	result := p.pipeline.Run(ctx, models.AnalysisRequest{SourceURL: payload.SourceURL}, payload.UserID)

	video := models.NewReferenceVideo(payload.UserID, payload.SourceURL, result)
	if err := p.videoRepo.Create(ctx, video); err != nil {
		log.WithError(err).Error("failed to persist imported video")
		p.jobRepo.MarkFailed(ctx, payload.JobID, err.Error())
		return
	}

	if err := p.jobRepo.MarkCompleted(ctx, payload.JobID, video.ID); err != nil {
		log.WithError(err).Error("failed to mark job completed")
	}

	log.WithField("video_id", result.VideoID).Info("import job completed")
}
