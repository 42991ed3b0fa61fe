package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"viralib-backend/internal/models"
)

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func (r *JobRepo) Create(ctx context.Context, j *models.ImportJob) error {
	j.ID = uuid.New()
	j.Status = "pending"

	query := `INSERT INTO import_jobs (id, user_id, source_url, status)
		VALUES ($1, $2, $3, $4) RETURNING created_at`

	return r.pool.QueryRow(ctx, query, j.ID, j.UserID, j.SourceURL, j.Status).Scan(&j.CreatedAt)
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ImportJob, error) {
	j := &models.ImportJob{}
	query := `SELECT id, user_id, source_url, status, reference_id, error_message, created_at, completed_at
		FROM import_jobs WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&j.ID, &j.UserID, &j.SourceURL, &j.Status,
		&j.ReferenceID, &j.ErrorMessage, &j.CreatedAt, &j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *JobRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE import_jobs SET status = 'processing' WHERE id = $1", id)
	return err
}

func (r *JobRepo) MarkCompleted(ctx context.Context, id uuid.UUID, referenceID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE import_jobs SET status = 'completed', reference_id = $1, completed_at = $2 WHERE id = $3",
		referenceID, time.Now(), id,
	)
	return err
}

func (r *JobRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE import_jobs SET status = 'failed', error_message = $1, completed_at = $2 WHERE id = $3",
		errMsg, time.Now(), id,
	)
	return err
}
