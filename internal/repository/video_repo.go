package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"viralib-backend/internal/models"
)

type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

func (r *VideoRepo) Create(ctx context.Context, v *models.ReferenceVideo) error {
	v.ID = uuid.New()

	query := `INSERT INTO reference_videos
		(id, user_id, video_id, source_url, thumbnail_url, duration_seconds,
		 views, likes, comments, shares,
		 guion_oral, hook, cta, estilo_edicion, tema_principal, justificacion_tema,
		 tags_ai, tam_ai, notes, is_favorite)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		v.ID, v.UserID, v.VideoID, v.SourceURL, v.ThumbnailURL, v.DurationSeconds,
		v.Metrics.Views, v.Metrics.Likes, v.Metrics.Comments, v.Metrics.Shares,
		v.Analysis.Transcript, v.Analysis.Hook, v.Analysis.CTA, v.Analysis.EditingStyle,
		v.Analysis.Theme, v.Analysis.ThemeJustification,
		v.TagsAI, v.TamAI, v.Notes, v.IsFavorite,
	).Scan(&v.CreatedAt)
}

const videoColumns = `id, user_id, video_id, source_url, thumbnail_url, duration_seconds,
	views, likes, comments, shares,
	guion_oral, hook, cta, estilo_edicion, tema_principal, justificacion_tema,
	tags_ai, tam_ai, notes, is_favorite, created_at`

func scanVideo(row interface{ Scan(...interface{}) error }) (*models.ReferenceVideo, error) {
	v := &models.ReferenceVideo{}
	err := row.Scan(
		&v.ID, &v.UserID, &v.VideoID, &v.SourceURL, &v.ThumbnailURL, &v.DurationSeconds,
		&v.Metrics.Views, &v.Metrics.Likes, &v.Metrics.Comments, &v.Metrics.Shares,
		&v.Analysis.Transcript, &v.Analysis.Hook, &v.Analysis.CTA, &v.Analysis.EditingStyle,
		&v.Analysis.Theme, &v.Analysis.ThemeJustification,
		&v.TagsAI, &v.TamAI, &v.Notes, &v.IsFavorite, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ReferenceVideo, error) {
	query := "SELECT " + videoColumns + " FROM reference_videos WHERE id = $1"
	return scanVideo(r.pool.QueryRow(ctx, query, id))
}

// ListByUser returns one page of the caller's library plus the total count
// for the active filters.
func (r *VideoRepo) ListByUser(ctx context.Context, userID uuid.UUID, params models.VideoListParams) ([]*models.ReferenceVideo, int, error) {
	var args []interface{}
	argIdx := 1

	where := fmt.Sprintf("WHERE user_id = $%d", argIdx)
	args = append(args, userID)
	argIdx++

	if params.Search != "" {
		where += fmt.Sprintf(" AND (hook ILIKE $%d OR guion_oral ILIKE $%d OR notes ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}
	if params.Theme != "" {
		where += fmt.Sprintf(" AND tema_principal = $%d", argIdx)
		args = append(args, params.Theme)
		argIdx++
	}
	if params.Tag != "" {
		where += fmt.Sprintf(" AND $%d = ANY(tags_ai)", argIdx)
		args = append(args, params.Tag)
		argIdx++
	}
	if params.FavoritesOnly {
		where += " AND is_favorite = TRUE"
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM reference_videos " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "created_at DESC"
	switch params.Sort {
	case "oldest":
		orderBy = "created_at ASC"
	case "views":
		orderBy = "views DESC"
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := fmt.Sprintf("SELECT %s FROM reference_videos %s ORDER BY %s LIMIT $%d OFFSET $%d",
		videoColumns, where, orderBy, argIdx, argIdx+1)
	args = append(args, limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var videos []*models.ReferenceVideo
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, err
		}
		videos = append(videos, v)
	}

	return videos, total, rows.Err()
}

func (r *VideoRepo) Update(ctx context.Context, v *models.ReferenceVideo) error {
	_, err := r.pool.Exec(ctx, `UPDATE reference_videos SET
		tags_ai = $1, notes = $2, is_favorite = $3,
		views = $4, likes = $5, comments = $6, shares = $7
		WHERE id = $8`,
		v.TagsAI, v.Notes, v.IsFavorite,
		v.Metrics.Views, v.Metrics.Likes, v.Metrics.Comments, v.Metrics.Shares,
		v.ID,
	)
	return err
}

func (r *VideoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM reference_videos WHERE id = $1", id)
	return err
}
