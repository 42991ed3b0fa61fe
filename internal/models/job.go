package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportJob tracks one URL of a bulk import. Jobs are persisted for status
// polling and queued on redis for the worker pool.
type ImportJob struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	SourceURL    string     `json:"source_url"`
	Status       string     `json:"status"` // "pending" | "processing" | "completed" | "failed"
	ReferenceID  *uuid.UUID `json:"reference_id"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// ImportJobPayload is the redis queue message for one job.
type ImportJobPayload struct {
	JobID     uuid.UUID `json:"job_id"`
	UserID    uuid.UUID `json:"user_id"`
	SourceURL string    `json:"source_url"`
}

// ImportRequest is the POST /videos/import body.
type ImportRequest struct {
	URLs []string `json:"urls"`
}
