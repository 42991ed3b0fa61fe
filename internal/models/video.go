package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// VideoMetrics holds the engagement counters for a reference video. New
// analyses start with placeholder zeros; creators fill them in later from
// the platform's own stats.
type VideoMetrics struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

// ReferenceVideo is a persisted library entry: one analyzed video plus the
// creator's own curation (tags, notes, metrics, favorite flag).
type ReferenceVideo struct {
	ID              uuid.UUID    `json:"id"`
	UserID          uuid.UUID    `json:"user_id"`
	VideoID         string       `json:"video_id"`
	SourceURL       string       `json:"source_url"`
	ThumbnailURL    *string      `json:"thumbnail_url"`
	DurationSeconds int          `json:"duration_seconds"`
	Metrics         VideoMetrics `json:"metrics"`
	Analysis        VideoAnalysis
	TagsAI          []string  `json:"tags_ai"`
	TamAI           string    `json:"tam_ai"`
	Notes           *string   `json:"notes"`
	IsFavorite      bool      `json:"is_favorite"`
	CreatedAt       time.Time `json:"created_at"`
}

// placeholderDuration is reported until real platform metadata is wired in.
const placeholderDuration = 30

// TagsForTheme derives the automatic tag set: a fixed base tag, the AI
// marker and the lower-cased theme.
func TagsForTheme(theme string) []string {
	return []string{"tiktok", "ai-analyzed", strings.ToLower(theme)}
}

// NewReferenceVideo builds the library row for one pipeline result, with
// derived tags/category and placeholder metrics.
func NewReferenceVideo(userID uuid.UUID, sourceURL string, result *PipelineResult) *ReferenceVideo {
	return &ReferenceVideo{
		UserID:          userID,
		VideoID:         result.VideoID,
		SourceURL:       sourceURL,
		DurationSeconds: placeholderDuration,
		Analysis:        result.Analysis,
		TagsAI:          TagsForTheme(result.Analysis.Theme),
		TamAI:           CategoryForTheme(result.Analysis.Theme),
	}
}

// AnalyzeVideoRequest is the POST /videos/analyze body.
type AnalyzeVideoRequest struct {
	URL     string `json:"url"`
	VideoID string `json:"video_id"`
}

// AnalyzeVideoResponse is the wire shape returned for every completed
// analysis, degraded ones included.
type AnalyzeVideoResponse struct {
	VideoID            string       `json:"video_id"`
	ThumbnailURL       *string      `json:"thumbnail_url"`
	DurationSeconds    int          `json:"duration_seconds"`
	Metrics            VideoMetrics `json:"metrics"`
	Transcript         string       `json:"guion_oral"`
	Hook               string       `json:"hook"`
	CTA                string       `json:"cta"`
	EditingStyle       string       `json:"estilo_edicion"`
	Theme              string       `json:"tema_principal"`
	ThemeJustification string       `json:"justificacion_tema"`
	TagsAI             []string     `json:"tags_ai"`
	TamAI              string       `json:"tam_ai"`
	CreatedAt          time.Time    `json:"created_at"`
}

// NewAnalyzeVideoResponse flattens a pipeline result into the response shape.
func NewAnalyzeVideoResponse(result *PipelineResult) AnalyzeVideoResponse {
	a := result.Analysis
	return AnalyzeVideoResponse{
		VideoID:            result.VideoID,
		ThumbnailURL:       nil,
		DurationSeconds:    placeholderDuration,
		Metrics:            VideoMetrics{},
		Transcript:         a.Transcript,
		Hook:               a.Hook,
		CTA:                a.CTA,
		EditingStyle:       a.EditingStyle,
		Theme:              a.Theme,
		ThemeJustification: a.ThemeJustification,
		TagsAI:             TagsForTheme(a.Theme),
		TamAI:              CategoryForTheme(a.Theme),
		CreatedAt:          time.Now().UTC(),
	}
}

// UpdateVideoRequest is the PUT /videos/{id} body. Nil fields are left
// untouched.
type UpdateVideoRequest struct {
	TagsAI     *[]string     `json:"tags_ai"`
	Notes      *string       `json:"notes"`
	Metrics    *VideoMetrics `json:"metrics"`
	IsFavorite *bool         `json:"is_favorite"`
}

// VideoListParams are the library query knobs.
type VideoListParams struct {
	Search        string
	Theme         string
	Tag           string
	FavoritesOnly bool
	Sort          string // "recent" | "oldest" | "views"
	Limit         int
	Offset        int
}

// AdaptRequest asks for the stored analysis to be rewritten for a niche.
type AdaptRequest struct {
	Niche string `json:"niche"`
}

// AdaptedContent is the niche-adapted script returned by the model.
type AdaptedContent struct {
	Hook   string `json:"hook"`
	Script string `json:"guion"`
	CTA    string `json:"cta"`
}
