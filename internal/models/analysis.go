package models

import (
	"time"
)

// Theme values the analysis prompt allows. The model classifies every video
// into one of the four; "Error" is the degraded sentinel and never requested.
const (
	ThemeEntretener  = "Entretener"
	ThemeIdentificar = "Identificar"
	ThemeActivar     = "Activar"
	ThemeEducar      = "Educar"
	ThemeError       = "Error"
)

// AnalysisErrorSentinel fills every analysis field when a pipeline stage or
// the model response parse fails. The caller still receives a well-formed
// analysis; failure is signaled in-band through ThemeError.
const AnalysisErrorSentinel = "Error al analizar el video"

// RemoteFileState mirrors the file processing states of the AI file service.
const (
	RemoteFileProcessing = "PROCESSING"
	RemoteFileActive     = "ACTIVE"
	RemoteFileFailed     = "FAILED"
)

// RemoteFile is the handle to a video uploaded to the AI file service. It is
// owned by exactly one pipeline run and deleted remotely during cleanup;
// it is never persisted.
type RemoteFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	State    string `json:"state"`
}

// AnalysisRequest describes one video to analyze. Constructed per call.
type AnalysisRequest struct {
	SourceURL string `json:"url"`
	VideoID   string `json:"video_id"`
}

// VideoAnalysis is the canonical analysis record. Every field is a plain
// string; the raw model output is coerced into this shape before use.
type VideoAnalysis struct {
	Transcript         string `json:"guion_oral"`
	Hook               string `json:"hook"`
	CTA                string `json:"cta"`
	EditingStyle       string `json:"estilo_edicion"`
	Theme              string `json:"tema_principal"`
	ThemeJustification string `json:"justificacion_tema"`
}

// DegradedAnalysis builds the uniform failure-shaped analysis: all content
// fields carry the error sentinel, the theme is the Error variant and the
// justification carries the causing error's message.
func DegradedAnalysis(reason string) VideoAnalysis {
	return VideoAnalysis{
		Transcript:         AnalysisErrorSentinel,
		Hook:               AnalysisErrorSentinel,
		CTA:                AnalysisErrorSentinel,
		EditingStyle:       AnalysisErrorSentinel,
		Theme:              ThemeError,
		ThemeJustification: reason,
	}
}

// PipelineResult wraps one run's analysis with its metadata. Ephemeral.
type PipelineResult struct {
	RequestID   string        `json:"request_id"`
	VideoID     string        `json:"video_id"`
	Analysis    VideoAnalysis `json:"analysis"`
	Degraded    bool          `json:"degraded"`
	FailedStage string        `json:"failed_stage,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// themeCategories is the fixed, total theme → library category table.
var themeCategories = map[string]string{
	ThemeEntretener:  "Entretenimiento",
	ThemeIdentificar: "Storytelling",
	ThemeActivar:     "Ventas",
	ThemeEducar:      "Educativo",
}

// CategoryForTheme resolves the coarse library category for a theme.
// Unrecognized themes (including the Error sentinel) fall back to
// Entretenimiento.
func CategoryForTheme(theme string) string {
	if cat, ok := themeCategories[theme]; ok {
		return cat
	}
	return "Entretenimiento"
}

// WSMessage is the envelope for websocket updates relayed via redis pub/sub.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StageUpdate reports pipeline progress for one video.
type StageUpdate struct {
	VideoID string `json:"video_id"`
	Stage   string `json:"stage"`
}
