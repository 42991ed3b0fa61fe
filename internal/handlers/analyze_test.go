package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"viralib-backend/internal/logger"
	"viralib-backend/internal/middleware"
	"viralib-backend/internal/models"
)

type stubPipeline struct {
	calls  int
	result *models.PipelineResult
}

func (s *stubPipeline) Run(_ context.Context, req models.AnalysisRequest, _ uuid.UUID) *models.PipelineResult {
	s.calls++
	res := *s.result
	if res.VideoID == "" {
		res.VideoID = req.VideoID
	}
	if res.VideoID == "" {
		res.VideoID = uuid.New().String()
	}
	return &res
}

type stubVideoRepo struct {
	created []*models.ReferenceVideo
	err     error
}

func (s *stubVideoRepo) Create(_ context.Context, v *models.ReferenceVideo) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, v)
	return nil
}

func educarResult() *models.PipelineResult {
	return &models.PipelineResult{
		RequestID: uuid.New().String(),
		VideoID:   "vid-1",
		Analysis: models.VideoAnalysis{
			Transcript:         "Hoy aprenderemos tres trucos",
			Hook:               "¿Sabías que...?",
			CTA:                "Sígueme para más",
			EditingStyle:       "Cortes rápidos con subtítulos",
			Theme:              models.ThemeEducar,
			ThemeJustification: "El video enseña un concepto paso a paso",
		},
	}
}

func newAnalyzeRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uuid.New())
	return req.WithContext(ctx)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return body
}

func TestAnalyze_MissingURL(t *testing.T) {
	pipeline := &stubPipeline{result: educarResult()}
	handler := NewAnalyzeHandler(pipeline, &stubVideoRepo{}, nil, 0, logger.New("test"))

	rr := httptest.NewRecorder()
	handler.Analyze(rr, newAnalyzeRequest(t, `{"url": ""}`))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["error"] != "URL is required" {
		t.Errorf("Expected error 'URL is required', got %q", body["error"])
	}
	if pipeline.calls != 0 {
		t.Errorf("Pipeline should not run on invalid input, ran %d times", pipeline.calls)
	}
}

func TestAnalyze_InvalidBody(t *testing.T) {
	pipeline := &stubPipeline{result: educarResult()}
	handler := NewAnalyzeHandler(pipeline, &stubVideoRepo{}, nil, 0, logger.New("test"))

	rr := httptest.NewRecorder()
	handler.Analyze(rr, newAnalyzeRequest(t, `{not json`))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["error"] != "Invalid request body" {
		t.Errorf("Expected error 'Invalid request body', got %q", body["error"])
	}
}

func TestAnalyze_Success(t *testing.T) {
	pipeline := &stubPipeline{result: educarResult()}
	repo := &stubVideoRepo{}
	handler := NewAnalyzeHandler(pipeline, repo, nil, 0, logger.New("test"))

	rr := httptest.NewRecorder()
	handler.Analyze(rr, newAnalyzeRequest(t, `{"url": "https://www.tiktok.com/@user/video/123"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	body := decodeBody(t, rr)
	if body["tema_principal"] != "Educar" {
		t.Errorf("Expected tema_principal 'Educar', got %q", body["tema_principal"])
	}
	if body["tam_ai"] != "Educativo" {
		t.Errorf("Expected tam_ai 'Educativo', got %q", body["tam_ai"])
	}

	tags, ok := body["tags_ai"].([]interface{})
	if !ok {
		t.Fatalf("Expected tags_ai array, got %T", body["tags_ai"])
	}
	found := false
	for _, tag := range tags {
		if tag == "educar" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected tags_ai to contain 'educar', got %v", tags)
	}

	if len(repo.created) != 1 {
		t.Fatalf("Expected 1 persisted video, got %d", len(repo.created))
	}
	if repo.created[0].TamAI != "Educativo" {
		t.Errorf("Persisted video category = %q, want Educativo", repo.created[0].TamAI)
	}
}

func TestAnalyze_DegradedStillOK(t *testing.T) {
	pipeline := &stubPipeline{result: &models.PipelineResult{
		RequestID: uuid.New().String(),
		VideoID:   "vid-2",
		Analysis:  models.DegradedAnalysis("download failed"),
		Degraded:  true,
	}}
	repo := &stubVideoRepo{}
	handler := NewAnalyzeHandler(pipeline, repo, nil, 0, logger.New("test"))

	rr := httptest.NewRecorder()
	handler.Analyze(rr, newAnalyzeRequest(t, `{"url": "https://www.tiktok.com/@user/video/456"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("Degraded analysis should still answer 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["tema_principal"] != "Error" {
		t.Errorf("Expected tema_principal 'Error', got %q", body["tema_principal"])
	}
	if body["guion_oral"] != models.AnalysisErrorSentinel {
		t.Errorf("Expected sentinel transcript, got %q", body["guion_oral"])
	}
	if body["justificacion_tema"] != "download failed" {
		t.Errorf("Expected justification to carry the cause, got %q", body["justificacion_tema"])
	}
}

func TestAnalyze_PersistFailureStillOK(t *testing.T) {
	pipeline := &stubPipeline{result: educarResult()}
	repo := &stubVideoRepo{err: errors.New("connection refused")}
	handler := NewAnalyzeHandler(pipeline, repo, nil, 0, logger.New("test"))

	rr := httptest.NewRecorder()
	handler.Analyze(rr, newAnalyzeRequest(t, `{"url": "https://www.tiktok.com/@user/video/789"}`))

	if rr.Code != http.StatusOK {
		t.Errorf("Persistence failure should not change the response, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["tema_principal"] != "Educar" {
		t.Errorf("Expected full analysis despite persist failure, got tema %q", body["tema_principal"])
	}
}
