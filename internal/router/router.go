package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"viralib-backend/internal/handlers"
	"viralib-backend/internal/middleware"
	"viralib-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	analyzeHandler *handlers.AnalyzeHandler,
	videosHandler *handlers.VideosHandler,
	jobsHandler *handlers.JobsHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// One pipeline run is a full download + Gemini round trip
	analyzeLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Video Routes ────
		r.Route("/videos", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(analyzeLimiter.Middleware)
				r.Post("/analyze", analyzeHandler.Analyze)
				r.Post("/import", jobsHandler.Import)
			})

			r.Get("/", videosHandler.List)
			r.Get("/export", videosHandler.Export)
			r.Get("/{id}", videosHandler.Get)
			r.Put("/{id}", videosHandler.Update)
			r.Delete("/{id}", videosHandler.Delete)
			r.Get("/{id}/score", videosHandler.Score)
			r.Post("/{id}/adapt", videosHandler.Adapt)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobsHandler.GetJob)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
