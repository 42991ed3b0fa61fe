package services

import (
	"math"

	"viralib-backend/internal/models"
)

// ViralScore rates a video's engagement on a 0–100 scale. Comments and
// shares weigh more than likes because they cost the viewer more. Pure
// function over the stored metrics; zero views scores zero.
func ViralScore(m models.VideoMetrics) float64 {
	if m.Views <= 0 {
		return 0
	}

	weighted := float64(m.Likes) + 2*float64(m.Comments) + 3*float64(m.Shares)
	rate := weighted / float64(m.Views)

	// A weighted engagement rate of 15% or better maxes the scale.
	score := rate / 0.15 * 100
	if score > 100 {
		score = 100
	}

	return math.Round(score*10) / 10
}
