package handler

import (
	"net/http"

	"github.com/mcoot/territorybattle/internal/api/apierr"
	"github.com/mcoot/territorybattle/internal/api/response"
	"github.com/mcoot/territorybattle/internal/model"
	"github.com/mcoot/territorybattle/internal/services/stats"
)

// LeaderboardHandler serves the ranked views
type LeaderboardHandler struct {
	stats *stats.Service
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(stats *stats.Service) *LeaderboardHandler {
	return &LeaderboardHandler{stats: stats}
}

// Page handles GET /api/leaderboard?limit=&offset=
func (h *LeaderboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.stats.GetLeaderboard(r.Context(), model.NewPageRequest(q.Get("limit"), q.Get("offset")))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.OK(w, response.LeaderboardResponseFromModel(page))
}

// TopWins handles GET /api/leaderboard/wins
func (h *LeaderboardHandler) TopWins(w http.ResponseWriter, r *http.Request) {
	rows, err := h.stats.GetTopWins(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.OK(w, response.TopWinsResponseFromModel(rows))
}

// TopScores handles GET /api/leaderboard/scores
func (h *LeaderboardHandler) TopScores(w http.ResponseWriter, r *http.Request) {
	rows, err := h.stats.GetTopScores(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.OK(w, response.TopScoresResponseFromModel(rows))
}

// Stats handles GET /api/stats
func (h *LeaderboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	totals, err := h.stats.GetGlobalStats(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.OK(w, response.StatsResponse{Success: true, Stats: response.StatsFromModel(totals)})
}
