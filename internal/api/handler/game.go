package handler

import (
	"net/http"

	"github.com/mcoot/territorybattle/internal/api/apierr"
	"github.com/mcoot/territorybattle/internal/api/request"
	"github.com/mcoot/territorybattle/internal/api/response"
	"github.com/mcoot/territorybattle/internal/model"
	"github.com/mcoot/territorybattle/internal/services/stats"
)

// GameHandler handles game submission and the recent-games feed
type GameHandler struct {
	stats *stats.Service
}

// NewGameHandler creates a new game handler
func NewGameHandler(stats *stats.Service) *GameHandler {
	return &GameHandler{stats: stats}
}

// Submit handles POST /api/game
func (h *GameHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitGameRequest
	if err := decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	res, err := h.stats.SubmitGame(r.Context(), req.Submission())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.OK(w, response.SubmitGameResponseFromResult(res))
}

// Recent handles GET /api/games/recent
func (h *GameHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := model.ParseLimit(r.URL.Query().Get("limit"), model.RecentGamesDefaultLimit, model.RecentGamesMaxLimit)

	games, err := h.stats.GetRecentGames(r.Context(), limit)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.OK(w, response.RecentGamesResponseFromModel(games))
}
