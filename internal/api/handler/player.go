package handler

import (
	"net/http"

	"github.com/mcoot/territorybattle/internal/api/apierr"
	"github.com/mcoot/territorybattle/internal/api/request"
	"github.com/mcoot/territorybattle/internal/api/response"
	"github.com/mcoot/territorybattle/internal/route"
	"github.com/mcoot/territorybattle/internal/services/stats"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	stats *stats.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(stats *stats.Service) *PlayerHandler {
	return &PlayerHandler{stats: stats}
}

// Register handles POST /api/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	player, err := h.stats.RegisterPlayer(r.Context(), req.Pseudo)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.OK(w, response.PlayerResponse{
		Success: true,
		Player:  response.PlayerFromModel(player),
	})
}

// Get handles GET /api/player/:pseudo
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.stats.GetPlayer(r.Context(), route.Param(r, "pseudo"))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.OK(w, response.PlayerDetailResponse{
		Success: true,
		Player:  response.PlayerDetailFromModel(profile),
	})
}
