package api

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/territorybattle/internal/api/apierr"
	"github.com/mcoot/territorybattle/internal/api/handler"
	apimw "github.com/mcoot/territorybattle/internal/api/middleware"
	"github.com/mcoot/territorybattle/internal/middleware"
	"github.com/mcoot/territorybattle/internal/route"
	"github.com/mcoot/territorybattle/internal/services/stats"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Stats   *stats.Service
	Version string
	// RateLimit is the number of writes per minute allowed per client IP; 0 disables
	RateLimit int
}

// NewRouter creates the API handler with all routes and middleware configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := route.New()
	r.NotFound = http.HandlerFunc(apierr.WriteNotFound)

	systemHandler := handler.NewSystemHandler(cfg.Stats, cfg.Version)
	playerHandler := handler.NewPlayerHandler(cfg.Stats)
	gameHandler := handler.NewGameHandler(cfg.Stats)
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.Stats)

	r.HandleFunc(http.MethodGet, "/api/health", systemHandler.Health)
	r.HandleFunc(http.MethodPost, "/api/init", systemHandler.Init)

	r.HandleFunc(http.MethodPost, "/api/register", playerHandler.Register)
	r.HandleFunc(http.MethodGet, "/api/player/:pseudo", playerHandler.Get)

	r.HandleFunc(http.MethodPost, "/api/game", gameHandler.Submit)
	r.HandleFunc(http.MethodGet, "/api/games/recent", gameHandler.Recent)

	r.HandleFunc(http.MethodGet, "/api/leaderboard", leaderboardHandler.Page)
	r.HandleFunc(http.MethodGet, "/api/leaderboard/wins", leaderboardHandler.TopWins)
	r.HandleFunc(http.MethodGet, "/api/leaderboard/scores", leaderboardHandler.TopScores)
	r.HandleFunc(http.MethodGet, "/api/stats", leaderboardHandler.Stats)

	// Outermost first
	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		apimw.Recovery(cfg.Logger),
		middleware.Logging(cfg.Logger),
		apimw.CORS(),
		apimw.RateLimitWrites(cfg.RateLimit),
	}

	var h http.Handler = r
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}
