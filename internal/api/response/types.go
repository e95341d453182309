package response

import (
	"encoding/json"
	"time"

	"github.com/mcoot/territorybattle/internal/model"
	"github.com/mcoot/territorybattle/internal/services/stats"
)

// PlayedAtLayout formats played_at timestamps (UTC, second precision)
const PlayedAtLayout = "2006-01-02 15:04:05"

// Player represents a player in API responses
type Player struct {
	ID          int64     `json:"id"`
	Pseudo      string    `json:"pseudo"`
	Wins        int       `json:"wins"`
	GamesPlayed int       `json:"games_played"`
	TotalScore  int       `json:"total_score"`
	BestScore   int       `json:"best_score"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          int64(p.ID),
		Pseudo:      p.Pseudo,
		Wins:        p.Wins,
		GamesPlayed: p.GamesPlayed,
		TotalScore:  p.TotalScore,
		BestScore:   p.BestScore,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Game is one entry of a player's history
type Game struct {
	ID                   int64           `json:"id"`
	PlayerID             int64           `json:"player_id"`
	Score                int             `json:"score"`
	TerritoriesConquered int             `json:"territories_conquered"`
	UnitsLost            int             `json:"units_lost"`
	UnitsKilled          int             `json:"units_killed"`
	TurnsPlayed          int             `json:"turns_played"`
	Won                  bool            `json:"won"`
	GameData             json.RawMessage `json:"game_data"`
	CreatedAt            time.Time       `json:"created_at"`
	PlayedAt             string          `json:"played_at"`
}

// GameFromModel converts a model.Game
func GameFromModel(g model.Game) Game {
	data := g.GameData
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return Game{
		ID:                   int64(g.ID),
		PlayerID:             int64(g.PlayerID),
		Score:                g.Score,
		TerritoriesConquered: g.TerritoriesConquered,
		UnitsLost:            g.UnitsLost,
		UnitsKilled:          g.UnitsKilled,
		TurnsPlayed:          g.TurnsPlayed,
		Won:                  g.Won,
		GameData:             data,
		CreatedAt:            g.CreatedAt,
		PlayedAt:             playedAt(g.CreatedAt),
	}
}

// PlayerDetail is a player with its rank and latest games
type PlayerDetail struct {
	Player
	Rank        int    `json:"rank"`
	RecentGames []Game `json:"recent_games"`
}

// PlayerDetailFromModel converts a model.PlayerProfile
func PlayerDetailFromModel(p *model.PlayerProfile) PlayerDetail {
	games := make([]Game, 0, len(p.RecentGames))
	for _, g := range p.RecentGames {
		games = append(games, GameFromModel(g))
	}
	return PlayerDetail{
		Player:      PlayerFromModel(&p.Player),
		Rank:        p.Rank,
		RecentGames: games,
	}
}

// LeaderboardEntry is one ranked row
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	Pseudo      string  `json:"pseudo"`
	Wins        int     `json:"wins"`
	GamesPlayed int     `json:"games_played"`
	TotalScore  int     `json:"total_score"`
	BestScore   int     `json:"best_score"`
	WinRate     float64 `json:"win_rate"`
}

// WinsEntry is one row of the top-wins board
type WinsEntry struct {
	Pseudo      string  `json:"pseudo"`
	Wins        int     `json:"wins"`
	GamesPlayed int     `json:"games_played"`
	WinRate     float64 `json:"win_rate"`
}

// ScoreEntry is one row of the top-scores board
type ScoreEntry struct {
	Pseudo      string `json:"pseudo"`
	BestScore   int    `json:"best_score"`
	TotalScore  int    `json:"total_score"`
	GamesPlayed int    `json:"games_played"`
}

// RecentGame is a game in the global feed
type RecentGame struct {
	Pseudo               string `json:"pseudo"`
	Score                int    `json:"score"`
	TerritoriesConquered int    `json:"territories_conquered"`
	Won                  bool   `json:"won"`
	PlayedAt             string `json:"played_at"`
}

// Stats are the global totals
type Stats struct {
	TotalPlayers int `json:"total_players"`
	TotalGames   int `json:"total_games"`
	TotalWins    int `json:"total_wins"`
}

// StatsFromModel converts model.GlobalStats
func StatsFromModel(s model.GlobalStats) Stats {
	return Stats{
		TotalPlayers: s.TotalPlayers,
		TotalGames:   s.TotalGames,
		TotalWins:    s.TotalWins,
	}
}

// Pagination describes the returned leaderboard page
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// Envelopes

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// MessageResponse carries a bare confirmation
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PlayerResponse wraps a single player
type PlayerResponse struct {
	Success bool   `json:"success"`
	Player  Player `json:"player"`
}

// SubmitGameResponse is returned after a game is recorded
type SubmitGameResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Player  Player `json:"player"`
}

// SubmitGameResponseFromResult converts a stats.SubmitResult
func SubmitGameResponseFromResult(res *stats.SubmitResult) SubmitGameResponse {
	return SubmitGameResponse{
		Success: true,
		Message: res.Message,
		Player:  PlayerFromModel(res.Player),
	}
}

// PlayerDetailResponse wraps a player profile
type PlayerDetailResponse struct {
	Success bool         `json:"success"`
	Player  PlayerDetail `json:"player"`
}

// LeaderboardResponse is returned by GET /api/leaderboard
type LeaderboardResponse struct {
	Success     bool               `json:"success"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Stats       Stats              `json:"stats"`
	Pagination  Pagination         `json:"pagination"`
}

// LeaderboardResponseFromModel converts a model.LeaderboardPage
func LeaderboardResponseFromModel(page *model.LeaderboardPage) LeaderboardResponse {
	entries := make([]LeaderboardEntry, 0, len(page.Entries))
	for _, e := range page.Entries {
		entries = append(entries, LeaderboardEntry{
			Rank:        e.Rank,
			Pseudo:      e.Pseudo,
			Wins:        e.Wins,
			GamesPlayed: e.GamesPlayed,
			TotalScore:  e.TotalScore,
			BestScore:   e.BestScore,
			WinRate:     e.WinRate,
		})
	}
	return LeaderboardResponse{
		Success:     true,
		Leaderboard: entries,
		Stats:       StatsFromModel(page.Stats),
		Pagination: Pagination{
			Limit:   page.Pagination.Limit,
			Offset:  page.Pagination.Offset,
			HasMore: page.Pagination.HasMore,
		},
	}
}

// TopWinsResponse is returned by GET /api/leaderboard/wins
type TopWinsResponse struct {
	Success     bool        `json:"success"`
	Leaderboard []WinsEntry `json:"leaderboard"`
}

// TopWinsResponseFromModel converts top-wins rows
func TopWinsResponseFromModel(rows []model.WinsEntry) TopWinsResponse {
	entries := make([]WinsEntry, 0, len(rows))
	for _, e := range rows {
		entries = append(entries, WinsEntry{
			Pseudo:      e.Pseudo,
			Wins:        e.Wins,
			GamesPlayed: e.GamesPlayed,
			WinRate:     e.WinRate,
		})
	}
	return TopWinsResponse{Success: true, Leaderboard: entries}
}

// TopScoresResponse is returned by GET /api/leaderboard/scores
type TopScoresResponse struct {
	Success     bool         `json:"success"`
	Leaderboard []ScoreEntry `json:"leaderboard"`
}

// TopScoresResponseFromModel converts top-score rows
func TopScoresResponseFromModel(rows []model.ScoreEntry) TopScoresResponse {
	entries := make([]ScoreEntry, 0, len(rows))
	for _, e := range rows {
		entries = append(entries, ScoreEntry{
			Pseudo:      e.Pseudo,
			BestScore:   e.BestScore,
			TotalScore:  e.TotalScore,
			GamesPlayed: e.GamesPlayed,
		})
	}
	return TopScoresResponse{Success: true, Leaderboard: entries}
}

// RecentGamesResponse is returned by GET /api/games/recent
type RecentGamesResponse struct {
	Success bool         `json:"success"`
	Games   []RecentGame `json:"games"`
}

// RecentGamesResponseFromModel converts the recent-games feed
func RecentGamesResponseFromModel(rows []model.RecentGame) RecentGamesResponse {
	games := make([]RecentGame, 0, len(rows))
	for _, g := range rows {
		games = append(games, RecentGame{
			Pseudo:               g.Pseudo,
			Score:                g.Score,
			TerritoriesConquered: g.TerritoriesConquered,
			Won:                  g.Won,
			PlayedAt:             playedAt(g.CreatedAt),
		})
	}
	return RecentGamesResponse{Success: true, Games: games}
}

// StatsResponse is returned by GET /api/stats
type StatsResponse struct {
	Success bool  `json:"success"`
	Stats   Stats `json:"stats"`
}

func playedAt(t time.Time) string {
	return t.UTC().Format(PlayedAtLayout)
}
