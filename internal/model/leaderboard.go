package model

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Paging defaults and bounds for the read endpoints
const (
	LeaderboardDefaultLimit = 10
	LeaderboardMaxLimit     = 100
	RecentGamesDefaultLimit = 20
	RecentGamesMaxLimit     = 50
	PlayerRecentGamesLimit  = 10
	TopListLimit            = 20
	SnapshotLimit           = 100
)

// LeaderboardEntry is one ranked row of the main leaderboard
type LeaderboardEntry struct {
	Pseudo      string
	Wins        int
	GamesPlayed int
	TotalScore  int
	BestScore   int
	WinRate     float64
	Rank        int
}

// WinsEntry is one row of the top-wins list
type WinsEntry struct {
	Pseudo      string
	Wins        int
	GamesPlayed int
	WinRate     float64
}

// ScoreEntry is one row of the top-scores list
type ScoreEntry struct {
	Pseudo      string
	BestScore   int
	TotalScore  int
	GamesPlayed int
}

// GlobalStats are totals across every player
type GlobalStats struct {
	TotalPlayers int
	TotalGames   int
	TotalWins    int
}

// PageRequest is a normalised limit/offset pair
type PageRequest struct {
	Limit  int
	Offset int
}

// Pagination describes the returned page
type Pagination struct {
	Limit   int
	Offset  int
	HasMore bool
}

// LeaderboardPage is a ranked page plus global totals
type LeaderboardPage struct {
	Entries    []LeaderboardEntry
	Stats      GlobalStats
	Pagination Pagination
}

// WinRate returns wins/games as a percentage rounded to one decimal place.
// Zero games yields zero.
func WinRate(wins, gamesPlayed int) float64 {
	if gamesPlayed <= 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(wins)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(gamesPlayed))).
		Round(1)
	return rate.InexactFloat64()
}

// ParseLimit parses a limit query value. Missing, non-numeric or zero values
// fall back to def; everything else is clamped to [1, max].
func ParseLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n == 0 {
		return def
	}
	if n > max {
		return max
	}
	if n < 1 {
		return 1
	}
	return n
}

// ParseOffset parses an offset query value; invalid or negative values yield 0
func ParseOffset(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NewPageRequest builds a normalised leaderboard page request from raw query values
func NewPageRequest(rawLimit, rawOffset string) PageRequest {
	return PageRequest{
		Limit:  ParseLimit(rawLimit, LeaderboardDefaultLimit, LeaderboardMaxLimit),
		Offset: ParseOffset(rawOffset),
	}
}
