package storage

import (
	"context"
	"time"

	"github.com/mcoot/territorybattle/internal/model"
)

// Storage defines the interface for data persistence.
// Failures of the backing store are returned as *model.StoreError;
// domain outcomes use the sentinel errors from the model package.
type Storage interface {
	// Init creates the schema if it does not exist yet. It is idempotent.
	Init(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	// Player operations
	CreatePlayer(ctx context.Context, pseudo string, at time.Time) (*model.Player, error)
	GetPlayerByPseudo(ctx context.Context, pseudo string) (*model.Player, error)
	// PlayerRank is 1 + the number of players strictly ahead of the player
	// under (wins desc, total_score desc)
	PlayerRank(ctx context.Context, id model.PlayerID) (int, error)
	PlayerRecentGames(ctx context.Context, id model.PlayerID, limit int) ([]model.Game, error)

	// RecordGame creates the player if needed, appends the game and folds it
	// into the player's aggregates as a single atomic unit. It returns the
	// updated player.
	RecordGame(ctx context.Context, sub model.GameSubmission, at time.Time) (*model.Player, error)

	// Ranking reads
	Leaderboard(ctx context.Context, page model.PageRequest) ([]model.LeaderboardEntry, error)
	TopByWins(ctx context.Context, limit int) ([]model.WinsEntry, error)
	TopByBestScore(ctx context.Context, limit int) ([]model.ScoreEntry, error)
	RecentGames(ctx context.Context, limit int) ([]model.RecentGame, error)
	GlobalStats(ctx context.Context) (model.GlobalStats, error)

	// ReconcileAggregates re-derives every player's counters from the game
	// log and returns how many players were corrected
	ReconcileAggregates(ctx context.Context, at time.Time) (int, error)
}
