package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/territorybattle/internal/cache"
	"github.com/mcoot/territorybattle/internal/dependencies/clock"
	"github.com/mcoot/territorybattle/internal/events"
	"github.com/mcoot/territorybattle/internal/model"
	"github.com/mcoot/territorybattle/internal/storage"
)

// Messages returned alongside a recorded game
const (
	MessageVictory  = "Victory recorded!"
	MessageRecorded = "Game recorded"
)

// SubmitResult is the outcome of a recorded game
type SubmitResult struct {
	Player  *model.Player
	Message string
}

// Service keeps player aggregates in step with submitted games and serves
// the ranked views derived from them
type Service struct {
	storage   storage.Storage
	cache     cache.Cache
	publisher events.Publisher
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates a new stats Service
func New(
	storage storage.Storage,
	cache cache.Cache,
	publisher events.Publisher,
	clock clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:   storage,
		cache:     cache,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// InitSchema creates the backing tables if needed. Safe to call repeatedly.
func (s *Service) InitSchema(ctx context.Context) error {
	if err := s.storage.Init(ctx); err != nil {
		s.logger.Error("failed to initialise schema", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("schema initialised")
	return nil
}

// RegisterPlayer claims a pseudo for a new player with zeroed counters
func (s *Service) RegisterPlayer(ctx context.Context, pseudo string) (*model.Player, error) {
	if err := model.ValidatePseudo(pseudo); err != nil {
		return nil, err
	}

	player, err := s.storage.CreatePlayer(ctx, pseudo, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("player registered",
		slog.String("pseudo", player.Pseudo),
		slog.Int64("player_id", int64(player.ID)),
	)
	return player, nil
}

// SubmitGame records a game result, registering the pseudo on first use.
// The game row and the aggregate update are committed together.
func (s *Service) SubmitGame(ctx context.Context, sub model.GameSubmission) (*SubmitResult, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	player, err := s.storage.RecordGame(ctx, sub, now)
	if err != nil {
		s.logger.Error("failed to record game",
			slog.String("pseudo", sub.Pseudo),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.invalidate(ctx)

	if err := s.publisher.PublishGameRecorded(ctx, events.NewGameRecorded(sub, player, now)); err != nil {
		s.logger.Warn("failed to publish game event",
			slog.String("pseudo", player.Pseudo),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("game recorded",
		slog.String("pseudo", player.Pseudo),
		slog.Int("score", sub.Score),
		slog.Bool("won", sub.Won),
		slog.Int("games_played", player.GamesPlayed),
	)

	msg := MessageRecorded
	if sub.Won {
		msg = MessageVictory
	}
	return &SubmitResult{Player: player, Message: msg}, nil
}

// GetPlayer returns a player with its current rank and latest games.
// Rank is always computed from storage, never served from cache.
func (s *Service) GetPlayer(ctx context.Context, pseudo string) (*model.PlayerProfile, error) {
	player, err := s.storage.GetPlayerByPseudo(ctx, pseudo)
	if err != nil {
		return nil, err
	}

	rank, err := s.storage.PlayerRank(ctx, player.ID)
	if err != nil {
		return nil, err
	}

	games, err := s.storage.PlayerRecentGames(ctx, player.ID, model.PlayerRecentGamesLimit)
	if err != nil {
		return nil, err
	}

	return &model.PlayerProfile{
		Player:      *player,
		Rank:        rank,
		RecentGames: games,
	}, nil
}

// GetLeaderboard returns one page of ranked players with global totals
func (s *Service) GetLeaderboard(ctx context.Context, page model.PageRequest) (*model.LeaderboardPage, error) {
	page = normalisePage(page)
	key := fmt.Sprintf("leaderboard:%d:%d", page.Limit, page.Offset)

	return cached(ctx, s, key, func(ctx context.Context) (*model.LeaderboardPage, error) {
		// One extra row tells us whether another page exists
		entries, err := s.storage.Leaderboard(ctx, model.PageRequest{Limit: page.Limit + 1, Offset: page.Offset})
		if err != nil {
			return nil, err
		}

		hasMore := len(entries) > page.Limit
		if hasMore {
			entries = entries[:page.Limit]
		}

		stats, err := s.storage.GlobalStats(ctx)
		if err != nil {
			return nil, err
		}

		return &model.LeaderboardPage{
			Entries: entries,
			Stats:   stats,
			Pagination: model.Pagination{
				Limit:   page.Limit,
				Offset:  page.Offset,
				HasMore: hasMore,
			},
		}, nil
	})
}

// GetTopWins returns the players with the most wins
func (s *Service) GetTopWins(ctx context.Context) ([]model.WinsEntry, error) {
	return cached(ctx, s, "top:wins", func(ctx context.Context) ([]model.WinsEntry, error) {
		return s.storage.TopByWins(ctx, model.TopListLimit)
	})
}

// GetTopScores returns the players with the highest single-game score
func (s *Service) GetTopScores(ctx context.Context) ([]model.ScoreEntry, error) {
	return cached(ctx, s, "top:scores", func(ctx context.Context) ([]model.ScoreEntry, error) {
		return s.storage.TopByBestScore(ctx, model.TopListLimit)
	})
}

// GetRecentGames returns the newest games across all players
func (s *Service) GetRecentGames(ctx context.Context, limit int) ([]model.RecentGame, error) {
	limit = clamp(limit, model.RecentGamesDefaultLimit, model.RecentGamesMaxLimit)
	key := fmt.Sprintf("recent:%d", limit)

	return cached(ctx, s, key, func(ctx context.Context) ([]model.RecentGame, error) {
		return s.storage.RecentGames(ctx, limit)
	})
}

// GetGlobalStats returns totals across all players
func (s *Service) GetGlobalStats(ctx context.Context) (model.GlobalStats, error) {
	return cached(ctx, s, "stats", func(ctx context.Context) (model.GlobalStats, error) {
		return s.storage.GlobalStats(ctx)
	})
}

// Reconcile re-derives every player's counters from the game log and
// returns how many players were corrected
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	fixed, err := s.storage.ReconcileAggregates(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error("reconcile failed", slog.String("error", err.Error()))
		return 0, err
	}

	s.invalidate(ctx)

	if fixed > 0 {
		s.logger.Warn("reconciled drifted aggregates", slog.Int("players_fixed", fixed))
	} else {
		s.logger.Info("aggregates consistent")
	}
	return fixed, nil
}

// invalidate drops cached read views. A failure only delays freshness
// until the entries expire, so it is logged rather than returned.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Error("failed to invalidate cache", slog.String("error", err.Error()))
	}
}

// cached serves key from the cache or computes and stores it
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	data, gen, err := s.cache.Get(ctx, key)
	// Without a known generation the result is not stored
	store := true
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		s.logger.Warn("discarding unreadable cache entry", slog.String("key", key))
	case !errors.Is(err, cache.ErrMiss):
		s.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		store = false
	}

	v, err := load(ctx)
	if err != nil || !store {
		return v, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := s.cache.Set(ctx, key, gen, data); err != nil {
			s.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return v, nil
}

func normalisePage(page model.PageRequest) model.PageRequest {
	page.Limit = clamp(page.Limit, model.LeaderboardDefaultLimit, model.LeaderboardMaxLimit)
	if page.Offset < 0 {
		page.Offset = 0
	}
	return page
}

// clamp applies the same rules as model.ParseLimit to an already parsed value
func clamp(n, def, max int) int {
	switch {
	case n == 0:
		return def
	case n < 1:
		return 1
	case n > max:
		return max
	}
	return n
}
