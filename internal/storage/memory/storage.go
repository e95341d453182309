package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/territorybattle/internal/model"
	"github.com/mcoot/territorybattle/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players     map[model.PlayerID]*model.Player
	pseudoIndex map[string]model.PlayerID
	games       []model.Game

	nextPlayerID model.PlayerID
	nextGameID   model.GameID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:      make(map[model.PlayerID]*model.Player),
		pseudoIndex:  make(map[string]model.PlayerID),
		nextPlayerID: 1,
		nextGameID:   1,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Init(ctx context.Context) error { return nil }

func (s *Storage) Ping(ctx context.Context) error { return nil }

func (s *Storage) Close() error { return nil }

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, pseudo string, at time.Time) (*model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pseudoIndex[pseudo]; ok {
		return nil, model.ErrPseudoTaken
	}
	p := s.insertPlayerLocked(pseudo, at)
	cp := *p
	return &cp, nil
}

func (s *Storage) GetPlayerByPseudo(ctx context.Context, pseudo string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.pseudoIndex[pseudo]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	cp := *s.players[id]
	return &cp, nil
}

func (s *Storage) PlayerRank(ctx context.Context, id model.PlayerID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	me, ok := s.players[id]
	if !ok {
		return 0, model.ErrPlayerNotFound
	}

	rank := 1
	for _, p := range s.players {
		if p.RanksAbove(me) {
			rank++
		}
	}
	return rank, nil
}

func (s *Storage) PlayerRecentGames(ctx context.Context, id model.PlayerID, limit int) ([]model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := []model.Game{}
	for _, g := range s.newestFirstLocked() {
		if len(games) == limit {
			break
		}
		if g.PlayerID == id {
			games = append(games, g)
		}
	}
	return games, nil
}

// Game operations

func (s *Storage) RecordGame(ctx context.Context, sub model.GameSubmission, at time.Time) (*model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p *model.Player
	if id, ok := s.pseudoIndex[sub.Pseudo]; ok {
		p = s.players[id]
	} else {
		p = s.insertPlayerLocked(sub.Pseudo, at)
	}

	game := sub.GameFor(p.ID, at)
	game.ID = s.nextGameID
	s.nextGameID++
	s.games = append(s.games, game)

	p.Apply(sub.Score, sub.Won, at)

	cp := *p
	return &cp, nil
}

// Ranking reads

func (s *Storage) Leaderboard(ctx context.Context, page model.PageRequest) ([]model.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranked := s.rankedLocked()

	// Dense rank over the whole filtered set, before paging
	entries := make([]model.LeaderboardEntry, 0, len(ranked))
	rank := 0
	for i, p := range ranked {
		if i == 0 || ranked[i-1].RanksAbove(p) {
			rank++
		}
		entries = append(entries, model.LeaderboardEntry{
			Pseudo:      p.Pseudo,
			Wins:        p.Wins,
			GamesPlayed: p.GamesPlayed,
			TotalScore:  p.TotalScore,
			BestScore:   p.BestScore,
			WinRate:     model.WinRate(p.Wins, p.GamesPlayed),
			Rank:        rank,
		})
	}

	return window(entries, page.Offset, page.Limit), nil
}

func (s *Storage) TopByWins(ctx context.Context, limit int) ([]model.WinsEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := s.activeLocked()
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.GamesPlayed != b.GamesPlayed {
			return a.GamesPlayed < b.GamesPlayed
		}
		return a.ID < b.ID
	})

	entries := make([]model.WinsEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, model.WinsEntry{
			Pseudo:      p.Pseudo,
			Wins:        p.Wins,
			GamesPlayed: p.GamesPlayed,
			WinRate:     model.WinRate(p.Wins, p.GamesPlayed),
		})
	}
	return window(entries, 0, limit), nil
}

func (s *Storage) TopByBestScore(ctx context.Context, limit int) ([]model.ScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := s.activeLocked()
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.BestScore != b.BestScore {
			return a.BestScore > b.BestScore
		}
		return a.ID < b.ID
	})

	entries := make([]model.ScoreEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, model.ScoreEntry{
			Pseudo:      p.Pseudo,
			BestScore:   p.BestScore,
			TotalScore:  p.TotalScore,
			GamesPlayed: p.GamesPlayed,
		})
	}
	return window(entries, 0, limit), nil
}

func (s *Storage) RecentGames(ctx context.Context, limit int) ([]model.RecentGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := []model.RecentGame{}
	for _, g := range s.newestFirstLocked() {
		if len(games) == limit {
			break
		}
		games = append(games, model.RecentGame{Game: g, Pseudo: s.players[g.PlayerID].Pseudo})
	}
	return games, nil
}

func (s *Storage) GlobalStats(ctx context.Context) (model.GlobalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.GlobalStats{TotalPlayers: len(s.players)}
	for _, p := range s.players {
		stats.TotalGames += p.GamesPlayed
		stats.TotalWins += p.Wins
	}
	return stats, nil
}

func (s *Storage) ReconcileAggregates(ctx context.Context, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	derived := make(map[model.PlayerID]*model.Player, len(s.players))
	for id := range s.players {
		derived[id] = &model.Player{}
	}
	for _, g := range s.games {
		derived[g.PlayerID].Apply(g.Score, g.Won, at)
	}

	fixed := 0
	for id, p := range s.players {
		d := derived[id]
		if p.Wins == d.Wins && p.GamesPlayed == d.GamesPlayed &&
			p.TotalScore == d.TotalScore && p.BestScore == d.BestScore {
			continue
		}
		p.Wins, p.GamesPlayed, p.TotalScore, p.BestScore = d.Wins, d.GamesPlayed, d.TotalScore, d.BestScore
		p.UpdatedAt = at
		fixed++
	}
	return fixed, nil
}

// OverwriteAggregates replaces a player's counters without touching the game
// log. It exists to simulate drift in tests.
func (s *Storage) OverwriteAggregates(pseudo string, wins, gamesPlayed, totalScore, bestScore int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.pseudoIndex[pseudo]; ok {
		p := s.players[id]
		p.Wins, p.GamesPlayed, p.TotalScore, p.BestScore = wins, gamesPlayed, totalScore, bestScore
	}
}

// Helpers (callers hold the lock)

func (s *Storage) insertPlayerLocked(pseudo string, at time.Time) *model.Player {
	p := &model.Player{
		ID:        s.nextPlayerID,
		Pseudo:    pseudo,
		CreatedAt: at,
		UpdatedAt: at,
	}
	s.nextPlayerID++
	s.players[p.ID] = p
	s.pseudoIndex[pseudo] = p.ID
	return p
}

// activeLocked returns copies of players with at least one game, in id order
func (s *Storage) activeLocked() []model.Player {
	players := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		if p.GamesPlayed > 0 {
			players = append(players, *p)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players
}

// rankedLocked returns active players in canonical leaderboard order
func (s *Storage) rankedLocked() []*model.Player {
	active := s.activeLocked()
	ranked := make([]*model.Player, len(active))
	for i := range active {
		ranked[i] = &active[i]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RanksAbove(ranked[j])
	})
	return ranked
}

// newestFirstLocked returns games ordered by creation time then id, newest first
func (s *Storage) newestFirstLocked() []model.Game {
	games := make([]model.Game, len(s.games))
	copy(games, s.games)
	sort.SliceStable(games, func(i, j int) bool {
		if !games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].CreatedAt.After(games[j].CreatedAt)
		}
		return games[i].ID > games[j].ID
	})
	return games
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
