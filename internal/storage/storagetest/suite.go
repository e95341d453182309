// Package storagetest holds a behavioural test suite shared by every storage backend.
package storagetest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mcoot/territorybattle/internal/model"
	"github.com/mcoot/territorybattle/internal/storage"
	"github.com/stretchr/testify/suite"
)

// Suite exercises a storage.Storage implementation.
// NewStorage must return an empty, initialised store for every test.
type Suite struct {
	suite.Suite

	NewStorage func() storage.Storage

	Store storage.Storage
	Ctx   context.Context
	now   time.Time
}

func (s *Suite) SetupTest() {
	s.Ctx = context.Background()
	s.Store = s.NewStorage()
	s.now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
}

func (s *Suite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

// tick returns a strictly increasing timestamp
func (s *Suite) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *Suite) record(pseudo string, score int, won bool) *model.Player {
	p, err := s.Store.RecordGame(s.Ctx, model.GameSubmission{
		Pseudo: pseudo,
		Score:  score,
		Won:    won,
	}, s.tick())
	s.Require().NoError(err)
	return p
}

// Player tests

func (s *Suite) TestCreateAndGetPlayer() {
	at := s.tick()
	created, err := s.Store.CreatePlayer(s.Ctx, "alice", at)
	s.Require().NoError(err)
	s.NotZero(created.ID)
	s.Equal("alice", created.Pseudo)
	s.Zero(created.GamesPlayed)

	got, err := s.Store.GetPlayerByPseudo(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.True(at.Equal(got.CreatedAt))
	s.True(at.Equal(got.UpdatedAt))
}

func (s *Suite) TestCreatePlayerDuplicate() {
	_, err := s.Store.CreatePlayer(s.Ctx, "alice", s.tick())
	s.Require().NoError(err)

	_, err = s.Store.CreatePlayer(s.Ctx, "alice", s.tick())
	s.ErrorIs(err, model.ErrPseudoTaken)
}

func (s *Suite) TestPseudoIsCaseSensitive() {
	_, err := s.Store.CreatePlayer(s.Ctx, "alice", s.tick())
	s.Require().NoError(err)

	_, err = s.Store.CreatePlayer(s.Ctx, "Alice", s.tick())
	s.NoError(err)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Store.GetPlayerByPseudo(s.Ctx, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Game tests

func (s *Suite) TestRecordGameAutoRegisters() {
	p := s.record("newbie", 120, true)
	s.Equal(1, p.GamesPlayed)
	s.Equal(1, p.Wins)
	s.Equal(120, p.TotalScore)
	s.Equal(120, p.BestScore)

	got, err := s.Store.GetPlayerByPseudo(s.Ctx, "newbie")
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
}

func (s *Suite) TestRecordGameUpdatesAggregates() {
	s.record("alice", 100, true)
	s.record("alice", 40, false)
	p := s.record("alice", 250, true)

	s.Equal(3, p.GamesPlayed)
	s.Equal(2, p.Wins)
	s.Equal(390, p.TotalScore)
	s.Equal(250, p.BestScore)
	s.True(s.now.Equal(p.UpdatedAt))
}

func (s *Suite) TestRecordGameAtCounterCeiling() {
	s.record("alice", model.MaxStat, true)
	p := s.record("alice", model.MaxStat, false)

	s.Equal(2, p.GamesPlayed)
	s.Equal(2*model.MaxStat, p.TotalScore)
	s.Equal(model.MaxStat, p.BestScore)

	top, err := s.Store.TopByBestScore(s.Ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(top, 1)
	s.Equal(model.MaxStat, top[0].BestScore)
}

func (s *Suite) TestRecordGameStoresGameData() {
	p, err := s.Store.RecordGame(s.Ctx, model.GameSubmission{
		Pseudo:               "alice",
		Score:                80,
		TerritoriesConquered: 7,
		UnitsLost:            3,
		UnitsKilled:          11,
		TurnsPlayed:          22,
		Won:                  true,
		GameData:             json.RawMessage(`{"map":"island","seed":42}`),
	}, s.tick())
	s.Require().NoError(err)

	games, err := s.Store.PlayerRecentGames(s.Ctx, p.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(games, 1)

	g := games[0]
	s.Equal(p.ID, g.PlayerID)
	s.Equal(80, g.Score)
	s.Equal(7, g.TerritoriesConquered)
	s.Equal(3, g.UnitsLost)
	s.Equal(11, g.UnitsKilled)
	s.Equal(22, g.TurnsPlayed)
	s.True(g.Won)
	s.JSONEq(`{"map":"island","seed":42}`, string(g.GameData))
}

func (s *Suite) TestPlayerRecentGamesNewestFirstAndLimited() {
	var p *model.Player
	for i := 1; i <= 12; i++ {
		p = s.record("alice", i, false)
	}
	s.record("bob", 999, true)

	games, err := s.Store.PlayerRecentGames(s.Ctx, p.ID, model.PlayerRecentGamesLimit)
	s.Require().NoError(err)
	s.Require().Len(games, 10)
	s.Equal(12, games[0].Score)
	s.Equal(3, games[9].Score)
	for _, g := range games {
		s.Equal(p.ID, g.PlayerID)
	}
}

func (s *Suite) TestPlayerRecentGamesEmpty() {
	p, err := s.Store.CreatePlayer(s.Ctx, "alice", s.tick())
	s.Require().NoError(err)

	games, err := s.Store.PlayerRecentGames(s.Ctx, p.ID, 10)
	s.Require().NoError(err)
	s.NotNil(games)
	s.Empty(games)
}

// Rank tests

func (s *Suite) TestPlayerRankCountsPlayersStrictlyAhead() {
	a := s.record("a", 100, true)
	s.record("a", 0, true)
	s.record("a", 0, true) // 3 wins, 100
	b := s.record("b", 150, true)
	s.record("b", 0, true)
	s.record("b", 0, true) // 3 wins, 150
	c := s.record("c", 500, true)
	s.record("c", 0, true) // 2 wins, 500

	rank := func(id model.PlayerID) int {
		r, err := s.Store.PlayerRank(s.Ctx, id)
		s.Require().NoError(err)
		return r
	}
	s.Equal(1, rank(b.ID))
	s.Equal(2, rank(a.ID))
	s.Equal(3, rank(c.ID))
}

func (s *Suite) TestPlayerRankTiesShareRank() {
	a := s.record("a", 50, true)
	b := s.record("b", 50, true)
	c := s.record("c", 10, false)

	ra, err := s.Store.PlayerRank(s.Ctx, a.ID)
	s.Require().NoError(err)
	rb, err := s.Store.PlayerRank(s.Ctx, b.ID)
	s.Require().NoError(err)
	rc, err := s.Store.PlayerRank(s.Ctx, c.ID)
	s.Require().NoError(err)

	s.Equal(1, ra)
	s.Equal(1, rb)
	s.Equal(3, rc)
}

func (s *Suite) TestPlayerRankWithoutGames() {
	s.record("a", 50, true)
	p, err := s.Store.CreatePlayer(s.Ctx, "idle", s.tick())
	s.Require().NoError(err)

	r, err := s.Store.PlayerRank(s.Ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(2, r)
}

// Leaderboard tests

func (s *Suite) seedLeaderboard() {
	for i := 0; i < 3; i++ {
		s.record("a", 0, true)
		s.record("b", 0, true)
	}
	s.record("a", 100, false) // a: 3 wins, 100
	s.record("b", 150, false) // b: 3 wins, 150
	s.record("c", 500, true)
	s.record("c", 0, true) // c: 2 wins, 500
	_, err := s.Store.CreatePlayer(s.Ctx, "idle", s.tick())
	s.Require().NoError(err)
}

func (s *Suite) TestLeaderboardOrdering() {
	s.seedLeaderboard()

	entries, err := s.Store.Leaderboard(s.Ctx, model.PageRequest{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(entries, 3, "players without games are excluded")

	s.Equal("b", entries[0].Pseudo)
	s.Equal("a", entries[1].Pseudo)
	s.Equal("c", entries[2].Pseudo)
	s.Equal([]int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})

	s.Equal(3, entries[0].Wins)
	s.Equal(4, entries[0].GamesPlayed)
	s.Equal(150, entries[0].TotalScore)
	s.Equal(150, entries[0].BestScore)
	s.Equal(75.0, entries[0].WinRate)
	s.Equal(100.0, entries[2].WinRate)
}

func (s *Suite) TestLeaderboardDenseRank() {
	s.record("a", 50, true)
	s.record("b", 50, true)
	s.record("c", 10, true)

	entries, err := s.Store.Leaderboard(s.Ctx, model.PageRequest{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal("a", entries[0].Pseudo, "ties broken by registration order")
	s.Equal(1, entries[0].Rank)
	s.Equal(1, entries[1].Rank)
	s.Equal(2, entries[2].Rank)
}

func (s *Suite) TestLeaderboardRankSurvivesOffset() {
	s.seedLeaderboard()

	entries, err := s.Store.Leaderboard(s.Ctx, model.PageRequest{Limit: 1, Offset: 2})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("c", entries[0].Pseudo)
	s.Equal(3, entries[0].Rank)
}

func (s *Suite) TestLeaderboardPastEnd() {
	s.seedLeaderboard()

	entries, err := s.Store.Leaderboard(s.Ctx, model.PageRequest{Limit: 10, Offset: 50})
	s.Require().NoError(err)
	s.NotNil(entries)
	s.Empty(entries)
}

func (s *Suite) TestTopByWins() {
	s.record("a", 10, true)
	s.record("a", 10, true) // 2 wins in 2
	s.record("b", 10, true)
	s.record("b", 10, true)
	s.record("b", 10, false) // 2 wins in 3
	s.record("c", 900, false)

	entries, err := s.Store.TopByWins(s.Ctx, model.TopListLimit)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal("a", entries[0].Pseudo, "fewer games wins the tie")
	s.Equal("b", entries[1].Pseudo)
	s.Equal(66.7, entries[1].WinRate)
	s.Equal("c", entries[2].Pseudo)

	limited, err := s.Store.TopByWins(s.Ctx, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func (s *Suite) TestTopByBestScore() {
	s.record("a", 300, false)
	s.record("b", 100, true)
	s.record("b", 200, true)
	s.record("c", 50, true)

	entries, err := s.Store.TopByBestScore(s.Ctx, model.TopListLimit)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal("a", entries[0].Pseudo)
	s.Equal(300, entries[0].BestScore)
	s.Equal("b", entries[1].Pseudo)
	s.Equal(300, entries[1].TotalScore)
	s.Equal(2, entries[1].GamesPlayed)
	s.Equal("c", entries[2].Pseudo)
}

// Recent games and stats

func (s *Suite) TestRecentGames() {
	for i := 1; i <= 5; i++ {
		s.record("a", i, false)
		s.record("b", i*10, true)
	}

	games, err := s.Store.RecentGames(s.Ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(games, 3)
	s.Equal("b", games[0].Pseudo)
	s.Equal(50, games[0].Score)
	s.Equal("a", games[1].Pseudo)
	s.Equal(5, games[1].Score)
	s.Equal("b", games[2].Pseudo)
	s.Equal(40, games[2].Score)
}

func (s *Suite) TestRecentGamesEmpty() {
	games, err := s.Store.RecentGames(s.Ctx, 20)
	s.Require().NoError(err)
	s.NotNil(games)
	s.Empty(games)
}

func (s *Suite) TestGlobalStats() {
	stats, err := s.Store.GlobalStats(s.Ctx)
	s.Require().NoError(err)
	s.Equal(model.GlobalStats{}, stats)

	s.seedLeaderboard()

	stats, err = s.Store.GlobalStats(s.Ctx)
	s.Require().NoError(err)
	s.Equal(4, stats.TotalPlayers)
	s.Equal(10, stats.TotalGames)
	s.Equal(8, stats.TotalWins)
}

func (s *Suite) TestReconcileIsNoOpWhenConsistent() {
	s.seedLeaderboard()

	fixed, err := s.Store.ReconcileAggregates(s.Ctx, s.tick())
	s.Require().NoError(err)
	s.Zero(fixed)
}

func (s *Suite) TestPing() {
	s.NoError(s.Store.Ping(s.Ctx))
}
