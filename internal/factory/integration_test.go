package factory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	rediscache "github.com/mcoot/territorybattle/internal/cache/redis"
	"github.com/mcoot/territorybattle/internal/model"
	"github.com/mcoot/territorybattle/internal/services/stats"
	"github.com/mcoot/territorybattle/internal/storage/memory"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) submit(pseudo string, score int, won bool) *stats.SubmitResult {
	res, err := s.app.Stats.SubmitGame(s.ctx, model.GameSubmission{
		Pseudo:               pseudo,
		Score:                score,
		Won:                  won,
		TerritoriesConquered: score / 100,
		TurnsPlayed:          12,
	})
	s.Require().NoError(err)
	return res
}

// A short season: registration, games from registered and unregistered
// players, then every read view agreeing on the result
func (s *IntegrationSuite) TestSeasonFlow() {
	_, err := s.app.Stats.RegisterPlayer(s.ctx, "alice")
	s.Require().NoError(err)

	s.Equal(stats.MessageVictory, s.submit("alice", 900, true).Message)
	s.submit("alice", 400, false)
	s.Equal(stats.MessageRecorded, s.submit("bob", 700, false).Message)
	s.submit("bob", 1200, true)
	s.submit("bob", 300, true)
	s.submit("carol", 100, false)

	page, err := s.app.Stats.GetLeaderboard(s.ctx, model.PageRequest{})
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 3)
	s.Equal("bob", page.Entries[0].Pseudo)
	s.Equal(1, page.Entries[0].Rank)
	s.Equal("alice", page.Entries[1].Pseudo)
	s.Equal("carol", page.Entries[2].Pseudo)
	s.Equal(model.GlobalStats{TotalPlayers: 3, TotalGames: 6, TotalWins: 3}, page.Stats)
	s.False(page.Pagination.HasMore)

	bob, err := s.app.Stats.GetPlayer(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(1, bob.Rank)
	s.Equal(2200, bob.TotalScore)
	s.Equal(1200, bob.BestScore)
	s.Len(bob.RecentGames, 3)
	s.Equal(300, bob.RecentGames[0].Score)

	scores, err := s.app.Stats.GetTopScores(s.ctx)
	s.Require().NoError(err)
	s.Equal("bob", scores[0].Pseudo)
	s.Equal("alice", scores[1].Pseudo)

	recent, err := s.app.Stats.GetRecentGames(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal("carol", recent[0].Pseudo)
	s.Equal("bob", recent[1].Pseudo)
}

func (s *IntegrationSuite) TestReconcileAfterDrift() {
	s.submit("alice", 500, true)
	s.app.Memory.OverwriteAggregates("alice", 0, 0, 0, 0)

	fixed, err := s.app.Stats.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, fixed)

	p, err := s.app.Stats.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, p.Wins)
	s.Equal(500, p.BestScore)
}

func TestNewDefaultsToMemory(t *testing.T) {
	app, err := New(context.Background(), Config{})
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &memory.Storage{}, app.Storage)
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	_, err := New(context.Background(), Config{StorageType: "sqlite"})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{StorageType: StorageTypePostgres})
	assert.Error(t, err)
}

func TestNewWithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := rediscache.DefaultConfig()
	cfg.URL = "redis://" + mr.Addr()

	app, err := New(context.Background(), Config{RedisConfig: &cfg})
	require.NoError(t, err)
	defer app.Close()

	ctx := context.Background()
	_, err = app.Stats.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("tb:lb:0:stats"), "keys: %v", mr.Keys())

	_, err = app.Stats.SubmitGame(ctx, model.GameSubmission{Pseudo: "alice", Score: 10})
	require.NoError(t, err)

	gen, err := mr.Get("tb:lb:gen")
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
}
