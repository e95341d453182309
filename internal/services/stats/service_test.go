package stats

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/territorybattle/internal/cache"
	rediscache "github.com/mcoot/territorybattle/internal/cache/redis"
	"github.com/mcoot/territorybattle/internal/dependencies/mocks"
	"github.com/mcoot/territorybattle/internal/events"
	"github.com/mcoot/territorybattle/internal/model"
	"github.com/mcoot/territorybattle/internal/storage/memory"
	"github.com/mcoot/territorybattle/internal/testutil"
)

type recordingPublisher struct {
	events []events.GameRecorded
	err    error
}

func (p *recordingPublisher) PublishGameRecorded(_ context.Context, ev events.GameRecorded) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type ServiceSuite struct {
	suite.Suite
	storage   *memory.Storage
	mini      *miniredis.Miniredis
	cache     cache.Cache
	publisher *recordingPublisher
	clock     *mocks.MockClock
	service   *Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.mini = miniredis.RunT(s.T())
	s.cache = rediscache.NewWithClient(
		goredis.NewClient(&goredis.Options{Addr: s.mini.Addr()}),
		rediscache.DefaultConfig(),
	)
	s.publisher = &recordingPublisher{}
	s.clock = mocks.NewSteppingClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), time.Second)
	s.service = New(s.storage, s.cache, s.publisher, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TearDownTest() {
	_ = s.cache.Close()
}

func (s *ServiceSuite) submit(pseudo string, score int, won bool) *SubmitResult {
	res, err := s.service.SubmitGame(s.ctx, model.GameSubmission{Pseudo: pseudo, Score: score, Won: won})
	s.Require().NoError(err)
	return res
}

// RegisterPlayer tests

func (s *ServiceSuite) TestRegisterPlayerSucceeds() {
	p, err := s.service.RegisterPlayer(s.ctx, "ab")
	s.Require().NoError(err)

	s.Equal("ab", p.Pseudo)
	s.NotZero(p.ID)
	s.Zero(p.Wins)
	s.Zero(p.GamesPlayed)
	s.Zero(p.TotalScore)
	s.Zero(p.BestScore)
}

func (s *ServiceSuite) TestRegisterPlayerRejectsBadLength() {
	_, err := s.service.RegisterPlayer(s.ctx, "a")
	s.ErrorIs(err, model.ErrInvalidPseudo)

	_, err = s.service.RegisterPlayer(s.ctx, "abcdefghijklmnopqrstu")
	s.ErrorIs(err, model.ErrInvalidPseudo)
}

func (s *ServiceSuite) TestRegisterPlayerTwiceConflicts() {
	_, err := s.service.RegisterPlayer(s.ctx, "alice")
	s.Require().NoError(err)

	_, err = s.service.RegisterPlayer(s.ctx, "alice")
	s.ErrorIs(err, model.ErrPseudoTaken)
}

// SubmitGame tests

func (s *ServiceSuite) TestSubmitGameAutoRegisters() {
	res := s.submit("newcomer", 420, true)

	s.Equal(MessageVictory, res.Message)
	s.Equal(1, res.Player.GamesPlayed)
	s.Equal(1, res.Player.Wins)
	s.Equal(420, res.Player.TotalScore)
	s.Equal(420, res.Player.BestScore)

	stats, err := s.service.GetGlobalStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.GlobalStats{TotalPlayers: 1, TotalGames: 1, TotalWins: 1}, stats)

	profile, err := s.service.GetPlayer(s.ctx, "newcomer")
	s.Require().NoError(err)
	s.Len(profile.RecentGames, 1)
}

func (s *ServiceSuite) TestSubmitGameLossMessage() {
	res := s.submit("alice", 10, false)
	s.Equal(MessageRecorded, res.Message)
	s.Zero(res.Player.Wins)
}

func (s *ServiceSuite) TestSubmitGameAccumulates() {
	scores := []int{120, 80, 300, 0, 45}
	wins := []bool{true, false, true, false, true}

	var last *SubmitResult
	for i := range scores {
		last = s.submit("alice", scores[i], wins[i])
	}

	s.Equal(5, last.Player.GamesPlayed)
	s.Equal(3, last.Player.Wins)
	s.Equal(545, last.Player.TotalScore)
	s.Equal(300, last.Player.BestScore)
	s.LessOrEqual(last.Player.Wins, last.Player.GamesPlayed)
	s.LessOrEqual(last.Player.BestScore, last.Player.TotalScore)
}

func (s *ServiceSuite) TestSubmitGameRequiresPseudo() {
	_, err := s.service.SubmitGame(s.ctx, model.GameSubmission{Score: 10})
	s.ErrorIs(err, model.ErrPseudoRequired)
	s.Empty(s.publisher.events)
}

func (s *ServiceSuite) TestSubmitGameRejectsNegativeStats() {
	_, err := s.service.SubmitGame(s.ctx, model.GameSubmission{Pseudo: "alice", TurnsPlayed: -2})
	s.ErrorIs(err, model.ErrNegativeStat)

	_, err = s.service.GetPlayer(s.ctx, "alice")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestSubmitGameRejectsOversizedStats() {
	s.submit("alice", model.MaxStat, true)

	_, err := s.service.SubmitGame(s.ctx, model.GameSubmission{Pseudo: "alice", Score: math.MaxInt64})
	s.ErrorIs(err, model.ErrStatOutOfRange)

	detail, err := s.service.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, detail.GamesPlayed)
	s.Equal(model.MaxStat, detail.TotalScore)
	s.Equal(model.MaxStat, detail.BestScore)
}

func (s *ServiceSuite) TestSubmitGameSkipsLengthCheck() {
	// Auto-registration only needs a non-empty pseudo
	res := s.submit("x", 5, false)
	s.Equal("x", res.Player.Pseudo)
}

func (s *ServiceSuite) TestSubmitGamePublishesEvent() {
	s.submit("alice", 100, true)
	s.submit("alice", 50, false)

	s.Require().Len(s.publisher.events, 2)
	ev := s.publisher.events[1]
	s.Equal("alice", ev.Pseudo)
	s.Equal(50, ev.Score)
	s.False(ev.Won)
	s.Equal(2, ev.GamesPlayed)
	s.Equal(1, ev.Wins)
	s.Equal(150, ev.TotalScore)
	s.Equal(100, ev.BestScore)
}

func (s *ServiceSuite) TestSubmitGameSucceedsWhenPublishFails() {
	s.publisher.err = errors.New("nats down")

	res, err := s.service.SubmitGame(s.ctx, model.GameSubmission{Pseudo: "alice", Score: 5})
	s.Require().NoError(err)
	s.Equal(1, res.Player.GamesPlayed)
}

// GetPlayer tests

func (s *ServiceSuite) TestGetPlayerNotFound() {
	_, err := s.service.GetPlayer(s.ctx, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestGetPlayerRankAndRecentGames() {
	for i := 1; i <= 12; i++ {
		s.submit("alice", i*10, i%3 == 0)
	}
	s.submit("bob", 1000, true)
	for i := 0; i < 5; i++ {
		s.submit("carol", 1, true)
	}

	profile, err := s.service.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(12, profile.GamesPlayed)
	s.Equal(4, profile.Wins)
	s.Equal(2, profile.Rank, "carol has more wins")

	s.Require().Len(profile.RecentGames, model.PlayerRecentGamesLimit)
	s.Equal(120, profile.RecentGames[0].Score)
	s.Equal(30, profile.RecentGames[9].Score)
}

func (s *ServiceSuite) TestPlayerWithoutGamesIsExcludedFromLeaderboard() {
	_, err := s.service.RegisterPlayer(s.ctx, "idle")
	s.Require().NoError(err)
	s.submit("active", 10, false)

	profile, err := s.service.GetPlayer(s.ctx, "idle")
	s.Require().NoError(err)
	s.Zero(profile.GamesPlayed)
	s.Empty(profile.RecentGames)

	page, err := s.service.GetLeaderboard(s.ctx, model.PageRequest{})
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 1)
	s.Equal("active", page.Entries[0].Pseudo)
	s.Equal(2, page.Stats.TotalPlayers)
}

// Leaderboard tests

func (s *ServiceSuite) seedWinsAndScores(rows map[string][2]int) {
	for pseudo, r := range rows {
		wins, total := r[0], r[1]
		for i := 0; i < wins; i++ {
			s.submit(pseudo, 0, true)
		}
		s.submit(pseudo, total, false)
	}
}

func (s *ServiceSuite) TestLeaderboardWinsDominateScore() {
	s.seedWinsAndScores(map[string][2]int{
		"a": {3, 100},
		"b": {3, 150},
		"c": {2, 500},
	})

	page, err := s.service.GetLeaderboard(s.ctx, model.PageRequest{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 3)

	got := [][2]int{}
	for _, e := range page.Entries {
		got = append(got, [2]int{e.Wins, e.TotalScore})
	}
	s.Equal([][2]int{{3, 150}, {3, 100}, {2, 500}}, got)
	s.Equal(1, page.Entries[0].Rank)
	s.Equal(3, page.Entries[2].Rank)
	s.Equal(75.0, page.Entries[0].WinRate)
	s.Equal(66.7, page.Entries[2].WinRate)
}

func (s *ServiceSuite) TestLeaderboardPagination() {
	for _, p := range []string{"p1", "p2", "p3", "p4", "p5"} {
		s.submit(p, 10, true)
	}

	page, err := s.service.GetLeaderboard(s.ctx, model.PageRequest{Limit: 2, Offset: 0})
	s.Require().NoError(err)
	s.Len(page.Entries, 2)
	s.True(page.Pagination.HasMore)
	s.Equal(2, page.Pagination.Limit)

	page, err = s.service.GetLeaderboard(s.ctx, model.PageRequest{Limit: 2, Offset: 4})
	s.Require().NoError(err)
	s.Len(page.Entries, 1)
	s.False(page.Pagination.HasMore)
	s.Equal(4, page.Pagination.Offset)
}

func (s *ServiceSuite) TestLeaderboardExactPageHasNoMore() {
	s.submit("p1", 10, true)
	s.submit("p2", 10, true)

	page, err := s.service.GetLeaderboard(s.ctx, model.PageRequest{Limit: 2})
	s.Require().NoError(err)
	s.Len(page.Entries, 2)
	s.False(page.Pagination.HasMore)
}

func (s *ServiceSuite) TestLeaderboardNormalisesPage() {
	page, err := s.service.GetLeaderboard(s.ctx, model.PageRequest{Limit: 500, Offset: -4})
	s.Require().NoError(err)
	s.Equal(model.LeaderboardMaxLimit, page.Pagination.Limit)
	s.Equal(0, page.Pagination.Offset)

	page, err = s.service.GetLeaderboard(s.ctx, model.PageRequest{})
	s.Require().NoError(err)
	s.Equal(model.LeaderboardDefaultLimit, page.Pagination.Limit)
	s.NotNil(page.Entries)
}

func (s *ServiceSuite) TestTopLists() {
	s.submit("sniper", 900, false)
	s.submit("grinder", 10, true)
	s.submit("grinder", 10, true)

	wins, err := s.service.GetTopWins(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(wins, 2)
	s.Equal("grinder", wins[0].Pseudo)
	s.Equal(100.0, wins[0].WinRate)

	scores, err := s.service.GetTopScores(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(scores, 2)
	s.Equal("sniper", scores[0].Pseudo)
	s.Equal(900, scores[0].BestScore)
}

func (s *ServiceSuite) TestRecentGamesClampsLimit() {
	for i := 0; i < 60; i++ {
		s.submit("alice", i, false)
	}

	games, err := s.service.GetRecentGames(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(games, model.RecentGamesDefaultLimit)
	s.Equal(59, games[0].Score)
	s.Equal("alice", games[0].Pseudo)

	games, err = s.service.GetRecentGames(s.ctx, 500)
	s.Require().NoError(err)
	s.Len(games, model.RecentGamesMaxLimit)
}

// Cache behaviour

func (s *ServiceSuite) TestLeaderboardIsCachedUntilNextWrite() {
	s.submit("alice", 10, true)

	first, err := s.service.GetLeaderboard(s.ctx, model.PageRequest{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(first.Entries, 1)

	// Drift introduced behind the service's back is invisible while cached
	s.storage.OverwriteAggregates("alice", 7, 7, 7, 7)
	cachedPage, err := s.service.GetLeaderboard(s.ctx, model.PageRequest{Limit: 10})
	s.Require().NoError(err)
	s.Equal(1, cachedPage.Entries[0].Wins)

	// A submission invalidates the cache
	s.submit("bob", 1, false)
	fresh, err := s.service.GetLeaderboard(s.ctx, model.PageRequest{Limit: 10})
	s.Require().NoError(err)
	s.Equal(7, fresh.Entries[0].Wins)
	s.Len(fresh.Entries, 2)
}

func (s *ServiceSuite) TestRegisterInvalidatesStats() {
	stats, err := s.service.GetGlobalStats(s.ctx)
	s.Require().NoError(err)
	s.Zero(stats.TotalPlayers)

	_, err = s.service.RegisterPlayer(s.ctx, "alice")
	s.Require().NoError(err)

	stats, err = s.service.GetGlobalStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.TotalPlayers)
}

func (s *ServiceSuite) TestReadsSurviveCacheOutage() {
	s.submit("alice", 10, true)
	s.mini.Close()

	page, err := s.service.GetLeaderboard(s.ctx, model.PageRequest{Limit: 10})
	s.Require().NoError(err)
	s.Len(page.Entries, 1)

	_, err = s.service.SubmitGame(s.ctx, model.GameSubmission{Pseudo: "bob", Score: 3})
	s.NoError(err)
}

func (s *ServiceSuite) TestCorruptCacheEntryIsIgnored() {
	s.submit("alice", 10, true)
	s.Require().NoError(s.mini.Set("tb:lb:1:stats", "not json"))

	stats, err := s.service.GetGlobalStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.TotalPlayers)

	raw, err := s.mini.Get("tb:lb:1:stats")
	s.Require().NoError(err)
	s.True(json.Valid([]byte(raw)))
}

// Reconcile

func (s *ServiceSuite) TestReconcileRepairsDriftAndInvalidates() {
	s.submit("alice", 100, true)
	s.submit("alice", 20, false)

	_, err := s.service.GetLeaderboard(s.ctx, model.PageRequest{Limit: 10})
	s.Require().NoError(err)

	s.storage.OverwriteAggregates("alice", 5, 5, 5, 5)

	fixed, err := s.service.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, fixed)

	page, err := s.service.GetLeaderboard(s.ctx, model.PageRequest{Limit: 10})
	s.Require().NoError(err)
	s.Equal(1, page.Entries[0].Wins)
	s.Equal(2, page.Entries[0].GamesPlayed)
	s.Equal(120, page.Entries[0].TotalScore)

	fixed, err = s.service.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Zero(fixed)
}

func (s *ServiceSuite) TestInitSchema() {
	s.NoError(s.service.InitSchema(s.ctx))
	s.NoError(s.service.InitSchema(s.ctx))
}
