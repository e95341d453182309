package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/territorybattle/internal/api"
	"github.com/mcoot/territorybattle/internal/api/response"
	"github.com/mcoot/territorybattle/internal/cli"
	"github.com/mcoot/territorybattle/internal/config"
	"github.com/mcoot/territorybattle/internal/factory"
	"github.com/mcoot/territorybattle/internal/scheduler"
	"github.com/mcoot/territorybattle/internal/testutil"
)

// cliRunner drives the tbctl command tree in-process
type cliRunner struct {
	serverURL string
	profile   string
	queueFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()
	dir := t.TempDir()
	return &cliRunner{
		serverURL: serverURL,
		profile:   filepath.Join(dir, "pseudo"),
		queueFile: filepath.Join(dir, "queue.jsonl"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	cmd := cli.NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--server", r.serverURL,
		"--profile", r.profile,
		"--queue-file", r.queueFile,
		"--output", "json",
	}, args...))

	err := cmd.Execute()
	return out.String(), err
}

type testServer struct {
	url      string
	app      *factory.App
	sched    *scheduler.Scheduler
	redis    *miniredis.Miniredis
	shutdown func()
}

// startTestServer wires the server the way cmd/server does, from environment
// settings, with Redis provided by miniredis
func startTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	mr := miniredis.RunT(t)
	env := map[string]string{
		"HOST":        "127.0.0.1",
		"PORT":        strconv.Itoa(port),
		"REDIS_URL":   "redis://" + mr.Addr(),
		"API_VERSION": "e2e",
		"RATE_LIMIT":  "1000",
	}
	cfg, err := config.FromLookup(func(key string) string { return env[key] })
	require.NoError(t, err)

	logger := testutil.NopLogger()
	ctx := context.Background()

	app, err := factory.New(ctx, factory.FromConfig(cfg, logger))
	require.NoError(t, err)
	require.NoError(t, app.Stats.InitSchema(ctx))

	sched := scheduler.New(logger)
	require.NoError(t, app.RegisterJobs(ctx, cfg, sched, logger))

	router := api.NewRouter(api.RouterConfig{
		Logger:    logger,
		Stats:     app.Stats,
		Version:   cfg.Version,
		RateLimit: cfg.RateLimit,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + server.Addr()
	waitForServer(t, serverURL+"/api/health")

	return &testServer{
		url:   serverURL,
		app:   app,
		sched: sched,
		redis: mr,
		shutdown: func() {
			_ = server.Shutdown(context.Background())
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatalf("server did not become ready at %s", url)
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()
	runner := newCLIRunner(t, ts.url)

	out, err := runner.run("health")
	require.NoError(t, err, out)

	health := decode[response.HealthResponse](t, out)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "e2e", health.Version)
}

func TestCLI_SeasonFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	alice := newCLIRunner(t, ts.url)
	bob := newCLIRunner(t, ts.url)

	_, err := alice.run("register", "alice")
	require.NoError(t, err)
	_, err = bob.run("register", "bob")
	require.NoError(t, err)

	// Read once so a cached leaderboard exists before the writes
	out, err := alice.run("leaderboard")
	require.NoError(t, err)
	assert.Empty(t, decode[response.LeaderboardResponse](t, out).Leaderboard)

	for _, args := range [][]string{
		{"submit", "--score", "800", "--won", "--territories", "9"},
		{"submit", "--score", "200"},
	} {
		_, err := alice.run(args...)
		require.NoError(t, err)
	}
	_, err = bob.run("submit", "--score", "1200", "--won")
	require.NoError(t, err)
	_, err = bob.run("submit", "--score", "900", "--won")
	require.NoError(t, err)

	out, err = alice.run("leaderboard")
	require.NoError(t, err)
	board := decode[response.LeaderboardResponse](t, out)
	require.Len(t, board.Leaderboard, 2)
	assert.Equal(t, "bob", board.Leaderboard[0].Pseudo)
	assert.Equal(t, 100.0, board.Leaderboard[0].WinRate)
	assert.Equal(t, "alice", board.Leaderboard[1].Pseudo)
	assert.Equal(t, 50.0, board.Leaderboard[1].WinRate)
	assert.Equal(t, response.Stats{TotalPlayers: 2, TotalGames: 4, TotalWins: 3}, board.Stats)

	out, err = alice.run("player")
	require.NoError(t, err)
	detail := decode[response.PlayerDetail](t, out)
	assert.Equal(t, 2, detail.Rank)
	assert.Len(t, detail.RecentGames, 2)

	assert.NotEmpty(t, ts.redis.Keys(), "reads should populate the cache")
}

func TestCLI_OfflineQueueReplays(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	runner := newCLIRunner(t, ts.url)
	_, err := runner.run("register", "carol")
	require.NoError(t, err)

	offline := &cliRunner{serverURL: "http://127.0.0.1:1", profile: runner.profile, queueFile: runner.queueFile}
	_, err = offline.run("submit", "--score", "50")
	require.NoError(t, err)

	out, err := runner.run("queue", "flush")
	require.NoError(t, err)
	assert.Equal(t, 1, decode[cli.FlushResult](t, out).Sent)

	out, err = runner.run("stats")
	require.NoError(t, err)
	assert.Equal(t, 1, decode[response.Stats](t, out).TotalGames)
}

func TestCLI_ReconcileJob(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()
	runner := newCLIRunner(t, ts.url)

	_, err := runner.run("submit", "--pseudo", "dave", "--score", "10", "--won")
	require.NoError(t, err)

	require.NoError(t, ts.sched.RunNow(context.Background(), scheduler.JobReconcile))

	out, err := runner.run("player", "dave")
	require.NoError(t, err)
	assert.Equal(t, 1, decode[response.PlayerDetail](t, out).Wins)
}
