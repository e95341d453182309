package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/territorybattle/internal/model"
	"github.com/mcoot/territorybattle/internal/storage"
	"github.com/mcoot/territorybattle/internal/storage/storagetest"
)

// These tests need a disposable database; every test truncates both tables.
const testDatabaseEnv = "TB_TEST_DATABASE_URL"

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	url := os.Getenv(testDatabaseEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}

	ctx := context.Background()
	s, err := New(ctx, Config{URL: url, MaxConns: 4})
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx))

	_, err = s.pool.Exec(ctx, `TRUNCATE games, players RESTART IDENTITY`)
	require.NoError(t, err)
	return s
}

func TestStorageSuite(t *testing.T) {
	if os.Getenv(testDatabaseEnv) == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}

	suite.Run(t, &storagetest.Suite{
		NewStorage: func() storage.Storage { return newTestStorage(t) },
	})
}

func TestReconcileRepairsDrift(t *testing.T) {
	s := newTestStorage(t)
	defer s.Close()
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.RecordGame(ctx, model.GameSubmission{Pseudo: "alice", Score: 100, Won: true}, at)
	require.NoError(t, err)
	_, err = s.RecordGame(ctx, model.GameSubmission{Pseudo: "alice", Score: 30}, at)
	require.NoError(t, err)

	_, err = s.pool.Exec(ctx, `UPDATE players SET wins = 9, games_played = 9 WHERE pseudo = 'alice'`)
	require.NoError(t, err)

	fixed, err := s.ReconcileAggregates(ctx, at.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, fixed)

	p, err := s.GetPlayerByPseudo(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, p.Wins)
	require.Equal(t, 2, p.GamesPlayed)
	require.Equal(t, 130, p.TotalScore)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), Config{URL: "://not a url"})
	require.Error(t, err)

	var storeErr *model.StoreError
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, "parse config", storeErr.Op)
}
