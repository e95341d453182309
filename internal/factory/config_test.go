package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/territorybattle/internal/config"
	"github.com/mcoot/territorybattle/internal/model"
	"github.com/mcoot/territorybattle/internal/scheduler"
	"github.com/mcoot/territorybattle/internal/testutil"
)

func loadConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	cfg, err := config.FromLookup(func(key string) string { return env[key] })
	require.NoError(t, err)
	return cfg
}

func TestFromConfigMemoryOnly(t *testing.T) {
	fc := FromConfig(loadConfig(t, nil), nil)

	assert.Equal(t, StorageTypeMemory, fc.StorageType)
	assert.Nil(t, fc.PostgresConfig)
	assert.Nil(t, fc.RedisConfig)
	assert.Nil(t, fc.NATSConfig)
}

func TestFromConfigAllBackends(t *testing.T) {
	fc := FromConfig(loadConfig(t, map[string]string{
		"STORAGE_TYPE": "postgres",
		"DATABASE_URL": "postgres://db/tb",
		"DB_MAX_CONNS": "4",
		"REDIS_URL":    "redis://cache:6379",
		"CACHE_TTL":    "1m",
		"NATS_URL":     "nats://bus:4222",
		"NATS_TOKEN":   "secret",
	}), nil)

	require.NotNil(t, fc.PostgresConfig)
	assert.Equal(t, "postgres://db/tb", fc.PostgresConfig.URL)
	assert.Equal(t, int32(4), fc.PostgresConfig.MaxConns)

	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://cache:6379", fc.RedisConfig.URL)
	assert.Equal(t, time.Minute, fc.RedisConfig.TTL)
	assert.Equal(t, "tb:lb", fc.RedisConfig.KeyPrefix)

	require.NotNil(t, fc.NATSConfig)
	assert.Equal(t, "nats://bus:4222", fc.NATSConfig.URL)
	assert.Equal(t, "secret", fc.NATSConfig.Token)
}

func TestRegisterJobsWithoutBucket(t *testing.T) {
	app := NewTestApp()
	sched := scheduler.New(testutil.NopLogger())
	ctx := context.Background()

	require.NoError(t, app.RegisterJobs(ctx, loadConfig(t, nil), sched, testutil.NopLogger()))
	assert.Equal(t, 1, sched.Scheduled())
	assert.Error(t, sched.RunNow(ctx, scheduler.JobSnapshot))

	_, err := app.Stats.SubmitGame(ctx, model.GameSubmission{Pseudo: "alice", Score: 40, Won: true})
	require.NoError(t, err)
	app.Memory.OverwriteAggregates("alice", 0, 0, 0, 0)

	require.NoError(t, sched.RunNow(ctx, scheduler.JobReconcile))
	p, err := app.Stats.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 40, p.TotalScore)
}

func TestRegisterJobsWithBucket(t *testing.T) {
	app := NewTestApp()
	sched := scheduler.New(testutil.NopLogger())

	cfg := loadConfig(t, map[string]string{
		"S3_BUCKET":            "snapshots",
		"S3_ENDPOINT":          "http://127.0.0.1:1",
		"S3_ACCESS_KEY_ID":     "key",
		"S3_SECRET_ACCESS_KEY": "secret",
		"RECONCILE_SCHEDULE":   "off",
	})

	require.NoError(t, app.RegisterJobs(context.Background(), cfg, sched, testutil.NopLogger()))
	// Reconcile is registered but unscheduled; snapshot runs hourly
	assert.Equal(t, 1, sched.Scheduled())
}
