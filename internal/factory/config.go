package factory

import (
	"context"
	"log/slog"

	rediscache "github.com/mcoot/territorybattle/internal/cache/redis"
	"github.com/mcoot/territorybattle/internal/config"
	"github.com/mcoot/territorybattle/internal/events"
	"github.com/mcoot/territorybattle/internal/scheduler"
	"github.com/mcoot/territorybattle/internal/snapshot"
	"github.com/mcoot/territorybattle/internal/storage/postgres"
)

// FromConfig translates environment settings into a factory Config.
// Optional backends stay nil when their URL is unset.
func FromConfig(cfg config.Config, logger *slog.Logger) Config {
	fc := Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
	}

	if cfg.StorageType == StorageTypePostgres {
		pg := postgres.DefaultConfig()
		pg.URL = cfg.DatabaseURL
		pg.MaxConns = cfg.DBMaxConns
		fc.PostgresConfig = &pg
	}

	if cfg.RedisURL != "" {
		rc := rediscache.DefaultConfig()
		rc.URL = cfg.RedisURL
		rc.TTL = cfg.CacheTTL
		fc.RedisConfig = &rc
	}

	if cfg.NATSURL != "" {
		fc.NATSConfig = &events.NATSConfig{
			URL:     cfg.NATSURL,
			Token:   cfg.NATSToken,
			Subject: cfg.NATSSubject,
		}
	}

	return fc
}

// RegisterJobs adds the periodic jobs to s: aggregate reconciliation always,
// snapshot export only when a bucket is configured
func (a *App) RegisterJobs(ctx context.Context, cfg config.Config, s *scheduler.Scheduler, logger *slog.Logger) error {
	err := s.Add(scheduler.JobReconcile, cfg.ReconcileSchedule, func(ctx context.Context) error {
		_, err := a.Stats.Reconcile(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if !cfg.S3.Enabled() {
		return nil
	}

	uploader, err := snapshot.NewS3Uploader(ctx, snapshot.S3Config{
		Endpoint:        cfg.S3.Endpoint,
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
	if err != nil {
		return err
	}

	exporter := snapshot.NewExporter(a.Stats, uploader, cfg.S3.Prefix, a.Clock, logger)
	return s.Add(scheduler.JobSnapshot, cfg.SnapshotSchedule, func(ctx context.Context) error {
		_, err := exporter.Export(ctx)
		return err
	})
}
