// Package snapshot exports the leaderboard as a static JSON document.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/mcoot/territorybattle/internal/dependencies/clock"
	"github.com/mcoot/territorybattle/internal/model"
)

// LatestName is the object name that always holds the newest snapshot
const LatestName = "latest.json"

// Source provides the leaderboard data to export
type Source interface {
	GetLeaderboard(ctx context.Context, page model.PageRequest) (*model.LeaderboardPage, error)
}

// Uploader stores an object under key
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// Document is the exported JSON layout
type Document struct {
	GeneratedAt time.Time `json:"generated_at"`
	Stats       Stats     `json:"stats"`
	Leaderboard []Entry   `json:"leaderboard"`
}

type Stats struct {
	TotalPlayers int `json:"total_players"`
	TotalGames   int `json:"total_games"`
	TotalWins    int `json:"total_wins"`
}

type Entry struct {
	Rank        int     `json:"rank"`
	Pseudo      string  `json:"pseudo"`
	Wins        int     `json:"wins"`
	GamesPlayed int     `json:"games_played"`
	TotalScore  int     `json:"total_score"`
	BestScore   int     `json:"best_score"`
	WinRate     float64 `json:"win_rate"`
}

// Exporter renders snapshots and hands them to an Uploader
type Exporter struct {
	source   Source
	uploader Uploader
	prefix   string
	clock    clock.Clock
	logger   *slog.Logger
}

// NewExporter creates an Exporter writing objects under prefix
func NewExporter(source Source, uploader Uploader, prefix string, clock clock.Clock, logger *slog.Logger) *Exporter {
	return &Exporter{
		source:   source,
		uploader: uploader,
		prefix:   prefix,
		clock:    clock,
		logger:   logger,
	}
}

// Build renders the current top of the leaderboard
func (e *Exporter) Build(ctx context.Context) (*Document, error) {
	page, err := e.source.GetLeaderboard(ctx, model.PageRequest{Limit: model.SnapshotLimit})
	if err != nil {
		return nil, err
	}

	doc := &Document{
		GeneratedAt: e.clock.Now(),
		Stats: Stats{
			TotalPlayers: page.Stats.TotalPlayers,
			TotalGames:   page.Stats.TotalGames,
			TotalWins:    page.Stats.TotalWins,
		},
		Leaderboard: make([]Entry, 0, len(page.Entries)),
	}
	for _, le := range page.Entries {
		doc.Leaderboard = append(doc.Leaderboard, Entry{
			Rank:        le.Rank,
			Pseudo:      le.Pseudo,
			Wins:        le.Wins,
			GamesPlayed: le.GamesPlayed,
			TotalScore:  le.TotalScore,
			BestScore:   le.BestScore,
			WinRate:     le.WinRate,
		})
	}
	return doc, nil
}

// Export uploads a timestamped snapshot and refreshes latest.json.
// It returns the keys written.
func (e *Exporter) Export(ctx context.Context) ([]string, error) {
	doc, err := e.Build(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	keys := []string{
		e.key(doc.GeneratedAt.UTC().Format("20060102T150405Z") + ".json"),
		e.key(LatestName),
	}
	for _, key := range keys {
		if err := e.uploader.Upload(ctx, key, body, "application/json"); err != nil {
			return nil, fmt.Errorf("upload %s: %w", key, err)
		}
	}

	e.logger.Info("leaderboard snapshot exported",
		slog.String("key", keys[0]),
		slog.Int("entries", len(doc.Leaderboard)),
	)
	return keys, nil
}

func (e *Exporter) key(name string) string {
	if e.prefix == "" {
		return name
	}
	return path.Join(e.prefix, name)
}
