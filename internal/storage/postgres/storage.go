package postgres

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/territorybattle/internal/model"
	"github.com/mcoot/territorybattle/internal/storage"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and verifies the connection
func New(ctx context.Context, cfg Config) (*Storage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, model.NewStoreError("parse config", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, model.NewStoreError("connect", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, model.NewStoreError("ping", err)
	}

	return &Storage{pool: pool}, nil
}

// NewWithPool wraps an existing pool (for testing)
func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Init creates tables and indexes if they do not exist
func (s *Storage) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return model.NewStoreError("init schema", err)
}

func (s *Storage) Ping(ctx context.Context) error {
	return model.NewStoreError("ping", s.pool.Ping(ctx))
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// Player operations

const playerColumns = `id, pseudo, wins, games_played, total_score, best_score, created_at, updated_at`

func scanPlayer(row pgx.Row) (*model.Player, error) {
	p := &model.Player{}
	err := row.Scan(
		&p.ID, &p.Pseudo, &p.Wins, &p.GamesPlayed,
		&p.TotalScore, &p.BestScore, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Storage) CreatePlayer(ctx context.Context, pseudo string, at time.Time) (*model.Player, error) {
	p, err := scanPlayer(s.pool.QueryRow(ctx, `
		INSERT INTO players (pseudo, created_at, updated_at)
		VALUES ($1, $2, $2)
		RETURNING `+playerColumns, pseudo, at))

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, model.ErrPseudoTaken
	}
	if err != nil {
		return nil, model.NewStoreError("create player", err)
	}
	return p, nil
}

func (s *Storage) GetPlayerByPseudo(ctx context.Context, pseudo string) (*model.Player, error) {
	p, err := scanPlayer(s.pool.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE pseudo = $1`, pseudo))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, model.NewStoreError("get player", err)
	}
	return p, nil
}

func (s *Storage) PlayerRank(ctx context.Context, id model.PlayerID) (int, error) {
	var rank int
	err := s.pool.QueryRow(ctx, `
		SELECT rank FROM (
			SELECT id, RANK() OVER (ORDER BY wins DESC, total_score DESC) AS rank
			FROM players
		) ranked
		WHERE id = $1`, id).Scan(&rank)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, model.ErrPlayerNotFound
	}
	if err != nil {
		return 0, model.NewStoreError("player rank", err)
	}
	return rank, nil
}

func (s *Storage) PlayerRecentGames(ctx context.Context, id model.PlayerID, limit int) ([]model.Game, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE player_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, id, limit)
	if err != nil {
		return nil, model.NewStoreError("player recent games", err)
	}
	defer rows.Close()

	games := []model.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, model.NewStoreError("player recent games", err)
		}
		games = append(games, *g)
	}
	return games, model.NewStoreError("player recent games", rows.Err())
}

// Game operations

const gameColumns = `id, player_id, score, territories_conquered, units_lost, units_killed, turns_played, won, game_data, created_at`

func scanGame(row pgx.Row, extra ...any) (*model.Game, error) {
	g := &model.Game{}
	var data []byte
	dest := []any{
		&g.ID, &g.PlayerID, &g.Score, &g.TerritoriesConquered,
		&g.UnitsLost, &g.UnitsKilled, &g.TurnsPlayed, &g.Won, &data, &g.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		g.GameData = data
	}
	return g, nil
}

// RecordGame registers the pseudo if needed, inserts the game and bumps the
// player's counters in a single transaction
func (s *Storage) RecordGame(ctx context.Context, sub model.GameSubmission, at time.Time) (*model.Player, error) {
	var player *model.Player

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var id model.PlayerID
		err := tx.QueryRow(ctx, `
			INSERT INTO players (pseudo, created_at, updated_at)
			VALUES ($1, $2, $2)
			ON CONFLICT (pseudo) DO NOTHING
			RETURNING id`, sub.Pseudo, at).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			err = tx.QueryRow(ctx, `SELECT id FROM players WHERE pseudo = $1`, sub.Pseudo).Scan(&id)
		}
		if err != nil {
			return err
		}

		var data any
		if len(sub.GameData) > 0 {
			data = string(sub.GameData)
		}
		g := sub.GameFor(id, at)
		if _, err := tx.Exec(ctx, `
			INSERT INTO games (player_id, score, territories_conquered, units_lost, units_killed, turns_played, won, game_data, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			g.PlayerID, g.Score, g.TerritoriesConquered, g.UnitsLost,
			g.UnitsKilled, g.TurnsPlayed, g.Won, data, g.CreatedAt,
		); err != nil {
			return err
		}

		wins := 0
		if sub.Won {
			wins = 1
		}
		player, err = scanPlayer(tx.QueryRow(ctx, `
			UPDATE players SET
				games_played = games_played + 1,
				wins = wins + $2,
				total_score = total_score + $3,
				best_score = GREATEST(best_score, $3),
				updated_at = $4
			WHERE id = $1
			RETURNING `+playerColumns, id, wins, sub.Score, at))
		return err
	})
	if err != nil {
		return nil, model.NewStoreError("record game", err)
	}
	return player, nil
}

// Ranking reads

func (s *Storage) Leaderboard(ctx context.Context, page model.PageRequest) ([]model.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pseudo, wins, games_played, total_score, best_score,
			DENSE_RANK() OVER (ORDER BY wins DESC, total_score DESC) AS rank
		FROM players
		WHERE games_played > 0
		ORDER BY wins DESC, total_score DESC, id ASC
		LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, model.NewStoreError("leaderboard", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.Pseudo, &e.Wins, &e.GamesPlayed, &e.TotalScore, &e.BestScore, &e.Rank); err != nil {
			return nil, model.NewStoreError("leaderboard", err)
		}
		e.WinRate = model.WinRate(e.Wins, e.GamesPlayed)
		entries = append(entries, e)
	}
	return entries, model.NewStoreError("leaderboard", rows.Err())
}

func (s *Storage) TopByWins(ctx context.Context, limit int) ([]model.WinsEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pseudo, wins, games_played
		FROM players
		WHERE games_played > 0
		ORDER BY wins DESC, games_played ASC, id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, model.NewStoreError("top wins", err)
	}
	defer rows.Close()

	entries := []model.WinsEntry{}
	for rows.Next() {
		var e model.WinsEntry
		if err := rows.Scan(&e.Pseudo, &e.Wins, &e.GamesPlayed); err != nil {
			return nil, model.NewStoreError("top wins", err)
		}
		e.WinRate = model.WinRate(e.Wins, e.GamesPlayed)
		entries = append(entries, e)
	}
	return entries, model.NewStoreError("top wins", rows.Err())
}

func (s *Storage) TopByBestScore(ctx context.Context, limit int) ([]model.ScoreEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pseudo, best_score, total_score, games_played
		FROM players
		WHERE games_played > 0
		ORDER BY best_score DESC, id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, model.NewStoreError("top scores", err)
	}
	defer rows.Close()

	entries := []model.ScoreEntry{}
	for rows.Next() {
		var e model.ScoreEntry
		if err := rows.Scan(&e.Pseudo, &e.BestScore, &e.TotalScore, &e.GamesPlayed); err != nil {
			return nil, model.NewStoreError("top scores", err)
		}
		entries = append(entries, e)
	}
	return entries, model.NewStoreError("top scores", rows.Err())
}

func (s *Storage) RecentGames(ctx context.Context, limit int) ([]model.RecentGame, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT g.id, g.player_id, g.score, g.territories_conquered, g.units_lost,
			g.units_killed, g.turns_played, g.won, g.game_data, g.created_at, p.pseudo
		FROM games g
		JOIN players p ON p.id = g.player_id
		ORDER BY g.created_at DESC, g.id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, model.NewStoreError("recent games", err)
	}
	defer rows.Close()

	games := []model.RecentGame{}
	for rows.Next() {
		var pseudo string
		g, err := scanGame(rows, &pseudo)
		if err != nil {
			return nil, model.NewStoreError("recent games", err)
		}
		games = append(games, model.RecentGame{Game: *g, Pseudo: pseudo})
	}
	return games, model.NewStoreError("recent games", rows.Err())
}

func (s *Storage) GlobalStats(ctx context.Context) (model.GlobalStats, error) {
	var stats model.GlobalStats
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(games_played), 0), COALESCE(SUM(wins), 0)
		FROM players`).Scan(&stats.TotalPlayers, &stats.TotalGames, &stats.TotalWins)
	if err != nil {
		return model.GlobalStats{}, model.NewStoreError("global stats", err)
	}
	return stats, nil
}

// ReconcileAggregates recomputes every player's counters from the games table
// and rewrites the rows that drifted
func (s *Storage) ReconcileAggregates(ctx context.Context, at time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		WITH derived AS (
			SELECT p.id,
				COUNT(g.id) AS games_played,
				COUNT(g.id) FILTER (WHERE g.won) AS wins,
				COALESCE(SUM(g.score), 0) AS total_score,
				GREATEST(COALESCE(MAX(g.score), 0), 0) AS best_score
			FROM players p
			LEFT JOIN games g ON g.player_id = p.id
			GROUP BY p.id
		)
		UPDATE players p SET
			wins = d.wins,
			games_played = d.games_played,
			total_score = d.total_score,
			best_score = d.best_score,
			updated_at = $1
		FROM derived d
		WHERE p.id = d.id
			AND (p.wins, p.games_played, p.total_score, p.best_score)
				IS DISTINCT FROM (d.wins, d.games_played, d.total_score, d.best_score)`, at)
	if err != nil {
		return 0, model.NewStoreError("reconcile", err)
	}
	return int(tag.RowsAffected()), nil
}
