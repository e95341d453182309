// Package events announces recorded games to other services.
package events

import (
	"context"
	"time"

	"github.com/mcoot/territorybattle/internal/model"
)

// DefaultSubject is where game results are published
const DefaultSubject = "territorybattle.game.recorded"

// GameRecorded is published after a game has been stored
type GameRecorded struct {
	Pseudo      string    `json:"pseudo"`
	Score       int       `json:"score"`
	Won         bool      `json:"won"`
	Wins        int       `json:"wins"`
	GamesPlayed int       `json:"games_played"`
	TotalScore  int       `json:"total_score"`
	BestScore   int       `json:"best_score"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// NewGameRecorded builds the event from a submission and the player's updated counters
func NewGameRecorded(sub model.GameSubmission, p *model.Player, at time.Time) GameRecorded {
	return GameRecorded{
		Pseudo:      p.Pseudo,
		Score:       sub.Score,
		Won:         sub.Won,
		Wins:        p.Wins,
		GamesPlayed: p.GamesPlayed,
		TotalScore:  p.TotalScore,
		BestScore:   p.BestScore,
		RecordedAt:  at,
	}
}

// Publisher delivers events
type Publisher interface {
	PublishGameRecorded(ctx context.Context, ev GameRecorded) error
	Close() error
}

// Nop discards every event
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) PublishGameRecorded(context.Context, GameRecorded) error { return nil }

func (Nop) Close() error { return nil }
