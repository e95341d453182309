package model

import (
	"encoding/json"
	"math"
	"time"
)

// MaxStat is the largest value accepted for any per-game counter
const MaxStat = math.MaxInt32

// GameID uniquely identifies a recorded game
type GameID int64

// Game is one submitted game result. Games are append-only.
type Game struct {
	ID                   GameID
	PlayerID             PlayerID
	Score                int
	TerritoriesConquered int
	UnitsLost            int
	UnitsKilled          int
	TurnsPlayed          int
	Won                  bool
	GameData             json.RawMessage
	CreatedAt            time.Time
}

// GameSubmission is a game result as reported by a client
type GameSubmission struct {
	Pseudo               string
	Score                int
	TerritoriesConquered int
	UnitsLost            int
	UnitsKilled          int
	TurnsPlayed          int
	Won                  bool
	GameData             json.RawMessage
}

// Validate checks the submission before it reaches storage
func (s GameSubmission) Validate() error {
	if s.Pseudo == "" {
		return ErrPseudoRequired
	}
	if err := checkPseudoChars(s.Pseudo); err != nil {
		return err
	}
	for _, v := range []int{s.Score, s.TerritoriesConquered, s.UnitsLost, s.UnitsKilled, s.TurnsPlayed} {
		if v < 0 {
			return ErrNegativeStat
		}
		if v > MaxStat {
			return ErrStatOutOfRange
		}
	}
	return nil
}

// GameFor builds the game row recorded for the given player
func (s GameSubmission) GameFor(playerID PlayerID, at time.Time) Game {
	return Game{
		PlayerID:             playerID,
		Score:                s.Score,
		TerritoriesConquered: s.TerritoriesConquered,
		UnitsLost:            s.UnitsLost,
		UnitsKilled:          s.UnitsKilled,
		TurnsPlayed:          s.TurnsPlayed,
		Won:                  s.Won,
		GameData:             s.GameData,
		CreatedAt:            at,
	}
}

// RecentGame is a game joined with the owning player's pseudo
type RecentGame struct {
	Game
	Pseudo string
}
