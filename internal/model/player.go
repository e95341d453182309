package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Pseudo length bounds, counted in characters
const (
	PseudoMinLength = 2
	PseudoMaxLength = 20
)

// PlayerID uniquely identifies a player
type PlayerID int64

// Player is a registered pseudo together with its aggregate counters.
// Counters are updated incrementally on every recorded game.
type Player struct {
	ID          PlayerID
	Pseudo      string
	Wins        int
	GamesPlayed int
	TotalScore  int
	BestScore   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Apply folds a single game result into the aggregate counters
func (p *Player) Apply(score int, won bool, at time.Time) {
	p.GamesPlayed++
	if won {
		p.Wins++
	}
	p.TotalScore += score
	if score > p.BestScore {
		p.BestScore = score
	}
	p.UpdatedAt = at
}

// RanksAbove reports whether p sorts strictly before other under the
// canonical ordering (wins desc, then total score desc)
func (p *Player) RanksAbove(other *Player) bool {
	if p.Wins != other.Wins {
		return p.Wins > other.Wins
	}
	return p.TotalScore > other.TotalScore
}

// PlayerProfile is a player with its computed rank and latest games
type PlayerProfile struct {
	Player
	Rank        int
	RecentGames []Game
}

// ValidatePseudo checks the constraints applied at registration
func ValidatePseudo(pseudo string) error {
	n := utf8.RuneCountInString(pseudo)
	if n < PseudoMinLength || n > PseudoMaxLength {
		return ErrInvalidPseudo
	}
	return checkPseudoChars(pseudo)
}

// A pseudo is a single path segment in /api/player/:pseudo
func checkPseudoChars(pseudo string) error {
	if strings.Contains(pseudo, "/") {
		return ErrPseudoSlash
	}
	return nil
}
