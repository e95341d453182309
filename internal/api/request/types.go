package request

import (
	"encoding/json"

	"github.com/mcoot/territorybattle/internal/model"
)

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Pseudo string `json:"pseudo"`
}

// SubmitGameRequest is the request body for recording a game.
// Omitted counters default to zero and an omitted won flag to false.
type SubmitGameRequest struct {
	Pseudo               string          `json:"pseudo"`
	Score                int             `json:"score"`
	TerritoriesConquered int             `json:"territories_conquered"`
	UnitsLost            int             `json:"units_lost"`
	UnitsKilled          int             `json:"units_killed"`
	TurnsPlayed          int             `json:"turns_played"`
	Won                  bool            `json:"won"`
	GameData             json.RawMessage `json:"game_data,omitempty"`
}

// Submission converts the request into the domain submission
func (r SubmitGameRequest) Submission() model.GameSubmission {
	data := r.GameData
	// An explicit JSON null is the same as no game data
	if string(data) == "null" {
		data = nil
	}
	return model.GameSubmission{
		Pseudo:               r.Pseudo,
		Score:                r.Score,
		TerritoriesConquered: r.TerritoriesConquered,
		UnitsLost:            r.UnitsLost,
		UnitsKilled:          r.UnitsKilled,
		TurnsPlayed:          r.TurnsPlayed,
		Won:                  r.Won,
		GameData:             data,
	}
}
