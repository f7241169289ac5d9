package engine

import "github.com/google/uuid"

// ActionType discriminates submitted actions. External layers (speech,
// console, HTTP) submit already-structured actions; the engine never
// parses free text.
type ActionType string

const (
	// Storyteller / window control.
	ActionStartGame        ActionType = "start_game"
	ActionBeginNominations ActionType = "begin_nominations"
	ActionCloseVoting      ActionType = "close_voting"
	ActionEndDay           ActionType = "end_day"

	// Player decisions.
	ActionNightChoice ActionType = "night_choice"
	ActionNominate    ActionType = "nominate"
	ActionVote        ActionType = "vote"
	ActionSlayerShot  ActionType = "slayer_shot"
)

// Action is one submitted decision. Player actions carry the acting
// player's ID; control actions carry neither player nor target.
type Action struct {
	Type    ActionType  `json:"type"`
	Player  uuid.UUID   `json:"player,omitempty"`
	Target  uuid.UUID   `json:"target,omitempty"`  // nominee or shot target
	Targets []uuid.UUID `json:"targets,omitempty"` // night choice targets
	Vote    bool        `json:"vote,omitempty"`
}
