package state

import (
	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
)

// EffectKind is a state mutation requested by an ability. The resolver
// never mutates GameState itself; it returns effects for the orchestrator
// to apply, so a half-applied ability can never be observed.
type EffectKind string

const (
	EffectKill    EffectKind = "kill"    // queue a night kill (resolved at dawn)
	EffectPoison  EffectKind = "poison"  // poison until next dusk
	EffectProtect EffectKind = "protect" // protect from the demon tonight
	EffectPromote EffectKind = "promote" // change a player's character
	EffectMaster  EffectKind = "master"  // butler designates a master
)

// Effect is one inert mutation description.
type Effect struct {
	Kind   EffectKind     `json:"kind"`
	Target uuid.UUID      `json:"target"`
	Role   character.Role `json:"role,omitempty"` // promote only
}

// AbilityOutcome is the immutable record of one ability firing. Outcomes
// are appended to the game history and never mutated afterward; later
// abilities (Undertaker, end-of-game reveal) query this log.
type AbilityOutcome struct {
	Character character.Role `json:"character"`
	Actor     uuid.UUID      `json:"actor"`
	Targets   []uuid.UUID    `json:"targets,omitempty"`
	Night     int            `json:"night"`

	// Info is the delivered information, empty when the ability carries
	// none. Truthful records whether the delivered value matched ground
	// truth; a poisoned actor may receive a false but legal-looking value.
	Info     string `json:"info,omitempty"`
	Truthful bool   `json:"truthful"`

	Effects []Effect `json:"effects,omitempty"`
}
