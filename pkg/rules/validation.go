// Package rules holds the pure predicates of the game: whether an
// attempted action is legal right now, and whether the game has been won.
// Nothing in this package mutates state; every reject carries a
// human-meaningful reason.
package rules

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

// Validation is the result of a rule predicate. Reason is set when OK is
// false, so the calling layer can render a message to the actor.
type Validation struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Valid is the passing validation.
func Valid() Validation {
	return Validation{OK: true}
}

// Invalid builds a failing validation with a formatted reason.
func Invalid(format string, args ...any) Validation {
	return Validation{Reason: fmt.Sprintf(format, args...)}
}

// Violation is a recoverable rule error surfaced to the actor. Game state
// is untouched when a Violation is returned.
type Violation struct {
	Reason string
}

func (v *Violation) Error() string {
	return "rule violation: " + v.Reason
}

// AsError converts a failed validation into a *Violation, or nil.
func (v Validation) AsError() error {
	if v.OK {
		return nil
	}
	return &Violation{Reason: v.Reason}
}

// Threshold is the yes-vote count needed for an execution. It is always
// computed from the alive count at vote-close time, not nomination time,
// because players can die between the two.
func Threshold(aliveCount int) int {
	return aliveCount/2 + 1
}

// CanNominate checks a nomination attempt. The ghost-vote rule does not
// extend to nominating: dead players never nominate.
func CanNominate(gs *state.GameState, nominatorID, nomineeID uuid.UUID) Validation {
	if gs.Phase != state.PhaseNominations {
		return Invalid("nominations are not open")
	}
	nominator := gs.PlayerByID(nominatorID)
	if nominator == nil {
		return Invalid("nominator is not in this game")
	}
	nominee := gs.PlayerByID(nomineeID)
	if nominee == nil {
		return Invalid("nominee is not in this game")
	}
	if !nominator.Alive {
		return Invalid("%s is dead and cannot nominate", nominator.Name)
	}
	if !nominee.Alive {
		return Invalid("%s is dead and cannot be nominated", nominee.Name)
	}
	if gs.HasNominatedToday(nominatorID) {
		return Invalid("%s has already nominated today", nominator.Name)
	}
	if gs.WasNominatedToday(nomineeID) {
		return Invalid("%s has already been nominated today", nominee.Name)
	}
	if nominator.Character == character.Butler {
		if v := butlerMayNominate(gs, nominator); !v.OK {
			return v
		}
	}
	return Valid()
}

// butlerMayNominate blocks the Butler until their designated master has
// made a nomination today.
func butlerMayNominate(gs *state.GameState, butler *state.Player) Validation {
	detail, ok := butler.Reminder(state.TokenButlerMaster)
	if !ok {
		return Valid()
	}
	masterID, err := uuid.Parse(detail)
	if err != nil {
		return Valid()
	}
	master := gs.PlayerByID(masterID)
	if master == nil || !master.Alive {
		return Valid()
	}
	if !gs.HasNominatedToday(masterID) {
		return Invalid("the butler must wait for %s to nominate first", master.Name)
	}
	return Valid()
}

// CanVote checks a vote attempt against an open nomination. The intended
// ballot value matters for the Butler, whose vote only counts alongside
// their master's.
func CanVote(gs *state.GameState, nom *state.Nomination, voterID uuid.UUID, yes bool) Validation {
	if nom == nil || nom.Resolved() {
		return Invalid("voting is closed")
	}
	voter := gs.PlayerByID(voterID)
	if voter == nil {
		return Invalid("voter is not in this game")
	}
	if !voter.Alive && voter.GhostVoteUsed {
		return Invalid("%s has already used their ghost vote", voter.Name)
	}
	if nom.HasVoted(voterID) {
		return Invalid("%s has already voted on this nomination", voter.Name)
	}
	if voter.Character == character.Butler {
		if v := butlerMayVote(gs, nom, voter, yes); !v.OK {
			return v
		}
	}
	return Valid()
}

// butlerMayVote invalidates the Butler's ballot unless their master has
// already voted the same way on this nomination.
func butlerMayVote(gs *state.GameState, nom *state.Nomination, butler *state.Player, yes bool) Validation {
	detail, ok := butler.Reminder(state.TokenButlerMaster)
	if !ok {
		return Valid()
	}
	masterID, err := uuid.Parse(detail)
	if err != nil {
		return Valid()
	}
	master := gs.PlayerByID(masterID)
	if master == nil || !master.Alive {
		return Valid()
	}
	masterVote, voted := nom.VoteBy(masterID)
	if !voted {
		return Invalid("the butler may only vote after %s has voted", master.Name)
	}
	if masterVote.Yes != yes {
		return Invalid("the butler may only vote the same way as %s", master.Name)
	}
	return Valid()
}

// CanExecute checks whether a closed-for-counting nomination reaches the
// execution threshold. At most one execution is allowed per day.
func CanExecute(gs *state.GameState, nom *state.Nomination) Validation {
	if nom == nil {
		return Invalid("no nomination to execute")
	}
	if nom.Resolved() {
		return Invalid("nomination is already resolved")
	}
	if gs.ExecutionsToday >= 1 {
		return Invalid("a player has already been executed today")
	}
	threshold := Threshold(gs.AliveCount())
	if yes := nom.YesVotes(); yes < threshold {
		return Invalid("insufficient votes: %d of %d required", yes, threshold)
	}
	return Valid()
}

// CanActAtNight checks whether a player's character may use its ability
// right now: the character must be scheduled for this night, the player
// alive unless the character explicitly acts when dead, and the ability
// not already used tonight.
func CanActAtNight(gs *state.GameState, playerID uuid.UUID) Validation {
	if gs.Phase != state.PhaseFirstNight && gs.Phase != state.PhaseNightActions {
		return Invalid("night actions are only allowed at night")
	}
	player := gs.PlayerByID(playerID)
	if player == nil {
		return Invalid("player is not in this game")
	}
	traits, ok := character.Lookup(player.Character)
	if !ok {
		return Invalid("%s has no character assigned", player.Name)
	}
	firstNight := gs.Phase == state.PhaseFirstNight
	if firstNight && !traits.FirstNight {
		return Invalid("the %s does not act on the first night", player.Character.DisplayName())
	}
	if !firstNight && !traits.EachNight {
		return Invalid("the %s does not act tonight", player.Character.DisplayName())
	}
	if !player.Alive && !traits.ActsWhenDead {
		return Invalid("%s is dead and cannot act", player.Name)
	}
	if gs.HasActedTonight(player.Character) {
		return Invalid("the %s has already acted tonight", player.Character.DisplayName())
	}
	return Valid()
}

// CheckTargets validates a target list against the character's declared
// contract: arity, self-exclusion and alive-only constraints. This is the
// single target check; both night-action validation and the ability
// resolver use it.
func CheckTargets(gs *state.GameState, actor *state.Player, targets []uuid.UUID) Validation {
	traits, ok := character.Lookup(actor.Character)
	if !ok {
		return Invalid("%s has no character assigned", actor.Name)
	}
	if len(targets) != traits.Arity {
		return Invalid("the %s chooses exactly %d player(s), got %d",
			actor.Character.DisplayName(), traits.Arity, len(targets))
	}
	seen := make(map[uuid.UUID]bool, len(targets))
	for _, id := range targets {
		if seen[id] {
			return Invalid("duplicate target")
		}
		seen[id] = true
		target := gs.PlayerByID(id)
		if target == nil {
			return Invalid("target is not in this game")
		}
		if id == actor.ID && !traits.AllowSelf {
			return Invalid("the %s cannot choose themself", actor.Character.DisplayName())
		}
		if !target.Alive && !traits.AllowDead {
			return Invalid("%s is dead and cannot be chosen", target.Name)
		}
	}
	return Valid()
}
