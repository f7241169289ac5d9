// Package ballot runs the nomination lifecycle: open, collect votes,
// close as executed or spared. Functions here mutate game state and are
// called only by the orchestrator, which owns the single writable state.
package ballot

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/rules"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

// Open validates and records a nomination, then fires the Virgin trigger
// when it applies: a townsfolk nominating the Virgin for the first time
// dies on the spot. The returned player is the nominator if the trigger
// killed them, else nil.
func Open(gs *state.GameState, nominatorID, nomineeID uuid.UUID) (*state.Nomination, *state.Player, error) {
	if gs.CurrentNomination() != nil {
		return nil, nil, (&rules.Violation{Reason: "another nomination is still open"})
	}
	if v := rules.CanNominate(gs, nominatorID, nomineeID); !v.OK {
		return nil, nil, v.AsError()
	}

	nominator := gs.PlayerByID(nominatorID)
	nominee := gs.PlayerByID(nomineeID)
	nom := &state.Nomination{
		Nominator: nominatorID,
		Nominee:   nomineeID,
		Day:       gs.DayNumber,
		State:     state.NominationOpen,
	}
	gs.Nominations = append(gs.Nominations, nom)
	gs.AddEvent("nomination", fmt.Sprintf("%s nominates %s", nominator.Name, nominee.Name),
		nominatorID, nomineeID)

	killed := virginTrigger(gs, nominator, nominee)
	return nom, killed, nil
}

// virginTrigger spends the Virgin's once-per-game ability on their first
// nomination. A drunk or poisoned Virgin spends the ability with no
// effect.
func virginTrigger(gs *state.GameState, nominator, nominee *state.Player) *state.Player {
	if nominee.Character != character.Virgin {
		return nil
	}
	if _, spent := nominee.Reminder(state.TokenVirginSpent); spent {
		return nil
	}
	nominee.AddReminder(state.TokenVirginSpent, character.Virgin, "")

	traits, ok := character.Lookup(nominator.Character)
	townsfolkNominator := ok && traits.Type == character.Townsfolk
	if nominee.Corrupt() || !townsfolkNominator {
		return nil
	}

	nominator.Alive = false
	nominator.DiedBy = rules.DiedByVirgin
	gs.AddEvent("death", fmt.Sprintf("%s dies for nominating the Virgin", nominator.Name), nominator.ID)
	gs.RecordOutcome(&state.AbilityOutcome{
		Character: character.Virgin,
		Actor:     nominee.ID,
		Targets:   []uuid.UUID{nominator.ID},
		Night:     gs.NightNumber,
		Truthful:  true,
		Effects:   []state.Effect{{Kind: state.EffectKill, Target: nominator.ID}},
	})
	return nominator
}

// CastVote records one ballot on the open nomination. A dead voter spends
// their ghost vote; the flip is permanent regardless of how the
// nomination resolves.
func CastVote(gs *state.GameState, voterID uuid.UUID, yes bool) error {
	nom := gs.CurrentNomination()
	if v := rules.CanVote(gs, nom, voterID, yes); !v.OK {
		return v.AsError()
	}
	voter := gs.PlayerByID(voterID)
	ghost := !voter.Alive
	nom.Votes = append(nom.Votes, state.Vote{Voter: voterID, Yes: yes, Ghost: ghost})
	if ghost {
		voter.GhostVoteUsed = true
	}
	word := "no"
	if yes {
		word = "yes"
	}
	gs.AddEvent("vote", fmt.Sprintf("%s votes %s", voter.Name, word), voterID)
	return nil
}

// Close seals the open nomination, computing the threshold from the alive
// count at this moment. A forced close (window deadline) goes through
// this same path; there is no separate timeout close. Returns whether an
// execution was applied.
func Close(gs *state.GameState) (*state.Nomination, bool, error) {
	nom := gs.CurrentNomination()
	if nom == nil {
		return nil, false, &rules.Violation{Reason: "no open nomination to close"}
	}

	if executed := rules.CanExecute(gs, nom).OK; executed {
		nom.State = state.NominationExecuted
		applyExecution(gs, nom)
		return nom, true, nil
	}
	nom.State = state.NominationSpared
	nominee := gs.PlayerByID(nom.Nominee)
	gs.AddEvent("vote_closed", fmt.Sprintf("%s is spared (%d yes, needed %d)",
		nominee.Name, nom.YesVotes(), rules.Threshold(gs.AliveCount())), nom.Nominee)
	return nom, false, nil
}

func applyExecution(gs *state.GameState, nom *state.Nomination) {
	nominee := gs.PlayerByID(nom.Nominee)
	nominee.Alive = false
	nominee.DiedBy = rules.DiedByExecution
	gs.ExecutionsToday++
	id := nominee.ID
	gs.LastExecuted = &id
	gs.AddEvent("execution", fmt.Sprintf("%s is executed (%d yes votes)",
		nominee.Name, nom.YesVotes()), nominee.ID)
}
