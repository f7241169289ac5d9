package rules

import (
	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

// Causes of death recorded on players.
const (
	DiedByExecution = "execution"
	DiedByDemon     = "demon"
	DiedByVirgin    = "virgin"
	DiedBySlayer    = "slayer"
)

// EvaluateWin checks the win conditions in order and returns the first
// match, or nil while the game continues. It is pure and idempotent so the
// orchestrator can call it speculatively (for example to warn before a
// risky execution) as well as after every death.
//
// Order matters: a Saint execution loses for good even when it also drops
// the town to parity, and a dead demon wins for good even when evil
// minions remain alive.
func EvaluateWin(gs *state.GameState) *state.Result {
	// Executing the Saint is an instant loss for the good team.
	for _, p := range gs.Players {
		if p.Character == character.Saint && !p.Alive && p.DiedBy == DiedByExecution {
			return &state.Result{
				Team:   character.TeamEvil,
				Reason: "the Saint was executed",
			}
		}
	}

	// Good wins the moment no demon is left standing.
	demonAlive := false
	for _, p := range gs.Players {
		if p.Alive && p.Character.IsDemon() {
			demonAlive = true
			break
		}
	}
	if !demonAlive {
		return &state.Result{
			Team:   character.TeamGood,
			Reason: "the demon has been slain",
		}
	}

	// Evil wins on majority or parity, or when two or fewer remain.
	aliveGood := gs.AliveByTeam(character.TeamGood)
	aliveEvil := gs.AliveByTeam(character.TeamEvil)
	if aliveGood+aliveEvil <= 2 || aliveEvil >= aliveGood {
		return &state.Result{
			Team:   character.TeamEvil,
			Reason: "evil overwhelms the town",
		}
	}

	// Mayor: the day ends with three alive and nobody executed.
	if gs.Phase == state.PhaseDusk && gs.AliveCount() == 3 && gs.ExecutionsToday == 0 {
		if mayor := gs.PlayerByRole(character.Mayor); mayor != nil && mayor.Alive && !mayor.Corrupt() {
			return &state.Result{
				Team:   character.TeamGood,
				Reason: "the Mayor survives the final day without an execution",
			}
		}
	}

	return nil
}
