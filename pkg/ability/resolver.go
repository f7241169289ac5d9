// Package ability resolves character night abilities: what a character
// experiences and whether the delivered information is truthful, given
// poison and drunk status. Resolution never mutates game state; effects
// are returned for the orchestrator to apply.
package ability

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/rules"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

// ContractError reports an ability invoked with targets violating its
// declared contract. This is a programming error in the caller, not a
// player-facing condition; the orchestrator degrades it to a rule
// violation on production paths.
type ContractError struct {
	Character character.Role
	Reason    string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("ability contract violated for %s: %s", e.Character, e.Reason)
}

// Resolve runs one character's night ability and returns its immutable
// outcome. Callers must resolve in night order and apply each outcome's
// effects before resolving the next actor, so poison lands before the
// poisoned character's own ability fires.
func Resolve(gs *state.GameState, actor *state.Player, targets []uuid.UUID, policy Policy) (*state.AbilityOutcome, error) {
	traits, ok := character.Lookup(actor.Character)
	if !ok {
		return nil, &ContractError{Character: actor.Character, Reason: "unknown character"}
	}
	if !traits.FirstNight && !traits.EachNight {
		return nil, &ContractError{Character: actor.Character, Reason: "character has no night ability"}
	}
	if v := rules.CheckTargets(gs, actor, targets); !v.OK {
		return nil, &ContractError{Character: actor.Character, Reason: v.Reason}
	}

	outcome := &state.AbilityOutcome{
		Character: actor.Character,
		Actor:     actor.ID,
		Targets:   targets,
		Night:     gs.NightNumber,
		Truthful:  true,
	}

	corrupt := actor.Corrupt()
	switch actor.Character {
	case character.Washerwoman:
		resolveRoleReveal(gs, actor, outcome, policy, corrupt, character.Townsfolk, gs.Script.Townsfolk)
	case character.Librarian:
		resolveRoleReveal(gs, actor, outcome, policy, corrupt, character.Outsider, gs.Script.Outsiders)
	case character.Investigator:
		resolveRoleReveal(gs, actor, outcome, policy, corrupt, character.Minion, gs.Script.Minions)
	case character.Chef:
		resolveChef(gs, outcome, policy, corrupt)
	case character.Empath:
		resolveEmpath(gs, actor, outcome, policy, corrupt)
	case character.FortuneTeller:
		resolveFortuneTeller(gs, targets, outcome, policy, corrupt)
	case character.Undertaker:
		resolveUndertaker(gs, outcome, policy, corrupt)
	case character.Ravenkeeper:
		resolveRavenkeeper(gs, targets, outcome, policy, corrupt)
	case character.Spy:
		resolveSpy(gs, outcome)
	case character.Monk:
		outcome.Effects = append(outcome.Effects, state.Effect{Kind: state.EffectProtect, Target: targets[0]})
	case character.Butler:
		outcome.Effects = append(outcome.Effects, state.Effect{Kind: state.EffectMaster, Target: targets[0]})
	case character.Poisoner:
		outcome.Effects = append(outcome.Effects, state.Effect{Kind: state.EffectPoison, Target: targets[0]})
	case character.Imp:
		outcome.Effects = append(outcome.Effects, state.Effect{Kind: state.EffectKill, Target: targets[0]})
	default:
		return nil, &ContractError{Character: actor.Character, Reason: "character has no night ability"}
	}

	// A poisoned Monk protects no one, a poisoned Poisoner poisons no
	// one: corrupt effect-bearing abilities fizzle, except the demon
	// kill, which always lands.
	if corrupt && actor.Character != character.Imp {
		outcome.Effects = nil
	}

	return outcome, nil
}

// resolveRoleReveal handles the Washerwoman-class "one of these two
// players is the X" first-night reveals.
func resolveRoleReveal(gs *state.GameState, actor *state.Player, outcome *state.AbilityOutcome,
	policy Policy, corrupt bool, want character.RoleType, pool []character.Role) {

	var candidates []*state.Player
	for _, p := range gs.Players {
		if p.ID == actor.ID {
			continue
		}
		if t, ok := character.Lookup(p.Character); ok && t.Type == want {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) == 0 && !corrupt {
		outcome.Info = fmt.Sprintf("there are no %s players for you to learn", want)
		return
	}

	var shown *state.Player
	var role character.Role
	fabricated := false
	if len(candidates) > 0 {
		shown = policy.Pick(1, candidates)[0]
		role = shown.Character
	} else {
		// Corrupt with nothing real to show: fabricate entirely.
		shown = policy.Pick(1, othersThan(gs, actor))[0]
		role = pool[0]
		fabricated = true
	}

	if corrupt {
		original := role
		role = policy.FalseRole(role, pool)
		outcome.Truthful = role == original && !fabricated
	}

	decoys := othersThan(gs, actor, shown)
	decoy := policy.Pick(1, decoys)[0]
	pair := policy.Pick(2, []*state.Player{shown, decoy})
	outcome.Info = fmt.Sprintf("either %s or %s is the %s",
		pair[0].Name, pair[1].Name, role.DisplayName())
}

func othersThan(gs *state.GameState, exclude ...*state.Player) []*state.Player {
	skip := make(map[uuid.UUID]bool, len(exclude))
	for _, p := range exclude {
		if p != nil {
			skip[p.ID] = true
		}
	}
	var out []*state.Player
	for _, p := range gs.Players {
		if !skip[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// resolveChef counts adjacent pairs of living evil players around the
// circle.
func resolveChef(gs *state.GameState, outcome *state.AbilityOutcome, policy Policy, corrupt bool) {
	alive := gs.Alive()
	truth := 0
	for i := range alive {
		if len(alive) < 3 && i == len(alive)-1 {
			break // a two-player circle has one adjacency, not two
		}
		next := alive[(i+1)%len(alive)]
		if len(alive) > 1 && alive[i].Team == character.TeamEvil && next.Team == character.TeamEvil {
			truth++
		}
	}
	value := truth
	if corrupt {
		value = policy.FalseCount(truth, 0, 2)
		outcome.Truthful = value == truth
	}
	outcome.Info = fmt.Sprintf("%d pair(s) of evil players sit next to each other", value)
}

// resolveEmpath counts living evil players among the actor's nearest
// living neighbors.
func resolveEmpath(gs *state.GameState, actor *state.Player, outcome *state.AbilityOutcome, policy Policy, corrupt bool) {
	left, right := gs.AliveNeighbors(actor)
	truth := 0
	for _, n := range []*state.Player{left, right} {
		if n != nil && n.Team == character.TeamEvil {
			truth++
		}
	}
	value := truth
	if corrupt {
		value = policy.FalseCount(truth, 0, 2)
		outcome.Truthful = value == truth
	}
	outcome.Info = fmt.Sprintf("%d of your living neighbors are evil", value)
}

// resolveFortuneTeller answers whether either chosen player is the demon.
// A poisoned or drunk teller gets the flipped answer, never an illegal
// value.
func resolveFortuneTeller(gs *state.GameState, targets []uuid.UUID, outcome *state.AbilityOutcome, policy Policy, corrupt bool) {
	truth := false
	for _, id := range targets {
		if p := gs.PlayerByID(id); p != nil && p.Character.IsDemon() {
			truth = true
		}
	}
	value := truth
	if corrupt {
		value = policy.FalseBool(truth)
		outcome.Truthful = value == truth
	}
	if value {
		outcome.Info = "yes, one of them is the demon"
	} else {
		outcome.Info = "no, neither is the demon"
	}
}

// resolveUndertaker reveals the character of today's executed player.
func resolveUndertaker(gs *state.GameState, outcome *state.AbilityOutcome, policy Policy, corrupt bool) {
	if gs.LastExecuted == nil {
		outcome.Info = "no one was executed today"
		return
	}
	executed := gs.PlayerByID(*gs.LastExecuted)
	if executed == nil {
		outcome.Info = "no one was executed today"
		return
	}
	role := executed.Character
	if corrupt {
		role = policy.FalseRole(role, allRoles(gs.Script))
		outcome.Truthful = role == executed.Character
	}
	outcome.Info = fmt.Sprintf("%s was the %s", executed.Name, role.DisplayName())
}

// resolveRavenkeeper lets the dying Ravenkeeper learn one player's
// character.
func resolveRavenkeeper(gs *state.GameState, targets []uuid.UUID, outcome *state.AbilityOutcome, policy Policy, corrupt bool) {
	target := gs.PlayerByID(targets[0])
	role := target.Character
	if corrupt {
		role = policy.FalseRole(role, allRoles(gs.Script))
		outcome.Truthful = role == target.Character
	}
	outcome.Info = fmt.Sprintf("%s is the %s", target.Name, role.DisplayName())
}

// resolveSpy shows the full grimoire. The Spy sees ground truth even when
// poisoned; there is no legal-looking false grimoire.
func resolveSpy(gs *state.GameState, outcome *state.AbilityOutcome) {
	var sb strings.Builder
	for _, p := range gs.Players {
		status := "alive"
		if !p.Alive {
			status = "dead"
		}
		fmt.Fprintf(&sb, "%s: %s (%s, %s); ", p.Name, p.Character.DisplayName(), p.Team, status)
	}
	bluffs := make([]string, 0, len(gs.DemonBluffs))
	for _, b := range gs.DemonBluffs {
		bluffs = append(bluffs, b.DisplayName())
	}
	fmt.Fprintf(&sb, "demon bluffs: %s", strings.Join(bluffs, ", "))
	outcome.Info = sb.String()
}

func allRoles(s character.Script) []character.Role {
	out := make([]character.Role, 0)
	out = append(out, s.Good()...)
	out = append(out, s.Minions...)
	out = append(out, s.Demons...)
	return out
}
