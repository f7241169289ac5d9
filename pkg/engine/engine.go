// Package engine sequences the game: setup, nights, days, nominations,
// votes and executions, until a win condition is met. The engine owns the
// only writable reference to the game state; every other component sees
// read-only state or returns inert effects for the engine to apply.
//
// The engine is single-threaded by design: all submitted actions must be
// serialized through one consumer (see internal/worker). Validation
// happens when an action is handled, not when it was submitted, because
// state may have changed in between.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/ability"
	"github.com/jwebster45206/clocktower-engine/pkg/ballot"
	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/rules"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

// Engine drives one game.
type Engine struct {
	gs       *state.GameState
	policy   ability.Policy
	narrator NarrationSink
	recorder Recorder
	log      *slog.Logger

	// queue holds the roles still to act tonight, in night order.
	queue       []character.Role
	diedTonight map[uuid.UUID]bool

	// strict panics on ability contract violations instead of degrading
	// them to rule violations. Enabled in tests.
	strict bool
}

// New wraps an existing game state. The state may come from NewGame or
// from a persisted snapshot.
func New(gs *state.GameState, policy ability.Policy, log *slog.Logger) *Engine {
	return &Engine{
		gs:          gs,
		policy:      policy,
		narrator:    NopSink{},
		recorder:    NopRecorder{},
		log:         log,
		diedTonight: make(map[uuid.UUID]bool),
	}
}

// WithNarrator sets the announcement sink.
func (e *Engine) WithNarrator(n NarrationSink) *Engine {
	e.narrator = n
	return e
}

// WithRecorder sets the snapshot recorder.
func (e *Engine) WithRecorder(r Recorder) *Engine {
	e.recorder = r
	return e
}

// WithStrict makes ability contract violations panic instead of
// surfacing as rule violations.
func (e *Engine) WithStrict() *Engine {
	e.strict = true
	return e
}

// State returns the full game state, hidden information included. Access
// must be restricted to storyteller-trusted collaborators.
func (e *Engine) State() *state.GameState {
	return e.gs
}

// PublicView returns the game as any seat sees it.
func (e *Engine) PublicView() state.PublicGameView {
	return e.gs.PublicView()
}

// PrivateView returns one player's view, or nil for unknown IDs.
func (e *Engine) PrivateView(playerID uuid.UUID) *state.PrivatePlayerView {
	return e.gs.PrivateView(playerID)
}

// PendingNightActor returns the player whose night decision the engine is
// waiting on, if any. Collaborators use this to prompt the right player.
func (e *Engine) PendingNightActor() (*state.Player, bool) {
	if e.gs.Phase != state.PhaseFirstNight && e.gs.Phase != state.PhaseNightActions {
		return nil, false
	}
	if len(e.queue) == 0 {
		return nil, false
	}
	p := e.gs.PlayerByRole(e.queue[0])
	if p == nil {
		return nil, false
	}
	return p, true
}

// Resume rebuilds the in-memory night queue from a reloaded snapshot.
// Roles that already resolved this night fall out of the rebuilt queue
// the same way they do during live play. A Ravenkeeper still owed their
// reveal is recognized from the snapshot: dead to the demon with no
// recorded outcome.
func (e *Engine) Resume(ctx context.Context) {
	first := e.gs.Phase == state.PhaseFirstNight
	if !first && e.gs.Phase != state.PhaseNightActions {
		return
	}
	if rk := e.gs.PlayerByRole(character.Ravenkeeper); rk != nil && !rk.Alive &&
		rk.DiedBy == rules.DiedByDemon && !e.hasOutcome(character.Ravenkeeper) {
		e.diedTonight[rk.ID] = true
	}
	e.queue = e.gs.Script.NightOrder(first, e.gs.RolesInPlay())
	e.advanceNight(ctx)
}

func (e *Engine) hasOutcome(r character.Role) bool {
	for _, o := range e.gs.Outcomes {
		if o.Character == r {
			return true
		}
	}
	return false
}

// Phase transition table. A transition fires only when its guard holds;
// a nil guard always holds. Transitions not in this table are illegal.
type transition struct {
	from  state.Phase
	to    state.Phase
	guard func(e *Engine) bool
}

var transitions = []transition{
	{state.PhaseSetup, state.PhaseFirstNight, playersReady},
	{state.PhaseFirstNight, state.PhaseFirstNightInfo, nightDone},
	{state.PhaseFirstNightInfo, state.PhaseDawn, nil},
	{state.PhaseDawn, state.PhaseDayDiscussion, nil},
	{state.PhaseDayDiscussion, state.PhaseNominations, nil},
	{state.PhaseDayDiscussion, state.PhaseDusk, nil},
	{state.PhaseNominations, state.PhaseVoting, openNomination},
	{state.PhaseNominations, state.PhaseDusk, nil},
	{state.PhaseVoting, state.PhaseExecution, nil},
	{state.PhaseVoting, state.PhaseNominations, nil},
	{state.PhaseExecution, state.PhaseDusk, nil},
	{state.PhaseDusk, state.PhaseNight, nil},
	{state.PhaseNight, state.PhaseNightActions, nil},
	{state.PhaseNightActions, state.PhaseDawn, nightDone},
}

func playersReady(e *Engine) bool {
	if len(e.gs.Players) < 5 {
		return false
	}
	for _, p := range e.gs.Players {
		if p.Character == "" {
			return false
		}
	}
	return true
}

func nightDone(e *Engine) bool { return len(e.queue) == 0 }

func openNomination(e *Engine) bool { return e.gs.CurrentNomination() != nil }

func (e *Engine) transitionTo(to state.Phase) error {
	for _, t := range transitions {
		if t.from != e.gs.Phase || t.to != to {
			continue
		}
		if t.guard != nil && !t.guard(e) {
			return &rules.Violation{Reason: fmt.Sprintf("cannot move from %s to %s yet", e.gs.Phase, to)}
		}
		e.gs.Phase = to
		return nil
	}
	return &rules.Violation{Reason: fmt.Sprintf("no transition from %s to %s", e.gs.Phase, to)}
}

// HandleAction validates and applies one submitted action against the
// current state. Every action either transitions state or returns a
// *rules.Violation explaining why it was illegal; legal actions are never
// silently dropped.
func (e *Engine) HandleAction(ctx context.Context, a Action) error {
	if e.gs.Phase == state.PhaseGameOver {
		return &rules.Violation{Reason: "the game is over"}
	}

	var err error
	switch a.Type {
	case ActionStartGame:
		err = e.startGame(ctx)
	case ActionNightChoice:
		err = e.nightChoice(ctx, a)
	case ActionBeginNominations:
		err = e.beginNominations(ctx)
	case ActionNominate:
		err = e.nominate(ctx, a)
	case ActionVote:
		err = e.vote(ctx, a)
	case ActionCloseVoting:
		err = e.closeVoting(ctx, a)
	case ActionEndDay:
		err = e.endDay(ctx)
	case ActionSlayerShot:
		err = e.slayerShot(ctx, a)
	default:
		err = &rules.Violation{Reason: fmt.Sprintf("unknown action type %q", a.Type)}
	}
	if err != nil {
		return err
	}

	e.recorder.Record(ctx, e.gs)
	return nil
}

func (e *Engine) startGame(ctx context.Context) error {
	if err := e.gs.Validate(); err != nil {
		return err
	}
	if err := e.transitionTo(state.PhaseFirstNight); err != nil {
		return err
	}
	e.gs.NightNumber = 1
	e.gs.AddEvent("phase", "the first night begins")
	e.narrate(ctx, "Night falls. Everyone, close your eyes.")
	e.beginNight(ctx, true)
	return nil
}

// beginNight resets per-night bookkeeping and builds the night order
// queue, then resolves as far as possible.
func (e *Engine) beginNight(ctx context.Context, first bool) {
	e.gs.ActedTonight = nil
	e.gs.PendingKills = nil
	e.diedTonight = make(map[uuid.UUID]bool)
	e.queue = e.gs.Script.NightOrder(first, e.gs.RolesInPlay())
	e.advanceNight(ctx)
}

// advanceNight walks the queue: ineligible actors are skipped, abilities
// with no choice to make resolve immediately, and the first actor who
// owes a decision suspends the walk until their NightChoice arrives.
func (e *Engine) advanceNight(ctx context.Context) {
	for len(e.queue) > 0 {
		role := e.queue[0]
		actor := e.gs.PlayerByRole(role)
		if actor == nil || e.skipTonight(actor) {
			e.queue = e.queue[1:]
			continue
		}
		traits, _ := character.Lookup(role)
		if traits.Arity > 0 {
			return // suspension point: awaiting this actor's choice
		}
		if err := e.resolveNight(ctx, actor, nil); err != nil {
			e.log.Error("night ability failed to resolve",
				"character", role, "error", err)
		}
		e.queue = e.queue[1:]
	}
	e.finishNight(ctx)
}

// skipTonight applies the eligibility rules the validator can't see from
// a submitted action: the Ravenkeeper only wakes on the night they die.
func (e *Engine) skipTonight(p *state.Player) bool {
	if p.Character == character.Ravenkeeper {
		return p.Alive || !e.diedTonight[p.ID]
	}
	return !rules.CanActAtNight(e.gs, p.ID).OK
}

func (e *Engine) nightChoice(ctx context.Context, a Action) error {
	pending, ok := e.PendingNightActor()
	if !ok {
		return &rules.Violation{Reason: "no night action is awaited"}
	}
	if pending.ID != a.Player {
		return &rules.Violation{Reason: "it is not your turn to act"}
	}
	if pending.Character != character.Ravenkeeper {
		if v := rules.CanActAtNight(e.gs, a.Player); !v.OK {
			return v.AsError()
		}
	}
	if err := e.resolveNight(ctx, pending, a.Targets); err != nil {
		return err
	}
	e.queue = e.queue[1:]
	e.advanceNight(ctx)
	return nil
}

// resolveNight runs one ability, applies its effects atomically and
// delivers its information. Effects land before the next actor resolves,
// so poison applied earlier in the night order corrupts later actors.
func (e *Engine) resolveNight(ctx context.Context, actor *state.Player, targets []uuid.UUID) error {
	outcome, err := ability.Resolve(e.gs, actor, targets, e.policy)
	if err != nil {
		if e.strict {
			panic(err)
		}
		var cerr *ability.ContractError
		if errors.As(err, &cerr) {
			return &rules.Violation{Reason: cerr.Reason}
		}
		return err
	}

	e.applyEffects(outcome)
	if outcome.Info != "" {
		actor.AddInfo(e.gs.NightNumber, actor.Character, outcome.Info, outcome.Truthful)
	}
	e.gs.RecordOutcome(outcome)
	e.gs.MarkActed(actor.Character)
	e.gs.AddEvent("night_action", fmt.Sprintf("the %s acts", actor.Character.DisplayName()), actor.ID)
	return nil
}

// applyEffects mutates state for one outcome. All of an outcome's effects
// apply together; a half-applied ability is never observable.
func (e *Engine) applyEffects(o *state.AbilityOutcome) {
	for _, eff := range o.Effects {
		target := e.gs.PlayerByID(eff.Target)
		if target == nil {
			continue
		}
		switch eff.Kind {
		case state.EffectKill:
			e.gs.PendingKills = append(e.gs.PendingKills, eff.Target)
		case state.EffectPoison:
			target.Poisoned = true
		case state.EffectProtect:
			target.Protected = true
		case state.EffectPromote:
			target.Character = eff.Role
			target.Team = eff.Role.Team()
		case state.EffectMaster:
			actor := e.gs.PlayerByID(o.Actor)
			if actor != nil {
				actor.RemoveReminder(state.TokenButlerMaster, character.Butler)
				actor.AddReminder(state.TokenButlerMaster, character.Butler, eff.Target.String())
			}
		}
	}
}

// finishNight resolves all pending kills simultaneously, so a protection
// granted later in the same night still cancels an earlier kill. If the
// Ravenkeeper died tonight they act before dawn breaks.
func (e *Engine) finishNight(ctx context.Context) {
	e.resolveKills(ctx)
	if e.gs.Phase == state.PhaseGameOver {
		return
	}

	if rk := e.gs.PlayerByRole(character.Ravenkeeper); rk != nil &&
		e.diedTonight[rk.ID] && !e.gs.HasActedTonight(character.Ravenkeeper) {
		e.queue = []character.Role{character.Ravenkeeper}
		return
	}

	if e.gs.Phase == state.PhaseFirstNight {
		if err := e.transitionTo(state.PhaseFirstNightInfo); err != nil {
			return
		}
		e.gs.AddEvent("phase", "first night information delivered")
	}
	e.enterDawn(ctx)
}

func (e *Engine) resolveKills(ctx context.Context) {
	kills := e.gs.PendingKills
	e.gs.PendingKills = nil
	for _, id := range kills {
		target := e.gs.PlayerByID(id)
		if target == nil || !target.Alive {
			continue
		}
		if target.Protected {
			e.gs.AddEvent("protection", fmt.Sprintf("%s was attacked but protected", target.Name), id)
			continue
		}
		if target.Character == character.Soldier && !target.Corrupt() {
			e.gs.AddEvent("protection", fmt.Sprintf("%s shrugged off the attack", target.Name), id)
			continue
		}
		target.Alive = false
		target.DiedBy = rules.DiedByDemon
		e.diedTonight[id] = true
		e.gs.AddEvent("death", fmt.Sprintf("%s died in the night", target.Name), id)
		if target.Character.IsDemon() {
			e.promoteOnDemonDeath(ctx)
		}
		if e.checkWin(ctx) {
			return
		}
	}
}

// promoteOnDemonDeath hands the demon mantle to the Scarlet Woman when
// the demon dies at night with five or more players still alive.
func (e *Engine) promoteOnDemonDeath(ctx context.Context) {
	sw := e.gs.PlayerByRole(character.ScarletWoman)
	if sw == nil || !sw.Alive || sw.Corrupt() || e.gs.AliveCount() < 5 {
		return
	}
	outcome := &state.AbilityOutcome{
		Character: character.ScarletWoman,
		Actor:     sw.ID,
		Night:     e.gs.NightNumber,
		Truthful:  true,
		Effects:   []state.Effect{{Kind: state.EffectPromote, Target: sw.ID, Role: character.Imp}},
	}
	e.applyEffects(outcome)
	e.gs.RecordOutcome(outcome)
	sw.AddInfo(e.gs.NightNumber, character.ScarletWoman, "you are the Imp now", true)
	e.gs.AddEvent("promotion", fmt.Sprintf("%s becomes the Imp", sw.Name), sw.ID)
}

func (e *Engine) enterDawn(ctx context.Context) {
	if err := e.transitionTo(state.PhaseDawn); err != nil {
		return
	}
	e.gs.DayNumber++
	e.gs.ExecutionsToday = 0
	e.gs.LastExecuted = nil
	e.gs.AddEvent("phase", fmt.Sprintf("day %d dawns", e.gs.DayNumber))

	var died []string
	for _, p := range e.gs.Players {
		if e.diedTonight[p.ID] {
			died = append(died, p.Name)
		}
	}
	if len(died) > 0 {
		e.narrate(ctx, fmt.Sprintf("Day %d. In the night, we lost: %s.",
			e.gs.DayNumber, strings.Join(died, ", ")))
	} else {
		e.narrate(ctx, fmt.Sprintf("Day %d. Nobody died in the night.", e.gs.DayNumber))
	}

	_ = e.transitionTo(state.PhaseDayDiscussion)
}

func (e *Engine) beginNominations(ctx context.Context) error {
	if err := e.transitionTo(state.PhaseNominations); err != nil {
		return err
	}
	threshold := rules.Threshold(e.gs.AliveCount())
	e.gs.AddEvent("phase", "nominations open")
	e.narrate(ctx, fmt.Sprintf("Nominations are open. %d votes are needed to execute.", threshold))
	return nil
}

func (e *Engine) nominate(ctx context.Context, a Action) error {
	if e.gs.Phase != state.PhaseNominations {
		return &rules.Violation{Reason: "nominations are not open"}
	}
	nom, virginKill, err := ballot.Open(e.gs, a.Player, a.Target)
	if err != nil {
		return err
	}
	nominator := e.gs.PlayerByID(nom.Nominator)
	nominee := e.gs.PlayerByID(nom.Nominee)
	e.narrate(ctx, fmt.Sprintf("%s has nominated %s.", nominator.Name, nominee.Name))

	if virginKill != nil {
		e.narrate(ctx, fmt.Sprintf("%s dies instantly.", virginKill.Name))
		if e.checkWin(ctx) {
			return nil
		}
	}
	return e.transitionTo(state.PhaseVoting)
}

func (e *Engine) vote(ctx context.Context, a Action) error {
	if e.gs.Phase != state.PhaseVoting {
		return &rules.Violation{Reason: "there is no vote in progress"}
	}
	return ballot.CastVote(e.gs, a.Player, a.Vote)
}

// closeVoting seals the open nomination. Both an organic close and a
// window-deadline force-close arrive here; there is no separate timeout
// path. A close that names a nominee only applies to that nomination, so
// a deadline for an already-closed vote cannot seal a later one.
func (e *Engine) closeVoting(ctx context.Context, a Action) error {
	if e.gs.Phase != state.PhaseVoting {
		return &rules.Violation{Reason: "there is no vote in progress"}
	}
	if a.Target != uuid.Nil {
		if nom := e.gs.CurrentNomination(); nom == nil || nom.Nominee != a.Target {
			return &rules.Violation{Reason: "that nomination has already closed"}
		}
	}
	nom, executed, err := ballot.Close(e.gs)
	if err != nil {
		return err
	}
	nominee := e.gs.PlayerByID(nom.Nominee)

	if !executed {
		e.narrate(ctx, fmt.Sprintf("%s is spared with %d votes.", nominee.Name, nom.YesVotes()))
		return e.transitionTo(state.PhaseNominations)
	}

	if err := e.transitionTo(state.PhaseExecution); err != nil {
		return err
	}
	e.narrate(ctx, fmt.Sprintf("%s has been executed with %d votes.", nominee.Name, nom.YesVotes()))
	if e.checkWin(ctx) {
		return nil
	}
	return e.enterDusk(ctx)
}

func (e *Engine) endDay(ctx context.Context) error {
	if e.gs.Phase != state.PhaseDayDiscussion && e.gs.Phase != state.PhaseNominations {
		return &rules.Violation{Reason: "the day cannot end right now"}
	}
	return e.enterDusk(ctx)
}

// enterDusk closes the day: the Mayor's no-execution condition is checked
// before nominations are cleared and the next night begins.
func (e *Engine) enterDusk(ctx context.Context) error {
	if err := e.transitionTo(state.PhaseDusk); err != nil {
		return err
	}
	e.gs.AddEvent("phase", fmt.Sprintf("day %d ends", e.gs.DayNumber))
	if e.checkWin(ctx) {
		return nil
	}

	e.gs.Nominations = nil
	for _, p := range e.gs.Players {
		p.Poisoned = false
		p.Protected = false
	}

	if err := e.transitionTo(state.PhaseNight); err != nil {
		return err
	}
	e.gs.NightNumber++
	if err := e.transitionTo(state.PhaseNightActions); err != nil {
		return err
	}
	e.gs.AddEvent("phase", fmt.Sprintf("night %d falls", e.gs.NightNumber))
	e.narrate(ctx, "Night falls. Everyone, close your eyes.")
	e.beginNight(ctx, false)
	return nil
}

// slayerShot handles the Slayer's public once-per-game shot. Any living
// player may claim the shot; it only works for the real, sober Slayer.
func (e *Engine) slayerShot(ctx context.Context, a Action) error {
	if e.gs.Phase != state.PhaseDayDiscussion && e.gs.Phase != state.PhaseNominations {
		return &rules.Violation{Reason: "the slayer can only act during the day"}
	}
	shooter := e.gs.PlayerByID(a.Player)
	if shooter == nil {
		return &rules.Violation{Reason: "shooter is not in this game"}
	}
	if !shooter.Alive {
		return &rules.Violation{Reason: "dead players cannot use the slayer ability"}
	}
	target := e.gs.PlayerByID(a.Target)
	if target == nil {
		return &rules.Violation{Reason: "target is not in this game"}
	}

	e.narrate(ctx, fmt.Sprintf("%s claims the Slayer and shoots %s!", shooter.Name, target.Name))

	if shooter.Character != character.Slayer {
		e.narrate(ctx, "Nothing happens.")
		return nil
	}
	if _, spent := shooter.Reminder(state.TokenSlayerSpent); spent {
		return &rules.Violation{Reason: "the slayer ability is already spent"}
	}
	shooter.AddReminder(state.TokenSlayerSpent, character.Slayer, "")

	works := !shooter.Corrupt() && target.Alive && target.Character.IsDemon()
	e.gs.RecordOutcome(&state.AbilityOutcome{
		Character: character.Slayer,
		Actor:     shooter.ID,
		Targets:   []uuid.UUID{target.ID},
		Night:     e.gs.NightNumber,
		Truthful:  true,
	})
	if !works {
		e.narrate(ctx, "Nothing happens.")
		return nil
	}

	target.Alive = false
	target.DiedBy = rules.DiedBySlayer
	e.gs.AddEvent("death", fmt.Sprintf("%s is slain by the Slayer", target.Name), target.ID)
	e.narrate(ctx, fmt.Sprintf("%s dies!", target.Name))
	e.checkWin(ctx)
	return nil
}

// checkWin asks the evaluator after a death (or at dusk) whether the game
// has ended. Reaching GameOver freezes the state for the final reveal.
func (e *Engine) checkWin(ctx context.Context) bool {
	result := rules.EvaluateWin(e.gs)
	if result == nil {
		return false
	}
	e.gs.Result = result
	e.gs.Phase = state.PhaseGameOver
	e.gs.AddEvent("game_over", fmt.Sprintf("%s wins: %s", result.Team, result.Reason))
	e.narrate(ctx, fmt.Sprintf("The game is over. The %s team wins: %s.", result.Team, result.Reason))
	return true
}

func (e *Engine) narrate(ctx context.Context, message string) {
	e.narrator.Announce(ctx, e.gs.ID.String(), message)
}
