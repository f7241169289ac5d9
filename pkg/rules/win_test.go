package rules

import (
	"testing"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

func TestEvaluateWinOngoing(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor, character.Soldier, character.Chef)
	if r := EvaluateWin(gs); r != nil {
		t.Errorf("7 alive, demon standing: game should continue, got %+v", r)
	}
}

func TestEvaluateWinDemonDead(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)
	gs.Players[0].Alive = false
	gs.Players[0].DiedBy = DiedByExecution

	r := EvaluateWin(gs)
	if r == nil || r.Team != character.TeamGood {
		t.Fatalf("dead demon should end the game for good, got %+v", r)
	}
}

func TestEvaluateWinDemonDeadMinionsAlive(t *testing.T) {
	// Good wins the moment the demon dies, living minions or not.
	gs := testGame(character.Imp, character.Poisoner, character.ScarletWoman,
		character.Empath, character.Mayor, character.Monk, character.Chef)
	gs.Players[0].Alive = false
	gs.Players[0].DiedBy = DiedByExecution

	r := EvaluateWin(gs)
	if r == nil || r.Team != character.TeamGood {
		t.Fatalf("got %+v, want good win", r)
	}
}

func TestEvaluateWinEvilParity(t *testing.T) {
	tests := []struct {
		name      string
		aliveGood int
		wantEvil  bool
	}{
		{"two good to one evil", 2, false},
		{"parity", 1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs := testGame(character.Imp, character.Empath, character.Monk,
				character.Poisoner, character.Mayor, character.Chef)
			// Imp stays alive; kill good players down to the target count.
			alive := 0
			for _, p := range gs.Players {
				if p.Team != character.TeamGood {
					continue
				}
				if alive < tc.aliveGood {
					alive++
					continue
				}
				p.Alive = false
				p.DiedBy = DiedByDemon
			}
			gs.Players[3].Alive = false // poisoner: 1 evil standing

			r := EvaluateWin(gs)
			if tc.wantEvil {
				if r == nil || r.Team != character.TeamEvil {
					t.Fatalf("got %+v, want evil win", r)
				}
			} else if r != nil {
				t.Fatalf("game should continue, got %+v", r)
			}
		})
	}
}

func TestEvaluateWinTwoRemain(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)
	for _, p := range gs.Players[2:] {
		p.Alive = false
		p.DiedBy = DiedByDemon
	}
	// Imp and empath remain: evil wins even at one-to-one.
	r := EvaluateWin(gs)
	if r == nil || r.Team != character.TeamEvil {
		t.Fatalf("got %+v, want evil win", r)
	}
}

func TestEvaluateWinSaintExecuted(t *testing.T) {
	gs := testGame(character.Imp, character.Saint, character.Monk,
		character.Poisoner, character.Mayor, character.Empath)
	gs.Players[1].Alive = false
	gs.Players[1].DiedBy = DiedByExecution

	r := EvaluateWin(gs)
	if r == nil || r.Team != character.TeamEvil {
		t.Fatalf("executing the saint loses for good, got %+v", r)
	}

	t.Run("saint killed at night is harmless", func(t *testing.T) {
		gs := testGame(character.Imp, character.Saint, character.Monk,
			character.Poisoner, character.Mayor, character.Empath)
		gs.Players[1].Alive = false
		gs.Players[1].DiedBy = DiedByDemon
		if r := EvaluateWin(gs); r != nil {
			t.Fatalf("game should continue, got %+v", r)
		}
	})
}

func TestEvaluateWinMayor(t *testing.T) {
	build := func() *state.GameState {
		gs := testGame(character.Imp, character.Mayor, character.Monk,
			character.Poisoner, character.Empath)
		gs.Players[3].Alive = false // poisoner dead
		gs.Players[4].Alive = false // empath dead: 3 alive, 2 good 1 evil
		gs.Phase = state.PhaseDusk
		gs.ExecutionsToday = 0
		return gs
	}

	r := EvaluateWin(build())
	if r == nil || r.Team != character.TeamGood {
		t.Fatalf("mayor survives the final day, got %+v", r)
	}

	t.Run("only at dusk", func(t *testing.T) {
		gs := build()
		gs.Phase = state.PhaseNominations
		if r := EvaluateWin(gs); r != nil {
			t.Fatalf("mayor win only checked at day end, got %+v", r)
		}
	})

	t.Run("not after an execution", func(t *testing.T) {
		gs := build()
		gs.ExecutionsToday = 1
		if r := EvaluateWin(gs); r != nil {
			t.Fatalf("an execution voids the mayor win, got %+v", r)
		}
	})

	t.Run("poisoned mayor does not win", func(t *testing.T) {
		gs := build()
		gs.Players[1].Poisoned = true
		if r := EvaluateWin(gs); r != nil {
			t.Fatalf("a corrupt mayor has no ability, got %+v", r)
		}
	})
}

func TestEvaluateWinIsIdempotent(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)
	gs.Players[0].Alive = false
	gs.Players[0].DiedBy = DiedByExecution

	first := EvaluateWin(gs)
	second := EvaluateWin(gs)
	if first == nil || second == nil || first.Team != second.Team || first.Reason != second.Reason {
		t.Errorf("evaluation not stable: %+v vs %+v", first, second)
	}
}
