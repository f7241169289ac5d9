package rules

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

func testGame(roles ...character.Role) *state.GameState {
	gs := &state.GameState{
		ID:     uuid.New(),
		Script: character.TroubleBrewing(),
		Phase:  state.PhaseNominations,
		Players: make([]*state.Player, 0, len(roles)),
		DayNumber: 1,
	}
	for i, r := range roles {
		gs.Players = append(gs.Players, &state.Player{
			ID:        uuid.New(),
			Name:      fmt.Sprintf("player%d", i+1),
			Seat:      i,
			Character: r,
			Team:      r.Team(),
			Alive:     true,
		})
	}
	return gs
}

func TestThreshold(t *testing.T) {
	tests := []struct {
		alive, want int
	}{
		{3, 2},
		{4, 3},
		{5, 3},
		{6, 4},
		{7, 4},
		{10, 6},
	}
	for _, tc := range tests {
		if got := Threshold(tc.alive); got != tc.want {
			t.Errorf("Threshold(%d) = %d, want %d", tc.alive, got, tc.want)
		}
	}
}

func TestCanNominate(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)
	nominator := gs.Players[1]
	nominee := gs.Players[0]

	if v := CanNominate(gs, nominator.ID, nominee.ID); !v.OK {
		t.Errorf("legal nomination rejected: %s", v.Reason)
	}

	t.Run("wrong phase", func(t *testing.T) {
		gs := testGame(character.Imp, character.Empath, character.Monk,
			character.Poisoner, character.Mayor)
		gs.Phase = state.PhaseDayDiscussion
		if v := CanNominate(gs, gs.Players[1].ID, gs.Players[0].ID); v.OK {
			t.Error("nomination outside the nominations phase should fail")
		}
	})

	t.Run("dead nominator", func(t *testing.T) {
		gs := testGame(character.Imp, character.Empath, character.Monk,
			character.Poisoner, character.Mayor)
		gs.Players[1].Alive = false
		if v := CanNominate(gs, gs.Players[1].ID, gs.Players[0].ID); v.OK {
			t.Error("dead players cannot nominate, even with a ghost vote left")
		}
	})

	t.Run("dead nominee", func(t *testing.T) {
		gs := testGame(character.Imp, character.Empath, character.Monk,
			character.Poisoner, character.Mayor)
		gs.Players[0].Alive = false
		if v := CanNominate(gs, gs.Players[1].ID, gs.Players[0].ID); v.OK {
			t.Error("dead players cannot be nominated")
		}
	})

	t.Run("one nomination per nominator per day", func(t *testing.T) {
		gs := testGame(character.Imp, character.Empath, character.Monk,
			character.Poisoner, character.Mayor)
		gs.Nominations = append(gs.Nominations, &state.Nomination{
			Nominator: gs.Players[1].ID,
			Nominee:   gs.Players[2].ID,
			Day:       1,
			State:     state.NominationSpared,
		})
		if v := CanNominate(gs, gs.Players[1].ID, gs.Players[0].ID); v.OK {
			t.Error("a player may only nominate once per day")
		}
	})

	t.Run("nominee once per day", func(t *testing.T) {
		gs := testGame(character.Imp, character.Empath, character.Monk,
			character.Poisoner, character.Mayor)
		gs.Nominations = append(gs.Nominations, &state.Nomination{
			Nominator: gs.Players[2].ID,
			Nominee:   gs.Players[0].ID,
			Day:       1,
			State:     state.NominationSpared,
		})
		if v := CanNominate(gs, gs.Players[1].ID, gs.Players[0].ID); v.OK {
			t.Error("a player may only be nominated once per day")
		}
	})

	t.Run("unknown players", func(t *testing.T) {
		gs := testGame(character.Imp, character.Empath, character.Monk,
			character.Poisoner, character.Mayor)
		if v := CanNominate(gs, uuid.New(), gs.Players[0].ID); v.OK {
			t.Error("unknown nominator should fail")
		}
		if v := CanNominate(gs, gs.Players[1].ID, uuid.New()); v.OK {
			t.Error("unknown nominee should fail")
		}
	})
}

func TestButlerNomination(t *testing.T) {
	gs := testGame(character.Imp, character.Butler, character.Monk,
		character.Poisoner, character.Mayor)
	butler := gs.Players[1]
	master := gs.Players[4]
	butler.AddReminder(state.TokenButlerMaster, character.Butler, master.ID.String())

	if v := CanNominate(gs, butler.ID, gs.Players[0].ID); v.OK {
		t.Error("butler cannot nominate before their master has")
	}

	gs.Nominations = append(gs.Nominations, &state.Nomination{
		Nominator: master.ID,
		Nominee:   gs.Players[2].ID,
		Day:       1,
		State:     state.NominationSpared,
	})
	if v := CanNominate(gs, butler.ID, gs.Players[0].ID); !v.OK {
		t.Errorf("butler should nominate after their master: %s", v.Reason)
	}

	t.Run("dead master releases the butler", func(t *testing.T) {
		gs := testGame(character.Imp, character.Butler, character.Monk,
			character.Poisoner, character.Mayor)
		butler := gs.Players[1]
		master := gs.Players[4]
		butler.AddReminder(state.TokenButlerMaster, character.Butler, master.ID.String())
		master.Alive = false
		if v := CanNominate(gs, butler.ID, gs.Players[0].ID); !v.OK {
			t.Errorf("butler with a dead master nominates freely: %s", v.Reason)
		}
	})
}

func TestCanVote(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)
	gs.Phase = state.PhaseVoting
	nom := &state.Nomination{
		Nominator: gs.Players[1].ID,
		Nominee:   gs.Players[0].ID,
		Day:       1,
		State:     state.NominationOpen,
	}
	gs.Nominations = append(gs.Nominations, nom)

	if v := CanVote(gs, nom, gs.Players[2].ID, true); !v.OK {
		t.Errorf("legal vote rejected: %s", v.Reason)
	}

	// Dead with an unused ghost vote: allowed once.
	gs.Players[3].Alive = false
	if v := CanVote(gs, nom, gs.Players[3].ID, true); !v.OK {
		t.Errorf("unused ghost vote rejected: %s", v.Reason)
	}
	gs.Players[3].GhostVoteUsed = true
	if v := CanVote(gs, nom, gs.Players[3].ID, true); v.OK {
		t.Error("spent ghost vote should be rejected")
	}

	// No double voting.
	nom.Votes = append(nom.Votes, state.Vote{Voter: gs.Players[2].ID, Yes: true})
	if v := CanVote(gs, nom, gs.Players[2].ID, false); v.OK {
		t.Error("double vote should be rejected")
	}

	// Closed nomination.
	nom.State = state.NominationSpared
	if v := CanVote(gs, nom, gs.Players[4].ID, true); v.OK {
		t.Error("voting on a resolved nomination should fail")
	}
	if v := CanVote(gs, nil, gs.Players[4].ID, true); v.OK {
		t.Error("voting with no nomination should fail")
	}
}

func TestButlerVote(t *testing.T) {
	gs := testGame(character.Imp, character.Butler, character.Monk,
		character.Poisoner, character.Mayor)
	gs.Phase = state.PhaseVoting
	butler := gs.Players[1]
	master := gs.Players[4]
	butler.AddReminder(state.TokenButlerMaster, character.Butler, master.ID.String())
	nom := &state.Nomination{
		Nominator: gs.Players[2].ID,
		Nominee:   gs.Players[0].ID,
		Day:       1,
		State:     state.NominationOpen,
	}

	if v := CanVote(gs, nom, butler.ID, true); v.OK {
		t.Error("butler cannot vote before their master on the same nomination")
	}

	// The butler's ballot only counts alongside the master's.
	nom.Votes = append(nom.Votes, state.Vote{Voter: master.ID, Yes: true})
	if v := CanVote(gs, nom, butler.ID, false); v.OK {
		t.Error("butler voting against a yes-voting master should be rejected")
	}
	if v := CanVote(gs, nom, butler.ID, true); !v.OK {
		t.Errorf("butler votes yes alongside their master: %s", v.Reason)
	}

	t.Run("master voted no", func(t *testing.T) {
		gs := testGame(character.Imp, character.Butler, character.Monk,
			character.Poisoner, character.Mayor)
		gs.Phase = state.PhaseVoting
		butler := gs.Players[1]
		master := gs.Players[4]
		butler.AddReminder(state.TokenButlerMaster, character.Butler, master.ID.String())
		nom := &state.Nomination{
			Nominator: gs.Players[2].ID,
			Nominee:   gs.Players[0].ID,
			Day:       1,
			State:     state.NominationOpen,
			Votes:     []state.Vote{{Voter: master.ID, Yes: false}},
		}

		if v := CanVote(gs, nom, butler.ID, true); v.OK {
			t.Error("butler voting yes against a no-voting master should be rejected")
		}
		if v := CanVote(gs, nom, butler.ID, false); !v.OK {
			t.Errorf("butler votes no alongside their master: %s", v.Reason)
		}
	})
}

func TestCanExecute(t *testing.T) {
	// 5 alive: threshold 3.
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)
	nom := &state.Nomination{
		Nominator: gs.Players[1].ID,
		Nominee:   gs.Players[0].ID,
		State:     state.NominationOpen,
	}

	vote := func(n int) {
		nom.Votes = nil
		for i := 0; i < n; i++ {
			nom.Votes = append(nom.Votes, state.Vote{Voter: gs.Players[i].ID, Yes: true})
		}
	}

	vote(2)
	if v := CanExecute(gs, nom); v.OK {
		t.Error("2 of 3 required votes should not execute")
	}
	vote(3)
	if v := CanExecute(gs, nom); !v.OK {
		t.Errorf("3 of 3 required votes should execute: %s", v.Reason)
	}

	// The threshold moves with the live alive count.
	gs.Players[4].Alive = false // 4 alive: threshold 3
	if v := CanExecute(gs, nom); !v.OK {
		t.Errorf("threshold should track the current alive count: %s", v.Reason)
	}

	gs.ExecutionsToday = 1
	if v := CanExecute(gs, nom); v.OK {
		t.Error("only one execution per day")
	}
	gs.ExecutionsToday = 0

	nom.State = state.NominationExecuted
	if v := CanExecute(gs, nom); v.OK {
		t.Error("resolved nomination cannot be executed again")
	}
}

func TestCanActAtNight(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)
	gs.Phase = state.PhaseFirstNight

	if v := CanActAtNight(gs, gs.Players[1].ID); !v.OK {
		t.Errorf("empath acts on the first night: %s", v.Reason)
	}
	if v := CanActAtNight(gs, gs.Players[0].ID); v.OK {
		t.Error("the imp does not act on the first night")
	}
	if v := CanActAtNight(gs, gs.Players[2].ID); v.OK {
		t.Error("the monk does not act on the first night")
	}
	if v := CanActAtNight(gs, gs.Players[4].ID); v.OK {
		t.Error("the mayor has no night ability")
	}

	gs.Phase = state.PhaseNightActions
	if v := CanActAtNight(gs, gs.Players[0].ID); !v.OK {
		t.Errorf("the imp acts on later nights: %s", v.Reason)
	}
	if v := CanActAtNight(gs, gs.Players[2].ID); !v.OK {
		t.Errorf("the monk acts on later nights: %s", v.Reason)
	}

	gs.Players[2].Alive = false
	if v := CanActAtNight(gs, gs.Players[2].ID); v.OK {
		t.Error("dead characters do not act")
	}

	gs.MarkActed(character.Imp)
	if v := CanActAtNight(gs, gs.Players[0].ID); v.OK {
		t.Error("a character acts at most once per night")
	}

	gs.Phase = state.PhaseDayDiscussion
	if v := CanActAtNight(gs, gs.Players[1].ID); v.OK {
		t.Error("night actions are rejected during the day")
	}
}

func TestCheckTargets(t *testing.T) {
	gs := testGame(character.Imp, character.FortuneTeller, character.Monk,
		character.Poisoner, character.Mayor)
	imp := gs.Players[0]
	teller := gs.Players[1]
	monk := gs.Players[2]

	t.Run("arity", func(t *testing.T) {
		if v := CheckTargets(gs, teller, []uuid.UUID{imp.ID}); v.OK {
			t.Error("fortune teller needs two targets")
		}
		if v := CheckTargets(gs, teller, []uuid.UUID{imp.ID, monk.ID}); !v.OK {
			t.Errorf("two targets should pass: %s", v.Reason)
		}
		if v := CheckTargets(gs, monk, nil); v.OK {
			t.Error("monk needs one target")
		}
	})

	t.Run("duplicates", func(t *testing.T) {
		if v := CheckTargets(gs, teller, []uuid.UUID{imp.ID, imp.ID}); v.OK {
			t.Error("duplicate targets should fail")
		}
	})

	t.Run("self targeting", func(t *testing.T) {
		if v := CheckTargets(gs, monk, []uuid.UUID{monk.ID}); v.OK {
			t.Error("the monk cannot protect themself")
		}
		if v := CheckTargets(gs, imp, []uuid.UUID{imp.ID}); !v.OK {
			t.Errorf("the imp may kill themself: %s", v.Reason)
		}
		if v := CheckTargets(gs, teller, []uuid.UUID{teller.ID, imp.ID}); !v.OK {
			t.Errorf("the fortune teller may include themself: %s", v.Reason)
		}
	})

	t.Run("dead targets", func(t *testing.T) {
		gs.Players[4].Alive = false
		if v := CheckTargets(gs, monk, []uuid.UUID{gs.Players[4].ID}); v.OK {
			t.Error("the monk cannot protect the dead")
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		if v := CheckTargets(gs, monk, []uuid.UUID{uuid.New()}); v.OK {
			t.Error("unknown target should fail")
		}
	})
}

func TestViolationError(t *testing.T) {
	v := Invalid("no reason at all")
	err := v.AsError()
	var violation *Violation
	if !errors.As(err, &violation) {
		t.Fatalf("AsError returned %T", err)
	}
	if violation.Reason != "no reason at all" {
		t.Errorf("reason = %q", violation.Reason)
	}
	if Valid().AsError() != nil {
		t.Error("a passing validation has no error")
	}
}
