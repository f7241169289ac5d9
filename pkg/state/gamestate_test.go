package state

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
)

// testGame builds a game with fixed characters in seat order.
func testGame(roles ...character.Role) *GameState {
	gs := &GameState{
		ID:     uuid.New(),
		Script: character.TroubleBrewing(),
		Phase:  PhaseSetup,
	}
	for i, r := range roles {
		gs.Players = append(gs.Players, &Player{
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

func TestPlayerLookups(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)

	p := gs.PlayerByID(gs.Players[2].ID)
	if p == nil || p.Character != character.Monk {
		t.Errorf("PlayerByID returned %v", p)
	}
	if gs.PlayerByID(uuid.New()) != nil {
		t.Error("unknown ID should return nil")
	}

	if p := gs.PlayerByName("PLAYER2"); p == nil || p.Character != character.Empath {
		t.Error("PlayerByName should match case-insensitively")
	}

	if p := gs.PlayerByRole(character.Poisoner); p == nil || p.Seat != 3 {
		t.Errorf("PlayerByRole returned %v", p)
	}
	if gs.PlayerByRole(character.Undertaker) != nil {
		t.Error("role not in play should return nil")
	}
}

func TestAliveCounts(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)
	gs.Players[1].Alive = false
	gs.Players[3].Alive = false

	if got := gs.AliveCount(); got != 3 {
		t.Errorf("AliveCount = %d, want 3", got)
	}
	if got := gs.AliveByTeam(character.TeamGood); got != 2 {
		t.Errorf("alive good = %d, want 2", got)
	}
	if got := gs.AliveByTeam(character.TeamEvil); got != 1 {
		t.Errorf("alive evil = %d, want 1", got)
	}
}

func TestAliveNeighborsSkipDead(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)
	// Seats: 0 imp, 1 empath, 2 monk, 3 poisoner, 4 mayor.
	// Kill the empath's immediate neighbors.
	gs.Players[0].Alive = false
	gs.Players[2].Alive = false

	left, right := gs.AliveNeighbors(gs.Players[1])
	if left == nil || left.Character != character.Mayor {
		t.Errorf("left neighbor = %v, want mayor", left)
	}
	if right == nil || right.Character != character.Poisoner {
		t.Errorf("right neighbor = %v, want poisoner", right)
	}
}

func TestCurrentNomination(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)
	if gs.CurrentNomination() != nil {
		t.Error("no nominations yet")
	}

	gs.Nominations = append(gs.Nominations, &Nomination{
		Nominator: gs.Players[0].ID,
		Nominee:   gs.Players[1].ID,
		State:     NominationSpared,
	})
	if gs.CurrentNomination() != nil {
		t.Error("resolved nomination is not current")
	}

	open := &Nomination{
		Nominator: gs.Players[2].ID,
		Nominee:   gs.Players[3].ID,
		State:     NominationOpen,
	}
	gs.Nominations = append(gs.Nominations, open)
	if gs.CurrentNomination() != open {
		t.Error("open nomination should be current")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GameState)
		ok     bool
	}{
		{"valid", func(gs *GameState) {}, true},
		{"too few players", func(gs *GameState) { gs.Players = gs.Players[:4] }, false},
		{"duplicate seat", func(gs *GameState) { gs.Players[1].Seat = 0 }, false},
		{"duplicate name", func(gs *GameState) { gs.Players[1].Name = gs.Players[0].Name }, false},
		{"duplicate character", func(gs *GameState) { gs.Players[1].Character = character.Imp }, false},
		{"multiple pending kills", func(gs *GameState) {
			gs.PendingKills = []uuid.UUID{gs.Players[0].ID, gs.Players[1].ID}
		}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs := testGame(character.Imp, character.Empath, character.Monk,
				character.Poisoner, character.Mayor)
			tc.mutate(gs)
			err := gs.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, ErrInvariant) {
					t.Errorf("error %v should wrap ErrInvariant", err)
				}
			}
		})
	}
}

func TestNominationTracking(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)
	gs.DayNumber = 1
	gs.Nominations = append(gs.Nominations, &Nomination{
		Nominator: gs.Players[0].ID,
		Nominee:   gs.Players[1].ID,
		Day:       1,
		State:     NominationSpared,
	})

	if !gs.HasNominatedToday(gs.Players[0].ID) {
		t.Error("player 0 nominated today")
	}
	if gs.HasNominatedToday(gs.Players[1].ID) {
		t.Error("player 1 has not nominated")
	}
	if !gs.WasNominatedToday(gs.Players[1].ID) {
		t.Error("player 1 was nominated today")
	}
}

func TestMarkActed(t *testing.T) {
	gs := testGame(character.Imp, character.Empath, character.Monk,
		character.Poisoner, character.Mayor)
	if gs.HasActedTonight(character.Monk) {
		t.Error("nobody has acted yet")
	}
	gs.MarkActed(character.Monk)
	if !gs.HasActedTonight(character.Monk) {
		t.Error("monk should be marked as acted")
	}
}
