package state

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
)

func names(n int) []string {
	all := []string{"alice", "bob", "carol", "dave", "erin", "frank",
		"grace", "heidi", "ivan", "judy", "kim", "leo", "mallory", "nina", "oscar"}
	return all[:n]
}

func TestNewGame(t *testing.T) {
	for players := 5; players <= 15; players++ {
		gs, err := NewGame(names(players), character.TroubleBrewing(), rand.New(rand.NewSource(int64(players))))
		if err != nil {
			t.Fatalf("players=%d: %v", players, err)
		}
		if gs.Phase != PhaseSetup {
			t.Errorf("players=%d: phase = %s, want setup", players, gs.Phase)
		}
		if len(gs.Players) != players {
			t.Fatalf("players=%d: got %d players", players, len(gs.Players))
		}
		for i, p := range gs.Players {
			if p.Seat != i {
				t.Errorf("players=%d: seat %d out of order", players, i)
			}
			if !p.Alive {
				t.Errorf("players=%d: %s starts dead", players, p.Name)
			}
			if p.Character == "" {
				t.Errorf("players=%d: %s has no character", players, p.Name)
			}
		}
		if len(gs.DemonBluffs) != 3 {
			t.Errorf("players=%d: got %d bluffs, want 3", players, len(gs.DemonBluffs))
		}
		if err := gs.Validate(); err != nil {
			t.Errorf("players=%d: new game fails validation: %v", players, err)
		}
	}
}

func TestNewGameIsReproducible(t *testing.T) {
	a, err := NewGame(names(9), character.TroubleBrewing(), rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewGame(names(9), character.TroubleBrewing(), rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Players {
		if a.Players[i].Character != b.Players[i].Character {
			t.Fatalf("same seed gave different deals at seat %d", i)
		}
	}
	for i := range a.DemonBluffs {
		if a.DemonBluffs[i] != b.DemonBluffs[i] {
			t.Fatal("same seed gave different bluffs")
		}
	}
}

func TestNewGameRejectsBadCounts(t *testing.T) {
	if _, err := NewGame(names(4), character.TroubleBrewing(), rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected error for 4 players")
	}
}

func TestNewGameDrunk(t *testing.T) {
	// Scan seeds until a deal includes the Drunk; the token records the
	// disguise while the believed character sits in the normal slot.
	for seed := int64(0); seed < 200; seed++ {
		gs, err := NewGame(names(9), character.TroubleBrewing(), rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatal(err)
		}
		var drunk *Player
		for _, p := range gs.Players {
			if _, ok := p.Reminder(TokenIsTheDrunk); ok {
				drunk = p
				break
			}
		}
		if drunk == nil {
			continue
		}

		if !drunk.Drunk {
			t.Error("the drunk should carry the permanent drunk flag")
		}
		if !drunk.Corrupt() {
			t.Error("the drunk's ability is corrupt")
		}
		if drunk.Character == character.Drunk {
			t.Error("the drunk should believe a townsfolk character")
		}
		traits, ok := character.Lookup(drunk.Character)
		if !ok || traits.Type != character.Townsfolk {
			t.Errorf("believed character %s is not a townsfolk", drunk.Character)
		}
		believed, _ := drunk.Reminder(TokenIsTheDrunk)
		if believed != string(drunk.Character) {
			t.Errorf("token detail %q does not match believed character %s", believed, drunk.Character)
		}
		for _, p := range gs.Players {
			if p != drunk && p.Character == drunk.Character {
				t.Error("believed character duplicates a dealt character")
			}
		}
		return
	}
	t.Fatal("no seed in range dealt the Drunk")
}

func TestNewGameEvilInfo(t *testing.T) {
	gs, err := NewGame(names(10), character.TroubleBrewing(), rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}

	demon := gs.PlayerByRole(character.Imp)
	if demon == nil {
		t.Fatal("no demon dealt")
	}
	if len(demon.PrivateInfo) != 2 {
		t.Fatalf("demon has %d info entries, want minions and bluffs", len(demon.PrivateInfo))
	}
	if !strings.Contains(demon.PrivateInfo[0].Message, "your minions are") {
		t.Errorf("unexpected demon info: %q", demon.PrivateInfo[0].Message)
	}
	if !strings.Contains(demon.PrivateInfo[1].Message, "not in play") {
		t.Errorf("unexpected demon info: %q", demon.PrivateInfo[1].Message)
	}

	for _, p := range gs.Players {
		if !p.Character.IsMinion() {
			continue
		}
		if len(p.PrivateInfo) != 1 {
			t.Fatalf("minion %s has %d info entries, want 1", p.Name, len(p.PrivateInfo))
		}
		if !strings.Contains(p.PrivateInfo[0].Message, demon.Name) {
			t.Errorf("minion info %q does not name the demon", p.PrivateInfo[0].Message)
		}
	}
}
