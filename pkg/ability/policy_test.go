package ability

import (
	"testing"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

func TestTruthfulPolicy(t *testing.T) {
	p := Truthful{}
	if p.FalseBool(true) != true || p.FalseBool(false) != false {
		t.Error("truthful policy must not flip booleans")
	}
	if p.FalseCount(1, 0, 2) != 1 {
		t.Error("truthful policy must not change counts")
	}
	if p.FalseRole(character.Imp, []character.Role{character.Monk}) != character.Imp {
		t.Error("truthful policy must not change roles")
	}
}

func TestRandomPolicySubstitutes(t *testing.T) {
	p := NewRandom(13)

	if p.FalseBool(true) || !p.FalseBool(false) {
		t.Error("random policy flips booleans")
	}

	for truth := 0; truth <= 2; truth++ {
		v := p.FalseCount(truth, 0, 2)
		if v < 0 || v > 2 {
			t.Fatalf("count %d out of range", v)
		}
		if v == truth {
			t.Errorf("count %d should differ from truth when the range allows", v)
		}
	}

	pool := []character.Role{character.Monk, character.Empath, character.Chef}
	if got := p.FalseRole(character.Monk, pool); got == character.Monk {
		t.Error("role should differ from truth when the pool allows")
	}
	if got := p.FalseRole(character.Imp, []character.Role{character.Imp}); got != character.Imp {
		t.Error("a one-role pool has no substitute")
	}
}

func TestRandomPolicyPick(t *testing.T) {
	players := []*state.Player{
		{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"},
	}
	p := NewRandom(5)

	picked := p.Pick(2, players)
	if len(picked) != 2 {
		t.Fatalf("picked %d, want 2", len(picked))
	}
	if picked[0] == picked[1] {
		t.Error("picks must be distinct")
	}

	if got := p.Pick(9, players); len(got) != len(players) {
		t.Errorf("oversized pick should return all candidates, got %d", len(got))
	}
}

func TestRandomPolicyReproducible(t *testing.T) {
	a := NewRandom(99)
	b := NewRandom(99)
	pool := []character.Role{character.Monk, character.Empath, character.Chef, character.Mayor}
	for i := 0; i < 10; i++ {
		if a.FalseRole(character.Monk, pool) != b.FalseRole(character.Monk, pool) {
			t.Fatal("same seed should replay the same choices")
		}
	}
}
