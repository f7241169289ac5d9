package character

import (
	"fmt"
	"math/rand"
)

// Script is the active character set for a game.
type Script struct {
	Name      string `json:"name"`
	Townsfolk []Role `json:"townsfolk"`
	Outsiders []Role `json:"outsiders"`
	Minions   []Role `json:"minions"`
	Demons    []Role `json:"demons"`

	// Night orders. The first-night list differs from later nights:
	// one-shot setup information fires only on night one.
	FirstNightOrder []Role `json:"first_night_order"`
	OtherNightOrder []Role `json:"other_night_order"`
}

// TroubleBrewing returns the base script.
func TroubleBrewing() Script {
	return Script{
		Name: "trouble_brewing",
		Townsfolk: []Role{
			Washerwoman, Librarian, Investigator, Chef, Empath,
			FortuneTeller, Undertaker, Monk, Ravenkeeper, Virgin,
			Slayer, Soldier, Mayor,
		},
		Outsiders: []Role{Drunk, Recluse, Saint, Butler},
		Minions:   []Role{Poisoner, Spy, ScarletWoman, Baron},
		Demons:    []Role{Imp},
		FirstNightOrder: []Role{
			Poisoner, Spy, Washerwoman, Librarian, Investigator,
			Chef, Empath, FortuneTeller, Butler,
		},
		OtherNightOrder: []Role{
			Poisoner, Spy, Monk, Imp, Ravenkeeper,
			Undertaker, Empath, FortuneTeller, Butler,
		},
	}
}

// Good returns every good-team role on the script.
func (s Script) Good() []Role {
	out := make([]Role, 0, len(s.Townsfolk)+len(s.Outsiders))
	out = append(out, s.Townsfolk...)
	out = append(out, s.Outsiders...)
	return out
}

// Contains reports whether a role is on the script.
func (s Script) Contains(r Role) bool {
	for _, group := range [][]Role{s.Townsfolk, s.Outsiders, s.Minions, s.Demons} {
		for _, role := range group {
			if role == r {
				return true
			}
		}
	}
	return false
}

// Validate checks a script for structural problems: empty groups,
// duplicate roles, roles outside the closed set.
func (s Script) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("script has no name")
	}
	if len(s.Demons) == 0 {
		return fmt.Errorf("script %q has no demons", s.Name)
	}
	if len(s.Townsfolk) == 0 {
		return fmt.Errorf("script %q has no townsfolk", s.Name)
	}
	seen := make(map[Role]bool)
	for _, group := range [][]Role{s.Townsfolk, s.Outsiders, s.Minions, s.Demons} {
		for _, r := range group {
			if _, ok := Lookup(r); !ok {
				return fmt.Errorf("script %q contains unknown role %q", s.Name, r)
			}
			if seen[r] {
				return fmt.Errorf("script %q lists role %q twice", s.Name, r)
			}
			seen[r] = true
		}
	}
	for _, order := range [][]Role{s.FirstNightOrder, s.OtherNightOrder} {
		for _, r := range order {
			if !seen[r] {
				return fmt.Errorf("script %q night order references role %q not on the script", s.Name, r)
			}
		}
	}
	return nil
}

// Distribution is the character composition for a player count.
type Distribution struct {
	Townsfolk int `json:"townsfolk"`
	Outsiders int `json:"outsiders"`
	Minions   int `json:"minions"`
	Demons    int `json:"demons"`
}

var distributions = map[int]Distribution{
	5:  {3, 0, 1, 1},
	6:  {3, 1, 1, 1},
	7:  {5, 0, 1, 1},
	8:  {5, 1, 1, 1},
	9:  {5, 2, 1, 1},
	10: {7, 0, 2, 1},
	11: {7, 1, 2, 1},
	12: {7, 2, 2, 1},
	13: {9, 0, 3, 1},
	14: {9, 1, 3, 1},
	15: {9, 2, 3, 1},
}

// DistributionFor returns the composition for a player count.
func DistributionFor(players int) (Distribution, error) {
	d, ok := distributions[players]
	if !ok {
		return Distribution{}, fmt.Errorf("unsupported player count %d (need 5-15)", players)
	}
	return d, nil
}

// Deal selects a shuffled character assignment for the given player count
// using the provided random source. The same source yields the same deal,
// which keeps setup reproducible for tests and replays.
func (s Script) Deal(players int, rng *rand.Rand) ([]Role, error) {
	d, err := DistributionFor(players)
	if err != nil {
		return nil, err
	}
	if len(s.Townsfolk) < d.Townsfolk || len(s.Outsiders) < d.Outsiders ||
		len(s.Minions) < d.Minions || len(s.Demons) < d.Demons {
		return nil, fmt.Errorf("script %q too small for %d players", s.Name, players)
	}

	pick := func(pool []Role, n int) []Role {
		idx := rng.Perm(len(pool))[:n]
		out := make([]Role, n)
		for i, j := range idx {
			out[i] = pool[j]
		}
		return out
	}

	deal := make([]Role, 0, players)
	deal = append(deal, pick(s.Townsfolk, d.Townsfolk)...)
	deal = append(deal, pick(s.Outsiders, d.Outsiders)...)
	deal = append(deal, pick(s.Minions, d.Minions)...)
	deal = append(deal, pick(s.Demons, d.Demons)...)
	rng.Shuffle(len(deal), func(i, j int) { deal[i], deal[j] = deal[j], deal[i] })
	return deal, nil
}

// Bluffs selects n good roles not present in the deal, shown to the demon
// as decoys.
func (s Script) Bluffs(deal []Role, n int, rng *rand.Rand) []Role {
	inPlay := make(map[Role]bool, len(deal))
	for _, r := range deal {
		inPlay[r] = true
	}
	var pool []Role
	for _, r := range s.Good() {
		if !inPlay[r] {
			pool = append(pool, r)
		}
	}
	if n > len(pool) {
		n = len(pool)
	}
	idx := rng.Perm(len(pool))[:n]
	out := make([]Role, n)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

// NightOrder filters the script's order list down to the roles actually
// dealt, preserving order. Dead players stay listed; whether a dead
// character still acts is a rules question, not a script one.
func (s Script) NightOrder(first bool, inPlay []Role) []Role {
	order := s.OtherNightOrder
	if first {
		order = s.FirstNightOrder
	}
	present := make(map[Role]bool, len(inPlay))
	for _, r := range inPlay {
		present[r] = true
	}
	var out []Role
	for _, r := range order {
		if present[r] {
			out = append(out, r)
		}
	}
	return out
}
