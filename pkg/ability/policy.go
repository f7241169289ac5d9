package ability

import (
	"math/rand"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

// Policy is the storyteller's information-choice seam. The resolver
// computes ground truth itself; it consults the policy for two things:
// free choices among equally legal options (which pair the Washerwoman
// hears about), and the substitute value delivered to a poisoned or drunk
// actor. Substitutes must always look legal; the resolver passes the legal
// range and the policy must stay inside it.
type Policy interface {
	// FalseBool returns the boolean delivered to a corrupt actor.
	FalseBool(truth bool) bool

	// FalseCount returns a count in [min, max] delivered to a corrupt actor.
	FalseCount(truth, min, max int) int

	// FalseRole returns a role from pool delivered to a corrupt actor.
	FalseRole(truth character.Role, pool []character.Role) character.Role

	// Pick chooses n players among equally legal candidates.
	Pick(n int, candidates []*state.Player) []*state.Player
}

// Truthful is the deterministic policy: corrupt actors still receive the
// ground truth, and free choices take the first legal candidates. Used for
// tests and replays where reproducibility matters more than drama.
type Truthful struct{}

func (Truthful) FalseBool(truth bool) bool { return truth }

func (Truthful) FalseCount(truth, min, max int) int { return truth }

func (Truthful) FalseRole(truth character.Role, pool []character.Role) character.Role {
	return truth
}

func (Truthful) Pick(n int, candidates []*state.Player) []*state.Player {
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}

// Random is a seeded storyteller policy: corrupt actors receive a
// plausible wrong answer, free choices are random. The same seed replays
// the same choices.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a Random policy driven by the given seed.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) FalseBool(truth bool) bool {
	return !truth
}

func (r *Random) FalseCount(truth, min, max int) int {
	if max <= min {
		return min
	}
	// Pick a different value in range when one exists.
	for {
		v := min + r.rng.Intn(max-min+1)
		if v != truth {
			return v
		}
	}
}

func (r *Random) FalseRole(truth character.Role, pool []character.Role) character.Role {
	if len(pool) == 0 {
		return truth
	}
	others := make([]character.Role, 0, len(pool))
	for _, c := range pool {
		if c != truth {
			others = append(others, c)
		}
	}
	if len(others) == 0 {
		return truth
	}
	return others[r.rng.Intn(len(others))]
}

func (r *Random) Pick(n int, candidates []*state.Player) []*state.Player {
	if n > len(candidates) {
		n = len(candidates)
	}
	idx := r.rng.Perm(len(candidates))[:n]
	out := make([]*state.Player, n)
	for i, j := range idx {
		out[i] = candidates[j]
	}
	return out
}
