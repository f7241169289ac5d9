package state

import "github.com/google/uuid"

// NominationState is the lifecycle of a nomination. A nomination opens for
// voting and closes exactly once; a closed nomination is never reopened.
type NominationState string

const (
	NominationOpen     NominationState = "open"
	NominationExecuted NominationState = "executed"
	NominationSpared   NominationState = "spared"
)

// Vote is one recorded ballot on a nomination.
type Vote struct {
	Voter uuid.UUID `json:"voter"`
	Yes   bool      `json:"yes"`
	Ghost bool      `json:"ghost,omitempty"` // cast by a dead player
}

// Nomination is one accusation put to a vote. Nominations live for a
// single day and are cleared at dusk.
type Nomination struct {
	Nominator uuid.UUID       `json:"nominator"`
	Nominee   uuid.UUID       `json:"nominee"`
	Day       int             `json:"day"`
	Votes     []Vote          `json:"votes,omitempty"`
	State     NominationState `json:"state"`
}

// YesVotes counts recorded yes ballots.
func (n *Nomination) YesVotes() int {
	count := 0
	for _, v := range n.Votes {
		if v.Yes {
			count++
		}
	}
	return count
}

// VoteBy returns the player's recorded ballot, if any.
func (n *Nomination) VoteBy(player uuid.UUID) (Vote, bool) {
	for _, v := range n.Votes {
		if v.Voter == player {
			return v, true
		}
	}
	return Vote{}, false
}

// HasVoted reports whether the player already voted on this nomination.
func (n *Nomination) HasVoted(player uuid.UUID) bool {
	for _, v := range n.Votes {
		if v.Voter == player {
			return true
		}
	}
	return false
}

// Resolved reports whether voting has closed.
func (n *Nomination) Resolved() bool {
	return n.State != NominationOpen
}
