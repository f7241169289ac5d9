package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
)

// Phase is one state of the game's day/night cycle.
type Phase string

const (
	PhaseSetup          Phase = "setup"
	PhaseFirstNight     Phase = "first_night"
	PhaseFirstNightInfo Phase = "first_night_info"
	PhaseDawn           Phase = "dawn"
	PhaseDayDiscussion  Phase = "day_discussion"
	PhaseNominations    Phase = "nominations"
	PhaseVoting         Phase = "voting"
	PhaseExecution      Phase = "execution"
	PhaseDusk           Phase = "dusk"
	PhaseNight          Phase = "night"
	PhaseNightActions   Phase = "night_actions"
	PhaseGameOver       Phase = "game_over"
)

// ErrInvariant marks an internal consistency failure. Unlike a rule
// violation it is not recoverable: game creation must abort rather than
// proceed with corrupted state.
var ErrInvariant = errors.New("invariant violation")

// GameEvent is one entry in the public audit trail.
type GameEvent struct {
	Type    string      `json:"type"`
	Day     int         `json:"day"`
	Night   int         `json:"night"`
	Message string      `json:"message"`
	Players []uuid.UUID `json:"players,omitempty"`
	At      time.Time   `json:"at"`
}

// Result is the terminal outcome of a finished game.
type Result struct {
	Team   character.Team `json:"team"`
	Reason string         `json:"reason"`
}

// GameState is the authoritative state of one game session. It is owned
// exclusively by the orchestrator; every other component gets read access
// or returns inert effect descriptions.
type GameState struct {
	ID     uuid.UUID        `json:"id"`
	Script character.Script `json:"script"`

	Phase       Phase `json:"phase"`
	DayNumber   int   `json:"day_number"`
	NightNumber int   `json:"night_number"`

	Players []*Player `json:"players"` // seat order

	// Today's nominations only; cleared at dusk.
	Nominations     []*Nomination `json:"nominations,omitempty"`
	ExecutionsToday int           `json:"executions_today"`
	LastExecuted    *uuid.UUID    `json:"last_executed,omitempty"` // for Undertaker

	DemonBluffs []character.Role `json:"demon_bluffs,omitempty"`

	// PendingKills are night kills queued by the demon, resolved
	// simultaneously at dawn so protection applied later in the same
	// night still cancels them.
	PendingKills []uuid.UUID `json:"pending_kills,omitempty"`

	// ActedTonight tracks which roles have resolved this night.
	ActedTonight []character.Role `json:"acted_tonight,omitempty"`

	Outcomes []*AbilityOutcome `json:"outcomes,omitempty"`
	Events   []GameEvent       `json:"events,omitempty"`

	Result *Result `json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlayerByID returns the player with the given ID, or nil.
func (gs *GameState) PlayerByID(id uuid.UUID) *Player {
	for _, p := range gs.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByName returns the player with the given name, case-insensitive.
func (gs *GameState) PlayerByName(name string) *Player {
	for _, p := range gs.Players {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// PlayerByRole returns the first player holding the given character.
func (gs *GameState) PlayerByRole(r character.Role) *Player {
	for _, p := range gs.Players {
		if p.Character == r {
			return p
		}
	}
	return nil
}

// Alive returns all living players in seat order.
func (gs *GameState) Alive() []*Player {
	out := make([]*Player, 0, len(gs.Players))
	for _, p := range gs.Players {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// AliveCount returns the number of living players.
func (gs *GameState) AliveCount() int {
	return len(gs.Alive())
}

// AliveByTeam counts living players on a team.
func (gs *GameState) AliveByTeam(t character.Team) int {
	count := 0
	for _, p := range gs.Players {
		if p.Alive && p.Team == t {
			count++
		}
	}
	return count
}

// Neighbors returns the seat neighbors of a player, dead or alive.
func (gs *GameState) Neighbors(p *Player) (left, right *Player) {
	n := len(gs.Players)
	if n < 2 {
		return nil, nil
	}
	for i, q := range gs.Players {
		if q.ID == p.ID {
			return gs.Players[(i-1+n)%n], gs.Players[(i+1)%n]
		}
	}
	return nil, nil
}

// AliveNeighbors returns the nearest living seat neighbors, skipping dead
// players around the circle. Used by neighbor-counting abilities.
func (gs *GameState) AliveNeighbors(p *Player) (left, right *Player) {
	n := len(gs.Players)
	idx := -1
	for i, q := range gs.Players {
		if q.ID == p.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}
	for i := 1; i < n; i++ {
		q := gs.Players[((idx-i)%n+n)%n]
		if q.Alive && q.ID != p.ID {
			left = q
			break
		}
	}
	for i := 1; i < n; i++ {
		q := gs.Players[(idx+i)%n]
		if q.Alive && q.ID != p.ID {
			right = q
			break
		}
	}
	return left, right
}

// RolesInPlay returns the dealt characters in seat order.
func (gs *GameState) RolesInPlay() []character.Role {
	out := make([]character.Role, 0, len(gs.Players))
	for _, p := range gs.Players {
		if p.Character != "" {
			out = append(out, p.Character)
		}
	}
	return out
}

// CurrentNomination returns today's open nomination, or nil.
func (gs *GameState) CurrentNomination() *Nomination {
	for i := len(gs.Nominations) - 1; i >= 0; i-- {
		if gs.Nominations[i].State == NominationOpen {
			return gs.Nominations[i]
		}
	}
	return nil
}

// HasNominatedToday reports whether the player already made a nomination.
func (gs *GameState) HasNominatedToday(player uuid.UUID) bool {
	for _, n := range gs.Nominations {
		if n.Nominator == player {
			return true
		}
	}
	return false
}

// WasNominatedToday reports whether the player was already nominated.
func (gs *GameState) WasNominatedToday(player uuid.UUID) bool {
	for _, n := range gs.Nominations {
		if n.Nominee == player {
			return true
		}
	}
	return false
}

// HasActedTonight reports whether the role's ability already resolved
// this night.
func (gs *GameState) HasActedTonight(r character.Role) bool {
	for _, acted := range gs.ActedTonight {
		if acted == r {
			return true
		}
	}
	return false
}

// MarkActed records that a role resolved its ability this night.
func (gs *GameState) MarkActed(r character.Role) {
	if !gs.HasActedTonight(r) {
		gs.ActedTonight = append(gs.ActedTonight, r)
	}
}

// AddEvent appends to the audit trail.
func (gs *GameState) AddEvent(eventType, message string, players ...uuid.UUID) {
	gs.Events = append(gs.Events, GameEvent{
		Type:    eventType,
		Day:     gs.DayNumber,
		Night:   gs.NightNumber,
		Message: message,
		Players: players,
		At:      time.Now(),
	})
	gs.UpdatedAt = time.Now()
}

// RecordOutcome appends an ability outcome to the permanent history.
func (gs *GameState) RecordOutcome(o *AbilityOutcome) {
	gs.Outcomes = append(gs.Outcomes, o)
	gs.UpdatedAt = time.Now()
}

// OutcomesFor returns the outcome history for one character, oldest first.
func (gs *GameState) OutcomesFor(r character.Role) []*AbilityOutcome {
	var out []*AbilityOutcome
	for _, o := range gs.Outcomes {
		if o.Character == r {
			out = append(out, o)
		}
	}
	return out
}

// Validate checks state invariants. A failure here is fatal: the state is
// corrupted and the game must not proceed.
func (gs *GameState) Validate() error {
	if len(gs.Players) < 5 {
		return fmt.Errorf("%w: need at least 5 players, have %d", ErrInvariant, len(gs.Players))
	}
	seats := make(map[int]string, len(gs.Players))
	names := make(map[string]bool, len(gs.Players))
	chars := make(map[character.Role]string, len(gs.Players))
	for _, p := range gs.Players {
		if other, dup := seats[p.Seat]; dup {
			return fmt.Errorf("%w: duplicate seat %d (%s, %s)", ErrInvariant, p.Seat, other, p.Name)
		}
		seats[p.Seat] = p.Name
		lower := strings.ToLower(p.Name)
		if names[lower] {
			return fmt.Errorf("%w: duplicate player name %q", ErrInvariant, p.Name)
		}
		names[lower] = true
		if p.Character != "" {
			if other, dup := chars[p.Character]; dup {
				return fmt.Errorf("%w: character %s dealt twice (%s, %s)", ErrInvariant, p.Character, other, p.Name)
			}
			chars[p.Character] = p.Name
		}
	}
	if len(gs.PendingKills) > 1 {
		return fmt.Errorf("%w: %d demon kills pending, at most one per night", ErrInvariant, len(gs.PendingKills))
	}
	return nil
}
