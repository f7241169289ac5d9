package state

import (
	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
)

// Reminder token types used by the base script.
const (
	TokenButlerMaster = "butler_master" // Detail holds the master's player ID
	TokenVirginSpent  = "virgin_spent"
	TokenSlayerSpent  = "slayer_spent"
	TokenIsTheDrunk   = "is_the_drunk" // Detail holds the believed role
)

// Reminder is a transient tag placed on a player by a character ability.
type Reminder struct {
	Token  string         `json:"token"`
	Source character.Role `json:"source"`
	Detail string         `json:"detail,omitempty"`
	Active bool           `json:"active"`
}

// InfoEntry is one piece of information delivered to a player. The log is
// append-only; entries are never edited after delivery.
type InfoEntry struct {
	Night    int            `json:"night"`
	From     character.Role `json:"from"`
	Message  string         `json:"message"`
	Truthful bool           `json:"truthful"`
}

// Player is one seat at the table. Players are created at setup and never
// removed; death is a flag, because dead players keep their seat position
// and a one-time ghost vote.
type Player struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Seat      int            `json:"seat"` // unique, defines circular neighbor order
	Character character.Role `json:"character,omitempty"`
	Team      character.Team `json:"team,omitempty"`
	Alive     bool           `json:"alive"`

	// Status effects. Drunk is permanent (the Drunk outsider); Poisoned
	// and Protected are reapplied each night by their source abilities.
	Drunk         bool `json:"drunk,omitempty"`
	Poisoned      bool `json:"poisoned,omitempty"`
	Protected     bool `json:"protected,omitempty"`
	GhostVoteUsed bool `json:"ghost_vote_used,omitempty"`

	// DiedBy records the cause of death: "execution", "demon" or
	// "virgin". Empty while alive.
	DiedBy string `json:"died_by,omitempty"`

	Reminders   []Reminder  `json:"reminders,omitempty"`
	PrivateInfo []InfoEntry `json:"private_info,omitempty"`
}

// Corrupt reports whether the player's ability malfunctions: a poisoned or
// drunk character may receive false information without knowing it.
func (p *Player) Corrupt() bool {
	return p.Drunk || p.Poisoned
}

// AddReminder places a reminder token on the player.
func (p *Player) AddReminder(token string, source character.Role, detail string) {
	p.Reminders = append(p.Reminders, Reminder{
		Token:  token,
		Source: source,
		Detail: detail,
		Active: true,
	})
}

// RemoveReminder deactivates all reminder tokens matching token and source.
func (p *Player) RemoveReminder(token string, source character.Role) {
	for i := range p.Reminders {
		if p.Reminders[i].Token == token && p.Reminders[i].Source == source {
			p.Reminders[i].Active = false
		}
	}
}

// Reminder returns the detail of the first active token of the given type.
func (p *Player) Reminder(token string) (string, bool) {
	for _, r := range p.Reminders {
		if r.Token == token && r.Active {
			return r.Detail, true
		}
	}
	return "", false
}

// AddInfo appends to the player's private information log.
func (p *Player) AddInfo(night int, from character.Role, message string, truthful bool) {
	p.PrivateInfo = append(p.PrivateInfo, InfoEntry{
		Night:    night,
		From:     from,
		Message:  message,
		Truthful: truthful,
	})
}
