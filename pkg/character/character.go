package character

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Team is the side a character fights for.
type Team string

const (
	TeamGood    Team = "good"
	TeamEvil    Team = "evil"
	TeamNeutral Team = "neutral"
)

// RoleType is the character class within a team.
type RoleType string

const (
	Townsfolk RoleType = "townsfolk"
	Outsider  RoleType = "outsider"
	Minion    RoleType = "minion"
	Demon     RoleType = "demon"
)

// Role identifies a character in the closed set. Roles are lookup keys
// only; all rule logic dispatches on the Role constant, never on free text.
type Role string

const (
	// Townsfolk
	Washerwoman   Role = "washerwoman"
	Librarian     Role = "librarian"
	Investigator  Role = "investigator"
	Chef          Role = "chef"
	Empath        Role = "empath"
	FortuneTeller Role = "fortune_teller"
	Undertaker    Role = "undertaker"
	Monk          Role = "monk"
	Ravenkeeper   Role = "ravenkeeper"
	Virgin        Role = "virgin"
	Slayer        Role = "slayer"
	Soldier       Role = "soldier"
	Mayor         Role = "mayor"

	// Outsiders
	Drunk   Role = "drunk"
	Recluse Role = "recluse"
	Saint   Role = "saint"
	Butler  Role = "butler"

	// Minions
	Poisoner     Role = "poisoner"
	Spy          Role = "spy"
	ScarletWoman Role = "scarlet_woman"
	Baron        Role = "baron"

	// Demons
	Imp Role = "imp"
)

// Traits carries the static rule data for a role: class, night activity,
// and the declared target contract for its ability.
type Traits struct {
	Type         RoleType `json:"type"`
	FirstNight   bool     `json:"first_night,omitempty"` // acts on night one
	EachNight    bool     `json:"each_night,omitempty"`  // acts on every later night
	Arity        int      `json:"arity"`                 // number of chosen targets (0, 1 or 2)
	AllowSelf    bool     `json:"allow_self,omitempty"`
	AllowDead    bool     `json:"allow_dead,omitempty"`
	ActsWhenDead bool     `json:"acts_when_dead,omitempty"`
}

var traits = map[Role]Traits{
	Washerwoman:   {Type: Townsfolk, FirstNight: true},
	Librarian:     {Type: Townsfolk, FirstNight: true},
	Investigator:  {Type: Townsfolk, FirstNight: true},
	Chef:          {Type: Townsfolk, FirstNight: true},
	Empath:        {Type: Townsfolk, FirstNight: true, EachNight: true},
	FortuneTeller: {Type: Townsfolk, FirstNight: true, EachNight: true, Arity: 2, AllowSelf: true},
	Undertaker:    {Type: Townsfolk, EachNight: true},
	Monk:          {Type: Townsfolk, EachNight: true, Arity: 1},
	Ravenkeeper:   {Type: Townsfolk, EachNight: true, Arity: 1, ActsWhenDead: true},
	Virgin:        {Type: Townsfolk},
	Slayer:        {Type: Townsfolk},
	Soldier:       {Type: Townsfolk},
	Mayor:         {Type: Townsfolk},

	Drunk:   {Type: Outsider},
	Recluse: {Type: Outsider},
	Saint:   {Type: Outsider},
	Butler:  {Type: Outsider, FirstNight: true, EachNight: true, Arity: 1},

	Poisoner:     {Type: Minion, FirstNight: true, EachNight: true, Arity: 1, AllowSelf: true},
	Spy:          {Type: Minion, FirstNight: true, EachNight: true},
	ScarletWoman: {Type: Minion},
	Baron:        {Type: Minion},

	Imp: {Type: Demon, EachNight: true, Arity: 1, AllowSelf: true},
}

// Lookup returns the traits for a role. The second return is false for
// roles outside the closed set.
func Lookup(r Role) (Traits, bool) {
	t, ok := traits[r]
	return t, ok
}

// Team returns the side a role fights for. Unknown roles are neutral.
func (r Role) Team() Team {
	t, ok := traits[r]
	if !ok {
		return TeamNeutral
	}
	switch t.Type {
	case Townsfolk, Outsider:
		return TeamGood
	case Minion, Demon:
		return TeamEvil
	}
	return TeamNeutral
}

// IsDemon reports whether the role is a demon-class character.
func (r Role) IsDemon() bool {
	t, ok := traits[r]
	return ok && t.Type == Demon
}

// IsMinion reports whether the role is a minion-class character.
func (r Role) IsMinion() bool {
	t, ok := traits[r]
	return ok && t.Type == Minion
}

var titleCaser = cases.Title(language.English)

// DisplayName renders a role for announcements, e.g. "fortune_teller"
// becomes "Fortune Teller".
func (r Role) DisplayName() string {
	out := make([]rune, 0, len(r))
	for _, c := range r {
		if c == '_' {
			out = append(out, ' ')
			continue
		}
		out = append(out, c)
	}
	return titleCaser.String(string(out))
}
