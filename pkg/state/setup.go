package state

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
)

// NewGame deals characters to the named players and returns a game in the
// setup phase. The random source drives the deal, the Drunk's believed
// role and the demon bluffs; a fixed seed reproduces the full setup.
func NewGame(names []string, script character.Script, rng *rand.Rand) (*GameState, error) {
	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	deal, err := script.Deal(len(names), rng)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	gs := &GameState{
		ID:        uuid.New(),
		Script:    script,
		Phase:     PhaseSetup,
		Players:   make([]*Player, 0, len(names)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for seat, name := range names {
		role := deal[seat]
		p := &Player{
			ID:        uuid.New(),
			Name:      name,
			Seat:      seat,
			Character: role,
			Team:      role.Team(),
			Alive:     true,
		}
		gs.Players = append(gs.Players, p)
	}

	// The Drunk believes they are a townsfolk not in play. Their token
	// shows the believed role; the permanent drunk flag corrupts it.
	if drunk := gs.PlayerByRole(character.Drunk); drunk != nil {
		believed := pickUndealtTownsfolk(script, deal, rng)
		if believed == "" {
			return nil, fmt.Errorf("%w: no townsfolk left for the drunk to believe", ErrInvariant)
		}
		drunk.Character = believed
		drunk.Drunk = true
		drunk.AddReminder(TokenIsTheDrunk, character.Drunk, string(believed))
	}

	gs.DemonBluffs = script.Bluffs(gs.RolesInPlay(), 3, rng)

	if err := gs.Validate(); err != nil {
		return nil, err
	}

	deliverEvilInfo(gs)
	gs.AddEvent("setup", fmt.Sprintf("game created with %d players", len(names)))
	return gs, nil
}

func pickUndealtTownsfolk(script character.Script, deal []character.Role, rng *rand.Rand) character.Role {
	dealt := make(map[character.Role]bool, len(deal))
	for _, r := range deal {
		dealt[r] = true
	}
	var pool []character.Role
	for _, r := range script.Townsfolk {
		if !dealt[r] {
			pool = append(pool, r)
		}
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[rng.Intn(len(pool))]
}

// deliverEvilInfo gives the demon its bluffs and lets the evil team learn
// each other before the first night begins.
func deliverEvilInfo(gs *GameState) {
	var demon *Player
	var minions []*Player
	for _, p := range gs.Players {
		switch {
		case p.Character.IsDemon():
			demon = p
		case p.Character.IsMinion():
			minions = append(minions, p)
		}
	}
	if demon == nil {
		return
	}

	minionNames := make([]string, 0, len(minions))
	for _, m := range minions {
		minionNames = append(minionNames, m.Name)
		m.AddInfo(0, m.Character, fmt.Sprintf("the demon is %s", demon.Name), true)
	}

	bluffNames := make([]string, 0, len(gs.DemonBluffs))
	for _, b := range gs.DemonBluffs {
		bluffNames = append(bluffNames, b.DisplayName())
	}
	demon.AddInfo(0, demon.Character,
		fmt.Sprintf("your minions are: %s", strings.Join(minionNames, ", ")), true)
	demon.AddInfo(0, demon.Character,
		fmt.Sprintf("these characters are not in play: %s", strings.Join(bluffNames, ", ")), true)
}
