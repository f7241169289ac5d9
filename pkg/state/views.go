package state

import (
	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
)

// PublicPlayer is what everyone at the table can see about a player.
type PublicPlayer struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Seat               int       `json:"seat"`
	Alive              bool      `json:"alive"`
	GhostVoteAvailable bool      `json:"ghost_vote_available"`
}

// NominationView is a public summary of one nomination.
type NominationView struct {
	Nominator string          `json:"nominator"`
	Nominee   string          `json:"nominee"`
	YesVotes  int             `json:"yes_votes"`
	State     NominationState `json:"state"`
}

// PublicGameView is the game as seen from any seat: phase, day count and
// who is alive. It never contains characters, teams or private info.
type PublicGameView struct {
	ID          uuid.UUID        `json:"id"`
	Phase       Phase            `json:"phase"`
	DayNumber   int              `json:"day_number"`
	NightNumber int              `json:"night_number"`
	Players     []PublicPlayer   `json:"players"`
	Nominations []NominationView `json:"nominations,omitempty"`
	Result      *Result          `json:"result,omitempty"`
}

// PrivatePlayerView adds one player's own secrets to the public view.
type PrivatePlayerView struct {
	PublicGameView
	PlayerID    uuid.UUID      `json:"player_id"`
	Character   character.Role `json:"character,omitempty"`
	PrivateInfo []InfoEntry    `json:"private_info,omitempty"`
}

// PublicView projects the state down to what is openly visible.
func (gs *GameState) PublicView() PublicGameView {
	view := PublicGameView{
		ID:          gs.ID,
		Phase:       gs.Phase,
		DayNumber:   gs.DayNumber,
		NightNumber: gs.NightNumber,
		Result:      gs.Result,
	}
	for _, p := range gs.Players {
		view.Players = append(view.Players, PublicPlayer{
			ID:                 p.ID,
			Name:               p.Name,
			Seat:               p.Seat,
			Alive:              p.Alive,
			GhostVoteAvailable: !p.Alive && !p.GhostVoteUsed,
		})
	}
	for _, n := range gs.Nominations {
		nominator := gs.PlayerByID(n.Nominator)
		nominee := gs.PlayerByID(n.Nominee)
		if nominator == nil || nominee == nil {
			continue
		}
		view.Nominations = append(view.Nominations, NominationView{
			Nominator: nominator.Name,
			Nominee:   nominee.Name,
			YesVotes:  n.YesVotes(),
			State:     n.State,
		})
	}
	return view
}

// PrivateView projects the state for one player: the public view plus
// their own character and information log. Returns nil for unknown IDs.
// Other players' secrets are never included.
func (gs *GameState) PrivateView(playerID uuid.UUID) *PrivatePlayerView {
	p := gs.PlayerByID(playerID)
	if p == nil {
		return nil
	}
	return &PrivatePlayerView{
		PublicGameView: gs.PublicView(),
		PlayerID:       p.ID,
		Character:      p.Character,
		PrivateInfo:    p.PrivateInfo,
	}
}
