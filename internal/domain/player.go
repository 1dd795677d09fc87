package domain

import (
	"strings"
	"time"
)

// DefaultPlayerName is used when a player joins with a blank name
const DefaultPlayerName = "Player"

// Player represents a player in a room. Players are ordered by insertion;
// the slice order in Room.Players defines the turn rotation.
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Ready    bool      `json:"ready"`
	Role     Role      `json:"role,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

// NewPlayer creates a new player with the given ID and name.
// A blank name falls back to the default placeholder.
func NewPlayer(id, name string) Player {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultPlayerName
	}
	return Player{
		ID:       id,
		Name:     name,
		JoinedAt: time.Now(),
	}
}

// ResetForNewRound clears per-round player state
func (p *Player) ResetForNewRound() {
	p.Ready = false
	p.Role = RoleUnassigned
}

// IsImposter returns true if the player holds the imposter role this round
func (p *Player) IsImposter() bool {
	return p.Role.IsImposter()
}
