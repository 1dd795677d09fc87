package session

import "github.com/modularwolf/impostergame.io/internal/domain"

// Action names a player-facing operation for capability checks
type Action string

const (
	ActionStartRound Action = "start_round"
	ActionNextRound  Action = "next_round"
	ActionReveal     Action = "reveal"
	ActionReset      Action = "reset"
)

// Policy decides whether an actor may perform an action on a room.
// It is consulted by the controller before dispatch, keeping privilege
// rules in one predicate instead of scattered conditionals.
type Policy func(actorID string, action Action, room *domain.Room) error

// AllowAll permits every action. Pass-and-play rooms use it: a single
// physical operator drives all players.
func AllowAll() Policy {
	return func(string, Action, *domain.Room) error {
		return nil
	}
}

// HostOnly reserves round-setup actions for the room's host. Everyone
// may still reveal once the vote threshold is met.
func HostOnly() Policy {
	return func(actorID string, action Action, room *domain.Room) error {
		switch action {
		case ActionStartRound, ActionNextRound:
			if !room.IsHost(actorID) {
				return domain.ErrNotHost
			}
		}
		return nil
	}
}
