package domain

import (
	"errors"
	"fmt"
)

// Domain errors. All action rejections are reported through these,
// never through panics; callers surface them as disabled actions or
// messages and the room state stays unchanged.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrWrongStage       = errors.New("invalid action for current stage")
	ErrNotEnoughPlayers = errors.New("need at least 3 players to start")
	ErrPlayersNotReady  = errors.New("all players must be ready to start")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrNotYourTurn      = errors.New("not your turn to give a clue")
	ErrEmptyClue        = errors.New("clue cannot be empty")
	ErrNotHost          = errors.New("only the host can perform this action")
	ErrNoRound          = errors.New("no round in progress")
	ErrEmptyWordList    = errors.New("category has no words")
)

// NotEnoughVotesError rejects a reveal attempt below the vote threshold.
// It reports how many more votes are needed so the caller can tell the
// players what is blocking them.
type NotEnoughVotesError struct {
	Required int
	Cast     int
}

func (e *NotEnoughVotesError) Error() string {
	return fmt.Sprintf("reveal needs %d votes, have %d", e.Required, e.Cast)
}

// Missing returns how many more votes are needed before reveal is allowed
func (e *NotEnoughVotesError) Missing() int {
	return e.Required - e.Cast
}
