// Package engine implements the room state machine: one pure function
// per player action, each taking the current room and returning the
// next one. No function mutates its input; rejected actions return an
// error and leave the caller's state untouched.
package engine

import (
	"strings"

	"github.com/modularwolf/impostergame.io/internal/domain"
	"github.com/modularwolf/impostergame.io/internal/words"
)

// CustomCategoryID marks rounds played with a host-supplied word
// instead of one drawn from the catalog.
const CustomCategoryID = "custom"

// Settings holds configurable engine parameters
type Settings struct {
	MaxPlayers int
}

// DefaultSettings returns the default engine settings
func DefaultSettings() Settings {
	return Settings{MaxPlayers: 10}
}

// Engine computes room state transitions. Randomness (imposter choice,
// word choice, starting turn) comes from the injected source so tests
// can pin outcomes with a seed.
type Engine struct {
	catalog  *words.Catalog
	rng      domain.Rand
	settings Settings
}

// New creates an engine drawing words from catalog and randomness from rng
func New(catalog *words.Catalog, rng domain.Rand, settings Settings) *Engine {
	if settings.MaxPlayers <= 0 {
		settings.MaxPlayers = DefaultSettings().MaxPlayers
	}
	return &Engine{catalog: catalog, rng: rng, settings: settings}
}

// CreateRoom creates a room in the lobby stage with the host as its
// first player. The host keeps the start-round and next-round
// privileges for the room's lifetime.
func (e *Engine) CreateRoom(code string, mode domain.Mode, hostID, hostName string) *domain.Room {
	room := domain.NewRoom(code, mode)
	host := domain.NewPlayer(hostID, hostName)
	room.Players = append(room.Players, host)
	room.HostID = hostID
	return room
}

// Join adds a player to a lobby-stage room. Joining with an ID that is
// already present is a no-op, so a re-join after a dropped connection
// never duplicates the player.
func (e *Engine) Join(r *domain.Room, playerID, name string) (*domain.Room, error) {
	if r.HasPlayer(playerID) {
		return r.Clone(), nil
	}
	if r.Stage != domain.StageLobby {
		return nil, domain.ErrWrongStage
	}
	if len(r.Players) >= e.settings.MaxPlayers {
		return nil, domain.ErrRoomFull
	}

	next := r.Clone()
	next.Players = append(next.Players, domain.NewPlayer(playerID, name))
	return next, nil
}

// ToggleReady flips the ready flag of exactly one player. Readiness is
// only meaningful in the lobby.
func (e *Engine) ToggleReady(r *domain.Room, playerID string) (*domain.Room, error) {
	if r.Stage != domain.StageLobby {
		return nil, domain.ErrWrongStage
	}
	if !r.HasPlayer(playerID) {
		return nil, domain.ErrPlayerNotFound
	}

	next := r.Clone()
	i := next.PlayerIndex(playerID)
	next.Players[i].Ready = !next.Players[i].Ready
	return next, nil
}

// StartRound begins a round: picks the imposter, the secret word and
// the starting player uniformly at random, clears clue history and
// votes, and moves to role-reveal (pass-and-play) or straight to
// active play (networked). Requires at least three players; networked
// rooms additionally require every player to be ready.
//
// A non-blank customWord overrides the catalog; it is trimmed and the
// round is marked with the custom category ID.
func (e *Engine) StartRound(r *domain.Room, categoryID, customWord string) (*domain.Room, error) {
	if r.Stage != domain.StageLobby {
		return nil, domain.ErrWrongStage
	}
	if len(r.Players) < domain.MinPlayers {
		return nil, domain.ErrNotEnoughPlayers
	}
	if r.Mode == domain.ModeNetworked && !r.AllReady() {
		return nil, domain.ErrPlayersNotReady
	}

	resolvedCategory := CustomCategoryID
	secretWord := strings.TrimSpace(customWord)
	if secretWord == "" {
		var err error
		// The previous round's word is public after its reveal, so it
		// is excluded from the draw.
		resolvedCategory, secretWord, err = e.catalog.PickWordExcluding(categoryID, []string{r.LastWord})
		if err != nil {
			return nil, err
		}
	}

	next := r.Clone()
	next.Round = domain.NewRoundConfig(resolvedCategory, secretWord)
	next.Clues = next.Clues[:0]
	next.Votes = make(domain.Votes)
	next.TurnIndex = e.rng.Intn(len(next.Players))

	imposterIdx := e.rng.Intn(len(next.Players))
	for i := range next.Players {
		if i == imposterIdx {
			next.Players[i].Role = domain.RoleImposter
		} else {
			next.Players[i].Role = domain.RoleKnower
		}
	}

	if next.Mode == domain.ModeLocal {
		next.RoleSeen = make(map[string]bool, len(next.Players))
		next.Stage = domain.StageRoleReveal
	} else {
		next.RoleSeen = nil
		next.Stage = domain.StageActive
	}

	return next, nil
}

// MarkRoleSeen records that a player has viewed their role during the
// pass-and-play role-reveal stage. When the last player has looked,
// the room moves to active play.
func (e *Engine) MarkRoleSeen(r *domain.Room, playerID string) (*domain.Room, error) {
	if r.Stage != domain.StageRoleReveal {
		return nil, domain.ErrWrongStage
	}
	if !r.HasPlayer(playerID) {
		return nil, domain.ErrPlayerNotFound
	}

	next := r.Clone()
	if next.RoleSeen == nil {
		next.RoleSeen = make(map[string]bool, len(next.Players))
	}
	next.RoleSeen[playerID] = true

	if next.AllRolesSeen() {
		next.Stage = domain.StageActive
	}
	return next, nil
}

// SubmitClue appends the current player's clue and rotates the turn to
// the next player in room order. Only the player at the turn pointer
// may submit. The one-word rule is a social contract: the clue is
// trimmed but not otherwise validated.
func (e *Engine) SubmitClue(r *domain.Room, playerID, word string) (*domain.Room, error) {
	if r.Stage != domain.StageActive {
		return nil, domain.ErrWrongStage
	}

	word = strings.TrimSpace(word)
	if word == "" {
		return nil, domain.ErrEmptyClue
	}

	current, err := r.CurrentPlayer()
	if err != nil {
		return nil, err
	}
	if current.ID != playerID {
		return nil, domain.ErrNotYourTurn
	}

	next := r.Clone()
	next.Clues = append(next.Clues, domain.Clue{
		PlayerID:   current.ID,
		PlayerName: current.Name,
		Word:       word,
	})
	next.TurnIndex = (next.TurnIndex + 1) % len(next.Players)
	return next, nil
}

// CastVote records the voter's chosen target, overwriting any earlier
// choice by the same voter. Pass-and-play rooms vote once as a group
// using the shared group voter key.
func (e *Engine) CastVote(r *domain.Room, voterID, targetID string) (*domain.Room, error) {
	if r.Stage != domain.StageActive {
		return nil, domain.ErrWrongStage
	}
	if voterID == domain.GroupVoterID {
		// The shared group key exists only for pass-and-play consensus;
		// in a networked room it would count toward the vote threshold
		// without belonging to any player.
		if r.Mode != domain.ModeLocal {
			return nil, domain.ErrPlayerNotFound
		}
	} else if !r.HasPlayer(voterID) {
		return nil, domain.ErrPlayerNotFound
	}
	if !r.HasPlayer(targetID) {
		return nil, domain.ErrPlayerNotFound
	}

	next := r.Clone()
	next.Votes[voterID] = targetID
	return next, nil
}

// Reveal moves the room to the reveal stage. Pass-and-play rooms
// reveal unconditionally; networked rooms require the vote threshold
// to be met and report how many votes are still missing otherwise.
func (e *Engine) Reveal(r *domain.Room) (*domain.Room, error) {
	if r.Stage != domain.StageActive {
		return nil, domain.ErrWrongStage
	}

	if r.Mode == domain.ModeNetworked {
		required := r.RequiredVotes()
		if cast := r.Votes.Count(); cast < required {
			return nil, &domain.NotEnoughVotesError{Required: required, Cast: cast}
		}
	}

	next := r.Clone()
	next.Stage = domain.StageReveal
	return next, nil
}

// NextRound returns the room to the lobby for another round. Players
// and room code are preserved; the round config, clue history, votes,
// readiness and roles are all cleared.
func (e *Engine) NextRound(r *domain.Room) (*domain.Room, error) {
	if r.Stage != domain.StageReveal {
		return nil, domain.ErrWrongStage
	}

	next := r.Clone()
	next.Stage = domain.StageLobby
	if next.Round != nil {
		next.LastWord = next.Round.SecretWord
	}
	next.Round = nil
	next.Clues = next.Clues[:0]
	next.Votes = make(domain.Votes)
	next.RoleSeen = nil
	next.TurnIndex = 0
	for i := range next.Players {
		next.Players[i].ResetForNewRound()
	}
	return next, nil
}

// Reset discards the room entirely and returns to the landing stage.
// The room code is gone; getting back in means creating or joining a
// fresh room.
func (e *Engine) Reset(r *domain.Room) *domain.Room {
	return &domain.Room{
		Stage: domain.StageLanding,
		Mode:  r.Mode,
		Votes: make(domain.Votes),
	}
}
