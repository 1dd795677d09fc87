package domain

import "time"

// Mode says how a room is driven: one device passed around the table,
// or independent clients synchronized through the replication channel.
type Mode string

const (
	ModeLocal     Mode = "LOCAL"
	ModeNetworked Mode = "NETWORKED"
)

// MinPlayers is the minimum number of players required to start a round
const MinPlayers = 3

// Room is the single source of truth for one play session. It is
// replicated as a single unit in networked mode: every push overwrites
// the whole record, every received snapshot replaces the local copy
// wholesale.
type Room struct {
	Stage     Stage        `json:"stage"`
	Code      string       `json:"code"`
	Mode      Mode         `json:"mode"`
	HostID    string       `json:"hostId"`
	Players   []Player     `json:"players"`
	Round     *RoundConfig `json:"round,omitempty"`
	TurnIndex int          `json:"turnIndex"`
	Clues     []Clue       `json:"clues"`
	Votes     Votes        `json:"votes"`

	// RoleSeen tracks which players have viewed their role during the
	// pass-and-play role-reveal stage. Unused in networked mode.
	RoleSeen map[string]bool `json:"roleSeen,omitempty"`

	// LastWord is the previous round's secret word, kept after reveal so
	// the next draw can exclude it. Public knowledge by then.
	LastWord string `json:"lastWord,omitempty"`

	// WriterID identifies the session controller that produced this
	// snapshot, so controllers can skip the echo of their own writes.
	WriterID string `json:"writerId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewRoom creates an empty room in the lobby stage
func NewRoom(code string, mode Mode) *Room {
	return &Room{
		Stage:     StageLobby,
		Code:      code,
		Mode:      mode,
		Players:   make([]Player, 0, MinPlayers),
		Votes:     make(Votes),
		CreatedAt: time.Now(),
	}
}

// Clone returns a deep copy of the room. Transitions operate on clones
// so that no function ever mutates its input state.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}

	next := *r

	next.Players = make([]Player, len(r.Players))
	copy(next.Players, r.Players)

	next.Clues = make([]Clue, len(r.Clues))
	copy(next.Clues, r.Clues)

	next.Votes = make(Votes, len(r.Votes))
	for voter, target := range r.Votes {
		next.Votes[voter] = target
	}

	if r.Round != nil {
		round := *r.Round
		next.Round = &round
	}

	if r.RoleSeen != nil {
		next.RoleSeen = make(map[string]bool, len(r.RoleSeen))
		for id, seen := range r.RoleSeen {
			next.RoleSeen[id] = seen
		}
	}

	return &next
}

// PlayerIndex returns the position of a player in turn order, or -1
func (r *Room) PlayerIndex(playerID string) int {
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// GetPlayer returns a player by ID
func (r *Room) GetPlayer(playerID string) (*Player, error) {
	if i := r.PlayerIndex(playerID); i >= 0 {
		return &r.Players[i], nil
	}
	return nil, ErrPlayerNotFound
}

// HasPlayer reports whether a player with the given ID is in the room
func (r *Room) HasPlayer(playerID string) bool {
	return r.PlayerIndex(playerID) >= 0
}

// CurrentPlayer returns the player whose turn it is to give a clue
func (r *Room) CurrentPlayer() (*Player, error) {
	if r.Stage != StageActive {
		return nil, ErrWrongStage
	}
	if r.TurnIndex < 0 || r.TurnIndex >= len(r.Players) {
		return nil, ErrPlayerNotFound
	}
	return &r.Players[r.TurnIndex], nil
}

// IsHost checks if the given player is the host
func (r *Room) IsHost(playerID string) bool {
	return playerID != "" && r.HostID == playerID
}

// AllReady reports whether every player in the room is ready
func (r *Room) AllReady() bool {
	for i := range r.Players {
		if !r.Players[i].Ready {
			return false
		}
	}
	return true
}

// AllRolesSeen reports whether every player has viewed their role
// during the pass-and-play role-reveal stage
func (r *Room) AllRolesSeen() bool {
	for i := range r.Players {
		if !r.RoleSeen[r.Players[i].ID] {
			return false
		}
	}
	return true
}

// ImposterID returns the ID of the player holding the imposter role,
// or the empty string before roles are assigned
func (r *Room) ImposterID() string {
	for i := range r.Players {
		if r.Players[i].IsImposter() {
			return r.Players[i].ID
		}
	}
	return ""
}

// RequiredVotes returns how many votes must be cast before a networked
// room may reveal: three quarters of the table rounded up, never fewer
// than two.
func (r *Room) RequiredVotes() int {
	n := len(r.Players)
	if n <= MinPlayers {
		return 2
	}
	required := (3*n + 3) / 4 // ceil(0.75 * n)
	if required < 2 {
		required = 2
	}
	return required
}

// ComputeResult derives the round outcome from the current votes. The
// top target is the candidate with the highest tally; ties break toward
// the earliest player in room order. Crew wins iff the top target is
// the imposter. The result is never stored on the room.
func (r *Room) ComputeResult() (*Result, error) {
	if r.Round == nil {
		return nil, ErrNoRound
	}

	counts := make(map[string]int, len(r.Players))
	for _, target := range r.Votes {
		counts[target]++
	}

	tally := make([]TallyEntry, 0, len(r.Players))
	topID := ""
	topCount := -1
	for i := range r.Players {
		p := &r.Players[i]
		count := counts[p.ID]
		tally = append(tally, TallyEntry{
			PlayerID:  p.ID,
			Name:      p.Name,
			VoteCount: count,
		})
		if count > topCount {
			topCount = count
			topID = p.ID
		}
	}

	imposterID := r.ImposterID()

	return &Result{
		Tally:       tally,
		TopTargetID: topID,
		ImposterID:  imposterID,
		SecretWord:  r.Round.SecretWord,
		CrewWins:    topID != "" && topID == imposterID,
	}, nil
}
