package domain

// GroupVoterID keys the single shared vote entry used by pass-and-play
// rooms, where the table agrees on one consensus target instead of
// voting individually.
const GroupVoterID = "group"

// Votes maps a voter's player ID to their chosen target's player ID.
// One vote per voter; casting again overwrites the previous choice.
type Votes map[string]string

// Count returns the number of votes cast
func (v Votes) Count() int {
	return len(v)
}

// TallyEntry is the accumulated vote count for one candidate
type TallyEntry struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	VoteCount int    `json:"voteCount"`
}

// Result is the derived outcome of a round. It is computed from the
// room, never stored, and is deterministic for a fixed vote mapping.
type Result struct {
	Tally       []TallyEntry `json:"tally"`
	TopTargetID string       `json:"topTargetId"`
	ImposterID  string       `json:"imposterId"`
	SecretWord  string       `json:"secretWord"`
	CrewWins    bool         `json:"crewWins"`
}
