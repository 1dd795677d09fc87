package domain

import "time"

// RoundConfig holds the configuration of the round in progress: which
// category the secret word was drawn from and the word itself. It is
// created at round start, replaced at every subsequent round start and
// cleared to nil while the room sits in the lobby.
type RoundConfig struct {
	CategoryID string    `json:"categoryId"`
	SecretWord string    `json:"secretWord"`
	StartedAt  time.Time `json:"startedAt"`
}

// NewRoundConfig creates the configuration for a freshly started round
func NewRoundConfig(categoryID, secretWord string) *RoundConfig {
	return &RoundConfig{
		CategoryID: categoryID,
		SecretWord: secretWord,
		StartedAt:  time.Now(),
	}
}

// Clue is a single word submitted by a player during their turn.
// Clues are append-only within a round and cleared at round start.
type Clue struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Word       string `json:"word"`
}
