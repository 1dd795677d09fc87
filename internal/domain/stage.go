package domain

// Stage represents the current stage of a room
type Stage string

const (
	StageLanding    Stage = "LANDING"     // No room yet, or room discarded
	StageLobby      Stage = "LOBBY"       // Waiting for players to join and ready up
	StageRoleReveal Stage = "ROLE_REVEAL" // Pass-and-play only: players view roles one by one
	StageActive     Stage = "ACTIVE"      // Players submitting clues in turn order
	StageReveal     Stage = "REVEAL"      // Imposter, secret word and vote outcome shown
)

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// CanTransitionTo checks if a transition from current stage to target stage is valid.
// Reset to landing is allowed from anywhere and is not listed here.
func (s Stage) CanTransitionTo(target Stage) bool {
	if target == StageLanding {
		return true
	}

	validTransitions := map[Stage][]Stage{
		StageLanding:    {StageLobby},
		StageLobby:      {StageRoleReveal, StageActive},
		StageRoleReveal: {StageActive},
		StageActive:     {StageReveal},
		StageReveal:     {StageLobby},
	}

	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}

	for _, stage := range allowed {
		if stage == target {
			return true
		}
	}
	return false
}
