package domain

// Phase represents what a game is currently doing, for display purposes.
// Phase sequencing is owned by the session driving the game.
type Phase string

const (
	PhaseForming    Phase = "FORMING"    // Roster open, waiting for the creator to start
	PhaseSubmitting Phase = "SUBMITTING" // Collecting phrase submissions for the current round
	PhaseVoting     Phase = "VOTING"     // Collecting votes for the current round
	PhaseFinished   Phase = "FINISHED"   // All rounds played, standings final
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}
