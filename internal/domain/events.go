package domain

import "time"

// EventType represents the type of game event
type EventType string

const (
	EventPlayerJoined       EventType = "PLAYER_JOINED"
	EventGameStarted        EventType = "GAME_STARTED"
	EventRoundStarted       EventType = "ROUND_STARTED"
	EventSubmissionProgress EventType = "SUBMISSION_PROGRESS"
	EventVotingStarted      EventType = "VOTING_STARTED"
	EventVoteProgress       EventType = "VOTE_PROGRESS"
	EventRoundResults       EventType = "ROUND_RESULTS"
	EventGameEnded          EventType = "GAME_ENDED"
	EventGameAborted        EventType = "GAME_ABORTED"
)

// GameEvent represents an event that occurred in the game
type GameEvent struct {
	Type      EventType   `json:"type"`
	GameID    string      `json:"gameId"`
	PlayerID  string      `json:"playerId,omitempty"` // If event is player-specific
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new game event
func NewEvent(eventType EventType, gameID string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		GameID:    gameID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Payload types for different events

// LobbyUpdatePayload is sent whenever the roster changes during Forming
type LobbyUpdatePayload struct {
	Players   []Player `json:"players"`
	CreatorID string   `json:"creatorId"`
	Joined    Player   `json:"joined"`
}

// GameStartedPayload announces the final roster and round count
type GameStartedPayload struct {
	Players   []Player `json:"players"`
	NumRounds int      `json:"numRounds"`
}

// RoundStartedPayload announces a round's acronym
type RoundStartedPayload struct {
	Round       int    `json:"round"`
	TotalRounds int    `json:"totalRounds"`
	Acro        string `json:"acro"`
}

// SubmissionProgressPayload is sent as players' renders start and finish
type SubmissionProgressPayload struct {
	Player    Player `json:"player"`
	Done      bool   `json:"done"`
	Remaining int    `json:"remaining"` // players still to finish
}

// SubmissionView is a submission as shown on the voting ballot
type SubmissionView struct {
	ID        string `json:"id"`
	Player    Player `json:"player"`
	Text      string `json:"text"`
	ImageData []byte `json:"imageData"` // base64 on the wire
}

// VotingStartedPayload carries the finalized ballot for the round
type VotingStartedPayload struct {
	Round       int              `json:"round"`
	Submissions []SubmissionView `json:"submissions"`
}

// VoteProgressPayload is sent as each vote lands
type VoteProgressPayload struct {
	Player    Player `json:"player"`
	Remaining int    `json:"remaining"`
}

// SubmissionResult is one ballot entry with its final vote count
type SubmissionResult struct {
	ID        string `json:"id"`
	Player    Player `json:"player"`
	Text      string `json:"text"`
	VoteCount int    `json:"voteCount"`
}

// PlayerBreakdown is one player's itemized round score, pre-rendered
type PlayerBreakdown struct {
	Player    Player `json:"player"`
	Breakdown string `json:"breakdown"`
	Total     int    `json:"total"`
}

// RoundResultsPayload is sent when a round is scored, winner first
type RoundResultsPayload struct {
	Round      int                `json:"round"`
	Results    []SubmissionResult `json:"results"`
	Breakdowns []PlayerBreakdown  `json:"breakdowns"`
}

// GameEndedPayload carries the final standings
type GameEndedPayload struct {
	Standings []PlayerScore `json:"standings"`
}
