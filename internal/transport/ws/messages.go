package ws

import (
	"time"

	"github.com/sumeet/acro-party/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgJoinGame     MessageType = "join_game"
	MsgStartGame    MessageType = "start_game"
	MsgSubmitPhrase MessageType = "submit_phrase"
	MsgCastVote     MessageType = "cast_vote"
	MsgAbortGame    MessageType = "abort_game"
	MsgPing         MessageType = "ping"
)

// Server → Client message types
const (
	MsgConnected          MessageType = "connected"
	MsgError              MessageType = "error"
	MsgLobbyUpdate        MessageType = "lobby_update"
	MsgGameStarted        MessageType = "game_started"
	MsgRoundStarted       MessageType = "round_started"
	MsgSubmissionAccepted MessageType = "submission_accepted"
	MsgSubmissionProgress MessageType = "submission_progress"
	MsgVotingStarted      MessageType = "voting_started"
	MsgVoteAccepted       MessageType = "vote_accepted"
	MsgVoteProgress       MessageType = "vote_progress"
	MsgRoundResults       MessageType = "round_results"
	MsgGameEnded          MessageType = "game_ended"
	MsgGameAborted        MessageType = "game_aborted"
	MsgPong               MessageType = "pong"
)

// messageTypeFor maps a broadcast game event to its wire message type, so
// every message on the socket carries the same envelope.
func messageTypeFor(event domain.EventType) MessageType {
	switch event {
	case domain.EventPlayerJoined:
		return MsgLobbyUpdate
	case domain.EventGameStarted:
		return MsgGameStarted
	case domain.EventRoundStarted:
		return MsgRoundStarted
	case domain.EventSubmissionProgress:
		return MsgSubmissionProgress
	case domain.EventVotingStarted:
		return MsgVotingStarted
	case domain.EventVoteProgress:
		return MsgVoteProgress
	case domain.EventRoundResults:
		return MsgRoundResults
	case domain.EventGameEnded:
		return MsgGameEnded
	case domain.EventGameAborted:
		return MsgGameAborted
	}
	return MessageType(event)
}

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// JoinGamePayload is the payload for join_game message
type JoinGamePayload struct {
	Name string `json:"name"`
}

// SubmitPhrasePayload is the payload for submit_phrase message
type SubmitPhrasePayload struct {
	Text string `json:"text"`
}

// CastVotePayload is the payload for cast_vote message
type CastVotePayload struct {
	SubmissionID string `json:"submissionId"`
}

// Server message payloads

// ConnectedPayload is the payload for connected message
type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
	GameID   string `json:"gameId"`
	Phase    string `json:"phase"`
	Acro     string `json:"acro,omitempty"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Acro    string `json:"acro,omitempty"` // Set on acronym_mismatch so the player can retry
}

// Error codes
const (
	ErrCodeInvalidMessage    = "INVALID_MESSAGE"
	ErrCodeGameNotFound      = "GAME_NOT_FOUND"
	ErrCodeGameFull          = "GAME_FULL"
	ErrCodeInvalidAction     = "INVALID_ACTION"
	ErrCodeNotHost           = "NOT_HOST"
	ErrCodeAlreadyJoined     = "ALREADY_JOINED"
	ErrCodeAcronymMismatch   = "ACRONYM_MISMATCH"
	ErrCodeAlreadySubmitted  = "ALREADY_SUBMITTED"
	ErrCodeContentRejected   = "CONTENT_REJECTED"
	ErrCodeRenderFailed      = "RENDER_FAILED"
	ErrCodeUnknownSubmission = "UNKNOWN_SUBMISSION"
	ErrCodeAlreadyVoted      = "ALREADY_VOTED"
	ErrCodeCannotVoteSelf    = "CANNOT_VOTE_SELF"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)
