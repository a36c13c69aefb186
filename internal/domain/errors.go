package domain

import "errors"

// Domain errors
var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameFull           = errors.New("game is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrGameNotStarted     = errors.New("game has not started")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrNotHost            = errors.New("only the game creator can perform this action")
	ErrAlreadyJoined      = errors.New("already joined this game")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrAcronymMismatch    = errors.New("submission does not match the acronym")
	ErrAlreadySubmitted   = errors.New("already submitted this round")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadyVoted       = errors.New("already voted this round")
	ErrCannotVoteForSelf  = errors.New("cannot vote for your own submission")
	ErrNoActiveRound      = errors.New("no active round")
	ErrBarrierExhausted   = errors.New("barrier has delivered all events")
)
