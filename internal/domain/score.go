package domain

import (
	"fmt"
	"strings"
)

// ScoreReason identifies why a scoring event was awarded
type ScoreReason string

const (
	ScoreVotesReceived   ScoreReason = "VOTES_RECEIVED"
	ScoreVotedForWinner  ScoreReason = "VOTED_FOR_WINNER"
	ScoreSelfVotePenalty ScoreReason = "SELF_VOTE_PENALTY"
)

// ScoreEvent is one signed point contribution to a player's round score
type ScoreEvent struct {
	Reason ScoreReason `json:"reason"`
	Points int         `json:"points"`
}

func (e ScoreEvent) String() string {
	switch e.Reason {
	case ScoreVotesReceived:
		return fmt.Sprintf("%d from votes", e.Points)
	case ScoreVotedForWinner:
		return "1 for picking the winner"
	case ScoreSelfVotePenalty:
		return "-1 for voting for yourself"
	default:
		return fmt.Sprintf("%d", e.Points)
	}
}

// Breakdown itemizes one player's score for a round
type Breakdown struct {
	Player Player       `json:"player"`
	Events []ScoreEvent `json:"events"`
}

// Total sums the breakdown's scoring events
func (b *Breakdown) Total() int {
	total := 0
	for _, e := range b.Events {
		total += e.Points
	}
	return total
}

// String renders the breakdown as "<event> + <event> = N points"
func (b *Breakdown) String() string {
	if len(b.Events) == 0 {
		return "0 points"
	}

	parts := make([]string, len(b.Events))
	for i, e := range b.Events {
		parts[i] = e.String()
	}
	return fmt.Sprintf("%s = %d points", strings.Join(parts, " + "), b.Total())
}

// PlayerScore is a player's aggregate score across rounds
type PlayerScore struct {
	Player Player `json:"player"`
	Total  int    `json:"total"`
}
