package domain

import "time"

// Player identifies a participant. The ID is an opaque identifier minted by
// the transport layer; Name is the display handle shown to other players.
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

// NewPlayer creates a player with the given ID and display name
func NewPlayer(id, name string) Player {
	return Player{
		ID:       id,
		Name:     name,
		JoinedAt: time.Now(),
	}
}
