package domain

import (
	"crypto/rand"
	"time"
)

const (
	// submissionIDLength is the length of the public vote target identifier
	submissionIDLength = 8

	submissionIDChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Submission is an accepted phrase plus its rendered image. Votes are
// appended by the owning Round under its lock.
type Submission struct {
	ID        string    `json:"id"`
	Player    Player    `json:"player"`
	Text      string    `json:"text"`
	ImageData []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`

	voters []Player
}

func newSubmission(player Player, text string, imageData []byte) *Submission {
	return &Submission{
		ID:        generateSubmissionID(),
		Player:    player,
		Text:      text,
		ImageData: imageData,
		CreatedAt: time.Now(),
	}
}

// VoteCount returns the number of votes this submission has received
func (s *Submission) VoteCount() int {
	return len(s.voters)
}

// Voters returns the players who voted for this submission, in vote order
func (s *Submission) Voters() []Player {
	voters := make([]Player, len(s.voters))
	copy(voters, s.voters)
	return voters
}

func (s *Submission) addVote(voter Player) {
	s.voters = append(s.voters, voter)
}

func (s *Submission) hasVoter(playerID string) bool {
	for _, v := range s.voters {
		if v.ID == playerID {
			return true
		}
	}
	return false
}

// generateSubmissionID generates a random alphanumeric submission identifier
func generateSubmissionID() string {
	b := make([]byte, submissionIDLength)
	rand.Read(b)

	id := make([]byte, submissionIDLength)
	for i := range id {
		id[i] = submissionIDChars[int(b[i])%len(submissionIDChars)]
	}

	return string(id)
}
