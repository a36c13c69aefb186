package domain

import (
	"context"
	"sync"
)

// Renderer turns an accepted phrase into an image. Implementations may be
// slow; the round invokes Render outside its lock so concurrent submitters
// are not serialized behind each other.
type Renderer interface {
	Render(ctx context.Context, phrase string) ([]byte, error)
}

// Round owns one acronym, the submissions made against it, and the votes
// cast on those submissions. Validation and list mutation run under the
// round lock; rendering does not.
//
// The round itself does not track a phase. The driver sequences the
// submission and voting phases; each operation re-validates its own
// preconditions so an out-of-phase call fails instead of corrupting state.
type Round struct {
	Number int

	acro          string
	allowSelfVote bool

	mu          sync.Mutex
	submissions []*Submission
	pending     map[string]bool // players with a render in flight
	announced   map[string]bool // players whose first render attempt was announced
}

// NewRound creates a round for the given acronym
func NewRound(number int, acro string, allowSelfVote bool) *Round {
	return &Round{
		Number:        number,
		acro:          acro,
		allowSelfVote: allowSelfVote,
		submissions:   make([]*Submission, 0),
		pending:       make(map[string]bool),
		announced:     make(map[string]bool),
	}
}

// Acro returns the round's acronym
func (r *Round) Acro() string {
	return r.acro
}

// Submissions returns the round's submissions in arrival order
func (r *Round) Submissions() []*Submission {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := make([]*Submission, len(r.submissions))
	copy(subs, r.submissions)
	return subs
}

// SubmissionCount returns the number of accepted submissions
func (r *Round) SubmissionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.submissions)
}

// addSubmission validates the phrase against the acronym, renders it, and
// appends the resulting submission. The render runs outside the round lock.
// A failed render releases the player's slot so they can rephrase and retry.
//
// started, when non-nil, runs on the player's first render attempt only;
// retries after a rejected render do not re-run it.
func (r *Round) addSubmission(ctx context.Context, player Player, text string, renderer Renderer, started func()) (*Submission, error) {
	firstAttempt, err := r.beginSubmission(player, text)
	if err != nil {
		return nil, err
	}
	if firstAttempt && started != nil {
		started()
	}

	imageData, err := renderer.Render(ctx, text)
	if err != nil {
		r.abandonSubmission(player)
		return nil, err
	}

	return r.completeSubmission(player, text, imageData), nil
}

// beginSubmission validates the phrase and reserves the player's submission
// slot while the render is in flight.
func (r *Round) beginSubmission(player Player, text string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !InitialsMatch(text, r.acro) {
		return false, ErrAcronymMismatch
	}
	if r.pending[player.ID] || r.hasSubmissionFrom(player.ID) {
		return false, ErrAlreadySubmitted
	}

	r.pending[player.ID] = true
	firstAttempt := !r.announced[player.ID]
	r.announced[player.ID] = true
	return firstAttempt, nil
}

func (r *Round) completeSubmission(player Player, text string, imageData []byte) *Submission {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, player.ID)
	sub := newSubmission(player, text, imageData)
	r.submissions = append(r.submissions, sub)
	return sub
}

func (r *Round) abandonSubmission(player Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, player.ID)
}

func (r *Round) hasSubmissionFrom(playerID string) bool {
	for _, s := range r.submissions {
		if s.Player.ID == playerID {
			return true
		}
	}
	return false
}

// AddVote records a vote for the submission with the given ID. A player
// votes at most once per round; self-votes are rejected unless the round
// permits them.
func (r *Round) AddVote(voter Player, submissionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.submissions {
		if s.hasVoter(voter.ID) {
			return ErrAlreadyVoted
		}
	}

	for _, s := range r.submissions {
		if s.ID == submissionID {
			if !r.allowSelfVote && s.Player.ID == voter.ID {
				return ErrCannotVoteForSelf
			}
			s.addVote(voter)
			return nil
		}
	}

	return ErrSubmissionNotFound
}

// VoteCount returns the total number of votes cast in the round
func (r *Round) VoteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, s := range r.submissions {
		total += len(s.voters)
	}
	return total
}

// WinningSubmission returns the submission with the most votes. Ties go to
// the submission that arrived first. Returns nil for an empty round.
func (r *Round) WinningSubmission() *Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winningSubmission()
}

func (r *Round) winningSubmission() *Submission {
	var winner *Submission
	for _, s := range r.submissions {
		if winner == nil || len(s.voters) > len(winner.voters) {
			winner = s
		}
	}
	return winner
}

// ScoreBreakdown computes each player's itemized score for the round:
// non-owner votes on a submission are aggregated into one event for its
// owner, every self-vote costs the voter a point, and every voter of the
// winning submission earns a bonus point.
func (r *Round) ScoreBreakdown() map[string]*Breakdown {
	r.mu.Lock()
	defer r.mu.Unlock()

	breakdowns := make(map[string]*Breakdown)
	get := func(p Player) *Breakdown {
		b, ok := breakdowns[p.ID]
		if !ok {
			b = &Breakdown{Player: p}
			breakdowns[p.ID] = b
		}
		return b
	}

	for _, s := range r.submissions {
		fromOthers := 0
		for _, voter := range s.voters {
			if voter.ID == s.Player.ID {
				b := get(voter)
				b.Events = append(b.Events, ScoreEvent{Reason: ScoreSelfVotePenalty, Points: -1})
			} else {
				fromOthers++
			}
		}
		if fromOthers > 0 {
			b := get(s.Player)
			b.Events = append(b.Events, ScoreEvent{Reason: ScoreVotesReceived, Points: fromOthers})
		}
	}

	if winner := r.winningSubmission(); winner != nil {
		for _, voter := range winner.voters {
			b := get(voter)
			b.Events = append(b.Events, ScoreEvent{Reason: ScoreVotedForWinner, Points: 1})
		}
	}

	return breakdowns
}
