package domain

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Rules holds configurable game parameters
type Rules struct {
	NumRounds     int  `json:"numRounds"`
	MinPlayers    int  `json:"minPlayers"`
	MaxPlayers    int  `json:"maxPlayers"`
	AcroMinLen    int  `json:"acroMinLen"`
	AcroMaxLen    int  `json:"acroMaxLen"`
	AllowSelfVote bool `json:"allowSelfVote"`
}

// DefaultRules returns the default game rules
func DefaultRules() Rules {
	return Rules{
		NumRounds:     2,
		MinPlayers:    2,
		MaxPlayers:    10,
		AcroMinLen:    3,
		AcroMaxLen:    6,
		AllowSelfVote: false,
	}
}

// SubmissionProgress is reported to the submission barrier twice per player:
// once when their render starts and once when their submission lands.
type SubmissionProgress struct {
	Player Player `json:"player"`
	Done   bool   `json:"done"`
}

// Game owns the player roster and the sequence of rounds. The creator is
// always the first roster entry. Join events stream to a single observer;
// Start closes the stream, which is how the observer learns the roster is
// final and round play begins.
type Game struct {
	ID        string
	Rules     Rules
	CreatedAt time.Time

	mu      sync.Mutex
	players []Player
	rounds  []*Round
	started bool
	aborted bool
	joins   chan Player
	acros   *AcroGenerator

	// Per-round barriers, replaced by NextRound. The submission barrier is
	// sized 2x the roster to carry a started/finished pair per player.
	submissionBarrier *Barrier[SubmissionProgress]
	voteBarrier       *Barrier[Player]
}

// NewGame creates a game with the given creator as its first player
func NewGame(id string, creator Player, rules Rules, acros *AcroGenerator) *Game {
	g := &Game{
		ID:        id,
		Rules:     rules,
		CreatedAt: time.Now(),
		players:   []Player{creator},
		rounds:    make([]*Round, 0, rules.NumRounds),
		joins:     make(chan Player, rules.MaxPlayers),
		acros:     acros,
	}
	g.joins <- creator
	return g
}

// Join adds a player to the roster and emits a join event. Valid only while
// the game is forming.
func (g *Game) Join(player Player) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return ErrGameAlreadyStarted
	}
	if len(g.players) >= g.Rules.MaxPlayers {
		return ErrGameFull
	}
	for _, p := range g.players {
		if p.ID == player.ID {
			return ErrAlreadyJoined
		}
	}

	g.players = append(g.players, player)
	g.joins <- player
	return nil
}

// Joins returns the join event stream. One event per roster entry, creator
// included; the channel closes when the game starts.
func (g *Game) Joins() <-chan Player {
	return g.joins
}

// Start freezes the roster and closes the join stream
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return ErrGameAlreadyStarted
	}
	if len(g.players) < g.Rules.MinPlayers {
		return ErrNotEnoughPlayers
	}

	g.started = true
	close(g.joins)
	return nil
}

// Started reports whether Start has been called
func (g *Game) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

// Players returns the roster in join order
func (g *Game) Players() []Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	players := make([]Player, len(g.players))
	copy(players, g.players)
	return players
}

// PlayerCount returns the roster size
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// PlayerByID looks up a roster entry
func (g *Game) PlayerByID(id string) (Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range g.players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Creator returns the player who initiated the game
func (g *Game) Creator() Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.players[0]
}

// NextRound appends a fresh round with a newly generated acronym and
// replaces both phase barriers, sized to the frozen roster. Returns false
// once all rounds have been created, or if the game has not started.
func (g *Game) NextRound() (*Round, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started || g.aborted || len(g.rounds) >= g.Rules.NumRounds {
		return nil, false
	}

	round := NewRound(len(g.rounds)+1, g.acros.Generate(), g.Rules.AllowSelfVote)
	g.rounds = append(g.rounds, round)

	n := len(g.players)
	g.submissionBarrier = NewBarrier[SubmissionProgress](2 * n)
	g.voteBarrier = NewBarrier[Player](n)

	return round, true
}

// CurrentRound returns the round in play, or nil before the first round
func (g *Game) CurrentRound() *Round {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.rounds) == 0 {
		return nil
	}
	return g.rounds[len(g.rounds)-1]
}

// Rounds returns every round created so far, in chronological order
func (g *Game) Rounds() []*Round {
	g.mu.Lock()
	defer g.mu.Unlock()

	rounds := make([]*Round, len(g.rounds))
	copy(rounds, g.rounds)
	return rounds
}

// RoundNumber returns the 1-based number of the current round, 0 before play
func (g *Game) RoundNumber() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rounds)
}

// SubmissionProgressBarrier returns the current round's submission barrier
func (g *Game) SubmissionProgressBarrier() *Barrier[SubmissionProgress] {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submissionBarrier
}

// VoteProgressBarrier returns the current round's vote barrier
func (g *Game) VoteProgressBarrier() *Barrier[Player] {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.voteBarrier
}

// AddSubmission runs a submission through the current round and reports
// progress to the submission barrier: one started event on the player's
// first render attempt, one finished event when the submission lands.
// Validation and render errors consume no barrier slot that a retry would
// need a second time.
func (g *Game) AddSubmission(ctx context.Context, player Player, text string, renderer Renderer) (*Submission, error) {
	round, barrier := g.currentSubmissionPhase()
	if round == nil {
		return nil, ErrNoActiveRound
	}

	sub, err := round.addSubmission(ctx, player, text, renderer, func() {
		barrier.Report(SubmissionProgress{Player: player, Done: false})
	})
	if err != nil {
		return nil, err
	}

	barrier.Report(SubmissionProgress{Player: player, Done: true})
	return sub, nil
}

// AddVote runs a vote through the current round and reports the voter to
// the vote barrier
func (g *Game) AddVote(voter Player, submissionID string) error {
	round, barrier := g.currentVotePhase()
	if round == nil {
		return ErrNoActiveRound
	}

	if err := round.AddVote(voter, submissionID); err != nil {
		return err
	}
	barrier.Report(voter)
	return nil
}

func (g *Game) currentSubmissionPhase() (*Round, *Barrier[SubmissionProgress]) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.rounds) == 0 {
		return nil, nil
	}
	return g.rounds[len(g.rounds)-1], g.submissionBarrier
}

func (g *Game) currentVotePhase() (*Round, *Barrier[Player]) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.rounds) == 0 {
		return nil, nil
	}
	return g.rounds[len(g.rounds)-1], g.voteBarrier
}

// Winners sums every player's score breakdown across all rounds and returns
// the roster ordered by descending total. Ties keep join order.
func (g *Game) Winners() []PlayerScore {
	g.mu.Lock()
	players := make([]Player, len(g.players))
	copy(players, g.players)
	rounds := make([]*Round, len(g.rounds))
	copy(rounds, g.rounds)
	g.mu.Unlock()

	totals := make(map[string]int, len(players))
	for _, round := range rounds {
		for playerID, breakdown := range round.ScoreBreakdown() {
			totals[playerID] += breakdown.Total()
		}
	}

	standings := make([]PlayerScore, len(players))
	for i, p := range players {
		standings[i] = PlayerScore{Player: p, Total: totals[p.ID]}
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Total > standings[j].Total
	})
	return standings
}

// Abort tears the game down: the join stream is closed if still open and
// both barriers are released so no observer stays blocked. In-flight
// renders report into a cancelled barrier and are discarded.
func (g *Game) Abort() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.aborted {
		return
	}
	g.aborted = true

	if !g.started {
		g.started = true
		close(g.joins)
	}
	if g.submissionBarrier != nil {
		g.submissionBarrier.Cancel()
	}
	if g.voteBarrier != nil {
		g.voteBarrier.Cancel()
	}
}
