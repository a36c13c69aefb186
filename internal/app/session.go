package app

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/sumeet/acro-party/internal/domain"
)

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(message interface{}) error
	GetPlayerID() string
	Close() error
}

// GameSession is the driver for one game: it owns the roster and round
// loops, consumes the phase barriers, and broadcasts progress to clients.
// The domain game serializes its own state; the session never holds its
// lock across a render.
type GameSession struct {
	roomCode     string
	rules        domain.Rules
	renderer     domain.Renderer
	phaseTimeout time.Duration
	logger       *slog.Logger
	createdAt    time.Time

	mu    sync.RWMutex
	game  *domain.Game
	phase domain.Phase

	clients   map[string]ClientConnection // playerID -> client
	clientsMu sync.RWMutex

	// Event channel for broadcasting
	events chan *domain.GameEvent

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewGameSession creates a new game session
func NewGameSession(roomCode string, rules domain.Rules, renderer domain.Renderer, phaseTimeout time.Duration, logger *slog.Logger) *GameSession {
	ctx, cancel := context.WithCancel(context.Background())
	session := &GameSession{
		roomCode:     roomCode,
		rules:        rules,
		renderer:     renderer,
		phaseTimeout: phaseTimeout,
		logger:       logger.With("roomCode", roomCode),
		createdAt:    time.Now(),
		phase:        domain.PhaseForming,
		clients:      make(map[string]ClientConnection),
		events:       make(chan *domain.GameEvent, 100),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	// Start event broadcaster
	go session.eventLoop()

	return session
}

// GetRoomCode returns the room code
func (s *GameSession) GetRoomCode() string {
	return s.roomCode
}

// GetCreatedAt returns when the session was created
func (s *GameSession) GetCreatedAt() time.Time {
	return s.createdAt
}

// GetPhase returns the current display phase
func (s *GameSession) GetPhase() domain.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// GetPlayerCount returns the roster size
func (s *GameSession) GetPlayerCount() int {
	if game := s.getGame(); game != nil {
		return game.PlayerCount()
	}
	return 0
}

// GetClientCount returns the number of connected clients
func (s *GameSession) GetClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// CanJoin checks if a new player can join the game
func (s *GameSession) CanJoin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.phase != domain.PhaseForming {
		return false
	}
	return s.game == nil || s.game.PlayerCount() < s.rules.MaxPlayers
}

// RegisterClient registers a client connection for a player
func (s *GameSession) RegisterClient(playerID string, client ClientConnection) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[playerID] = client
}

// UnregisterClient removes a client connection
func (s *GameSession) UnregisterClient(playerID string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, playerID)
}

func (s *GameSession) getGame() *domain.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.game
}

func (s *GameSession) setPhase(phase domain.Phase) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
}

// AddPlayer adds a player to the game. The first player to join creates the
// game and becomes its creator; everyone who joins is announced on the join
// stream, which the roster loop turns into lobby updates.
func (s *GameSession) AddPlayer(playerID, name string) (domain.Player, error) {
	player := domain.NewPlayer(playerID, name)

	s.mu.Lock()
	if s.game == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		acros := domain.NewAcroGenerator(s.rules.AcroMinLen, s.rules.AcroMaxLen, rng)
		s.game = domain.NewGame(s.roomCode, player, s.rules, acros)
		game := s.game
		s.mu.Unlock()

		go s.rosterLoop(game)
		return player, nil
	}
	game := s.game
	s.mu.Unlock()

	if err := game.Join(player); err != nil {
		return domain.Player{}, err
	}
	return player, nil
}

// StartGame freezes the roster and begins round play. Only the creator may
// start.
func (s *GameSession) StartGame(playerID string) error {
	game := s.getGame()
	if game == nil {
		return domain.ErrNotEnoughPlayers
	}
	if game.Creator().ID != playerID {
		return domain.ErrNotHost
	}

	if err := game.Start(); err != nil {
		return err
	}

	s.queueEvent(domain.NewEvent(domain.EventGameStarted, s.roomCode, &domain.GameStartedPayload{
		Players:   game.Players(),
		NumRounds: s.rules.NumRounds,
	}))
	return nil
}

// SubmitPhrase validates and renders a phrase for the current round. Only
// valid while the round is collecting submissions; once voting opens, a
// straggler's phrase is rejected instead of landing on a finalized ballot.
func (s *GameSession) SubmitPhrase(playerID, text string) error {
	game := s.getGame()
	if game == nil || !game.Started() {
		return domain.ErrGameNotStarted
	}
	player, ok := game.PlayerByID(playerID)
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if s.GetPhase() != domain.PhaseSubmitting {
		return domain.ErrNoActiveRound
	}

	_, err := game.AddSubmission(s.ctx, player, text, s.renderer)
	return err
}

// CastVote casts a vote in the current round. Only valid while the round is
// collecting votes.
func (s *GameSession) CastVote(playerID, submissionID string) error {
	game := s.getGame()
	if game == nil || !game.Started() {
		return domain.ErrGameNotStarted
	}
	voter, ok := game.PlayerByID(playerID)
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if s.GetPhase() != domain.PhaseVoting {
		return domain.ErrNoActiveRound
	}

	return game.AddVote(voter, submissionID)
}

// AbortGame tears the game down at the creator's request. The abort is
// announced to every connected client before the session closes; any
// in-flight renders are discarded.
func (s *GameSession) AbortGame(playerID string) error {
	game := s.getGame()
	if game == nil {
		return domain.ErrPlayerNotFound
	}
	if game.Creator().ID != playerID {
		return domain.ErrNotHost
	}

	s.broadcastEvent(domain.NewEvent(domain.EventGameAborted, s.roomCode, nil))
	s.logger.Info("game aborted by creator")
	s.Close()
	return nil
}

// Acro returns the current round's acronym, for error hints and reconnects
func (s *GameSession) Acro() string {
	game := s.getGame()
	if game == nil {
		return ""
	}
	if round := game.CurrentRound(); round != nil {
		return round.Acro()
	}
	return ""
}

// rosterLoop announces joins until the join stream closes, then hands
// control to the round loop. The closed stream is how the roster display
// learns the game has started.
func (s *GameSession) rosterLoop(game *domain.Game) {
	for {
		select {
		case <-s.done:
			return
		case player, ok := <-game.Joins():
			if !ok {
				s.runGame(game)
				return
			}
			s.queueEvent(domain.NewEvent(domain.EventPlayerJoined, s.roomCode, &domain.LobbyUpdatePayload{
				Players:   game.Players(),
				CreatorID: game.Creator().ID,
				Joined:    player,
			}))
		}
	}
}

// runGame drives every round: announce the acronym, observe submission
// progress, open voting, observe vote progress, publish the score
// breakdown, then advance. After the last round it publishes standings.
func (s *GameSession) runGame(game *domain.Game) {
	for {
		round, ok := game.NextRound()
		if !ok {
			break
		}

		s.setPhase(domain.PhaseSubmitting)
		s.queueEvent(domain.NewEvent(domain.EventRoundStarted, s.roomCode, &domain.RoundStartedPayload{
			Round:       round.Number,
			TotalRounds: s.rules.NumRounds,
			Acro:        round.Acro(),
		}))

		if !s.observeSubmissions(game) {
			return
		}

		s.setPhase(domain.PhaseVoting)
		s.queueEvent(domain.NewEvent(domain.EventVotingStarted, s.roomCode, s.ballotPayload(round)))

		if !s.observeVotes(game) {
			return
		}

		s.queueEvent(domain.NewEvent(domain.EventRoundResults, s.roomCode, s.resultsPayload(game, round)))
	}

	s.setPhase(domain.PhaseFinished)
	s.queueEvent(domain.NewEvent(domain.EventGameEnded, s.roomCode, &domain.GameEndedPayload{
		Standings: game.Winners(),
	}))
	s.logger.Info("game finished", "rounds", game.RoundNumber())
}

// observeSubmissions consumes the submission barrier, broadcasting progress
// as each player's render starts and finishes. Returns false if the session
// was closed mid-phase.
func (s *GameSession) observeSubmissions(game *domain.Game) bool {
	barrier := game.SubmissionProgressBarrier()
	ctx, cancel := s.phaseContext()
	defer cancel()

	finished := 0
	for {
		progress, err := barrier.Next(ctx)
		if errors.Is(err, domain.ErrBarrierExhausted) {
			return true
		}
		if err != nil {
			if s.ctx.Err() != nil {
				return false
			}
			// Phase deadline expired: missing players are treated as having
			// no submission and the round moves on.
			s.logger.Warn("submission phase timed out", "finished", finished)
			barrier.Cancel()
			return true
		}

		if progress.Done {
			finished++
		}
		s.queueEvent(domain.NewEvent(domain.EventSubmissionProgress, s.roomCode, &domain.SubmissionProgressPayload{
			Player:    progress.Player,
			Done:      progress.Done,
			Remaining: game.PlayerCount() - finished,
		}))
	}
}

// observeVotes consumes the vote barrier, broadcasting progress per vote.
// Returns false if the session was closed mid-phase.
func (s *GameSession) observeVotes(game *domain.Game) bool {
	barrier := game.VoteProgressBarrier()
	ctx, cancel := s.phaseContext()
	defer cancel()

	voted := 0
	for {
		voter, err := barrier.Next(ctx)
		if errors.Is(err, domain.ErrBarrierExhausted) {
			return true
		}
		if err != nil {
			if s.ctx.Err() != nil {
				return false
			}
			s.logger.Warn("voting phase timed out", "voted", voted)
			barrier.Cancel()
			return true
		}

		voted++
		s.queueEvent(domain.NewEvent(domain.EventVoteProgress, s.roomCode, &domain.VoteProgressPayload{
			Player:    voter,
			Remaining: game.PlayerCount() - voted,
		}))
	}
}

// phaseContext bounds one phase by the configured timeout, if any
func (s *GameSession) phaseContext() (context.Context, context.CancelFunc) {
	if s.phaseTimeout > 0 {
		return context.WithTimeout(s.ctx, s.phaseTimeout)
	}
	return context.WithCancel(s.ctx)
}

// ballotPayload builds the voting display for a round's submissions
func (s *GameSession) ballotPayload(round *domain.Round) *domain.VotingStartedPayload {
	subs := round.Submissions()
	views := make([]domain.SubmissionView, len(subs))
	for i, sub := range subs {
		views[i] = domain.SubmissionView{
			ID:        sub.ID,
			Player:    sub.Player,
			Text:      sub.Text,
			ImageData: sub.ImageData,
		}
	}
	return &domain.VotingStartedPayload{
		Round:       round.Number,
		Submissions: views,
	}
}

// resultsPayload builds the end-of-round display: vote counts winner first,
// plus every player's rendered score breakdown.
func (s *GameSession) resultsPayload(game *domain.Game, round *domain.Round) *domain.RoundResultsPayload {
	subs := round.Submissions()
	results := make([]domain.SubmissionResult, len(subs))
	for i, sub := range subs {
		results[i] = domain.SubmissionResult{
			ID:        sub.ID,
			Player:    sub.Player,
			Text:      sub.Text,
			VoteCount: sub.VoteCount(),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].VoteCount > results[j].VoteCount
	})

	breakdowns := round.ScoreBreakdown()
	players := game.Players()
	rendered := make([]domain.PlayerBreakdown, len(players))
	for i, p := range players {
		b, ok := breakdowns[p.ID]
		if !ok {
			b = &domain.Breakdown{Player: p}
		}
		rendered[i] = domain.PlayerBreakdown{
			Player:    p,
			Breakdown: b.String(),
			Total:     b.Total(),
		}
	}

	return &domain.RoundResultsPayload{
		Round:      round.Number,
		Results:    results,
		Breakdowns: rendered,
	}
}

// queueEvent adds an event to the broadcast queue
func (s *GameSession) queueEvent(event *domain.GameEvent) {
	select {
	case s.events <- event:
	default:
		s.logger.Warn("event queue full, dropping event", "type", event.Type)
	}
}

// eventLoop processes events and broadcasts to clients
func (s *GameSession) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.events:
			s.broadcastEvent(event)
		}
	}
}

// broadcastEvent sends an event to appropriate clients
func (s *GameSession) broadcastEvent(event *domain.GameEvent) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	// If player-specific, send only to that player
	if event.PlayerID != "" {
		if client, ok := s.clients[event.PlayerID]; ok {
			if err := client.Send(event); err != nil {
				s.logger.Debug("failed to send to client", "playerID", event.PlayerID, "error", err)
			}
		}
		return
	}

	// Broadcast to all clients
	for playerID, client := range s.clients {
		if err := client.Send(event); err != nil {
			s.logger.Debug("failed to send to client", "playerID", playerID, "error", err)
		}
	}
}

// Close aborts the game and shuts down the session. In-flight renders are
// cancelled and barrier observers released; their results are discarded.
func (s *GameSession) Close() {
	s.closeOnce.Do(func() {
		s.cancel()

		if game := s.getGame(); game != nil {
			game.Abort()
		}

		close(s.done)

		s.clientsMu.Lock()
		for _, client := range s.clients {
			client.Close()
		}
		s.clients = make(map[string]ClientConnection)
		s.clientsMu.Unlock()
	})
}
