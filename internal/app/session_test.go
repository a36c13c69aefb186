package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumeet/acro-party/internal/domain"
	"github.com/sumeet/acro-party/internal/render"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClient records every event broadcast to a player
type fakeClient struct {
	playerID string

	mu     sync.Mutex
	events []*domain.GameEvent
	closed bool
}

func newFakeClient(playerID string) *fakeClient {
	return &fakeClient{playerID: playerID}
}

func (c *fakeClient) Send(message interface{}) error {
	event, ok := message.(*domain.GameEvent)
	if !ok {
		return errors.New("unexpected message type")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *fakeClient) GetPlayerID() string {
	return c.playerID
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// eventOfType returns the first recorded event of the given type
func (c *fakeClient) eventOfType(eventType domain.EventType) (*domain.GameEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ev := range c.events {
		if ev.Type == eventType {
			return ev, true
		}
	}
	return nil, false
}

func (c *fakeClient) countOfType(eventType domain.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, ev := range c.events {
		if ev.Type == eventType {
			count++
		}
	}
	return count
}

func testRules() domain.Rules {
	rules := domain.DefaultRules()
	rules.NumRounds = 1
	rules.MaxPlayers = 4
	return rules
}

// twoPlayerSession builds a registered two-player session ready to start
func twoPlayerSession(t *testing.T, renderer domain.Renderer, phaseTimeout time.Duration) (*GameSession, *fakeClient, *fakeClient) {
	t.Helper()

	session := NewGameSession("ROOM42", testRules(), renderer, phaseTimeout, testLogger())
	t.Cleanup(session.Close)

	alice := newFakeClient("p1")
	bob := newFakeClient("p2")
	session.RegisterClient("p1", alice)
	session.RegisterClient("p2", bob)

	_, err := session.AddPlayer("p1", "alice")
	require.NoError(t, err)
	_, err = session.AddPlayer("p2", "bob")
	require.NoError(t, err)

	return session, alice, bob
}

// phraseFor builds a phrase whose initials spell the acronym
func phraseFor(acro string) string {
	return phraseWith(acro, "x")
}

// phraseWith varies the words so different players submit distinct phrases
func phraseWith(acro, suffix string) string {
	words := make([]string, len(acro))
	for i := 0; i < len(acro); i++ {
		words[i] = string(acro[i]) + suffix
	}
	return strings.Join(words, " ")
}

func waitForEvent(t *testing.T, client *fakeClient, eventType domain.EventType) *domain.GameEvent {
	t.Helper()

	var event *domain.GameEvent
	require.Eventually(t, func() bool {
		ev, ok := client.eventOfType(eventType)
		if ok {
			event = ev
		}
		return ok
	}, 2*time.Second, 5*time.Millisecond, "no %s event arrived", eventType)
	return event
}

func TestGameSession_FullGame(t *testing.T) {
	t.Parallel()

	session, alice, bob := twoPlayerSession(t, render.Static{Image: []byte("png")}, 0)

	require.NoError(t, session.StartGame("p1"))

	started := waitForEvent(t, alice, domain.EventRoundStarted)
	payload, ok := started.Payload.(*domain.RoundStartedPayload)
	require.True(t, ok)
	assert.Equal(t, 1, payload.Round)
	assert.Equal(t, 1, payload.TotalRounds)
	require.NotEmpty(t, payload.Acro)
	assert.Equal(t, domain.PhaseSubmitting, session.GetPhase())

	acro := payload.Acro
	require.NoError(t, session.SubmitPhrase("p1", phraseFor(acro)))
	require.NoError(t, session.SubmitPhrase("p2", phraseFor(acro)))

	voting := waitForEvent(t, alice, domain.EventVotingStarted)
	ballot, ok := voting.Payload.(*domain.VotingStartedPayload)
	require.True(t, ok)
	require.Len(t, ballot.Submissions, 2)
	assert.Equal(t, domain.PhaseVoting, session.GetPhase())

	// Each player votes for the other's submission.
	var aliceSub, bobSub string
	for _, sub := range ballot.Submissions {
		switch sub.Player.ID {
		case "p1":
			aliceSub = sub.ID
		case "p2":
			bobSub = sub.ID
		}
	}
	require.NoError(t, session.CastVote("p1", bobSub))
	require.NoError(t, session.CastVote("p2", aliceSub))

	results := waitForEvent(t, bob, domain.EventRoundResults)
	resultsPayload, ok := results.Payload.(*domain.RoundResultsPayload)
	require.True(t, ok)
	assert.Len(t, resultsPayload.Results, 2)
	assert.Len(t, resultsPayload.Breakdowns, 2)

	ended := waitForEvent(t, alice, domain.EventGameEnded)
	standings, ok := ended.Payload.(*domain.GameEndedPayload)
	require.True(t, ok)
	require.Len(t, standings.Standings, 2)

	assert.Equal(t, domain.PhaseFinished, session.GetPhase())

	// Progress events: two per player during submission, one per vote.
	assert.Equal(t, 4, alice.countOfType(domain.EventSubmissionProgress))
	assert.Equal(t, 2, alice.countOfType(domain.EventVoteProgress))
}

func TestGameSession_LobbyUpdates(t *testing.T) {
	t.Parallel()

	session, alice, _ := twoPlayerSession(t, render.Static{Image: []byte("png")}, 0)
	_, err := session.AddPlayer("p3", "carol")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return alice.countOfType(domain.EventPlayerJoined) == 3
	}, 2*time.Second, 5*time.Millisecond)

	event, ok := alice.eventOfType(domain.EventPlayerJoined)
	require.True(t, ok)
	lobby, ok := event.Payload.(*domain.LobbyUpdatePayload)
	require.True(t, ok)
	assert.Equal(t, "p1", lobby.CreatorID)
}

func TestGameSession_StartGame_OnlyCreator(t *testing.T) {
	t.Parallel()

	session, _, _ := twoPlayerSession(t, render.Static{Image: []byte("png")}, 0)

	assert.ErrorIs(t, session.StartGame("p2"), domain.ErrNotHost)
	require.NoError(t, session.StartGame("p1"))
}

func TestGameSession_StartGame_NoPlayers(t *testing.T) {
	t.Parallel()

	session := NewGameSession("ROOM42", testRules(), render.Static{}, 0, testLogger())
	t.Cleanup(session.Close)

	assert.ErrorIs(t, session.StartGame("p1"), domain.ErrNotEnoughPlayers)
}

func TestGameSession_SubmitPhrase_BeforeStart(t *testing.T) {
	t.Parallel()

	session, _, _ := twoPlayerSession(t, render.Static{Image: []byte("png")}, 0)

	assert.ErrorIs(t, session.SubmitPhrase("p1", "Any Text"), domain.ErrGameNotStarted)
	assert.ErrorIs(t, session.CastVote("p1", "sub1"), domain.ErrGameNotStarted)
}

func TestGameSession_SubmitPhrase_UnknownPlayer(t *testing.T) {
	t.Parallel()

	session, alice, _ := twoPlayerSession(t, render.Static{Image: []byte("png")}, 0)
	require.NoError(t, session.StartGame("p1"))
	waitForEvent(t, alice, domain.EventRoundStarted)

	err := session.SubmitPhrase("ghost", phraseFor(session.Acro()))
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

// rejectOnceRenderer rejects each player's first phrase as unsafe
type rejectOnceRenderer struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (r *rejectOnceRenderer) Render(_ context.Context, phrase string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	if !r.seen[phrase] {
		r.seen[phrase] = true
		return nil, render.ErrContentRejected
	}
	return []byte("png"), nil
}

func TestGameSession_SubmitPhrase_RetryAfterRejection(t *testing.T) {
	t.Parallel()

	session, alice, _ := twoPlayerSession(t, &rejectOnceRenderer{}, 0)
	require.NoError(t, session.StartGame("p1"))

	started := waitForEvent(t, alice, domain.EventRoundStarted)
	acro := started.Payload.(*domain.RoundStartedPayload).Acro

	// Each phrase is rejected once; the identical retry passes.
	err := session.SubmitPhrase("p1", phraseWith(acro, "a"))
	require.ErrorIs(t, err, render.ErrContentRejected)
	require.NoError(t, session.SubmitPhrase("p1", phraseWith(acro, "a")))

	err = session.SubmitPhrase("p2", phraseWith(acro, "b"))
	require.ErrorIs(t, err, render.ErrContentRejected)
	require.NoError(t, session.SubmitPhrase("p2", phraseWith(acro, "b")))

	// Rejected attempts must not inflate progress; voting still opens.
	waitForEvent(t, alice, domain.EventVotingStarted)
	assert.Equal(t, 4, alice.countOfType(domain.EventSubmissionProgress))
}

func TestGameSession_PhaseTimeoutAdvancesRound(t *testing.T) {
	t.Parallel()

	session, alice, _ := twoPlayerSession(t, render.Static{Image: []byte("png")}, 50*time.Millisecond)
	require.NoError(t, session.StartGame("p1"))

	// Nobody submits or votes; both phases expire and the game still ends.
	ended := waitForEvent(t, alice, domain.EventGameEnded)
	standings := ended.Payload.(*domain.GameEndedPayload)
	require.Len(t, standings.Standings, 2)
	assert.Equal(t, 0, standings.Standings[0].Total)
	assert.Equal(t, domain.PhaseFinished, session.GetPhase())
}

func TestGameSession_PhaseGuards(t *testing.T) {
	t.Parallel()

	session, alice, _ := twoPlayerSession(t, render.Static{Image: []byte("png")}, 0)
	require.NoError(t, session.StartGame("p1"))

	started := waitForEvent(t, alice, domain.EventRoundStarted)
	acro := started.Payload.(*domain.RoundStartedPayload).Acro

	// No votes while submissions are still being collected.
	assert.ErrorIs(t, session.CastVote("p1", "sub1"), domain.ErrNoActiveRound)

	require.NoError(t, session.SubmitPhrase("p1", phraseWith(acro, "a")))
	require.NoError(t, session.SubmitPhrase("p2", phraseWith(acro, "b")))
	waitForEvent(t, alice, domain.EventVotingStarted)

	// No submissions once the ballot is finalized.
	assert.ErrorIs(t, session.SubmitPhrase("p1", phraseWith(acro, "c")), domain.ErrNoActiveRound)
}

func TestGameSession_AbortGame(t *testing.T) {
	t.Parallel()

	session, alice, bob := twoPlayerSession(t, render.Static{Image: []byte("png")}, 0)
	require.NoError(t, session.StartGame("p1"))
	waitForEvent(t, alice, domain.EventRoundStarted)

	assert.ErrorIs(t, session.AbortGame("p2"), domain.ErrNotHost)

	require.NoError(t, session.AbortGame("p1"))

	// Every client hears the abort before its connection is torn down.
	_, heard := alice.eventOfType(domain.EventGameAborted)
	assert.True(t, heard)
	_, heard = bob.eventOfType(domain.EventGameAborted)
	assert.True(t, heard)
	assert.True(t, alice.isClosed())
	assert.True(t, bob.isClosed())
}

func TestGameSession_AbortGame_NoGame(t *testing.T) {
	t.Parallel()

	session := NewGameSession("ROOM42", testRules(), render.Static{}, 0, testLogger())
	t.Cleanup(session.Close)

	assert.ErrorIs(t, session.AbortGame("p1"), domain.ErrPlayerNotFound)
}

func TestGameSession_Close(t *testing.T) {
	t.Parallel()

	session, alice, bob := twoPlayerSession(t, render.Static{Image: []byte("png")}, 0)
	require.NoError(t, session.StartGame("p1"))
	waitForEvent(t, alice, domain.EventRoundStarted)

	session.Close()

	assert.True(t, alice.isClosed())
	assert.True(t, bob.isClosed())
	assert.Equal(t, 0, session.GetClientCount())

	// Closing again is harmless.
	session.Close()
}

func TestGameSession_CanJoin(t *testing.T) {
	t.Parallel()

	rules := testRules()
	rules.MaxPlayers = 2
	session := NewGameSession("ROOM42", rules, render.Static{Image: []byte("png")}, 0, testLogger())
	t.Cleanup(session.Close)

	assert.True(t, session.CanJoin())

	_, err := session.AddPlayer("p1", "alice")
	require.NoError(t, err)
	assert.True(t, session.CanJoin())

	_, err = session.AddPlayer("p2", "bob")
	require.NoError(t, err)
	assert.False(t, session.CanJoin())
}
