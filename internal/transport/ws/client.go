package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/sumeet/acro-party/internal/app"
	"github.com/sumeet/acro-party/internal/domain"
	"github.com/sumeet/acro-party/internal/render"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents a WebSocket client connection
type Client struct {
	conn     *websocket.Conn
	session  *app.GameSession
	hub      *app.GameHub
	playerID string
	limiter  *rate.Limiter
	send     chan []byte
	done     chan struct{}
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, session *app.GameSession, hub *app.GameHub, playerID string, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		session:  session,
		hub:      hub,
		playerID: playerID,
		limiter:  rate.NewLimiter(5, 10),
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// GetPlayerID returns the player ID for this client
func (c *Client) GetPlayerID() string {
	return c.playerID
}

// Send implements app.ClientConnection interface. Session broadcasts arrive
// as game events and are rewrapped so every message on the wire carries the
// same ServerMessage envelope.
func (c *Client) Send(message interface{}) error {
	if event, ok := message.(*domain.GameEvent); ok {
		message = NewServerMessage(messageTypeFor(event.Type), event.Payload)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped", "playerID", c.playerID)
		return nil
	}
}

// Close implements app.ClientConnection interface
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.session.UnregisterClient(c.playerID)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		if !c.limiter.Allow() {
			c.sendError(ErrCodeRateLimited, "Too many messages, slow down")
			continue
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	switch msg.Type {
	case MsgJoinGame:
		c.handleJoinGame(msg.Payload)
	case MsgStartGame:
		c.handleStartGame()
	case MsgSubmitPhrase:
		c.handleSubmitPhrase(msg.Payload)
	case MsgCastVote:
		c.handleCastVote(msg.Payload)
	case MsgAbortGame:
		c.handleAbortGame()
	case MsgPing:
		c.sendPong()
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

// handleJoinGame handles a join_game message
func (c *Client) handleJoinGame(payload interface{}) {
	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	name, ok := payloadMap["name"].(string)
	if !ok || name == "" {
		c.sendError(ErrCodeInvalidMessage, "Name is required")
		return
	}

	_, err := c.session.AddPlayer(c.playerID, name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrGameFull):
			c.sendError(ErrCodeGameFull, "Game is full")
		case errors.Is(err, domain.ErrGameAlreadyStarted):
			c.sendError(ErrCodeInvalidAction, "Game has already started")
		case errors.Is(err, domain.ErrAlreadyJoined):
			c.sendError(ErrCodeAlreadyJoined, "You have already joined")
		default:
			c.sendError(ErrCodeInternalError, err.Error())
		}
		return
	}

	// Send connected confirmation
	c.sendConnected()
}

// handleStartGame handles a start_game message
func (c *Client) handleStartGame() {
	err := c.session.StartGame(c.playerID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotHost):
			c.sendError(ErrCodeNotHost, "Only the game creator can start")
		case errors.Is(err, domain.ErrNotEnoughPlayers):
			c.sendError(ErrCodeInvalidAction, "Not enough players to start")
		case errors.Is(err, domain.ErrGameAlreadyStarted):
			c.sendError(ErrCodeInvalidAction, "Game has already started")
		default:
			c.sendError(ErrCodeInternalError, err.Error())
		}
		return
	}
}

// handleSubmitPhrase handles a submit_phrase message
func (c *Client) handleSubmitPhrase(payload interface{}) {
	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	text, ok := payloadMap["text"].(string)
	if !ok || text == "" {
		c.sendError(ErrCodeInvalidMessage, "Text is required")
		return
	}

	err := c.session.SubmitPhrase(c.playerID, text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAcronymMismatch):
			c.sendAcroMismatch()
		case errors.Is(err, domain.ErrAlreadySubmitted):
			c.sendError(ErrCodeAlreadySubmitted, "You have already submitted this round")
		case errors.Is(err, render.ErrContentRejected):
			c.sendError(ErrCodeContentRejected, "Your phrase was rejected by the safety filter, try rewording it")
		case errors.Is(err, domain.ErrNoActiveRound), errors.Is(err, domain.ErrGameNotStarted):
			c.sendError(ErrCodeInvalidAction, "Cannot submit now")
		case errors.Is(err, domain.ErrPlayerNotFound):
			c.sendError(ErrCodeInvalidAction, "Join the game before submitting")
		default:
			c.sendError(ErrCodeRenderFailed, "Could not render your phrase, try again")
		}
		return
	}

	c.Send(NewServerMessage(MsgSubmissionAccepted, nil))
}

// handleCastVote handles a cast_vote message
func (c *Client) handleCastVote(payload interface{}) {
	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	submissionID, ok := payloadMap["submissionId"].(string)
	if !ok || submissionID == "" {
		c.sendError(ErrCodeInvalidMessage, "Submission ID is required")
		return
	}

	err := c.session.CastVote(c.playerID, submissionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyVoted):
			c.sendError(ErrCodeAlreadyVoted, "You have already voted this round")
		case errors.Is(err, domain.ErrCannotVoteForSelf):
			c.sendError(ErrCodeCannotVoteSelf, "Cannot vote for your own submission")
		case errors.Is(err, domain.ErrSubmissionNotFound):
			c.sendError(ErrCodeUnknownSubmission, "No submission with that ID, check it and try again")
		case errors.Is(err, domain.ErrNoActiveRound), errors.Is(err, domain.ErrGameNotStarted):
			c.sendError(ErrCodeInvalidAction, "Cannot vote now")
		case errors.Is(err, domain.ErrPlayerNotFound):
			c.sendError(ErrCodeInvalidAction, "Join the game before voting")
		default:
			c.sendError(ErrCodeInternalError, err.Error())
		}
		return
	}

	c.Send(NewServerMessage(MsgVoteAccepted, nil))
}

// handleAbortGame handles an abort_game message. The session announces the
// abort and closes; the hub forgets the room so its code can be reused.
func (c *Client) handleAbortGame() {
	if err := c.session.AbortGame(c.playerID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotHost):
			c.sendError(ErrCodeNotHost, "Only the game creator can abort")
		default:
			c.sendError(ErrCodeInvalidAction, "Cannot abort now")
		}
		return
	}

	c.hub.DeleteSession(c.session.GetRoomCode())
}

// sendConnected sends the connected message to the client
func (c *Client) sendConnected() {
	payload := &ConnectedPayload{
		PlayerID: c.playerID,
		GameID:   c.session.GetRoomCode(),
		Phase:    c.session.GetPhase().String(),
		Acro:     c.session.Acro(),
	}

	c.Send(NewServerMessage(MsgConnected, payload))
}

// sendAcroMismatch reports a rejected phrase along with the acronym so the
// player can line their words up and resubmit
func (c *Client) sendAcroMismatch() {
	payload := &ErrorPayload{
		Code:    ErrCodeAcronymMismatch,
		Message: "Your phrase does not match the acronym, every word must start with its letters in order",
		Acro:    c.session.Acro(),
	}

	c.Send(NewServerMessage(MsgError, payload))
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	payload := &ErrorPayload{
		Code:    code,
		Message: message,
	}

	c.Send(NewServerMessage(MsgError, payload))
}

// sendPong sends a pong message in response to ping
func (c *Client) sendPong() {
	c.Send(NewServerMessage(MsgPong, nil))
}
