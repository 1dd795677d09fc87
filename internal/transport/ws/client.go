package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/modularwolf/impostergame.io/internal/domain"
	"github.com/modularwolf/impostergame.io/internal/session"
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

// Client is one WebSocket connection driving one session controller.
// In networked mode the connection belongs to a single player; in
// pass-and-play mode it is the shared device for the whole table.
type Client struct {
	conn       *websocket.Conn
	controller *session.Controller
	hub        *session.Hub
	send       chan []byte
	done       chan struct{}
	logger     *slog.Logger

	mu       sync.Mutex
	closed   bool
	playerID string
	roomCode string
}

// NewClient creates a client around an upgraded connection. The state
// callback is registered here so remote snapshots reach the browser.
func NewClient(conn *websocket.Conn, controller *session.Controller, hub *session.Hub, logger *slog.Logger) *Client {
	c := &Client{
		conn:       conn,
		controller: controller,
		hub:        hub,
		send:       make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
		logger:     logger,
	}

	controller.SetOnState(c.onState)

	return c
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// Close shuts the connection down. Safe to call more than once.
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

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.detach()
		c.controller.LeaveRoom()
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

// onState pushes a state snapshot to the browser. It fires for both
// local transitions and remote snapshots applied by the controller.
func (c *Client) onState(state *domain.Room) {
	c.mu.Lock()
	playerID := c.playerID
	c.mu.Unlock()

	payload := &RoomStatePayload{Room: c.redact(state, playerID)}
	if state.Stage == domain.StageReveal {
		if result, err := state.ComputeResult(); err == nil {
			payload.Result = result
		}
	}

	c.enqueue(NewServerMessage(MsgRoomState, payload))
}

// redact hides per-player secrets in networked mode. Pass-and-play
// snapshots go out whole: the table shares one screen and privacy is
// handled by handing the device around.
func (c *Client) redact(state *domain.Room, playerID string) *domain.Room {
	if c.controller.Mode() == domain.ModeLocal {
		return state
	}
	return session.Redact(state, playerID)
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format", nil)
		return
	}

	switch msg.Type {
	case MsgCreateRoom:
		c.handleCreateRoom(msg.Payload)
	case MsgJoinRoom:
		c.handleJoinRoom(msg.Payload)
	case MsgResume:
		c.handleResume(msg.Payload)
	case MsgAddPlayer:
		c.handleAddPlayer(msg.Payload)
	case MsgToggleReady:
		c.handleToggleReady(msg.Payload)
	case MsgStartRound:
		c.handleStartRound(msg.Payload)
	case MsgMarkRoleSeen:
		c.handleMarkRoleSeen(msg.Payload)
	case MsgSubmitClue:
		c.handleSubmitClue(msg.Payload)
	case MsgCastVote:
		c.handleCastVote(msg.Payload)
	case MsgReveal:
		c.handleReveal()
	case MsgNextRound:
		c.handleNextRound()
	case MsgLeaveRoom:
		c.handleLeaveRoom()
	case MsgPing:
		c.enqueue(NewServerMessage(MsgPong, nil))
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type", nil)
	}
}

func (c *Client) handleCreateRoom(payload interface{}) {
	name, _ := payloadString(payload, "name")

	room, err := c.controller.CreateRoom(name)
	if err != nil {
		c.sendActionError(err)
		return
	}

	c.attach(room.Code, c.controller.ActorID())
	c.sendConnected(room)
}

func (c *Client) handleJoinRoom(payload interface{}) {
	code, ok := payloadString(payload, "code")
	if !ok || code == "" {
		c.sendError(ErrCodeInvalidMessage, "Room code is required", nil)
		return
	}
	name, _ := payloadString(payload, "name")

	room, err := c.controller.JoinRoom(normalizeCode(code), name)
	if err != nil {
		c.sendActionError(err)
		return
	}

	c.attach(room.Code, c.controller.ActorID())
	c.sendConnected(room)
}

func (c *Client) handleResume(payload interface{}) {
	code, ok := payloadString(payload, "code")
	if !ok || code == "" {
		c.sendError(ErrCodeInvalidMessage, "Room code is required", nil)
		return
	}
	playerID, ok := payloadString(payload, "playerId")
	if !ok || playerID == "" {
		c.sendError(ErrCodeInvalidMessage, "Player ID is required", nil)
		return
	}

	room, err := c.controller.Resume(normalizeCode(code), playerID)
	if err != nil {
		c.sendActionError(err)
		return
	}

	c.attach(room.Code, playerID)
	c.sendConnected(room)
}

func (c *Client) handleAddPlayer(payload interface{}) {
	name, _ := payloadString(payload, "name")
	if _, err := c.controller.AddPlayer(name); err != nil {
		c.sendActionError(err)
	}
}

func (c *Client) handleToggleReady(payload interface{}) {
	playerID, ok := payloadString(payload, "playerId")
	if !ok || playerID == "" {
		playerID = c.controller.ActorID()
	}

	if _, err := c.controller.ToggleReady(playerID); err != nil {
		c.sendActionError(err)
	}
}

func (c *Client) handleStartRound(payload interface{}) {
	categoryID, _ := payloadString(payload, "categoryId")
	customWord, _ := payloadString(payload, "customWord")

	if _, err := c.controller.StartRound(categoryID, customWord); err != nil {
		c.sendActionError(err)
	}
}

func (c *Client) handleMarkRoleSeen(payload interface{}) {
	playerID, ok := payloadString(payload, "playerId")
	if !ok || playerID == "" {
		c.sendError(ErrCodeInvalidMessage, "Player ID is required", nil)
		return
	}

	if _, err := c.controller.MarkRoleSeen(playerID); err != nil {
		c.sendActionError(err)
	}
}

func (c *Client) handleSubmitClue(payload interface{}) {
	word, ok := payloadString(payload, "word")
	if !ok || word == "" {
		c.sendError(ErrCodeInvalidMessage, "Clue word is required", nil)
		return
	}

	if _, err := c.controller.SubmitClue(word); err != nil {
		c.sendActionError(err)
	}
}

func (c *Client) handleCastVote(payload interface{}) {
	targetID, ok := payloadString(payload, "targetPlayerId")
	if !ok || targetID == "" {
		c.sendError(ErrCodeInvalidMessage, "Target player ID is required", nil)
		return
	}

	if _, err := c.controller.CastVote(targetID); err != nil {
		c.sendActionError(err)
	}
}

func (c *Client) handleReveal() {
	if _, err := c.controller.Reveal(); err != nil {
		c.sendActionError(err)
	}
}

func (c *Client) handleNextRound() {
	if _, err := c.controller.NextRound(); err != nil {
		c.sendActionError(err)
	}
}

func (c *Client) handleLeaveRoom() {
	c.detach()
	c.controller.LeaveRoom()
}

// attach records the room this connection now belongs to
func (c *Client) attach(code, playerID string) {
	c.mu.Lock()
	previous := c.roomCode
	c.roomCode = code
	c.playerID = playerID
	c.mu.Unlock()

	if previous != "" && previous != code {
		c.hub.Detach(previous)
	}
	if code != "" && previous != code {
		c.hub.Attach(code)
	}
}

// detach clears this connection's room membership
func (c *Client) detach() {
	c.mu.Lock()
	code := c.roomCode
	c.roomCode = ""
	c.playerID = ""
	c.mu.Unlock()

	if code != "" {
		c.hub.Detach(code)
	}
}

// sendConnected acknowledges a create, join or resume
func (c *Client) sendConnected(room *domain.Room) {
	c.mu.Lock()
	playerID := c.playerID
	c.mu.Unlock()

	c.enqueue(NewServerMessage(MsgConnected, &ConnectedPayload{
		PlayerID: playerID,
		RoomCode: room.Code,
		Room:     c.redact(room, playerID),
	}))
}

// sendActionError maps a rejected action to a protocol error code
func (c *Client) sendActionError(err error) {
	var short *domain.NotEnoughVotesError
	if errors.As(err, &short) {
		c.sendError(ErrCodeNotEnoughVotes, err.Error(), short)
		return
	}

	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		c.sendError(ErrCodeRoomNotFound, "Room not found", nil)
	case errors.Is(err, domain.ErrRoomFull):
		c.sendError(ErrCodeRoomFull, "Room is full", nil)
	case errors.Is(err, domain.ErrNotEnoughPlayers):
		c.sendError(ErrCodeNotEnough, "Need at least 3 players to start", nil)
	case errors.Is(err, domain.ErrPlayersNotReady):
		c.sendError(ErrCodeNotReady, "All players must be ready", nil)
	case errors.Is(err, domain.ErrNotYourTurn):
		c.sendError(ErrCodeNotYourTurn, "It's not your turn", nil)
	case errors.Is(err, domain.ErrNotHost):
		c.sendError(ErrCodeNotHost, "Only the host can do that", nil)
	case errors.Is(err, domain.ErrWrongStage),
		errors.Is(err, domain.ErrEmptyClue),
		errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, session.ErrNoRoom),
		errors.Is(err, session.ErrLocalSession):
		c.sendError(ErrCodeInvalidAction, err.Error(), nil)
	default:
		c.sendError(ErrCodeInternalError, err.Error(), nil)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string, short *domain.NotEnoughVotesError) {
	payload := &ErrorPayload{Code: code, Message: message}
	if short != nil {
		payload.VotesShort = short.Missing()
	}
	c.enqueue(NewServerMessage(MsgError, payload))
}

// enqueue marshals a message onto the send channel without blocking
func (c *Client) enqueue(msg *ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("marshal server message", "type", msg.Type, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, message dropped", "type", msg.Type)
	}
}

// payloadString pulls a string field out of a generic payload map
func payloadString(payload interface{}, key string) (string, bool) {
	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		return "", false
	}
	value, ok := payloadMap[key].(string)
	return value, ok
}

// normalizeCode upper-cases a room code so codes are case-insensitive
// for the humans typing them
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
