package ws

import (
	"time"

	"github.com/modularwolf/impostergame.io/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgCreateRoom   MessageType = "create_room"
	MsgJoinRoom     MessageType = "join_room"
	MsgResume       MessageType = "resume"
	MsgAddPlayer    MessageType = "add_player"
	MsgToggleReady  MessageType = "toggle_ready"
	MsgStartRound   MessageType = "start_round"
	MsgMarkRoleSeen MessageType = "mark_role_seen"
	MsgSubmitClue   MessageType = "submit_clue"
	MsgCastVote     MessageType = "cast_vote"
	MsgReveal       MessageType = "reveal"
	MsgNextRound    MessageType = "next_round"
	MsgLeaveRoom    MessageType = "leave_room"
	MsgPing         MessageType = "ping"
)

// Server → Client message types
const (
	MsgConnected MessageType = "connected"
	MsgRoomState MessageType = "room_state"
	MsgError     MessageType = "error"
	MsgPong      MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ConnectedPayload acknowledges a successful create, join or resume
type ConnectedPayload struct {
	PlayerID string       `json:"playerId"`
	RoomCode string       `json:"roomCode"`
	Room     *domain.Room `json:"room"`
}

// RoomStatePayload carries a state snapshot to the client. The result
// is derived and attached once the room reaches the reveal stage.
type RoomStatePayload struct {
	Room   *domain.Room   `json:"room"`
	Result *domain.Result `json:"result,omitempty"`
}

// ErrorPayload is the payload for error messages
type ErrorPayload struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	VotesShort int    `json:"votesShort,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeRoomNotFound   = "ROOM_NOT_FOUND"
	ErrCodeRoomFull       = "ROOM_FULL"
	ErrCodeNotEnough      = "NOT_ENOUGH_PLAYERS"
	ErrCodeNotReady       = "PLAYERS_NOT_READY"
	ErrCodeNotYourTurn    = "NOT_YOUR_TURN"
	ErrCodeNotEnoughVotes = "NOT_ENOUGH_VOTES"
	ErrCodeNotHost        = "NOT_HOST"
	ErrCodeInvalidAction  = "INVALID_ACTION"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)
