package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/modularwolf/impostergame.io/internal/domain"
	"github.com/modularwolf/impostergame.io/internal/session"
	"github.com/modularwolf/impostergame.io/internal/words"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRoomRequest is the body for room creation
type CreateRoomRequest struct {
	HostName string `json:"hostName"`
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	RoomCode   string `json:"roomCode"`
	HostID     string `json:"hostId"`
	InviteLink string `json:"inviteLink"`
}

// GetRoomResponse is the response for getting room info
type GetRoomResponse struct {
	RoomCode    string `json:"roomCode"`
	PlayerCount int    `json:"playerCount"`
	Stage       string `json:"stage"`
	CanJoin     bool   `json:"canJoin"`
}

// RoomExistsResponse is the response for checking if room exists
type RoomExistsResponse struct {
	Exists bool `json:"exists"`
}

// CategoriesResponse lists the selectable word categories
type CategoriesResponse struct {
	Categories []words.Category `json:"categories"`
	FallbackID string           `json:"fallbackId"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveRooms  int `json:"activeRooms"`
	TotalPlayers int `json:"totalPlayers"`
}

// handleCreateRoom handles POST /api/rooms. The room record is written
// to the replication channel; the host then connects over WebSocket
// and resumes with the returned player ID.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if !s.createLimit.Allow() {
		s.sendError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many rooms created, slow down")
		return
	}

	var req CreateRoomRequest
	if r.Body != nil {
		// An empty or absent body just means a default host name.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	controller := session.NewController(domain.ModeNetworked, s.eng, s.codes, s.channel, nil, s.logger)
	room, err := controller.CreateRoom(req.HostName)
	if err != nil {
		s.logger.Error("room creation failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, "CREATION_FAILED", "Failed to create room")
		return
	}
	hostID := controller.ActorID()

	// The record lives in the channel now; this controller is done.
	controller.LeaveRoom()

	s.sendSuccess(w, &CreateRoomResponse{
		RoomCode:   room.Code,
		HostID:     hostID,
		InviteLink: s.inviteLink(r, room.Code),
	})
}

// handleGetRoom handles GET /api/rooms/{roomCode}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(r.PathValue("roomCode"))
	if roomCode == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_ROOM_CODE", "Room code is required")
		return
	}

	room, err := s.hub.PeekRoom(roomCode)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			s.sendError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
		} else {
			s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}

	s.sendSuccess(w, &GetRoomResponse{
		RoomCode:    room.Code,
		PlayerCount: len(room.Players),
		Stage:       room.Stage.String(),
		CanJoin:     room.Stage == domain.StageLobby,
	})
}

// handleRoomExists handles GET /api/rooms/{roomCode}/exists
func (s *Server) handleRoomExists(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(r.PathValue("roomCode"))
	if roomCode == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_ROOM_CODE", "Room code is required")
		return
	}

	s.sendSuccess(w, &RoomExistsResponse{
		Exists: s.hub.RoomExists(roomCode),
	})
}

// handleRoomQR handles GET /api/rooms/{roomCode}/qr, serving a QR code
// of the invite link for the room
func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(r.PathValue("roomCode"))
	if roomCode == "" || !s.hub.RoomExists(roomCode) {
		s.sendError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
		return
	}

	png, err := qrcode.Encode(s.inviteLink(r, roomCode), qrcode.Medium, 256)
	if err != nil {
		s.logger.Error("qr encode failed", "code", roomCode, "error", err)
		s.sendError(w, http.StatusInternalServerError, "QR_FAILED", "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// handleCategories handles GET /api/categories
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &CategoriesResponse{
		Categories: s.catalog.Categories(),
		FallbackID: words.FallbackCategoryID,
	})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveRooms:  s.hub.RoomCount(),
		TotalPlayers: s.hub.PlayerCount(),
	})
}

// inviteLink builds the join link shared with other players
func (s *Server) inviteLink(r *http.Request, roomCode string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/join/" + roomCode
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
