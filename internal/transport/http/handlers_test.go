package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modularwolf/impostergame.io/internal/config"
	"github.com/modularwolf/impostergame.io/internal/domain"
	"github.com/modularwolf/impostergame.io/internal/engine"
	"github.com/modularwolf/impostergame.io/internal/replication"
	"github.com/modularwolf/impostergame.io/internal/session"
	"github.com/modularwolf/impostergame.io/internal/words"
)

type testServer struct {
	*Server
	channel *replication.Memory
	hub     *session.Hub
}

func newTestServer(t *testing.T, createsPerMin int) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0", Env: "development"},
		Game: config.GameConfig{
			MaxPlayers:        10,
			RoomCodeLength:    domain.DefaultRoomCodeLength,
			RoomCreatesPerMin: createsPerMin,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}

	rng := domain.NewLockedRand(1)
	logger := slog.Default()
	catalog := words.NewCatalog(rng)
	eng := engine.New(catalog, rng, engine.Settings{MaxPlayers: cfg.Game.MaxPlayers})
	codes := domain.NewCodeGenerator(cfg.Game.RoomCodeLength, rng)
	channel := replication.NewMemory(logger)
	hub := session.NewHub(channel, logger, 0)
	t.Cleanup(hub.Close)

	return &testServer{
		Server:  NewServer(cfg, eng, codes, channel, hub, catalog, logger),
		channel: channel,
		hub:     hub,
	}
}

// do runs a request through the full handler chain, middleware included
func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	ts.server.Handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if data != nil && env.Data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 30)

	rec := ts.do(t, "GET", "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	env := decode(t, rec, &health)
	assert.True(t, env.Success)
	assert.Equal(t, "ok", health.Status)
}

func TestCreateAndGetRoom(t *testing.T) {
	ts := newTestServer(t, 30)

	rec := ts.do(t, "POST", "/api/rooms", `{"hostName":"Ana"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var created CreateRoomResponse
	env := decode(t, rec, &created)
	require.True(t, env.Success)
	assert.Len(t, created.RoomCode, domain.DefaultRoomCodeLength)
	assert.NotEmpty(t, created.HostID)
	assert.Contains(t, created.InviteLink, "/join/"+created.RoomCode)

	// The record is in the channel, ready for the host's WebSocket
	// resume.
	stored, err := ts.channel.Get(created.RoomCode)
	require.NoError(t, err)
	require.Len(t, stored.Players, 1)
	assert.Equal(t, created.HostID, stored.HostID)
	assert.Equal(t, "Ana", stored.Players[0].Name)

	rec = ts.do(t, "GET", "/api/rooms/"+created.RoomCode, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info GetRoomResponse
	decode(t, rec, &info)
	assert.Equal(t, created.RoomCode, info.RoomCode)
	assert.Equal(t, 1, info.PlayerCount)
	assert.True(t, info.CanJoin)
}

func TestCreateRoomDefaultHostName(t *testing.T) {
	ts := newTestServer(t, 30)

	rec := ts.do(t, "POST", "/api/rooms", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var created CreateRoomResponse
	decode(t, rec, &created)

	stored, err := ts.channel.Get(created.RoomCode)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPlayerName, stored.Players[0].Name)
}

func TestGetRoomNotFound(t *testing.T) {
	ts := newTestServer(t, 30)

	rec := ts.do(t, "GET", "/api/rooms/ZZZZ", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	env := decode(t, rec, nil)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ROOM_NOT_FOUND", env.Error.Code)
}

func TestRoomExists(t *testing.T) {
	ts := newTestServer(t, 30)

	rec := ts.do(t, "POST", "/api/rooms", `{"hostName":"Ana"}`)
	var created CreateRoomResponse
	decode(t, rec, &created)

	var exists RoomExistsResponse
	rec = ts.do(t, "GET", "/api/rooms/"+created.RoomCode+"/exists", "")
	decode(t, rec, &exists)
	assert.True(t, exists.Exists)

	// Lower-case lookups hit the same room.
	rec = ts.do(t, "GET", "/api/rooms/"+strings.ToLower(created.RoomCode)+"/exists", "")
	decode(t, rec, &exists)
	assert.True(t, exists.Exists)

	rec = ts.do(t, "GET", "/api/rooms/ZZZZ/exists", "")
	decode(t, rec, &exists)
	assert.False(t, exists.Exists)
}

func TestRoomQR(t *testing.T) {
	ts := newTestServer(t, 30)

	rec := ts.do(t, "POST", "/api/rooms", `{"hostName":"Ana"}`)
	var created CreateRoomResponse
	decode(t, rec, &created)

	rec = ts.do(t, "GET", "/api/rooms/"+created.RoomCode+"/qr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = ts.do(t, "GET", "/api/rooms/ZZZZ/qr", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategories(t *testing.T) {
	ts := newTestServer(t, 30)

	rec := ts.do(t, "GET", "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cats CategoriesResponse
	decode(t, rec, &cats)
	assert.NotEmpty(t, cats.Categories)
	assert.Equal(t, words.FallbackCategoryID, cats.FallbackID)
}

func TestStats(t *testing.T) {
	ts := newTestServer(t, 30)

	var stats StatsResponse
	rec := ts.do(t, "GET", "/api/stats", "")
	decode(t, rec, &stats)
	assert.Zero(t, stats.ActiveRooms)

	ts.do(t, "POST", "/api/rooms", `{"hostName":"Ana"}`)
	ts.do(t, "POST", "/api/rooms", `{"hostName":"Ben"}`)

	rec = ts.do(t, "GET", "/api/stats", "")
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.ActiveRooms)
	assert.Equal(t, 2, stats.TotalPlayers)
}

func TestCreateRoomRateLimited(t *testing.T) {
	ts := newTestServer(t, 1)

	rec := ts.do(t, "POST", "/api/rooms", `{"hostName":"Ana"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "POST", "/api/rooms", `{"hostName":"Ben"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	env := decode(t, rec, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, 30)

	rec := ts.do(t, "OPTIONS", "/api/rooms", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
