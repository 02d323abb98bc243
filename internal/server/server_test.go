package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvesvaren/bombfest/internal/auth"
	"github.com/alvesvaren/bombfest/internal/config"
	"github.com/alvesvaren/bombfest/internal/game"
	"github.com/alvesvaren/bombfest/internal/protocol"
	"github.com/alvesvaren/bombfest/internal/storage"
	"github.com/alvesvaren/bombfest/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store := storage.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	cfg := config.Default()
	cfg.Server.JWTSecret = "test-secret"

	timings := game.Timings{
		Countdown:    10 * time.Millisecond,
		RoundRestart: 10 * time.Millisecond,
		LobbyPoll:    5 * time.Millisecond,
	}

	s := &Server{
		config:         cfg,
		store:          store,
		issuer:         auth.NewIssuer(cfg.Server.JWTSecret),
		manager:        game.NewManager(&testutil.StubWords{Prompt: "ab"}, timings, store),
		connLimiter:    NewRateLimiter(1000, time.Minute),
		messageLimiter: NewMessageRateLimiter(1000),
	}

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func issueToken(t *testing.T, ts *httptest.Server, name string) accountResponse {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/account", "", accountRequest{Name: name})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[accountResponse](t, resp)
}

func TestAccountEndpoint(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t)

	account := issueToken(t, ts, "alice")
	assert.NotEmpty(t, account.ID)
	assert.NotEmpty(t, account.Token)
	assert.Equal(t, "alice", account.Name)

	// renaming with the old token keeps the player ID
	resp := postJSON(t, ts.URL+"/api/account", account.Token, accountRequest{Name: "alicia"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	renamed := decodeBody[accountResponse](t, resp)
	assert.Equal(t, account.ID, renamed.ID)
	assert.Equal(t, "alicia", renamed.Name)

	// missing name is rejected
	resp = postJSON(t, ts.URL+"/api/account", "", accountRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateAndListRooms(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t)
	account := issueToken(t, ts, "alice")

	// unauthorized
	resp := postJSON(t, ts.URL+"/api/rooms", "", createRoomRequest{Name: "rum"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// create a public room
	resp = postJSON(t, ts.URL+"/api/rooms", account.Token, createRoomRequest{Name: "rum"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	room := decodeBody[protocol.RoomInfo](t, resp)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, "rum", room.Name)
	assert.Equal(t, "sv_SE", room.Language)

	// create a private room
	resp = postJSON(t, ts.URL+"/api/rooms", account.Token, createRoomRequest{Name: "hemligt", Private: true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// only the public room is listed
	listResp, err := http.Get(ts.URL + "/api/rooms")
	require.NoError(t, err)
	rooms := decodeBody[[]protocol.RoomInfo](t, listResp)
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)

	// invalid rules are rejected
	bad := createRoomRequest{Name: "rum", Rules: &protocol.RulesInfo{StartingLives: 9, MaxLives: 4}}
	resp = postJSON(t, ts.URL+"/api/rooms", account.Token, bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestLeaderboardEndpoint(t *testing.T) {
	t.Parallel()

	s, ts := newTestServer(t)
	require.NoError(t, s.store.RecordWin(context.Background(), "p1", "alice"))

	resp, err := http.Get(ts.URL + "/api/leaderboard")
	require.NoError(t, err)
	entries := decodeBody[[]protocol.LeaderboardEntry](t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].PlayerName)
	assert.Equal(t, 1, entries[0].Wins)
}

func wsURL(ts *httptest.Server, roomID, token string) string {
	return strings.Replace(ts.URL, "http", "ws", 1) + "/api/room/" + roomID + "/ws?token=" + token
}

func readMessage(t *testing.T, conn *websocket.Conn) *protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.Decode(data)
	require.NoError(t, err)
	return msg
}

func TestRoomWebSocket(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t)
	account := issueToken(t, ts, "alice")

	resp := postJSON(t, ts.URL+"/api/rooms", account.Token, createRoomRequest{Name: "rum"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	room := decodeBody[protocol.RoomInfo](t, resp)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, room.ID, account.Token), nil)
	require.NoError(t, err)
	defer conn.Close()

	// join broadcast and full snapshot arrive on connect
	sawState := false
	for i := 0; i < 3 && !sawState; i++ {
		msg := readMessage(t, conn)
		if msg.Type == protocol.MsgState {
			state, err := protocol.ParsePayload[protocol.StatePayload](msg)
			require.NoError(t, err)
			require.Len(t, state.Players, 1)
			assert.Equal(t, account.ID, state.Players[0].ID)
			sawState = true
		}
	}
	assert.True(t, sawState, "no state snapshot received after connecting")

	// ping round-trips with its nonce
	ping := protocol.MustNewMessage(protocol.MsgPing, nil)
	ping.Nonce = float64(7)
	data, err := ping.Encode()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))

	for {
		msg := readMessage(t, conn)
		if msg.Type == protocol.MsgPong {
			assert.Equal(t, float64(7), msg.Nonce)
			break
		}
	}
}

func TestRoomWebSocket_CloseCodes(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t)
	account := issueToken(t, ts, "alice")

	expectClose := func(url string, code int) {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err = conn.ReadMessage()
		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr)
		assert.Equal(t, code, closeErr.Code)
	}

	// unknown room
	expectClose(wsURL(ts, "missing", account.Token), game.CloseRoomNotFound)

	// garbage token
	resp := postJSON(t, ts.URL+"/api/rooms", account.Token, createRoomRequest{Name: "rum"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	room := decodeBody[protocol.RoomInfo](t, resp)
	expectClose(wsURL(ts, room.ID, "not-a-token"), game.CloseInvalidToken)
}

func TestRoomWebSocket_ReconnectEvictsOldConn(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t)
	account := issueToken(t, ts, "alice")

	resp := postJSON(t, ts.URL+"/api/rooms", account.Token, createRoomRequest{Name: "rum"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	room := decodeBody[protocol.RoomInfo](t, resp)

	first, _, err := websocket.DefaultDialer.Dial(wsURL(ts, room.ID, account.Token), nil)
	require.NoError(t, err)
	defer first.Close()

	second, _, err := websocket.DefaultDialer.Dial(wsURL(ts, room.ID, account.Token), nil)
	require.NoError(t, err)
	defer second.Close()

	// the first connection is evicted with the dedicated close code
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, _, err := first.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			require.ErrorAs(t, err, &closeErr)
			assert.Equal(t, game.CloseConnectedElsewhere, closeErr.Code)
			break
		}
	}
}
