package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvesvaren/bombfest/internal/protocol"
)

func TestClientRegister(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/account", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "p1", "name": req["name"], "token": "tok",
		})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	require.NoError(t, c.Register("alice"))
	assert.Equal(t, "p1", c.PlayerID)
	assert.Equal(t, "alice", c.PlayerName)
	assert.Equal(t, "tok", c.Token)
}

func TestClientRESTError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(protocol.ErrorPayload{Code: 1001, Message: "无效的消息格式"})
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	err := c.Register("alice")
	require.Error(t, err)

	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 1001, apiErr.Code)
}

func TestClientConnectRoom(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/room/room-1/ws", r.URL.Path)
		require.Equal(t, "tok", r.URL.Query().Get("token"))

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		// greet with a state snapshot, then echo pings as pongs
		snapshot := protocol.MustNewMessage(protocol.MsgState, protocol.StatePayload{BombExplodesIn: -1})
		data, _ := snapshot.Encode()
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := protocol.Decode(raw)
			if err != nil || msg.Type != protocol.MsgPing {
				continue
			}
			pong := protocol.MustNewMessage(protocol.MsgPong, nil)
			pong.Nonce = msg.Nonce
			data, _ := pong.Encode()
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL)
	c.Token = "tok"
	require.NoError(t, c.ConnectRoom("room-1"))
	defer c.Close()

	msg, err := c.ReceiveWithTimeout(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgState, msg.Type)
	assert.Equal(t, "room-1", c.RoomID)

	// ping round-trips and updates latency
	require.NoError(t, c.Ping())
	msg, err = c.ReceiveWithTimeout(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgPong, msg.Type)
	assert.GreaterOrEqual(t, c.GetLatency(), int64(0))
}

func TestClientConnectRoom_RequiresToken(t *testing.T) {
	t.Parallel()

	c := NewClient("http://localhost:0")
	assert.Error(t, c.ConnectRoom("room-1"))
}
