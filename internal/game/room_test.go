package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvesvaren/bombfest/internal/auth"
	"github.com/alvesvaren/bombfest/internal/protocol"
	"github.com/alvesvaren/bombfest/internal/testutil"
)

func newTestRoom(words WordService) *Room {
	if words == nil {
		words = &testutil.StubWords{Prompt: "ab"}
	}
	rules := DefaultRules()
	rules.MinWordsPerPrompt = nil
	return NewRoom("room-1", "testrum", false, "sv_SE", rules, words, Timings{}, nil)
}

func join(r *Room, id, name string) (*Participant, *testutil.RecordingConn) {
	conn := testutil.NewRecordingConn()
	p := r.Connect(auth.Session{ID: id, Name: name}, conn)
	return p, conn
}

func TestRoomConnect_FirstPlayerIsAdmin(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	pa, ca := join(r, "p1", "alice")
	pb, _ := join(r, "p2", "bob")

	assert.True(t, pa.Admin)
	assert.False(t, pb.Admin)

	// join broadcasts go to everyone including the joiner, so alice
	// saw her own join and then bob's
	joins := ca.MessagesOfType(protocol.MsgJoin)
	require.Len(t, joins, 2)
	for i, want := range []string{"p1", "p2"} {
		payload, err := protocol.ParsePayload[protocol.PlayerInfo](joins[i])
		require.NoError(t, err)
		assert.Equal(t, want, payload.ID)
	}
	assert.GreaterOrEqual(t, ca.CountOfType(protocol.MsgState), 2)
}

func TestRoomConnect_SnapshotUnicastOnJoin(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	_, conn := join(r, "p1", "alice")

	msg := conn.LastOfType(protocol.MsgState)
	require.NotNil(t, msg)

	state, err := protocol.ParsePayload[protocol.StatePayload](msg)
	require.NoError(t, err)
	assert.Len(t, state.Players, 1)
	assert.False(t, state.IsPlaying)
	assert.Equal(t, int64(-1), state.BombExplodesIn)
	assert.Equal(t, "sv_SE", state.Language)
}

func TestRoomConnect_ReconnectRebindsAndEvictsOldConn(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	p, oldConn := join(r, "p1", "alice")
	p.Lives = 2 // mid-game state must survive the reconnect

	newConn := testutil.NewRecordingConn()
	p2 := r.Connect(auth.Session{ID: "p1", Name: "alice"}, newConn)

	assert.Same(t, p, p2, "same identity binds to the same member record")
	assert.Equal(t, 2, p2.Lives)
	assert.True(t, p2.Connected)

	closed, code := oldConn.Closed()
	assert.True(t, closed)
	assert.Equal(t, CloseConnectedElsewhere, code)

	// fresh snapshot goes to the new connection
	assert.NotNil(t, newConn.LastOfType(protocol.MsgState))
}

func TestRoomDisconnect_KeepsMember(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	p, conn := join(r, "p1", "alice")

	r.HandleDisconnect(p, conn)
	assert.False(t, p.Connected)
	assert.Equal(t, 0, r.PlayerCount())

	state := r.Snapshot()
	require.Len(t, state.Players, 1)
	assert.False(t, state.Players[0].Connected)
}

func TestRoomDisconnect_StaleConnIgnored(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	p, oldConn := join(r, "p1", "alice")
	r.Connect(auth.Session{ID: "p1", Name: "alice"}, testutil.NewRecordingConn())

	// the evicted connection's close must not mark the new one offline
	r.HandleDisconnect(p, oldConn)
	assert.True(t, p.Connected)
}

func TestRoomPlay_OptInStates(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	pa, _ := join(r, "p1", "alice")
	pb, cb := join(r, "p2", "bob")

	// lobby: accepted
	r.handlePlay(pa)
	assert.Contains(t, r.roster, pa)
	assert.Equal(t, r.rules.StartingLives, pa.Lives)

	// duplicate opt-in is a no-op
	r.handlePlay(pa)
	assert.Len(t, r.roster, 1)

	// countdown: still accepted
	r.mu.Lock()
	r.state = RoomStateCountdown
	r.mu.Unlock()
	r.handlePlay(pb)
	assert.Contains(t, r.roster, pb)

	// playing: rejected with an error unicast
	r.mu.Lock()
	r.state = RoomStatePlaying
	r.roster = nil
	r.mu.Unlock()
	before := cb.CountOfType(protocol.MsgError)
	r.handlePlay(pb)
	assert.Empty(t, r.roster)
	assert.Equal(t, before+1, cb.CountOfType(protocol.MsgError))
}

func TestRoomSubmit_NotYourTurn(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	pa, _ := join(r, "p1", "alice")
	pb, cb := join(r, "p2", "bob")

	r.mu.Lock()
	r.state = RoomStatePlaying
	r.current = pa
	pa.Lives = 3
	pb.Lives = 3
	r.mu.Unlock()

	r.HandleMessage(pb, protocol.MustNewMessage(protocol.MsgSubmit, protocol.TextPayload{Text: "abc"}))

	msg := cb.LastOfType(protocol.MsgError)
	require.NotNil(t, msg, "rejection is unicast to the submitter")
	payload, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeNotYourTurn, payload.Code)

	// no submission reached the round loop
	assert.Empty(t, r.submissions)
}

func TestRoomSubmit_CurrentPlayerEnqueues(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	pa, _ := join(r, "p1", "alice")
	_, cb := join(r, "p2", "bob")

	r.mu.Lock()
	r.state = RoomStatePlaying
	r.current = pa
	pa.Lives = 3
	r.generation = 7
	r.mu.Unlock()

	r.HandleMessage(pa, protocol.MustNewMessage(protocol.MsgSubmit, protocol.TextPayload{Text: "ABC"}))

	// submission is lowercased, tagged with the current generation
	sub := <-r.submissions
	assert.Equal(t, "abc", sub.word)
	assert.Equal(t, uint64(7), sub.gen)

	// everyone sees the attempted word
	msg := cb.LastOfType(protocol.MsgText)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.TextPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "abc", payload.Text)
	assert.Equal(t, "p1", payload.From)
}

func TestRoomChat(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	pa, ca := join(r, "p1", "alice")
	_, cb := join(r, "p2", "bob")

	r.HandleMessage(pa, protocol.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{Text: "hej"}))

	for _, conn := range []*testutil.RecordingConn{ca, cb} {
		msg := conn.LastOfType(protocol.MsgChat)
		require.NotNil(t, msg)
		payload, err := protocol.ParsePayload[protocol.ChatPayload](msg)
		require.NoError(t, err)
		assert.Equal(t, "hej", payload.Text)
		assert.Equal(t, "p1", payload.From)
		assert.NotZero(t, payload.At)
	}

	// oversized chat is rejected
	before := ca.CountOfType(protocol.MsgError)
	long := strings.Repeat("x", protocol.MaxTextLength+1)
	r.HandleMessage(pa, protocol.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{Text: long}))
	assert.Equal(t, before+1, ca.CountOfType(protocol.MsgError))
	assert.Equal(t, 1, cb.CountOfType(protocol.MsgChat))
}

func TestRoomChat_LimitCountsCharactersNotBytes(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	pa, _ := join(r, "p1", "alice")
	_, cb := join(r, "p2", "bob")

	// 256 "ö" runes are 512 bytes of UTF-8 and must still be accepted
	ok := strings.Repeat("ö", protocol.MaxTextLength)
	r.HandleMessage(pa, protocol.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{Text: ok}))

	msg := cb.LastOfType(protocol.MsgChat)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.ChatPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, ok, payload.Text)

	// one rune over the limit is rejected
	over := strings.Repeat("ö", protocol.MaxTextLength+1)
	r.HandleMessage(pa, protocol.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{Text: over}))
	assert.Equal(t, 1, cb.CountOfType(protocol.MsgChat))
}

func TestRoomPing_EchoesNonce(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	p, conn := join(r, "p1", "alice")

	ping := protocol.MustNewMessage(protocol.MsgPing, nil)
	ping.Nonce = float64(42)
	r.HandleMessage(p, ping)

	pong := conn.LastOfType(protocol.MsgPong)
	require.NotNil(t, pong)
	assert.Equal(t, float64(42), pong.Nonce)
}

func TestRoomLeave(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	pa, ca := join(r, "p1", "alice")
	_, cb := join(r, "p2", "bob")

	r.handlePlay(pa)
	r.Leave(pa)

	// removed from members and roster, connection closed normally
	state := r.Snapshot()
	assert.Len(t, state.Players, 1)
	assert.Empty(t, state.PlayingPlayers)

	closed, code := ca.Closed()
	assert.True(t, closed)
	assert.Equal(t, CloseNormal, code)

	msg := cb.LastOfType(protocol.MsgLeft)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.LeavePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "p1", payload.ID)

	// leaving twice is safe
	r.Leave(pa)
	assert.Len(t, r.Snapshot().Players, 1)
}

func TestRoomLeave_DuringPlayWakesRoundLoop(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	pa, _ := join(r, "p1", "alice")
	pb, _ := join(r, "p2", "bob")

	r.mu.Lock()
	r.state = RoomStatePlaying
	r.roster = []*Participant{pa, pb}
	pa.Lives = 3
	pb.Lives = 3
	r.mu.Unlock()

	r.Leave(pa)

	assert.Equal(t, 0, pa.Lives, "leaving counts as elimination")
	select {
	case <-r.wake:
	default:
		t.Fatal("round loop was not woken after a mid-game leave")
	}
}

func TestRoomSnapshot_RosterSubsetOfMembers(t *testing.T) {
	t.Parallel()

	r := newTestRoom(nil)
	pa, _ := join(r, "p1", "alice")
	join(r, "p2", "bob")
	r.handlePlay(pa)

	state := r.Snapshot()
	ids := make(map[string]bool, len(state.Players))
	for _, p := range state.Players {
		ids[p.ID] = true
	}
	for _, id := range state.PlayingPlayers {
		assert.True(t, ids[id], "every roster entry must be a member")
	}
}
