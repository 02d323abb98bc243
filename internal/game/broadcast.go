package game

import (
	"time"

	"github.com/samber/lo"

	"github.com/alvesvaren/bombfest/internal/protocol"
)

// broadcast 向所有成员扇出消息
// busMu 串行化扇出：同一房间内两次广播的消息顺序对所有成员一致
func (r *Room) broadcast(msg *protocol.Message) {
	r.busMu.Lock()
	defer r.busMu.Unlock()

	r.mu.RLock()
	members := append([]*Participant(nil), r.members...)
	r.mu.RUnlock()

	for _, p := range members {
		p.Send(msg)
	}
}

// broadcastState 广播完整状态快照
// 每次影响状态的转换之后都会调用，客户端凭最新快照即可重新同步
func (r *Room) broadcastState() {
	r.broadcast(protocol.MustNewMessage(protocol.MsgState, r.Snapshot()))
}

// Snapshot 构建房间完整状态快照
func (r *Room) Snapshot() protocol.StatePayload {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := protocol.StatePayload{
		Players:        lo.Map(r.members, func(p *Participant, _ int) protocol.PlayerInfo { return p.Info() }),
		IsPlaying:      r.state == RoomStatePlaying,
		PlayingPlayers: lo.Map(r.roster, func(p *Participant, _ int) string { return p.ID }),
		Language:       r.Language,
		Prompt:         r.prompt,
		Rules:          r.rules.Info(),
		BombExplodesIn: -1,
	}
	if r.current != nil {
		state.CurrentPlayer = r.current.ID
	}
	if !r.bombExplodesAt.IsZero() {
		state.BombExplodesIn = max(time.Until(r.bombExplodesAt).Milliseconds(), 0)
	}
	return state
}
