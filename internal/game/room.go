package game

import (
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/alvesvaren/bombfest/internal/auth"
	"github.com/alvesvaren/bombfest/internal/protocol"
)

// submission 一次提交尝试，gen 用于丢弃迟到的提交
type submission struct {
	playerID string
	word     string
	gen      uint64
}

// verdict 单词服务的校验结果
type verdict struct {
	playerID string
	word     string
	valid    bool
	gen      uint64
}

// Room 游戏房间
// 生命周期循环（lifecycle.go）是唯一推进回合与计时的协程；
// 网络事件通过加锁的处理方法与 submissions 通道汇入
type Room struct {
	ID        string
	Name      string
	IsPrivate bool
	Language  string

	rules   Rules
	timings Timings

	state   RoomState
	members []*Participant // 按加入顺序，session ID 唯一
	byID    map[string]*Participant
	roster  []*Participant // 报名参加本局的玩家
	current *Participant
	prompt  string

	bombExplodesAt time.Time // 共享的炸弹截止时刻
	generation     uint64    // 回合代数，守卫计时器与提交的竞争

	words     WordService
	directory Directory

	submissions chan submission
	verdicts    chan verdict
	wake        chan struct{} // 成员变动时唤醒回合循环

	mu    sync.RWMutex
	busMu sync.Mutex // 串行化广播，保证事件顺序
}

// NewRoom 创建房间，调用方需随后启动 Run
func NewRoom(id, name string, isPrivate bool, language string, rules Rules, words WordService, timings Timings, directory Directory) *Room {
	return &Room{
		ID:          id,
		Name:        name,
		IsPrivate:   isPrivate,
		Language:    language,
		rules:       rules,
		timings:     timings,
		words:       words,
		directory:   directory,
		byID:        make(map[string]*Participant),
		submissions: make(chan submission, 8),
		verdicts:    make(chan verdict, 8),
		wake:        make(chan struct{}, 1),
	}
}

// Connect 将会话绑定到房间：新会话创建成员，已知会话重连换绑
// 旧连接（若仍存活）会以特殊关闭码被挤下线
func (r *Room) Connect(session auth.Session, conn Conn) *Participant {
	r.mu.Lock()

	if p, ok := r.byID[session.ID]; ok {
		old := p.conn
		p.conn = conn
		p.Connected = true
		r.mu.Unlock()

		if old != nil {
			old.Close(CloseConnectedElsewhere, "connected from another location")
		}

		log.Printf("📶 玩家 %s 重连到房间 %s", p.Name, r.ID)
		r.broadcastState()
		p.Send(protocol.MustNewMessage(protocol.MsgState, r.Snapshot()))
		return p
	}

	p := &Participant{
		ID:        session.ID,
		Name:      session.Name,
		conn:      conn,
		Connected: true,
		Admin:     len(r.members) == 0,
	}
	r.members = append(r.members, p)
	r.byID[p.ID] = p
	r.mu.Unlock()

	log.Printf("👤 玩家 %s 加入房间 %s", p.Name, r.ID)
	r.broadcast(protocol.MustNewMessage(protocol.MsgJoin, p.Info()))
	r.broadcastState()
	p.Send(protocol.MustNewMessage(protocol.MsgState, r.Snapshot()))
	return p
}

// HandleDisconnect 传输层断开，仅标记掉线，不移除成员
// conn 比较防止被重连替换掉的旧连接误标新连接
func (r *Room) HandleDisconnect(p *Participant, conn Conn) {
	r.mu.Lock()
	if p.conn != conn {
		r.mu.Unlock()
		return
	}
	p.Connected = false
	r.mu.Unlock()

	log.Printf("📴 玩家 %s 在房间 %s 中掉线", p.Name, r.ID)
	r.broadcastState()
}

// HandleMessage 分发客户端消息
func (r *Room) HandleMessage(p *Participant, msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgChat:
		r.handleChat(p, msg)
	case protocol.MsgText:
		r.handleText(p, msg)
	case protocol.MsgSubmit:
		r.handleSubmit(p, msg)
	case protocol.MsgPlay:
		r.handlePlay(p)
	case protocol.MsgPing:
		reply := protocol.MustNewMessage(protocol.MsgPong, nil)
		reply.Nonce = msg.Nonce
		p.Send(reply)
	case protocol.MsgLeave:
		r.Leave(p)
	default:
		p.SendError(protocol.ErrCodeInvalidMsg)
	}
}

func (r *Room) handleChat(p *Participant, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ChatPayload](msg)
	if err != nil {
		p.SendError(protocol.ErrCodeInvalidMsg)
		return
	}
	if utf8.RuneCountInString(payload.Text) > protocol.MaxTextLength {
		p.SendError(protocol.ErrCodeTextTooLong)
		return
	}

	r.broadcast(protocol.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{
		From: p.ID,
		Text: payload.Text,
		At:   time.Now().UnixMilli(),
	}))
}

func (r *Room) handleText(p *Participant, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.TextPayload](msg)
	if err != nil {
		p.SendError(protocol.ErrCodeInvalidMsg)
		return
	}
	if utf8.RuneCountInString(payload.Text) > protocol.MaxTextLength {
		p.SendError(protocol.ErrCodeTextTooLong)
		return
	}
	text := strings.ToLower(payload.Text)

	r.mu.Lock()
	// 输入预览只接受当前回合玩家的
	if r.state != RoomStatePlaying || r.current != p {
		r.mu.Unlock()
		return
	}
	p.Text = text
	r.mu.Unlock()

	r.broadcast(protocol.MustNewMessage(protocol.MsgText, protocol.TextPayload{From: p.ID, Text: text}))
}

func (r *Room) handleSubmit(p *Participant, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.TextPayload](msg)
	if err != nil {
		p.SendError(protocol.ErrCodeInvalidMsg)
		return
	}
	if utf8.RuneCountInString(payload.Text) > protocol.MaxTextLength {
		p.SendError(protocol.ErrCodeTextTooLong)
		return
	}
	word := strings.ToLower(payload.Text)

	r.mu.Lock()
	// 回合已经推进（比如炸弹刚爆）时按"还没轮到您"拒绝
	if r.state != RoomStatePlaying || r.current != p || !p.Alive() {
		r.mu.Unlock()
		p.SendError(protocol.ErrCodeNotYourTurn)
		return
	}
	p.Text = word
	gen := r.generation
	r.mu.Unlock()

	r.broadcast(protocol.MustNewMessage(protocol.MsgText, protocol.TextPayload{From: p.ID, Text: word}))

	// 回合循环在 select 中消费；缓冲满说明积压的都是过期提交，直接丢弃
	select {
	case r.submissions <- submission{playerID: p.ID, word: word, gen: gen}:
	default:
	}
}

func (r *Room) handlePlay(p *Participant) {
	r.mu.Lock()
	// 报名只在大厅和倒计时阶段接受
	if r.state != RoomStateLobby && r.state != RoomStateCountdown {
		r.mu.Unlock()
		p.SendError(protocol.ErrCodeGameStarted)
		return
	}
	if lo.Contains(r.roster, p) {
		r.mu.Unlock()
		return
	}
	p.Lives = r.rules.StartingLives
	p.Text = ""
	r.roster = append(r.roster, p)
	r.mu.Unlock()

	r.broadcastState()
}

// Leave 显式离开：从成员与名单中移除，这是唯一移除成员的途径
func (r *Room) Leave(p *Participant) {
	r.mu.Lock()
	if _, ok := r.byID[p.ID]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.byID, p.ID)
	r.members = lo.Without(r.members, p)
	r.roster = lo.Without(r.roster, p)
	p.Lives = 0
	playing := r.state == RoomStatePlaying
	conn := p.conn
	p.conn = nil
	r.mu.Unlock()

	log.Printf("👋 玩家 %s 离开房间 %s", p.Name, r.ID)
	r.broadcast(protocol.MustNewMessage(protocol.MsgLeft, protocol.LeavePayload{ID: p.ID}))
	r.broadcastState()

	if playing {
		r.notifyRosterChanged()
	}
	if conn != nil {
		conn.Close(CloseNormal, "left the room")
	}
}

// notifyRosterChanged 唤醒回合循环复查当前回合是否仍有效
func (r *Room) notifyRosterChanged() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// PlayerCount 在线成员数
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.CountBy(r.members, func(p *Participant) bool { return p.Connected })
}

// Info 房间列表条目
func (r *Room) Info() protocol.RoomInfo {
	return protocol.RoomInfo{
		ID:          r.ID,
		Name:        r.Name,
		PlayerCount: r.PlayerCount(),
		Language:    r.Language,
	}
}

// Rules 房间规则
func (r *Room) Rules() Rules {
	return r.rules
}
