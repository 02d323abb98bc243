package game

import (
	"github.com/alvesvaren/bombfest/internal/protocol"
)

// Participant 玩家在单个房间内的成员记录
// 字段由所属房间的锁保护；断线不移除记录，重连时重新绑定连接
type Participant struct {
	ID   string
	Name string

	conn      Conn
	Connected bool
	Text      string // 当前输入的文本
	Lives     int
	Admin     bool // 房间第一个加入者
}

// Alive 是否存活
func (p *Participant) Alive() bool {
	return p.Lives > 0
}

// Send 向玩家发送消息，连接缺失时静默丢弃
func (p *Participant) Send(msg *protocol.Message) {
	if p.conn != nil {
		p.conn.SendMessage(msg)
	}
}

// SendError 向玩家单播错误
func (p *Participant) SendError(code int) {
	p.Send(protocol.NewErrorMessage(code))
}

// Info 玩家公开信息
func (p *Participant) Info() protocol.PlayerInfo {
	return protocol.PlayerInfo{
		ID:        p.ID,
		Name:      p.Name,
		Text:      p.Text,
		Connected: p.Connected,
		Alive:     p.Alive(),
		Lives:     p.Lives,
		Admin:     p.Admin,
	}
}
