package protocol

import "encoding/json"

// Message 基础消息结构，客户端与服务端共用
// nonce 用于客户端将应答（如 pong）与请求对应起来
type Message struct {
	Type  MessageType     `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Nonce any             `json:"nonce,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgChat   MessageType = "chat"   // 聊天消息
	MsgText   MessageType = "text"   // 实时输入预览
	MsgSubmit MessageType = "submit" // 提交单词
	MsgPlay   MessageType = "play"   // 报名参加本局
	MsgPing   MessageType = "ping"   // 心跳 ping
	MsgLeave  MessageType = "leave"  // 离开房间
)

// 服务端 → 客户端 消息类型
const (
	MsgState     MessageType = "state"     // 房间完整状态快照
	MsgJoin      MessageType = "join"      // 玩家加入
	MsgLeft      MessageType = "leave"     // 玩家离开
	MsgStart     MessageType = "start"     // 倒计时开始
	MsgCorrect   MessageType = "correct"   // 提交正确
	MsgIncorrect MessageType = "incorrect" // 提交错误
	MsgDamage    MessageType = "damage"    // 超时扣血
	MsgEnd       MessageType = "end"       // 本局结束
	MsgPong      MessageType = "pong"      // 心跳 pong
	MsgError     MessageType = "error"     // 错误消息（单播）
)

// MaxTextLength chat/text/submit 载荷的最大长度（字符数）
const MaxTextLength = 256
