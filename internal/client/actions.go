package client

import (
	"time"

	"github.com/alvesvaren/bombfest/internal/protocol"
)

// --- 便捷方法 ---

// Chat 发送聊天消息
func (c *Client) Chat(text string) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{Text: text}))
}

// Text 同步当前输入（仅轮到自己时生效）
func (c *Client) Text(text string) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgText, protocol.TextPayload{Text: text}))
}

// Submit 提交单词
func (c *Client) Submit(word string) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgSubmit, protocol.TextPayload{Text: word}))
}

// Play 报名参加下一局
func (c *Client) Play() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgPlay, nil))
}

// Leave 离开房间
func (c *Client) Leave() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgLeave, nil))
}

// Ping 发送心跳，nonce 携带发送时刻用于测延迟
func (c *Client) Ping() error {
	msg := protocol.MustNewMessage(protocol.MsgPing, nil)
	msg.Nonce = time.Now().UnixMilli()
	return c.SendMessage(msg)
}
