//go:build !production

package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/alvesvaren/bombfest/internal/protocol"
)

// RecordingConn 记录收到消息的假连接，用于不需要真实 WebSocket 的测试
type RecordingConn struct {
	mu       sync.Mutex
	messages []*protocol.Message
	closed   bool
	code     int
	reason   string
}

func NewRecordingConn() *RecordingConn {
	return &RecordingConn{}
}

func (c *RecordingConn) SendMessage(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

func (c *RecordingConn) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.code = code
	c.reason = reason
}

// Messages returns a copy of everything sent so far.
func (c *RecordingConn) Messages() []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*protocol.Message(nil), c.messages...)
}

// MessagesOfType filters recorded messages by type.
func (c *RecordingConn) MessagesOfType(msgType protocol.MessageType) []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*protocol.Message
	for _, m := range c.messages {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

// CountOfType counts recorded messages by type.
func (c *RecordingConn) CountOfType(msgType protocol.MessageType) int {
	return len(c.MessagesOfType(msgType))
}

// LastOfType returns the most recent message of the given type, or nil.
func (c *RecordingConn) LastOfType(msgType protocol.MessageType) *protocol.Message {
	msgs := c.MessagesOfType(msgType)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// Closed reports whether Close was called, and with what code.
func (c *RecordingConn) Closed() (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.code
}

// StubWords 可编程的假单词服务
// Valid 为空时所有包含 Prompt 的单词都视为有效
type StubWords struct {
	Prompt string
	Valid  map[string]bool
	Delay  func() // 可选：在校验前调用，用于模拟慢响应
}

func (s *StubWords) IsValid(_ context.Context, word, _ string) (bool, error) {
	if s.Delay != nil {
		s.Delay()
	}
	if s.Valid != nil {
		return s.Valid[word], nil
	}
	return strings.Contains(word, s.Prompt), nil
}

func (s *StubWords) RandomPrompt(_ string, _, _ int) (string, bool) {
	return s.Prompt, s.Prompt != ""
}

func (s *StubWords) HasLanguage(string) bool { return true }
