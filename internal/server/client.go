package server

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alvesvaren/bombfest/internal/game"
	"github.com/alvesvaren/bombfest/internal/protocol"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096
)

// Client 单个 WebSocket 连接，实现 game.Conn
// 同一玩家重连时旧 Client 会被房间以关闭码挤下线
type Client struct {
	server      *Server
	conn        *websocket.Conn
	room        *game.Room
	participant *game.Participant
	send        chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient 创建客户端
func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		server: s,
		conn:   conn,
		send:   make(chan []byte, 256),
	}
}

// ReadPump 从 WebSocket 读取消息并分发给房间
func (c *Client) ReadPump() {
	defer func() {
		c.handleDisconnect()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("读取错误: %v", err)
			}
			break
		}

		// 消息速率限制检查
		if !c.server.messageLimiter.AllowMessage(c.participant.ID) {
			log.Printf("⚠️ 玩家 %s 消息过于频繁", c.participant.Name)
			c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeRateLimit))
			// 屡次超限则断开连接
			if c.server.messageLimiter.StrikeCount(c.participant.ID) > 5 {
				log.Printf("🚫 玩家 %s 因多次超速被断开连接", c.participant.Name)
				break
			}
			continue
		}

		msg, err := protocol.Decode(message)
		if err != nil {
			log.Printf("消息解析错误: %v", err)
			c.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		c.room.HandleMessage(c.participant, msg)
	}
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端
// 锁覆盖入队，避免与 Close 关闭通道竞争
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := msg.Encode()
	if err != nil {
		log.Printf("消息编码错误: %v", err)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- data:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		// 发送缓冲区已满，判定连接不健康并关闭
		log.Printf("玩家发送缓冲区已满，断开连接")
		c.Close(websocket.CloseGoingAway, "send buffer full")
	}
}

// Close 带关闭码关闭连接
// 先尽力送达关闭帧，再关闭发送通道让 WritePump 退出
func (c *Client) Close(code int, reason string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	frame := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait))
}

// handleDisconnect 连接断开的善后
// 只标记掉线不移除成员，玩家可凭令牌重连
func (c *Client) handleDisconnect() {
	if c.participant != nil {
		c.server.messageLimiter.RemoveClient(c.participant.ID)
		c.room.HandleDisconnect(c.participant, c)
	}
}
