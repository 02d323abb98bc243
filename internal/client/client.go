package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alvesvaren/bombfest/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 心跳检测间隔
	heartbeatInterval = 5 * time.Second
	// 最大重连次数
	maxReconnectAttempts = 5
	// 重连间隔（指数退避的起点）
	reconnectInterval = 2 * time.Second
)

// Client 游戏客户端：REST 接口 + 单个房间的 WebSocket 连接
type Client struct {
	BaseURL string // 形如 http://host:port

	PlayerID   string
	PlayerName string
	Token      string // 身份令牌，重连时沿用
	RoomID     string // 当前连接的房间

	conn    *websocket.Conn
	send    chan []byte
	receive chan *protocol.Message
	done    chan struct{}

	// 网络延迟（毫秒）
	Latency int64

	// 回调
	OnMessage       func(*protocol.Message) // 消息回调
	OnError         func(error)             // 错误回调
	OnClose         func()                  // 关闭回调
	OnReconnecting  func(attempt, max int)  // 重连进度回调
	OnReconnect     func()                  // 重连成功回调
	OnLatencyUpdate func(int64)             // 延迟更新回调

	httpClient *http.Client

	mu             sync.RWMutex
	closed         bool
	reconnecting   atomic.Bool
	reconnectCount int
}

// NewClient 创建客户端
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// --- REST 接口 ---

// apiError 服务端错误响应
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("服务端错误 %d: %s", e.Code, e.Message)
}

// doJSON 发送 JSON 请求并解析响应
func (c *Client) doJSON(method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("请求失败: %s", resp.Status)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// accountResponse 账号接口响应
type accountResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// Register 注册身份（或携带现有令牌改名）并保存令牌
func (c *Client) Register(name string) error {
	var resp accountResponse
	if err := c.doJSON(http.MethodPost, "/api/account", map[string]string{"name": name}, &resp); err != nil {
		return err
	}

	c.PlayerID = resp.ID
	c.PlayerName = resp.Name
	c.Token = resp.Token
	return nil
}

// Rooms 列出公开房间
func (c *Client) Rooms() ([]protocol.RoomInfo, error) {
	var rooms []protocol.RoomInfo
	err := c.doJSON(http.MethodGet, "/api/rooms", nil, &rooms)
	return rooms, err
}

// CreateRoomOptions 创建房间的参数
type CreateRoomOptions struct {
	Name     string              `json:"name"`
	Language string              `json:"language,omitempty"`
	Private  bool                `json:"private,omitempty"`
	Rules    *protocol.RulesInfo `json:"rules,omitempty"`
}

// CreateRoom 创建房间
func (c *Client) CreateRoom(opts CreateRoomOptions) (protocol.RoomInfo, error) {
	var info protocol.RoomInfo
	err := c.doJSON(http.MethodPost, "/api/rooms", opts, &info)
	return info, err
}

// Leaderboard 获取胜场排行榜
func (c *Client) Leaderboard() ([]protocol.LeaderboardEntry, error) {
	var entries []protocol.LeaderboardEntry
	err := c.doJSON(http.MethodGet, "/api/leaderboard", nil, &entries)
	return entries, err
}

// --- WebSocket 连接 ---

// wsRoomURL 房间 WebSocket 地址，令牌放查询参数
func (c *Client) wsRoomURL(roomID string) string {
	wsBase := strings.Replace(c.BaseURL, "http", "ws", 1)
	return fmt.Sprintf("%s/api/room/%s/ws?token=%s", wsBase, roomID, c.Token)
}

// ConnectRoom 连接到房间
func (c *Client) ConnectRoom(roomID string) error {
	if c.Token == "" {
		return errors.New("no token, register first")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.Dial(c.wsRoomURL(roomID), nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.RoomID = roomID
	c.send = make(chan []byte, 256)
	c.receive = make(chan *protocol.Message, 256)
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()

	return nil
}

// SendMessage 发送消息
func (c *Client) SendMessage(msg *protocol.Message) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return errors.New("connection closed")
	}
	send := c.send
	c.mu.RUnlock()

	data, err := msg.Encode()
	if err != nil {
		return err
	}

	select {
	case send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// Receive 接收消息 (阻塞)
func (c *Client) Receive() (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-c.done:
		return nil, errors.New("connection closed")
	}
}

// ReceiveWithTimeout 带超时接收消息
func (c *Client) ReceiveWithTimeout(timeout time.Duration) (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-time.After(timeout):
		return nil, errors.New("receive timeout")
	case <-c.done:
		return nil, errors.New("connection closed")
	}
}

// Close 关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		if c.done != nil {
			close(c.done)
		}
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil
}
