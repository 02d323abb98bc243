package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/alvesvaren/bombfest/internal/auth"
	"github.com/alvesvaren/bombfest/internal/config"
	"github.com/alvesvaren/bombfest/internal/game"
	"github.com/alvesvaren/bombfest/internal/protocol"
	"github.com/alvesvaren/bombfest/internal/storage"
	"github.com/alvesvaren/bombfest/internal/words"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源，生产环境需要限制
	},
}

var validate = validator.New()

// Server HTTP/WebSocket 服务器
type Server struct {
	config  *config.Config
	redis   *redis.Client
	store   *storage.RedisStore
	issuer  *auth.Issuer
	manager *game.Manager

	// 安全组件
	connLimiter    *RateLimiter
	messageLimiter *MessageRateLimiter

	httpServer *http.Server
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化 Redis 客户端
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}
	store := storage.NewRedisStore(rdb)

	// 加载词库
	dicts, err := words.Load(cfg.Words.Dir, cfg.Words.Languages)
	if err != nil {
		return nil, fmt.Errorf("加载词库失败: %w", err)
	}

	timings := game.Timings{
		Countdown:    cfg.Game.CountdownDuration(),
		RoundRestart: cfg.Game.RoundRestartDuration(),
		LobbyPoll:    cfg.Game.LobbyPollDuration(),
	}

	s := &Server{
		config:         cfg,
		redis:          rdb,
		store:          store,
		issuer:         auth.NewIssuer(cfg.Server.JWTSecret),
		manager:        game.NewManager(dicts, timings, store),
		connLimiter:    NewRateLimiter(cfg.Security.ConnPerSecond, 30*time.Second),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MsgPerSecond),
	}

	log.Printf("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s",
		cfg.Security.ConnPerSecond, cfg.Security.MsgPerSecond)

	return s, nil
}

// Handler 组装路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/account", s.handleAccount)
	mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/room/{id}/ws", s.handleRoomWS)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start 启动服务器
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	log.Printf("🚀 服务器启动在 http://%s (CPU核心数: %d)", addr, runtime.NumCPU())
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		IdleTimeout:       60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	log.Println("服务器已关闭")
	return nil
}

// --- REST 接口 ---

// accountRequest 注册/改名请求
type accountRequest struct {
	Name string `json:"name" validate:"required,max=32"`
}

// accountResponse 账号响应，令牌用于后续所有接口
type accountResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// handleAccount 签发身份令牌
// 携带有效令牌时保留原玩家 ID（改名），否则创建新身份
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	id := uuid.New().String()
	if session, err := s.issuer.Verify(bearerToken(r)); err == nil {
		id = session.ID
	}

	session := auth.Session{ID: id, Name: req.Name}
	token, err := s.issuer.Issue(session)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, protocol.ErrCodeUnknown, "签发令牌失败")
		return
	}

	log.Printf("🪪 签发令牌: %s (%s)", req.Name, id)
	s.writeJSON(w, http.StatusOK, accountResponse{ID: id, Name: req.Name, Token: token})
}

// handleListRooms 列出公开房间
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.manager.ListRooms())
}

// createRoomRequest 创建房间请求，规则缺省字段取默认值
type createRoomRequest struct {
	Name     string              `json:"name" validate:"required,max=20"`
	Language string              `json:"language"`
	Private  bool                `json:"private"`
	Rules    *protocol.RulesInfo `json:"rules"`
}

// handleCreateRoom 创建房间
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if _, err := s.issuer.Verify(bearerToken(r)); err != nil {
		s.writeError(w, http.StatusUnauthorized, protocol.ErrCodeInvalidToken, protocol.ErrorMessages[protocol.ErrCodeInvalidToken])
		return
	}

	var req createRoomRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	if req.Language == "" {
		req.Language = s.config.Words.DefaultLanguage
	}

	room, err := s.manager.CreateRoom(req.Name, req.Private, req.Language, game.RulesFromInfo(req.Rules))
	if err != nil {
		var gameErr *game.GameError
		if errors.As(err, &gameErr) {
			s.writeError(w, http.StatusBadRequest, gameErr.Code, gameErr.Message)
			return
		}
		s.writeError(w, http.StatusBadRequest, protocol.ErrCodeUnknown, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, room.Info())
}

// handleLeaderboard 胜场排行榜
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.GetLeaderboard(r.Context(), 10)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, protocol.ErrCodeUnknown, "读取排行榜失败")
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// --- WebSocket 接入 ---

// handleRoomWS 将连接接入房间
// 令牌与房间错误在升级后以关闭码送达，便于浏览器端区分原因
func (s *Server) handleRoomWS(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)
	if !s.connLimiter.Allow(clientIP) {
		log.Printf("🚫 IP %s 请求过于频繁", clientIP)
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	session, err := s.issuer.Verify(bearerToken(r))
	if err != nil {
		closeConn(conn, game.CloseInvalidToken, "invalid token")
		return
	}

	room, ok := s.manager.GetRoom(r.PathValue("id"))
	if !ok {
		closeConn(conn, game.CloseRoomNotFound, "room not found")
		return
	}

	client := NewClient(s, conn)
	client.room = room

	go client.WritePump()
	client.participant = room.Connect(session, client)

	log.Printf("✅ 玩家 %s (%s) 已连接到房间 %s", session.Name, clientIP, room.ID)
	go client.ReadPump()
}

// closeConn 升级后立即以关闭码拒绝连接
func closeConn(conn *websocket.Conn, code int, reason string) {
	frame := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(writeWait))
	_ = conn.Close()
}

// --- 辅助函数 ---

// bearerToken 从 Authorization 头或 token 查询参数提取令牌
// 浏览器的 WebSocket API 无法设置请求头，因此也接受查询参数
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := cutBearer(header); ok {
		return after
	}
	return r.URL.Query().Get("token")
}

func cutBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):], true
	}
	return "", false
}

// readJSON 解析并校验请求体，失败时写出错误响应
func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, protocol.ErrCodeInvalidMsg, protocol.ErrorMessages[protocol.ErrCodeInvalidMsg])
		return false
	}
	if err := validate.Struct(v); err != nil {
		s.writeError(w, http.StatusBadRequest, protocol.ErrCodeInvalidMsg, "无效的请求: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("响应编码错误: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status, code int, message string) {
	s.writeJSON(w, status, protocol.ErrorPayload{Code: code, Message: message})
}
