package game

import (
	"context"
	"time"

	"github.com/alvesvaren/bombfest/internal/protocol"
)

// Conn 与单个玩家绑定的传输层，可在重连时被替换
// 发送为尽力而为：对已断开的连接发送会被静默丢弃
type Conn interface {
	SendMessage(msg *protocol.Message)
	Close(code int, reason string)
}

// WebSocket 关闭码，定义见 protocol 包
const (
	CloseNormal             = protocol.CloseNormal
	CloseConnectedElsewhere = protocol.CloseConnectedElsewhere
	CloseInvalidToken       = protocol.CloseInvalidToken
	CloseRoomNotFound       = protocol.CloseRoomNotFound
)

// WordService 外部单词服务：校验单词、选取提示
// IsValid 可能较慢，调用方需自行处理过期应答
type WordService interface {
	IsValid(ctx context.Context, word, lang string) (bool, error)
	RandomPrompt(lang string, minWords, maxWords int) (string, bool)
	HasLanguage(lang string) bool
}

// Directory 房间目录与战绩的外部存储，全部尽力而为
type Directory interface {
	SaveRoom(ctx context.Context, info protocol.RoomInfo, isPrivate bool) error
	DeleteRoom(ctx context.Context, id string) error
	RecordWin(ctx context.Context, playerID, playerName string) error
}

// Timings 房间节奏参数
type Timings struct {
	Countdown    time.Duration // 开局倒计时
	RoundRestart time.Duration // 局间等待
	LobbyPoll    time.Duration // 大厅轮询间隔
}

// RoomState 房间生命周期状态
type RoomState int

const (
	RoomStateLobby     RoomState = iota // 大厅，接受报名
	RoomStateCountdown                  // 倒计时中
	RoomStatePlaying                    // 对局进行中
	RoomStateEnding                     // 宣布胜者，等待下一局
)
