package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alvesvaren/bombfest/internal/client"
	"github.com/alvesvaren/bombfest/internal/protocol"
	"github.com/alvesvaren/bombfest/internal/sound"
)

// view 当前界面
type view int

const (
	viewRooms view = iota // 房间列表
	viewGame              // 房间内
)

// 聊天/事件记录保留条数
const maxLogLines = 12

// Model 客户端主模型
type Model struct {
	cli    *client.Client
	sounds *sound.SoundManager

	view     view
	input    textinput.Model
	creating bool // 房间列表界面：正在输入新房间名

	rooms       []protocol.RoomInfo
	leaderboard []protocol.LeaderboardEntry
	cursor      int

	// 房间内状态
	state      protocol.StatePayload
	stateAt    time.Time // 收到快照的时刻，换算炸弹倒计时用
	countdown  time.Time // 开局倒计时结束时刻
	logLines   []string
	latency    int64
	reconnect  string // 重连进度提示
	lastErr    string
	width      int
	height     int
}

// 内部消息
type (
	serverMsg     struct{ msg *protocol.Message }
	connClosedMsg struct{}
	roomsMsg      struct {
		rooms       []protocol.RoomInfo
		leaderboard []protocol.LeaderboardEntry
	}
	errMsg  struct{ err error }
	tickMsg time.Time
)

// New 创建主模型，cli 需已完成注册
func New(cli *client.Client, sounds *sound.SoundManager) *Model {
	input := textinput.New()
	input.Placeholder = "输入单词或聊天..."
	input.CharLimit = protocol.MaxTextLength
	input.Focus()

	return &Model{
		cli:    cli,
		sounds: sounds,
		view:   viewRooms,
		input:  input,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchRooms(), m.tick())
}

// fetchRooms 拉取房间列表与排行榜
func (m *Model) fetchRooms() tea.Cmd {
	cli := m.cli
	return func() tea.Msg {
		rooms, err := cli.Rooms()
		if err != nil {
			return errMsg{err}
		}
		entries, err := cli.Leaderboard()
		if err != nil {
			return errMsg{err}
		}
		return roomsMsg{rooms: rooms, leaderboard: entries}
	}
}

// waitForServer 等待下一条服务器消息
func (m *Model) waitForServer() tea.Cmd {
	cli := m.cli
	return func() tea.Msg {
		msg, err := cli.Receive()
		if err != nil {
			return connClosedMsg{}
		}
		return serverMsg{msg}
	}
}

// tick 驱动炸弹倒计时刷新
func (m *Model) tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// pushLog 追加一行记录，超出上限丢弃最旧的
func (m *Model) pushLog(line string) {
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}

// playerName 按 ID 查玩家名
func (m *Model) playerName(id string) string {
	for _, p := range m.state.Players {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

// isMyTurn 是否轮到自己
func (m *Model) isMyTurn() bool {
	return m.state.IsPlaying && m.state.CurrentPlayer == m.cli.PlayerID
}

// bombRemaining 炸弹剩余时间
func (m *Model) bombRemaining() time.Duration {
	if m.state.BombExplodesIn < 0 {
		return -1
	}
	elapsed := time.Since(m.stateAt)
	return time.Duration(m.state.BombExplodesIn)*time.Millisecond - elapsed
}
