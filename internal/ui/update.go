package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alvesvaren/bombfest/internal/client"
	"github.com/alvesvaren/bombfest/internal/protocol"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case roomsMsg:
		m.rooms = msg.rooms
		m.leaderboard = msg.leaderboard
		if m.cursor >= len(m.rooms) {
			m.cursor = 0
		}
		return m, nil

	case serverMsg:
		return m.handleServer(msg.msg)

	case connClosedMsg:
		if m.cli.IsReconnecting() {
			return m, m.waitForServer()
		}
		m.view = viewRooms
		m.lastErr = "连接已断开"
		return m, m.fetchRooms()

	case errMsg:
		m.lastErr = msg.err.Error()
		return m, nil

	case tickMsg:
		return m, m.tick()
	}

	return m, nil
}

// handleKey 按界面分发按键
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		if m.view == viewGame {
			_ = m.cli.Leave()
		}
		return m, tea.Quit
	}

	if m.view == viewRooms {
		return m.handleRoomsKey(msg)
	}
	return m.handleGameKey(msg)
}

// handleRoomsKey 房间列表界面按键
func (m *Model) handleRoomsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.creating {
		switch msg.Type {
		case tea.KeyEsc:
			m.creating = false
			m.input.Reset()
			return m, nil
		case tea.KeyEnter:
			name := m.input.Value()
			m.creating = false
			m.input.Reset()
			if name == "" {
				return m, nil
			}
			return m, m.createAndJoin(name)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		return m, m.fetchRooms()
	case "c":
		m.creating = true
		m.input.Placeholder = "房间名..."
		m.input.Reset()
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rooms)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.rooms) {
			return m, m.joinRoom(m.rooms[m.cursor].ID)
		}
	}
	return m, nil
}

// handleGameKey 房间内按键
func (m *Model) handleGameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		_ = m.cli.Leave()
		m.cli.Close()
		m.view = viewRooms
		m.logLines = nil
		m.input.Reset()
		return m, m.fetchRooms()

	case tea.KeyEnter:
		text := m.input.Value()
		m.input.Reset()
		if text == "" {
			return m, nil
		}
		if m.isMyTurn() {
			_ = m.cli.Submit(text)
		} else {
			_ = m.cli.Chat(text)
		}
		return m, nil
	}

	if msg.String() == "ctrl+p" {
		_ = m.cli.Play()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	// 轮到自己时同步输入给其他玩家
	if m.isMyTurn() {
		_ = m.cli.Text(m.input.Value())
	}
	return m, cmd
}

// createAndJoin 创建房间并立即加入
func (m *Model) createAndJoin(name string) tea.Cmd {
	cli := m.cli
	return func() tea.Msg {
		info, err := cli.CreateRoom(client.CreateRoomOptions{Name: name})
		if err != nil {
			return errMsg{err}
		}
		if err := cli.ConnectRoom(info.ID); err != nil {
			return errMsg{err}
		}
		return serverMsg{protocol.MustNewMessage(protocol.MsgJoin, nil)}
	}
}

// joinRoom 连接到已有房间
func (m *Model) joinRoom(id string) tea.Cmd {
	cli := m.cli
	return func() tea.Msg {
		if err := cli.ConnectRoom(id); err != nil {
			return errMsg{err}
		}
		return serverMsg{protocol.MustNewMessage(protocol.MsgJoin, nil)}
	}
}

// handleServer 处理服务器消息
func (m *Model) handleServer(msg *protocol.Message) (tea.Model, tea.Cmd) {
	if m.view != viewGame {
		m.view = viewGame
		m.lastErr = ""
		m.input.Placeholder = "输入单词或聊天..."
		m.hookCallbacks()
	}

	switch msg.Type {
	case protocol.MsgState:
		if state, err := protocol.ParsePayload[protocol.StatePayload](msg); err == nil {
			m.state = *state
			m.stateAt = time.Now()
		}

	case protocol.MsgChat:
		if chat, err := protocol.ParsePayload[protocol.ChatPayload](msg); err == nil {
			m.pushLog(chatStyle.Render(fmt.Sprintf("%s: %s", m.playerName(chat.From), chat.Text)))
		}

	case protocol.MsgJoin:
		if p, err := protocol.ParsePayload[protocol.PlayerInfo](msg); err == nil && p.ID != "" {
			m.pushLog(dimStyle.Render(fmt.Sprintf("%s 加入了房间", p.Name)))
		}

	case protocol.MsgLeft:
		if p, err := protocol.ParsePayload[protocol.LeavePayload](msg); err == nil {
			m.pushLog(dimStyle.Render(fmt.Sprintf("%s 离开了房间", m.playerName(p.ID))))
		}

	case protocol.MsgStart:
		if start, err := protocol.ParsePayload[protocol.StartPayload](msg); err == nil {
			m.countdown = time.Now().Add(time.Duration(start.In) * time.Millisecond)
			m.pushLog(titleStyle("⏱ 游戏即将开始"))
			m.sounds.Play("tick")
		}

	case protocol.MsgCorrect:
		if result, err := protocol.ParsePayload[protocol.ResultPayload](msg); err == nil {
			m.pushLog(currentStyle.Render(fmt.Sprintf("✔ %s 答对了", m.playerName(result.For))))
			m.sounds.Play("correct")
		}

	case protocol.MsgIncorrect:
		if result, err := protocol.ParsePayload[protocol.ResultPayload](msg); err == nil {
			m.pushLog(errorStyle.Render(fmt.Sprintf("✘ %s 答错了", m.playerName(result.For))))
			m.sounds.Play("incorrect")
		}

	case protocol.MsgDamage:
		if dmg, err := protocol.ParsePayload[protocol.DamagePayload](msg); err == nil {
			m.pushLog(errorStyle.Render(fmt.Sprintf("%s %s 被炸到了 (剩 %d 条命)", BombIcon, m.playerName(dmg.For), dmg.Lives)))
			m.sounds.Play("damage")
		}

	case protocol.MsgEnd:
		if end, err := protocol.ParsePayload[protocol.EndPayload](msg); err == nil {
			if end.Winner != "" {
				m.pushLog(titleStyle(fmt.Sprintf("%s %s 获胜！", CrownIcon, m.playerName(end.Winner))))
			} else {
				m.pushLog(titleStyle("本局结束，无人获胜"))
			}
			m.sounds.Play("end")
		}

	case protocol.MsgError:
		if e, err := protocol.ParsePayload[protocol.ErrorPayload](msg); err == nil {
			m.lastErr = e.Message
		}
	}

	return m, m.waitForServer()
}

// hookCallbacks 注册连接层回调
func (m *Model) hookCallbacks() {
	m.cli.OnLatencyUpdate = func(latency int64) { m.latency = latency }
	m.cli.OnReconnecting = func(attempt, max int) {
		m.reconnect = fmt.Sprintf("%s 重连中 (%d/%d)...", PlugIcon, attempt, max)
	}
	m.cli.OnReconnect = func() { m.reconnect = "" }
	m.cli.StartHeartbeat()
}
