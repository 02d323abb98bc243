package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

func (m *Model) View() string {
	if m.view == viewRooms {
		return docStyle.Render(m.viewRoomList())
	}
	return docStyle.Render(m.viewRoom())
}

// viewRoomList 房间列表界面
func (m *Model) viewRoomList() string {
	var b strings.Builder

	b.WriteString(titleStyle(BombIcon+" Bombfest") + "\n\n")

	if m.creating {
		b.WriteString("新房间名:\n")
		b.WriteString(m.input.View() + "\n")
		b.WriteString(helpStyle.Render("enter 创建 · esc 取消"))
		return b.String()
	}

	if len(m.rooms) == 0 {
		b.WriteString(dimStyle.Render("没有公开房间，按 c 创建一个") + "\n")
	}
	for i, room := range m.rooms {
		line := fmt.Sprintf("%s (%d 人在线, %s)", room.Name, room.PlayerCount, room.Language)
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	if len(m.leaderboard) > 0 {
		b.WriteString("\n" + titleStyle(CrownIcon+" 排行榜") + "\n")
		for _, e := range m.leaderboard {
			b.WriteString(fmt.Sprintf("  %d. %s — %d 胜\n", e.Rank, e.PlayerName, e.Wins))
		}
	}

	if m.lastErr != "" {
		b.WriteString("\n" + errorStyle.Render(m.lastErr))
	}
	b.WriteString(helpStyle.Render("\nenter 加入 · c 创建 · r 刷新 · q 退出"))
	return b.String()
}

// viewRoom 房间内界面
func (m *Model) viewRoom() string {
	var b strings.Builder

	b.WriteString(m.viewStatusLine() + "\n\n")
	b.WriteString(m.viewPlayers() + "\n")

	if m.state.IsPlaying && m.state.Prompt != "" {
		bomb := m.viewBomb()
		b.WriteString(boxStyle.Render(fmt.Sprintf("提示: %s   %s", promptStyle.Render(strings.ToUpper(m.state.Prompt)), bomb)) + "\n")
	} else if until := time.Until(m.countdown); until > 0 {
		b.WriteString(boxStyle.Render(fmt.Sprintf("⏱ 开局倒计时 %.0f 秒", until.Seconds())) + "\n")
	} else {
		b.WriteString(dimStyle.Render("等待开局，按 ctrl+p 报名参加") + "\n")
	}

	if len(m.logLines) > 0 {
		b.WriteString("\n" + strings.Join(m.logLines, "\n") + "\n")
	}

	b.WriteString("\n" + m.input.View() + "\n")

	if m.lastErr != "" {
		b.WriteString(errorStyle.Render(m.lastErr) + "\n")
	}
	if m.reconnect != "" {
		b.WriteString(errorStyle.Render(m.reconnect) + "\n")
	}

	hint := "enter 聊天"
	if m.isMyTurn() {
		hint = currentStyle.Render("轮到你了！enter 提交单词")
	}
	b.WriteString(helpStyle.Render(hint + " · ctrl+p 报名 · esc 离开房间"))
	return b.String()
}

// viewStatusLine 顶部状态行
func (m *Model) viewStatusLine() string {
	status := titleStyle(BombIcon + " Bombfest")
	if m.latency > 0 {
		status += dimStyle.Render(fmt.Sprintf("   %dms", m.latency))
	}
	return status
}

// viewPlayers 玩家列表，正在行动的玩家高亮
func (m *Model) viewPlayers() string {
	var b strings.Builder
	for _, p := range m.state.Players {
		name := p.Name
		if p.Admin {
			name += " " + CrownIcon
		}

		var marks []string
		if lo.Contains(m.state.PlayingPlayers, p.ID) {
			if p.Alive {
				marks = append(marks, strings.Repeat(HeartIcon, p.Lives))
			} else {
				marks = append(marks, DeadIcon)
			}
		}
		if !p.Connected {
			marks = append(marks, PlugIcon)
		}

		line := fmt.Sprintf("%-16s %s", name, strings.Join(marks, " "))
		if m.state.CurrentPlayer == p.ID {
			line = currentStyle.Render("▶ "+line) + dimStyle.Render("  "+p.Text)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// viewBomb 炸弹倒计时
func (m *Model) viewBomb() string {
	remaining := m.bombRemaining()
	if remaining < 0 {
		return ""
	}
	return fmt.Sprintf("%s %.1fs", BombIcon, max(remaining.Seconds(), 0))
}
