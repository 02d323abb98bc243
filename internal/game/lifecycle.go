package game

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/alvesvaren/bombfest/internal/protocol"
)

// turnOutcome 单个回合的结局
type turnOutcome int

const (
	turnCorrect turnOutcome = iota // 提交正确
	turnTimeout                    // 炸弹爆炸
	turnAborted                    // 当前玩家离开或人数不足，回合作废
)

// Run 运行房间生命周期循环，永不返回
// 大厅 → 倒计时 → 对局 → 结算 → 大厅，房间存续期间持续循环
func (r *Room) Run() {
	log.Printf("🏠 房间 %s (%s) 生命周期启动", r.ID, r.Name)
	for {
		r.playOnce()
	}
}

// playOnce 完整走一遍生命周期
func (r *Room) playOnce() {
	r.broadcastState()
	r.waitForPlayers()
	r.runCountdown()
	r.startGame()
	r.runRounds()
	r.endGame()
}

// waitForPlayers 大厅阶段：等待至少两名在线玩家报名
// 轮询时清除已掉线的报名者
func (r *Room) waitForPlayers() {
	ticker := time.NewTicker(r.timings.LobbyPoll)
	defer ticker.Stop()

	for {
		r.mu.Lock()
		r.roster = lo.Filter(r.roster, func(p *Participant, _ int) bool { return p.Connected })
		ready := len(r.roster) >= 2
		r.mu.Unlock()

		if ready {
			return
		}
		<-ticker.C
	}
}

// runCountdown 倒计时阶段：广播固定等待窗口
// 倒计时期间仍接受报名（handlePlay）
func (r *Room) runCountdown() {
	r.mu.Lock()
	r.state = RoomStateCountdown
	r.mu.Unlock()

	r.broadcast(protocol.MustNewMessage(protocol.MsgStart, protocol.StartPayload{
		In: r.timings.Countdown.Milliseconds(),
	}))
	time.Sleep(r.timings.Countdown)
}

// startGame 进入对局：重置名单上所有玩家的生命与输入，抽取首个提示
func (r *Room) startGame() {
	r.mu.Lock()
	r.state = RoomStatePlaying
	r.current = nil
	for _, p := range r.roster {
		p.Lives = r.rules.StartingLives
		p.Text = ""
	}
	names := lo.Map(r.roster, func(p *Participant, _ int) string { return p.Name })
	r.mu.Unlock()

	log.Printf("🎮 房间 %s 开局: %s", r.ID, strings.Join(names, ", "))
	r.broadcastState()
	r.newPrompt()
	r.newBombDeadline()
}

// runRounds 回合循环，直到存活人数 ≤1
func (r *Room) runRounds() {
	r.mu.RLock()
	scheduler := NewTurnScheduler(append([]*Participant(nil), r.roster...))
	r.mu.RUnlock()

	for r.alivePlayingCount() > 1 {
		r.mu.Lock()
		p, ok := scheduler.Next()
		if !ok {
			r.mu.Unlock()
			break
		}
		r.current = p
		r.generation++
		gen := r.generation
		deadline := r.bombExplodesAt
		r.mu.Unlock()

		r.broadcastState()

		switch r.runTurn(p, gen, deadline) {
		case turnCorrect:
			r.newPrompt()
			r.extendBombDeadline()
			r.broadcastState()
		case turnTimeout:
			r.newBombDeadline()
			r.broadcastState()
		case turnAborted:
			// 回合作废：不扣血不广播，保留现有截止时刻
		}
	}
}

// runTurn 单个回合：当前玩家的提交与炸弹计时竞争
// 回合循环是唯一消费三个通道的协程，select 保证恰好一条路径胜出；
// gen 不匹配的提交与校验结果一律丢弃
func (r *Room) runTurn(p *Participant, gen uint64, deadline time.Time) turnOutcome {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		remaining = r.rules.MinRoundTimerDuration()
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	for {
		select {
		case sub := <-r.submissions:
			if sub.gen != gen {
				continue // 上一回合的残留提交
			}
			r.mu.RLock()
			prompt := r.prompt
			r.mu.RUnlock()
			if prompt == "" || !strings.Contains(sub.word, prompt) {
				r.broadcast(protocol.MustNewMessage(protocol.MsgIncorrect, protocol.ResultPayload{For: p.ID}))
				continue
			}
			// 单词服务可能较慢，异步校验，结果带代数送回
			go r.checkWord(sub)

		case v := <-r.verdicts:
			if v.gen != gen {
				log.Printf("🕓 房间 %s 丢弃过期的单词校验结果: %s", r.ID, v.word)
				continue
			}
			if !v.valid {
				r.broadcast(protocol.MustNewMessage(protocol.MsgIncorrect, protocol.ResultPayload{For: p.ID}))
				continue
			}
			r.broadcast(protocol.MustNewMessage(protocol.MsgCorrect, protocol.ResultPayload{For: p.ID}))
			return turnCorrect

		case <-timer.C:
			r.mu.Lock()
			// 炸弹爆炸与玩家离开可能同时发生，离开者不再扣血
			if !p.Alive() || !lo.Contains(r.roster, p) {
				r.mu.Unlock()
				return turnAborted
			}
			p.Lives--
			lives := p.Lives
			r.mu.Unlock()
			r.broadcast(protocol.MustNewMessage(protocol.MsgDamage, protocol.DamagePayload{For: p.ID, Lives: lives}))
			return turnTimeout

		case <-r.wake:
			r.mu.RLock()
			abort := !p.Alive() || !lo.Contains(r.roster, p) || r.aliveCountLocked() <= 1
			r.mu.RUnlock()
			if abort {
				return turnAborted
			}
		}
	}
}

// checkWord 调用单词服务并把结果送回回合循环
// 缓冲满说明循环早已进入后续回合，结果必然过期，丢弃即可
func (r *Room) checkWord(sub submission) {
	valid, err := r.words.IsValid(context.Background(), sub.word, r.Language)
	if err != nil {
		log.Printf("单词校验失败 (%s): %v", sub.word, err)
		valid = false
	}

	select {
	case r.verdicts <- verdict{playerID: sub.playerID, word: sub.word, valid: valid, gen: sub.gen}:
	default:
	}
}

// endGame 结算阶段：广播胜者，短暂等待后回到大厅
func (r *Room) endGame() {
	r.mu.Lock()
	r.state = RoomStateEnding
	r.current = nil
	winner, _ := lo.Find(r.roster, func(p *Participant) bool { return p.Alive() })
	r.mu.Unlock()

	payload := protocol.EndPayload{NewRoundIn: r.timings.RoundRestart.Milliseconds()}
	if winner != nil {
		payload.Winner = winner.ID
		log.Printf("🏁 房间 %s 本局结束，胜者: %s", r.ID, winner.Name)
		if r.directory != nil {
			go func(id, name string) {
				_ = r.directory.RecordWin(context.Background(), id, name)
			}(winner.ID, winner.Name)
		}
	} else {
		log.Printf("🏁 房间 %s 本局结束，无人获胜", r.ID)
	}
	r.broadcast(protocol.MustNewMessage(protocol.MsgEnd, payload))

	time.Sleep(r.timings.RoundRestart)

	r.mu.Lock()
	r.roster = nil
	r.prompt = ""
	r.bombExplodesAt = time.Time{}
	r.state = RoomStateLobby
	r.mu.Unlock()
	r.broadcastState()
}

// newPrompt 抽取新提示，词库没有符合规则的提示时置空并记录
func (r *Room) newPrompt() {
	minWords, maxWords := r.rules.promptWordBounds()
	prompt, ok := r.words.RandomPrompt(r.Language, minWords, maxWords)

	r.mu.Lock()
	r.prompt = prompt
	r.mu.Unlock()

	if !ok {
		log.Printf("⚠️ 房间 %s 没有可用的提示 (%s)", r.ID, r.Language)
	}
}

// newBombDeadline 重新抽取炸弹截止时刻：uniform(min, max) 秒之后
func (r *Room) newBombDeadline() {
	interval := r.rules.MinNewBombTimer + rand.Float64()*(r.rules.MaxNewBombTimer-r.rules.MinNewBombTimer)

	r.mu.Lock()
	r.bombExplodesAt = time.Now().Add(time.Duration(interval * float64(time.Second)))
	r.mu.Unlock()
}

// extendBombDeadline 提交正确后的保底：剩余时间不足一回合时延长到保底时长
func (r *Room) extendBombDeadline() {
	minRound := r.rules.MinRoundTimerDuration()

	r.mu.Lock()
	if time.Until(r.bombExplodesAt) < minRound {
		r.bombExplodesAt = time.Now().Add(minRound)
	}
	r.mu.Unlock()
}

// alivePlayingCount 名单上存活的玩家数
func (r *Room) alivePlayingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.aliveCountLocked()
}

func (r *Room) aliveCountLocked() int {
	return lo.CountBy(r.roster, func(p *Participant) bool { return p.Alive() })
}
