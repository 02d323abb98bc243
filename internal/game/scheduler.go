package game

// TurnScheduler 按加入顺序循环选择下一个存活玩家
// 替代无限生成器：扫描次数以名单长度为界，名单上没有存活玩家时
// 明确返回失败而不是死循环
type TurnScheduler struct {
	roster []*Participant
	index  int
}

// NewTurnScheduler 创建回合调度器
func NewTurnScheduler(roster []*Participant) *TurnScheduler {
	return &TurnScheduler{roster: roster, index: -1}
}

// Next 返回下一个存活玩家，跳过已淘汰者
// 没有可选玩家时返回 ok=false
func (s *TurnScheduler) Next() (*Participant, bool) {
	if len(s.roster) == 0 {
		return nil, false
	}

	for range s.roster {
		s.index = (s.index + 1) % len(s.roster)
		if p := s.roster[s.index]; p.Alive() {
			return p, true
		}
	}
	return nil, false
}
