package protocol

// PlayerInfo 玩家公开信息
type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Connected bool   `json:"connected"`
	Alive     bool   `json:"alive"`
	Lives     int    `json:"lives"`
	Admin     bool   `json:"admin"`
}

// RulesInfo 房间规则（创建后不可变）
// minWordsPerPrompt/maxWordsPerPrompt 为空表示不限制
type RulesInfo struct {
	MinWordsPerPrompt *int    `json:"minWordsPerPrompt,omitempty"`
	MaxWordsPerPrompt *int    `json:"maxWordsPerPrompt,omitempty"`
	MinRoundTimer     float64 `json:"minRoundTimer"`
	MinNewBombTimer   float64 `json:"minNewBombTimer"`
	MaxNewBombTimer   float64 `json:"maxNewBombTimer"`
	StartingLives     int     `json:"startingLives"`
	MaxLives          int     `json:"maxLives"`
}

// StatePayload 房间完整状态快照
// bombExplodesIn 单位毫秒，-1 表示当前没有计时中的炸弹
type StatePayload struct {
	Players        []PlayerInfo `json:"players"`
	IsPlaying      bool         `json:"isPlaying"`
	PlayingPlayers []string     `json:"playingPlayers"`
	CurrentPlayer  string       `json:"currentPlayer,omitempty"`
	Language       string       `json:"language"`
	Prompt         string       `json:"prompt,omitempty"`
	Rules          RulesInfo    `json:"rules"`
	BombExplodesIn int64        `json:"bombExplodesIn"`
}

// ChatPayload 聊天消息（广播时带 from/at）
type ChatPayload struct {
	Text string `json:"text"`
	From string `json:"from,omitempty"`
	At   int64  `json:"at,omitempty"`
}

// TextPayload 输入预览/提交
type TextPayload struct {
	Text string `json:"text"`
	From string `json:"from,omitempty"`
}

// LeavePayload 玩家离开
type LeavePayload struct {
	ID string `json:"id"`
}

// StartPayload 倒计时开始，in 单位毫秒
type StartPayload struct {
	In int64 `json:"in"`
}

// ResultPayload correct/incorrect 广播
type ResultPayload struct {
	For string `json:"for"`
}

// DamagePayload 超时扣血广播
type DamagePayload struct {
	For   string `json:"for"`
	Lives int    `json:"lives"`
}

// EndPayload 本局结束，winner 为空表示无人获胜
type EndPayload struct {
	Winner     string `json:"winner,omitempty"`
	NewRoundIn int64  `json:"newRoundIn"`
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RoomInfo 房间列表条目（REST）
type RoomInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"player_count"`
	Language    string `json:"language"`
}

// LeaderboardEntry 排行榜条目（REST）
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Wins       int    `json:"wins"`
}
