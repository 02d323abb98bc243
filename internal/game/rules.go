package game

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alvesvaren/bombfest/internal/protocol"
)

var validate = validator.New()

// Rules 房间规则，创建后不可变
// 计时字段单位为秒
type Rules struct {
	MinWordsPerPrompt *int    `validate:"omitempty,gt=0"`
	MaxWordsPerPrompt *int    `validate:"omitempty,gt=0"`
	MinRoundTimer     float64 `validate:"gt=0"`
	MinNewBombTimer   float64 `validate:"gt=0"`
	MaxNewBombTimer   float64 `validate:"gt=0"`
	StartingLives     int     `validate:"gt=0"`
	MaxLives          int     `validate:"gt=0"`
}

// DefaultRules 默认规则
func DefaultRules() Rules {
	minWords := 500
	return Rules{
		MinWordsPerPrompt: &minWords,
		MinRoundTimer:     5,
		MinNewBombTimer:   10,
		MaxNewBombTimer:   30,
		StartingLives:     3,
		MaxLives:          4,
	}
}

// Validate 校验规则约束
func (r Rules) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &GameError{Code: protocol.ErrCodeInvalidMsg, Message: "无效的规则: " + err.Error()}
	}
	if r.MinNewBombTimer >= r.MaxNewBombTimer {
		return &GameError{Code: protocol.ErrCodeInvalidMsg, Message: "无效的规则: 炸弹间隔下限必须小于上限"}
	}
	if r.StartingLives > r.MaxLives {
		return &GameError{Code: protocol.ErrCodeInvalidMsg, Message: "无效的规则: 初始生命不能超过上限"}
	}
	if r.MinWordsPerPrompt != nil && r.MaxWordsPerPrompt != nil && *r.MinWordsPerPrompt >= *r.MaxWordsPerPrompt {
		return &GameError{Code: protocol.ErrCodeInvalidMsg, Message: "无效的规则: 提示单词数下限必须小于上限"}
	}
	return nil
}

// MinRoundTimerDuration 每回合保底时长
func (r Rules) MinRoundTimerDuration() time.Duration {
	return time.Duration(r.MinRoundTimer * float64(time.Second))
}

// promptWordBounds 提示筛选的单词数上下限，0 表示不限制
func (r Rules) promptWordBounds() (minWords, maxWords int) {
	if r.MinWordsPerPrompt != nil {
		minWords = *r.MinWordsPerPrompt
	}
	if r.MaxWordsPerPrompt != nil {
		maxWords = *r.MaxWordsPerPrompt
	}
	return minWords, maxWords
}

// Info 转换为线上格式
func (r Rules) Info() protocol.RulesInfo {
	return protocol.RulesInfo{
		MinWordsPerPrompt: r.MinWordsPerPrompt,
		MaxWordsPerPrompt: r.MaxWordsPerPrompt,
		MinRoundTimer:     r.MinRoundTimer,
		MinNewBombTimer:   r.MinNewBombTimer,
		MaxNewBombTimer:   r.MaxNewBombTimer,
		StartingLives:     r.StartingLives,
		MaxLives:          r.MaxLives,
	}
}

// RulesFromInfo 从线上格式还原，零值字段取默认规则
func RulesFromInfo(info *protocol.RulesInfo) Rules {
	rules := DefaultRules()
	if info == nil {
		return rules
	}
	if info.MinWordsPerPrompt != nil {
		rules.MinWordsPerPrompt = info.MinWordsPerPrompt
	}
	if info.MaxWordsPerPrompt != nil {
		rules.MaxWordsPerPrompt = info.MaxWordsPerPrompt
	}
	if info.MinRoundTimer > 0 {
		rules.MinRoundTimer = info.MinRoundTimer
	}
	if info.MinNewBombTimer > 0 {
		rules.MinNewBombTimer = info.MinNewBombTimer
	}
	if info.MaxNewBombTimer > 0 {
		rules.MaxNewBombTimer = info.MaxNewBombTimer
	}
	if info.StartingLives > 0 {
		rules.StartingLives = info.StartingLives
	}
	if info.MaxLives > 0 {
		rules.MaxLives = info.MaxLives
	}
	return rules
}
