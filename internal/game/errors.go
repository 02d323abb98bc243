package game

import "github.com/alvesvaren/bombfest/internal/protocol"

// GameError 游戏错误，Code 对应 protocol 错误码
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound    = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrNameRequired    = &GameError{Code: protocol.ErrCodeInvalidMsg, Message: "名称不能为空"}
	ErrNameTooLong     = &GameError{Code: protocol.ErrCodeNameTooLong, Message: "名称过长"}
	ErrUnknownLanguage = &GameError{Code: protocol.ErrCodeInvalidMsg, Message: "不支持的语言"}
	ErrNotYourTurn     = &GameError{Code: protocol.ErrCodeNotYourTurn, Message: "还没轮到您"}
	ErrGameStarted     = &GameError{Code: protocol.ErrCodeGameStarted, Message: "本局游戏已开始"}
)
