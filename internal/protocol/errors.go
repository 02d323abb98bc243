package protocol

// WebSocket 关闭码（4000+ 为应用自定义区间）
const (
	CloseNormal             = 1000 // 正常关闭
	CloseConnectedElsewhere = 4001 // 同一账号从其他位置连接
	CloseInvalidToken       = 4003 // 身份令牌无效
	CloseRoomNotFound       = 4004 // 房间不存在
)

// 错误码
const (
	ErrCodeUnknown      = 1000
	ErrCodeInvalidMsg   = 1001
	ErrCodeRateLimit    = 1002 // 速率限制
	ErrCodeTextTooLong  = 1003 // 载荷超长
	ErrCodeRoomNotFound = 2001
	ErrCodeNameTooLong  = 2002
	ErrCodeInvalidToken = 2003
	ErrCodeNotYourTurn  = 3001
	ErrCodeGameStarted  = 3002 // 本局已开始，无法报名
	ErrCodeNotInGame    = 3003
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:      "未知错误",
	ErrCodeInvalidMsg:   "无效的消息格式",
	ErrCodeRateLimit:    "请求过于频繁",
	ErrCodeTextTooLong:  "内容过长",
	ErrCodeRoomNotFound: "房间不存在",
	ErrCodeNameTooLong:  "名字过长",
	ErrCodeInvalidToken: "无效的身份令牌",
	ErrCodeNotYourTurn:  "还没轮到您",
	ErrCodeGameStarted:  "本局游戏已开始",
	ErrCodeNotInGame:    "您未参加本局游戏",
}
