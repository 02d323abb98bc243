package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session 玩家身份，由账号接口签发，核心只读
type Session struct {
	ID   string // 稳定的玩家 ID
	Name string // 显示名称
}

// Issuer 签发与校验身份令牌
type Issuer struct {
	secret []byte
}

// ErrInvalidToken 令牌无效或签名不匹配
var ErrInvalidToken = errors.New("auth: invalid token")

// claims 令牌内容，sub 为玩家 ID
type claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// NewIssuer 创建令牌签发器
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue 为玩家签发 HS256 令牌
// 令牌不设过期时间，玩家 ID 即账号（与客户端约定一致）
func (i *Issuer) Issue(session Session) (string, error) {
	c := &claims{
		Name: session.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  session.ID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(i.secret)
}

// Verify 校验令牌并还原玩家身份
func (i *Issuer) Verify(tokenString string) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Session{}, err
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" || c.Name == "" {
		return Session{}, ErrInvalidToken
	}

	return Session{ID: c.Subject, Name: c.Name}, nil
}
