// Package token 提供了用于生成和验证 JSON Web Tokens (JWT) 的功能。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager 负责管理 WebSocket 连接令牌的生成和验证。
// 聊天端点通过 URL 传递令牌，因此令牌必须短时效。
type JWTManager struct {
	secretKey []byte
	tokenDur  time.Duration
}

// WSClaims 定义了 WebSocket 令牌中携带的声明。
type WSClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager 实例。
func NewJWTManager(secret string, expireMinutes int) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secret),
		tokenDur:  time.Duration(expireMinutes) * time.Minute,
	}
}

// GenerateWSToken 为指定用户生成一个短时效的 WebSocket 连接令牌。
func (m *JWTManager) GenerateWSToken(userID string) (string, error) {
	claims := WSClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenDur)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyWSToken 验证 WebSocket 令牌并返回其中的用户标识。
func (m *JWTManager) VerifyWSToken(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &WSClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("意外的签名方法")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*WSClaims)
	if !ok || !token.Valid {
		return "", errors.New("无效的令牌")
	}
	return claims.UserID, nil
}
