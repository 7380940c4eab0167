// Package jwt подписывает и проверяет токены сессий. Токен доказывает лишь,
// что его выдал координатор; жива ли сессия, решает таблица сессий
// координатора.
package jwt

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

const issuer = "docsync"

// ErrInvalidToken токен не прошел проверку подписи или claims
var ErrInvalidToken = errors.New("invalid session token")

// Claims токена сессии. Зарегистрированный ID (jti) это id сессии.
type Claims struct {
	WorkspaceID string `json:"wid"`
	DeviceID    string `json:"did"`
	gojwt.RegisteredClaims
}

// Service выдает и разбирает HS256 токены сессий
type Service struct {
	secret      []byte
	maxLifetime time.Duration
}

// NewService создает сервис токенов. maxLifetime абсолютный предел жизни
// токена, как бы часто ни продлевалась сессия.
func NewService(secret []byte, maxLifetime time.Duration) *Service {
	return &Service{
		secret:      secret,
		maxLifetime: maxLifetime,
	}
}

// Issue подписывает токен для сессии
func (s *Service) Issue(sessionID, workspaceID, deviceID string, issuedAt time.Time) (string, error) {
	claims := Claims{
		WorkspaceID: workspaceID,
		DeviceID:    deviceID,
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    issuer,
			Subject:   deviceID,
			IssuedAt:  gojwt.NewNumericDate(issuedAt),
			NotBefore: gojwt.NewNumericDate(issuedAt.Add(-time.Minute)),
			ExpiresAt: gojwt.NewNumericDate(issuedAt.Add(s.maxLifetime)),
		},
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse проверяет токен на момент now и возвращает claims
func (s *Service) Parse(tokenString string, now time.Time) (*Claims, error) {
	token, err := gojwt.ParseWithClaims(tokenString, &Claims{}, func(token *gojwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithIssuer(issuer),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateSecret возвращает случайный секрет подписи
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}
	return secret, nil
}

// EncodeSecret кодирует секрет для файлов конфигурации
func EncodeSecret(secret []byte) string {
	return base64.RawURLEncoding.EncodeToString(secret)
}
