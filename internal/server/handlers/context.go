package handlers

import "context"

// contextKey тип для ключей контекста
type contextKey string

// SessionTokenKey ключ для токена сессии из заголовка Authorization
const SessionTokenKey contextKey = "session_token"

// GetSessionToken извлекает токен сессии из контекста запроса
func GetSessionToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(SessionTokenKey).(string)
	return token, ok && token != ""
}

// sessionToken выбирает токен: значение из тела запроса приоритетнее заголовка
func sessionToken(ctx context.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	token, _ := GetSessionToken(ctx)
	return token
}
