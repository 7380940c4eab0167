package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/docsync/internal/server/handlers"
	"github.com/iudanet/docsync/pkg/api"
)

// BearerTokenMiddleware извлекает токен сессии из заголовка Authorization
// и кладет его в контекст запроса. Заголовок необязателен: токен может
// прийти в теле запроса. Проверку сессии выполняет координатор.
func BearerTokenMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, scheme := bearerToken(authHeader)
			if token == "" {
				logger.Warn("Invalid Authorization header format", "scheme", scheme)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(api.ErrorResponse{
					Error:   http.StatusText(http.StatusUnauthorized),
					Message: "invalid authorization header format",
				})
				return
			}

			ctx := context.WithValue(r.Context(), handlers.SessionTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken разбирает заголовок "Bearer <token>". Для другой схемы
// или пустого токена возвращает пустую строку и найденную схему.
func bearerToken(header string) (token, scheme string) {
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", scheme
	}
	return token, scheme
}
