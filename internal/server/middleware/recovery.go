package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/iudanet/docsync/pkg/api"
)

// RecoveryMiddleware перехватывает panic в handler'ах.
// Если ответ еще не начат, клиент получает 500 в формате api.ErrorResponse.
// Если заголовки уже ушли, соединение обрывается через http.ErrAbortHandler,
// чтобы клиент не принял обрезанный ответ за успешный. Паника в websocket
// потоке после upgrade только логируется: соединением владеет handler.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				attrs := []any{
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"stack", string(debug.Stack()),
				}

				switch {
				case rw.statusCode == http.StatusSwitchingProtocols:
					logger.Error("Panic in stream handler", attrs...)
					return
				case rw.wroteHeader:
					logger.Error("Panic after response started", append(attrs, "status", rw.statusCode)...)
					panic(http.ErrAbortHandler)
				}

				logger.Error("Panic recovered", attrs...)

				// Не раскрываем детали клиенту
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(api.ErrorResponse{
					Error:   http.StatusText(http.StatusInternalServerError),
					Message: "internal server error",
				})
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
