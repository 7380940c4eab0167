package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/iudanet/docsync/internal/codec"
	"github.com/iudanet/docsync/internal/server/coordinator"
	"github.com/iudanet/docsync/pkg/api"
)

// maxBodyBytes предел размера тела запроса после распаковки
const maxBodyBytes = 64 << 20

// errBadRequest тело запроса не разбирается или не проходит валидацию
var errBadRequest = errors.New("invalid request body")

// sendJSON отправляет JSON ответ
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	sendJSON(logger, w, api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}, statusCode)
}

// statusFor сопоставляет ошибку с HTTP статусом
func statusFor(err error) int {
	var codecErr *codec.Error
	switch {
	case errors.Is(err, coordinator.ErrSessionMissing), errors.Is(err, coordinator.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, coordinator.ErrWorkspaceMismatch):
		return http.StatusForbidden
	case errors.Is(err, coordinator.ErrInvalidChange),
		errors.Is(err, coordinator.ErrInvalidRequest),
		errors.Is(err, errBadRequest),
		errors.As(err, &codecErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// sendCoordinatorError логирует и отправляет ошибку координатора.
// Детали внутренних ошибок клиенту не раскрываются.
func sendCoordinatorError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), op+" failed", slog.Any("error", err))
		sendError(logger, w, "internal server error", status)
		return
	}
	logger.WarnContext(r.Context(), op+" rejected", slog.Any("error", err), slog.Int("status", status))
	sendError(logger, w, err.Error(), status)
}

// decodeJSON читает и валидирует тело запроса
func decodeJSON(r *http.Request, validate *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
