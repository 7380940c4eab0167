package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/iudanet/docsync/internal/models"
	"github.com/iudanet/docsync/internal/server/coordinator"
	"github.com/iudanet/docsync/pkg/api"
)

//go:generate moq -out coordinator_mock.go . SyncCoordinator

// SyncCoordinator операции протокола синхронизации, которые нужны HTTP слою
type SyncCoordinator interface {
	Handshake(workspaceID, deviceID string) (*coordinator.HandshakeResult, error)
	Authorize(token, workspaceID string) (*models.Session, error)
	Pull(ctx context.Context, token, workspaceID string, scope models.Scope, sinceEpoch int64) (*coordinator.PullResult, error)
	Push(ctx context.Context, token, workspaceID string, changes []*models.ChangeRecord) (*coordinator.PushResult, error)
	SaveSnapshot(ctx context.Context, token, workspaceID string, snap *models.Snapshot) (int64, error)
	Logout(token string) error
}

// SyncHandler handles synchronization requests
type SyncHandler struct {
	logger      *slog.Logger
	coordinator SyncCoordinator
	validate    *validator.Validate
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, c SyncCoordinator) *SyncHandler {
	return &SyncHandler{
		logger:      logger,
		coordinator: c,
		validate:    validator.New(),
	}
}

// Handshake обрабатывает POST /v1/sync/handshake
// Открывает сессию устройства в workspace
func (h *SyncHandler) Handshake(w http.ResponseWriter, r *http.Request) {
	var req api.HandshakeRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		sendCoordinatorError(h.logger, w, r, "handshake", err)
		return
	}

	res, err := h.coordinator.Handshake(req.WorkspaceID, req.DeviceID)
	if err != nil {
		sendCoordinatorError(h.logger, w, r, "handshake", err)
		return
	}

	sendJSON(h.logger, w, api.HandshakeResponse{
		ServerTime:      res.ServerTime,
		ProtocolVersion: res.ProtocolVersion,
		DeviceID:        res.DeviceID,
		SessionToken:    res.SessionToken,
		LastEpoch:       res.LastEpoch,
	}, http.StatusOK)
}

// Pull обрабатывает POST /v1/sync/pull
// Возвращает изменения scope с эпохой больше sinceEpoch
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.PullRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		sendCoordinatorError(h.logger, w, r, "pull", err)
		return
	}

	scope := models.Scope{Type: req.ScopeType, ID: req.ScopeID}
	res, err := h.coordinator.Pull(ctx, sessionToken(ctx, req.SessionToken), req.WorkspaceID, scope, req.SinceEpoch)
	if err != nil {
		sendCoordinatorError(h.logger, w, r, "pull", err)
		return
	}

	sendJSON(h.logger, w, api.PullResponse{
		Changes:  res.Changes,
		Snapshot: res.Snapshot,
	}, http.StatusOK)
}

// Push обрабатывает POST /v1/sync/push
// Назначает эпохи входящим изменениям и подтверждает диапазон
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.PushRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		sendCoordinatorError(h.logger, w, r, "push", err)
		return
	}

	res, err := h.coordinator.Push(ctx, sessionToken(ctx, req.SessionToken), req.WorkspaceID, req.Changes)
	if err != nil {
		sendCoordinatorError(h.logger, w, r, "push", err)
		return
	}

	sendJSON(h.logger, w, api.PushResponse{
		Ack:       res.Ack,
		Conflicts: res.Conflicts,
	}, http.StatusOK)
}

// Snapshot обрабатывает POST /v1/sync/snapshot
// Сохраняет сжатый снимок документа
func (h *SyncHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SnapshotRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		sendCoordinatorError(h.logger, w, r, "snapshot", err)
		return
	}

	version, err := h.coordinator.SaveSnapshot(ctx, sessionToken(ctx, req.SessionToken), req.WorkspaceID, req.Snapshot)
	if err != nil {
		sendCoordinatorError(h.logger, w, r, "snapshot", err)
		return
	}

	sendJSON(h.logger, w, api.SnapshotResponse{Version: version}, http.StatusOK)
}

// Logout обрабатывает POST /v1/sync/logout
// Отзывает сессию; повторный вызов не считается ошибкой
func (h *SyncHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LogoutRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		sendCoordinatorError(h.logger, w, r, "logout", err)
		return
	}

	if err := h.coordinator.Logout(sessionToken(ctx, req.SessionToken)); err != nil {
		sendCoordinatorError(h.logger, w, r, "logout", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
