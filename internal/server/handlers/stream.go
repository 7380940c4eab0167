package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/iudanet/docsync/internal/models"
	"github.com/iudanet/docsync/internal/server/hub"
	"github.com/iudanet/docsync/pkg/api"
)

const maxPresenceFrame = 64 << 10

// StreamConfig параметры websocket соединения
type StreamConfig struct {
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
}

// StreamHandler раздает события hub'а подключенным устройствам
// и принимает от них сигналы присутствия
type StreamHandler struct {
	logger      *slog.Logger
	coordinator SyncCoordinator
	hub         *hub.Hub
	presence    *hub.Presence
	validate    *validator.Validate
	upgrader    websocket.Upgrader
	cfg         StreamConfig
}

// NewStreamHandler создает handler для GET /v1/sync/stream
func NewStreamHandler(logger *slog.Logger, c SyncCoordinator, h *hub.Hub, presence *hub.Presence, cfg StreamConfig) *StreamHandler {
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	return &StreamHandler{
		logger:      logger,
		coordinator: c,
		hub:         h,
		presence:    presence,
		validate:    validator.New(),
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Stream обрабатывает GET /v1/sync/stream?workspaceId=
// Токен берется из заголовка Authorization или параметра token
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspaceId")
	token := sessionToken(r.Context(), r.URL.Query().Get("token"))

	session, err := h.coordinator.Authorize(token, workspaceID)
	if err != nil {
		sendCoordinatorError(h.logger, w, r, "stream", err)
		return
	}

	// подписка до upgrade: события, опубликованные после ответа клиенту, не теряются
	sub := h.hub.Subscribe(workspaceID, session.DeviceID)
	if sub == nil {
		sendError(h.logger, w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		h.logger.Warn("Failed to upgrade connection", "error", err, "device_id", session.DeviceID)
		return
	}

	h.logger.Info("Stream opened", "workspace_id", workspaceID, "device_id", session.DeviceID)

	// текущее присутствие отправляется до запуска writePump, пока запись однопоточна
	for _, p := range h.presence.List(workspaceID) {
		if p.DeviceID == session.DeviceID {
			continue
		}
		p := p
		ev := hub.Event{Type: hub.EventPresence, WorkspaceID: workspaceID, OriginDevice: p.DeviceID, Presence: &p, At: p.At}
		_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
		if err := conn.WriteJSON(ev); err != nil {
			sub.Close()
			_ = conn.Close()
			return
		}
	}

	go h.writePump(conn, sub, session, token)
	h.readPump(conn, session, sub)
}

// readPump читает кадры присутствия до разрыва соединения
func (h *StreamHandler) readPump(conn *websocket.Conn, session *models.Session, sub *hub.Subscription) {
	defer func() {
		sub.Close()
		h.presence.Remove(session.WorkspaceID, session.DeviceID)
		_ = conn.Close()
		h.logger.Info("Stream closed", "workspace_id", session.WorkspaceID, "device_id", session.DeviceID)
	}()

	conn.SetReadLimit(maxPresenceFrame)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Stream read failed", "error", err, "device_id", session.DeviceID)
			}
			return
		}

		var msg api.PresenceMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("Ignoring malformed presence frame", "error", err, "device_id", session.DeviceID)
			continue
		}
		if err := h.validate.Struct(&msg); err != nil {
			h.logger.Debug("Ignoring invalid presence frame", "error", err, "device_id", session.DeviceID)
			continue
		}

		ev := models.PresenceEvent{
			At:          time.Now().UTC(),
			Payload:     msg.Payload,
			WorkspaceID: session.WorkspaceID,
			DeviceID:    session.DeviceID,
			Type:        msg.Type,
			ScopeType:   msg.ScopeType,
			ScopeID:     msg.ScopeID,
		}
		h.presence.Update(ev)
		h.hub.Publish(hub.Event{
			Type:         hub.EventPresence,
			WorkspaceID:  session.WorkspaceID,
			OriginDevice: session.DeviceID,
			Presence:     &ev,
			At:           ev.At,
		})
	}
}

// writePump единственный писатель в соединение: события hub'а и ping.
// Перед каждым ping сессия проверяется заново: после logout или истечения
// TTL поток закрывается.
func (h *StreamHandler) writePump(conn *websocket.Conn, sub *hub.Subscription, session *models.Session, token string) {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case ev, ok := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if _, err := h.coordinator.Authorize(token, session.WorkspaceID); err != nil {
				h.logger.Info("Stream session ended", "device_id", session.DeviceID, "error", err)
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session expired"))
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
