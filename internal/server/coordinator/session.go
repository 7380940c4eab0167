package coordinator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/docsync/internal/models"
)

// Handshake открывает новую сессию deviceID в workspaceID. Для пустого
// deviceID id устройства генерируется. LastEpoch в ответе показывает,
// откуда клиенту продолжать pull.
func (c *Coordinator) Handshake(workspaceID, deviceID string) (*HandshakeResult, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: empty workspace id", ErrInvalidRequest)
	}
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	now := c.now()
	session := &models.Session{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		DeviceID:    deviceID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(c.sessionTTL),
	}

	token, err := c.tokens.Issue(session.ID, workspaceID, deviceID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	c.sessMu.Lock()
	c.sessions[session.ID] = session
	c.sessMu.Unlock()

	c.logger.Info("Session opened",
		"workspace_id", workspaceID,
		"device_id", deviceID,
		"session_id", session.ID,
	)

	return &HandshakeResult{
		ServerTime:      now,
		ProtocolVersion: c.protocolVersion,
		DeviceID:        deviceID,
		SessionToken:    token,
		LastEpoch:       c.LastEpoch(),
	}, nil
}

// VerifySession возвращает живую сессию для token и сдвигает ее срок вперед.
// Для неизвестного, поддельного, отозванного или истекшего токена вернет nil.
// Истекшая сессия удаляется.
func (c *Coordinator) VerifySession(token string) *models.Session {
	if token == "" {
		return nil
	}
	now := c.now()

	claims, err := c.tokens.Parse(token, now)
	if err != nil {
		return nil
	}

	c.sessMu.Lock()
	defer c.sessMu.Unlock()

	session, ok := c.sessions[claims.ID]
	if !ok {
		return nil
	}
	if session.Expired(now) {
		delete(c.sessions, claims.ID)
		c.logger.Debug("Session expired", "session_id", claims.ID, "device_id", session.DeviceID)
		return nil
	}

	session.ExpiresAt = now.Add(c.sessionTTL)
	out := *session
	return &out
}

// Authorize проверяет token и его доступ к workspaceID
func (c *Coordinator) Authorize(token, workspaceID string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionMissing
	}
	session := c.VerifySession(token)
	if session == nil {
		return nil, ErrSessionExpired
	}
	if session.WorkspaceID != workspaceID {
		return nil, ErrWorkspaceMismatch
	}
	return session, nil
}

// Logout отзывает сессию токена. Отзыв неизвестной или уже истекшей
// сессии ошибкой не считается.
func (c *Coordinator) Logout(token string) error {
	if token == "" {
		return ErrSessionMissing
	}
	claims, err := c.tokens.Parse(token, c.now())
	if err != nil {
		return nil
	}

	c.sessMu.Lock()
	session, ok := c.sessions[claims.ID]
	delete(c.sessions, claims.ID)
	c.sessMu.Unlock()

	if ok {
		c.logger.Info("Session revoked", "session_id", claims.ID, "device_id", session.DeviceID)
	}
	return nil
}

// SweepExpired удаляет все сессии, истекшие к now, и возвращает их число
func (c *Coordinator) SweepExpired(now time.Time) int {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()

	removed := 0
	for id, session := range c.sessions {
		if session.Expired(now) {
			delete(c.sessions, id)
			removed++
		}
	}
	return removed
}

// SessionCount возвращает число отслеживаемых сессий
func (c *Coordinator) SessionCount() int {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	return len(c.sessions)
}
