package coordinator

import "errors"

var (
	// ErrSessionMissing запрос без токена сессии
	ErrSessionMissing = errors.New("session token missing")
	// ErrSessionExpired токен неизвестен, истек, отозван или подделан
	ErrSessionExpired = errors.New("session expired or unknown")
	// ErrWorkspaceMismatch запрос к workspace, для которого сессия не выдавалась
	ErrWorkspaceMismatch = errors.New("session is not valid for this workspace")
	// ErrInvalidChange некорректная запись или снимок в push
	ErrInvalidChange = errors.New("invalid change")
	// ErrInvalidRequest в запросе нет обязательных идентификаторов
	ErrInvalidRequest = errors.New("invalid request")
)
