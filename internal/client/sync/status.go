package sync

import (
	"errors"

	httpClient "github.com/iudanet/docsync/internal/client/api"
)

// Status состояние подключения клиента к серверу
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusOnline     Status = "online"
	StatusOffline    Status = "offline"
	StatusError      Status = "error"
)

// statusFor классифицирует ошибку обмена с сервером: ответ сервера с ошибкой
// означает проблему протокола, все остальное считается недоступностью сети
func statusFor(err error) Status {
	if err == nil {
		return StatusOnline
	}
	var statusErr *httpClient.StatusError
	if errors.As(err, &statusErr) || errors.Is(err, ErrProtocolVersion) {
		return StatusError
	}
	return StatusOffline
}

func (s *service) setStatus(st Status) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if s.status != st {
		s.logger.Debug("Sync status changed", "from", s.status, "to", st)
	}
	s.status = st
}

// Status возвращает текущее состояние подключения
func (s *service) Status() Status {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.status
}
