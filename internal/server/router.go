// Package server собирает HTTP слой координатора синхронизации
package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iudanet/docsync/internal/server/coordinator"
	"github.com/iudanet/docsync/internal/server/handlers"
	"github.com/iudanet/docsync/internal/server/hub"
	"github.com/iudanet/docsync/internal/server/middleware"
)

// RateLimit настраивает ограничение запросов на сессию устройства или на IP
// для запросов без сессии.
type RateLimit struct {
	Enabled bool
	RPS     float64
	Burst   int
}

// Options зависимости роутера
type Options struct {
	Logger      *slog.Logger
	Coordinator *coordinator.Coordinator
	Hub         *hub.Hub
	Presence    *hub.Presence
	Version     string
	Stream      handlers.StreamConfig
	RateLimit   RateLimit
	// CompressionThreshold минимальный размер тела ответа в байтах, которое
	// сжимается zstd для клиентов, принимающих его.
	CompressionThreshold int
}

// NewRouter строит дерево обработчиков. Возвращаемая stop освобождает
// горутины rate limiter.
func NewRouter(opts Options) (http.Handler, func()) {
	logger := opts.Logger

	syncHandler := handlers.NewSyncHandler(logger, opts.Coordinator)
	streamHandler := handlers.NewStreamHandler(logger, opts.Coordinator, opts.Hub, opts.Presence, opts.Stream)
	healthHandler := handlers.NewHealthHandler(logger, opts.Coordinator, opts.Version)

	r := mux.NewRouter()
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggingWithSkip(logger, []string{"/health"}))

	stop := func() {}
	if opts.RateLimit.Enabled {
		// handshake выдает сессии, поэтому лимит на него строже
		limit, stopLimiters := middleware.RateLimitByPathMiddleware([]middleware.PathRateLimit{
			{Path: "/v1/sync/handshake", RPS: opts.RateLimit.RPS / 4, Burst: max(1, opts.RateLimit.Burst/4)},
		}, opts.RateLimit.RPS, opts.RateLimit.Burst, logger)
		r.Use(limit)
		stop = stopLimiters
	}

	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1/sync").Subrouter()
	v1.Use(middleware.BearerTokenMiddleware(logger))
	v1.Use(middleware.CompressionMiddleware(logger, opts.CompressionThreshold))

	v1.HandleFunc("/handshake", syncHandler.Handshake).Methods(http.MethodPost)
	v1.HandleFunc("/pull", syncHandler.Pull).Methods(http.MethodPost)
	v1.HandleFunc("/push", syncHandler.Push).Methods(http.MethodPost)
	v1.HandleFunc("/snapshot", syncHandler.Snapshot).Methods(http.MethodPost)
	v1.HandleFunc("/logout", syncHandler.Logout).Methods(http.MethodPost)
	v1.HandleFunc("/stream", streamHandler.Stream).Methods(http.MethodGet)

	return r, stop
}
