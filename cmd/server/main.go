package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/docsync/internal/config"
	"github.com/iudanet/docsync/internal/logging"
	"github.com/iudanet/docsync/internal/server"
	"github.com/iudanet/docsync/internal/server/coordinator"
	"github.com/iudanet/docsync/internal/server/handlers"
	"github.com/iudanet/docsync/internal/server/hub"
	"github.com/iudanet/docsync/internal/server/jwt"
	"github.com/iudanet/docsync/internal/server/storage"
	"github.com/iudanet/docsync/internal/server/storage/memory"
	"github.com/iudanet/docsync/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to config file (yaml, toml or json)")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	if cfg.SecretGenerated {
		logger.Warn("No session secret configured, using a generated one; sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changeLog, closeLog, err := openChangeLog(ctx, logger, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLog(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	h := hub.New(logger, cfg.WebSocket.SendBuffer)
	hubDone := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(hubDone)
	}()

	coord, err := coordinator.New(ctx, changeLog,
		jwt.NewService([]byte(cfg.Session.Secret), cfg.Session.MaxLifetime),
		logger,
		coordinator.WithSessionTTL(cfg.Session.TTL),
		coordinator.WithProtocolVersion(cfg.Sync.ProtocolVersion),
		coordinator.WithPublisher(h),
	)
	if err != nil {
		stop()
		<-hubDone
		return fmt.Errorf("failed to start coordinator: %w", err)
	}
	go coord.Run(ctx, cfg.Session.SweepInterval)

	router, stopLimiters := server.NewRouter(server.Options{
		Logger:      logger,
		Coordinator: coord,
		Hub:         h,
		Presence:    hub.NewPresence(hub.PresenceTTL, nil),
		Version:     Version,
		Stream: handlers.StreamConfig{
			PingPeriod: cfg.WebSocket.PingPeriod,
			PongWait:   cfg.WebSocket.PongWait,
			WriteWait:  cfg.WebSocket.WriteWait,
		},
		RateLimit: server.RateLimit{
			Enabled: cfg.RateLimit.Enabled,
			RPS:     cfg.RateLimit.RequestsPerSecond,
			Burst:   cfg.RateLimit.Burst,
		},
		CompressionThreshold: cfg.Sync.CompressionThreshold,
	})
	defer stopLimiters()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			"addr", srv.Addr,
			"version", Version,
			"storage", cfg.Storage.Driver,
			"protocol_version", cfg.Sync.ProtocolVersion,
			"last_epoch", coord.LastEpoch())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}

	// останавливаем hub: подписчики получают закрытый канал и закрывают websocket
	stop()
	select {
	case <-hubDone:
	case <-time.After(cfg.Server.ShutdownTimeout):
		logger.Warn("Hub did not stop in time")
	}

	if serveErr != nil {
		return fmt.Errorf("server failed: %w", serveErr)
	}
	logger.Info("Server stopped")
	return nil
}

// openChangeLog выбирает хранилище журнала изменений по конфигурации
func openChangeLog(ctx context.Context, logger *slog.Logger, cfg config.StorageConfig) (storage.ChangeLog, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), func() error { return nil }, nil
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		version, err := s.SchemaVersion(ctx)
		if err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		logger.Info("Change log opened", "driver", cfg.Driver, "path", cfg.Path, "schema_version", version)
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func printVersion() {
	fmt.Printf("docsync server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
