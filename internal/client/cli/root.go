package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iudanet/docsync/internal/client/api"
	"github.com/iudanet/docsync/internal/client/iocli"
	"github.com/iudanet/docsync/internal/client/storage/boltdb"
	"github.com/iudanet/docsync/internal/client/sync"
	"github.com/iudanet/docsync/internal/logging"
)

// EnvPrefix переменные окружения клиента: DOCSYNC_CLIENT_SERVER, DOCSYNC_CLIENT_WORKSPACE
const EnvPrefix = "DOCSYNC_CLIENT"

// RootOptions глобальные флаги всех команд
type RootOptions struct {
	ServerURL   string
	DBPath      string
	WorkspaceID string
	DeviceName  string
	LogLevel    string
}

// BuildInfo версия сборки, задается через ldflags
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// Opener собирает Cli для выполнения команды. Возвращаемая функция
// освобождает локальное хранилище.
type Opener func(ctx context.Context, io iocli.IO, opts RootOptions) (*Cli, func() error, error)

// NewRootCommand создает корневую команду клиента
func NewRootCommand(io iocli.IO, info BuildInfo) *cobra.Command {
	return newRootCommand(io, info, Open)
}

func newRootCommand(io iocli.IO, info BuildInfo, open Opener) *cobra.Command {
	opts := &RootOptions{}
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "docsync",
		Short:         "docsync - multi-device document sync client",
		Long:          "Edits replicated documents offline and synchronizes them through a docsync server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
				return err
			}
			opts.ServerURL = v.GetString("server")
			opts.DBPath = v.GetString("db")
			opts.WorkspaceID = v.GetString("workspace")
			opts.DeviceName = v.GetString("device-name")
			opts.LogLevel = v.GetString("log-level")
			if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().String("server", "http://localhost:8080", "server URL")
	cmd.PersistentFlags().String("db", "docsync-client.db", "path to local database")
	cmd.PersistentFlags().String("workspace", "", "workspace id")
	cmd.PersistentFlags().String("device-name", "", "human readable device name")
	cmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")

	run := func(fn func(ctx context.Context, c *Cli) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			c, closeFn, err := open(ctx, io, *opts)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeFn()
			}()
			return fn(ctx, c)
		}
	}

	cmd.AddCommand(newConnectCommand(run))
	cmd.AddCommand(newSetCommand(run))
	cmd.AddCommand(newAppendCommand(run))
	cmd.AddCommand(newDeleteCommand(run))
	cmd.AddCommand(newShowCommand(run))
	cmd.AddCommand(newSyncCommand(run))
	cmd.AddCommand(newResolveCommand(run))
	cmd.AddCommand(newCompactCommand(run))
	cmd.AddCommand(newStatusCommand(run))
	cmd.AddCommand(newLogoutCommand(run))
	cmd.AddCommand(newVersionCommand(io, info))

	return cmd
}

// Open открывает bbolt хранилище и собирает сервис синхронизации
func Open(ctx context.Context, io iocli.IO, opts RootOptions) (*Cli, func() error, error) {
	if opts.WorkspaceID == "" {
		return nil, nil, fmt.Errorf("workspace is required (--workspace or %s_WORKSPACE)", EnvPrefix)
	}

	logger, err := logging.New(opts.LogLevel, "text", os.Stderr)
	if err != nil {
		return nil, nil, err
	}

	store, err := boltdb.New(ctx, opts.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	apiClient := api.NewClient(opts.ServerURL)
	svc := sync.NewService(apiClient, store, nil, sync.Config{
		WorkspaceID: opts.WorkspaceID,
		DeviceName:  opts.DeviceName,
		ServerURL:   apiClient.BaseURL(),
	}, logger)

	return New(io, svc, store), store.Close, nil
}
