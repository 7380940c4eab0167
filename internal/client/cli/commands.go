package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/iudanet/docsync/internal/client/iocli"
)

type runner func(fn func(ctx context.Context, c *Cli) error) func(*cobra.Command, []string) error

func newConnectCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Open a session in the workspace",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli) error {
			return c.runConnect(ctx)
		}),
	}
}

func newSetCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "set <scope> <path> <value>",
		Short: "Set a document field",
		Long: `Set a document field. The value is parsed as JSON, anything
that is not valid JSON is stored as a string.

  docsync set request:r1 name Foo
  docsync set request:r1 headers '{"x-trace":"1"}'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, c *Cli) error {
				return c.runEdit(ctx, editSet, args)
			})(cmd, args)
		},
	}
}

func newAppendCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "append <scope> <path> <value>",
		Short: "Append a value to a list field",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, c *Cli) error {
				return c.runEdit(ctx, editAppend, args)
			})(cmd, args)
		},
	}
}

func newDeleteCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <scope> <path>",
		Short: "Delete a document field or list element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, c *Cli) error {
				return c.runEdit(ctx, editDelete, args)
			})(cmd, args)
		},
	}
}

func newShowCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "show <scope>",
		Short: "Print the local document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, c *Cli) error {
				return c.runShow(ctx, args)
			})(cmd, args)
		},
	}
}

func newSyncCommand(run runner) *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "sync <scope>",
		Short: "Push local changes and pull remote ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, c *Cli) error {
				return c.runSync(ctx, args, interactive)
			})(cmd, args)
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for conflict resolutions")
	return cmd
}

func newResolveCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <scope> <path> <accept|decline|rebase>",
		Short: "Record a decision for a conflicting field",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, c *Cli) error {
				return c.runResolve(ctx, args)
			})(cmd, args)
		},
	}
}

func newCompactCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "compact <scope>",
		Short: "Upload a compressed snapshot of the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, c *Cli) error {
				return c.runCompact(ctx, args)
			})(cmd, args)
		},
	}
}

func newStatusCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and outbox state",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli) error {
			return c.runStatus(ctx)
		}),
	}
}

func newLogoutCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session on the server",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli) error {
			return c.runLogout(ctx)
		}),
	}
}

func newVersionCommand(io iocli.IO, info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			io.Println("docsync client")
			io.Printf("Version:    %s\n", info.Version)
			io.Printf("Build Date: %s\n", info.BuildDate)
			io.Printf("Git Commit: %s\n", info.GitCommit)
			return nil
		},
	}
}
