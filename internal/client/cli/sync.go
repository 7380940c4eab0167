package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/docsync/internal/client/ledger"
	"github.com/iudanet/docsync/internal/client/sync"
)

func (c *Cli) runSync(ctx context.Context, args []string, interactive bool) error {
	scope, err := parseScope(args[0])
	if err != nil {
		return err
	}

	result, err := c.syncService.Sync(ctx, scope)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	c.io.Printf("✓ %s synchronized at epoch %d\n", scope, result.Cursor)
	c.io.Printf("Pushed to server:   %d change(s)\n", result.Pushed)
	c.io.Printf("Pulled from server: %d change(s)\n", result.Pulled)
	c.io.Printf("Applied locally:    %d change(s)\n", result.Applied)
	if result.Pending > 0 {
		c.io.Printf("Waiting for deps:   %d change(s)\n", result.Pending)
	}
	if result.Skipped > 0 {
		c.io.Printf("Skipped (errors):   %d record(s)\n", result.Skipped)
	}
	if result.Suppressed > 0 {
		c.io.Printf("Already resolved:   %d conflict(s)\n", result.Suppressed)
	}

	if len(result.Conflicts) == 0 {
		return nil
	}

	c.io.Println()
	c.io.Printf("⚠️  %d conflict(s):\n", len(result.Conflicts))
	for _, conflict := range result.Conflicts {
		c.io.Printf("  %s: %s\n", strings.Join(conflict.Path, "."), formatValues(conflict))
	}

	if !interactive || !c.io.IsTerminal() {
		c.io.Println("Run 'docsync resolve <scope> <path> accept|decline|rebase' to resolve.")
		return nil
	}
	return c.promptResolutions(ctx, result.Conflicts)
}

func (c *Cli) promptResolutions(ctx context.Context, conflicts []sync.Conflict) error {
	for _, conflict := range conflicts {
		path := strings.Join(conflict.Path, ".")
		for {
			answer, err := c.io.ReadInput(fmt.Sprintf("Resolve %s [accept/decline/rebase/skip]: ", path))
			if err != nil {
				return fmt.Errorf("failed to read answer: %w", err)
			}
			if answer == "skip" || answer == "" {
				break
			}
			action := ledger.Action(answer)
			if !action.Valid() {
				c.io.Printf("Unknown action %q\n", answer)
				continue
			}
			if err := c.syncService.Resolve(ctx, conflict.Scope, conflict.Path, action); err != nil {
				return fmt.Errorf("failed to resolve %s: %w", path, err)
			}
			c.io.Printf("✓ %s: %s\n", path, action)
			break
		}
	}
	return nil
}

func formatValues(conflict sync.Conflict) string {
	parts := make([]string, 0, len(conflict.Values))
	for _, v := range conflict.Values {
		parts = append(parts, formatValue(v))
	}
	return strings.Join(parts, " | ")
}

func (c *Cli) runResolve(ctx context.Context, args []string) error {
	scope, err := parseScope(args[0])
	if err != nil {
		return err
	}
	path, err := parsePath(args[1])
	if err != nil {
		return err
	}
	action := ledger.Action(args[2])
	if !action.Valid() {
		return fmt.Errorf("unknown action %q, expected accept, decline or rebase", args[2])
	}

	if err := c.syncService.Resolve(ctx, scope, path, action); err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[1], err)
	}
	c.io.Printf("✓ %s %s: %s\n", scope, args[1], action)
	return nil
}

func (c *Cli) runCompact(ctx context.Context, args []string) error {
	scope, err := parseScope(args[0])
	if err != nil {
		return err
	}
	version, err := c.syncService.Compact(ctx, scope)
	if err != nil {
		return fmt.Errorf("compaction failed: %w", err)
	}
	c.io.Printf("✓ Snapshot of %s stored at epoch %d\n", scope, version)
	return nil
}
