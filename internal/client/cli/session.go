package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/docsync/internal/client/storage"
	"github.com/iudanet/docsync/internal/client/sync"
)

func (c *Cli) runConnect(ctx context.Context) error {
	info, err := c.syncService.Connect(ctx)
	if err != nil {
		return err
	}
	c.io.Println("✓ Connected")
	c.io.Printf("Workspace: %s\n", info.WorkspaceID)
	c.io.Printf("Device:    %s\n", info.DeviceID)
	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	err := c.syncService.Logout(ctx)
	if errors.Is(err, sync.ErrNotConnected) {
		c.io.Println("Not connected")
		return nil
	}
	if err != nil {
		return err
	}
	c.io.Println("✓ Session revoked")
	return nil
}

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Sync Status ===")
	c.io.Println()

	info, err := c.meta.GetDevice(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.io.Println("Device: not registered")
		c.io.Println("Run 'docsync connect' to open a session.")
	case err != nil:
		return fmt.Errorf("failed to read device info: %w", err)
	default:
		c.io.Printf("Workspace: %s\n", info.WorkspaceID)
		c.io.Printf("Server:    %s\n", info.ServerURL)
		if info.DeviceID != "" {
			c.io.Printf("Device:    %s\n", info.DeviceID)
		}
		if info.SessionToken != "" {
			c.io.Println("Session:   active")
		} else {
			c.io.Println("Session:   none")
		}
	}
	c.io.Printf("Status:    %s\n", c.syncService.Status())

	last, err := c.meta.GetLastSyncTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("failed to read last sync time: %w", err)
	}
	if last > 0 {
		c.io.Printf("Last sync: %s\n", time.UnixMilli(last).UTC().Format(time.RFC3339))
	} else {
		c.io.Println("Last sync: never")
	}

	pending, err := c.syncService.PendingCount(ctx)
	if err != nil {
		// не прерываем вывод
		c.io.Printf("\nWarning: failed to get pending count: %v\n", err)
		return nil
	}
	c.io.Println()
	if pending > 0 {
		c.io.Printf("⚠️  Pending sync: %d change(s) waiting to be pushed\n", pending)
	} else {
		c.io.Println("✓ All changes pushed to server")
	}
	return nil
}
