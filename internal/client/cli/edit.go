package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/docsync/internal/crdt"
)

type editKind int

const (
	editSet editKind = iota
	editAppend
	editDelete
)

func (c *Cli) runEdit(ctx context.Context, kind editKind, args []string) error {
	scope, err := parseScope(args[0])
	if err != nil {
		return err
	}
	path, err := parsePath(args[1])
	if err != nil {
		return err
	}

	var (
		message string
		fn      func(*crdt.Tx) error
	)
	switch kind {
	case editSet:
		v := parseValue(args[2])
		message = "set " + args[1]
		fn = func(tx *crdt.Tx) error { return tx.Set(path, v) }
	case editAppend:
		v := parseValue(args[2])
		message = "append " + args[1]
		fn = func(tx *crdt.Tx) error { return tx.Append(path, v) }
	case editDelete:
		message = "delete " + args[1]
		fn = func(tx *crdt.Tx) error { return tx.Delete(path) }
	}

	rec, err := c.syncService.Edit(ctx, scope, message, fn)
	if err != nil {
		return fmt.Errorf("failed to edit %s: %w", scope, err)
	}
	if rec == nil {
		c.io.Println("No changes")
		return nil
	}
	c.io.Printf("✓ %s %s (change %s)\n", scope, message, shortID(rec.ID))
	return nil
}

func (c *Cli) runShow(ctx context.Context, args []string) error {
	scope, err := parseScope(args[0])
	if err != nil {
		return err
	}
	doc, err := c.syncService.Document(ctx, scope)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", scope, err)
	}
	c.printJSON(doc)
	return nil
}

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
