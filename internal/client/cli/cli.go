// Package cli реализует команды клиента docsync поверх сервиса синхронизации.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iudanet/docsync/internal/client/iocli"
	"github.com/iudanet/docsync/internal/client/storage"
	"github.com/iudanet/docsync/internal/client/sync"
	"github.com/iudanet/docsync/internal/crdt"
	"github.com/iudanet/docsync/internal/models"
)

type Cli struct {
	io          iocli.IO
	syncService sync.Service
	meta        storage.MetadataStorage
}

func New(io iocli.IO, syncService sync.Service, meta storage.MetadataStorage) *Cli {
	return &Cli{
		io:          io,
		syncService: syncService,
		meta:        meta,
	}
}

// parseScope разбирает scope в форме type:id, например request:r1
func parseScope(s string) (models.Scope, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return models.Scope{}, fmt.Errorf("invalid scope %q, expected type:id", s)
	}
	scope := models.Scope{Type: models.ScopeType(typ), ID: id}
	if !scope.Type.Valid() {
		return models.Scope{}, fmt.Errorf("unknown scope type %q", typ)
	}
	return scope, nil
}

// parsePath разбирает путь поля через точку: headers.x-trace, tags.0
func parsePath(s string) ([]string, error) {
	if s == "" {
		return nil, fmt.Errorf("empty path")
	}
	path := strings.Split(s, ".")
	for _, seg := range path {
		if seg == "" {
			return nil, fmt.Errorf("invalid path %q", s)
		}
	}
	return path, nil
}

// parseValue читает значение как JSON, все остальное считается строкой
func parseValue(raw string) crdt.Value {
	if !json.Valid([]byte(raw)) {
		return crdt.String(raw)
	}
	v, err := crdt.ParseJSON([]byte(raw))
	if err != nil {
		return crdt.String(raw)
	}
	return v
}

// formatValue печатает значение в JSON
func formatValue(v crdt.Value) string {
	data, err := json.Marshal(crdt.ToAny(v))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// printJSON выводит документ, в терминале с отступами
func (c *Cli) printJSON(data []byte) {
	if c.io.IsTerminal() {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err == nil {
			data = buf.Bytes()
		}
	}
	_, _ = c.io.Write(data)
	c.io.Println()
}
