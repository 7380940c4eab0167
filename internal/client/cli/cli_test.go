package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/docsync/internal/client/iocli"
	"github.com/iudanet/docsync/internal/client/storage/boltdb"
	"github.com/iudanet/docsync/internal/crdt"
	"github.com/iudanet/docsync/internal/models"
)

// output собирает все, что команда напечатала через IOMock
type output struct {
	buf strings.Builder
	mu  stdsync.Mutex
}

func (o *output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.String()
}

func newMockIO(out *output, terminal bool, answers ...string) *iocli.IOMock {
	return &iocli.IOMock{
		PrintlnFunc: func(a ...any) {
			out.mu.Lock()
			defer out.mu.Unlock()
			out.buf.WriteString(fmt.Sprintln(a...))
		},
		PrintfFunc: func(format string, a ...any) {
			out.mu.Lock()
			defer out.mu.Unlock()
			out.buf.WriteString(fmt.Sprintf(format, a...))
		},
		WriteFunc: func(p []byte) (int, error) {
			out.mu.Lock()
			defer out.mu.Unlock()
			return out.buf.Write(p)
		},
		ReadInputFunc: func(prompt string) (string, error) {
			if len(answers) == 0 {
				return "", fmt.Errorf("no more input")
			}
			a := answers[0]
			answers = answers[1:]
			return a, nil
		},
		IsTerminalFunc: func() bool {
			return terminal
		},
	}
}

func newTestStorage(t *testing.T) *boltdb.Storage {
	t.Helper()
	s, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    models.Scope
		wantErr string
	}{
		{
			name:  "Request scope",
			input: "request:r1",
			want:  models.Scope{Type: models.ScopeRequest, ID: "r1"},
		},
		{
			name:  "Id may contain colons",
			input: "collection:a:b",
			want:  models.Scope{Type: models.ScopeCollection, ID: "a:b"},
		},
		{
			name:    "Missing id",
			input:   "request:",
			wantErr: "expected type:id",
		},
		{
			name:    "No separator",
			input:   "request",
			wantErr: "expected type:id",
		},
		{
			name:    "Unknown type",
			input:   "folder:f1",
			wantErr: "unknown scope type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScope(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "Single key", input: "name", want: []string{"name"}},
		{name: "Nested key", input: "headers.x-trace", want: []string{"headers", "x-trace"}},
		{name: "List index", input: "tags.0", want: []string{"tags", "0"}},
		{name: "Empty", input: "", wantErr: true},
		{name: "Empty segment", input: "headers..x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  crdt.Value
	}{
		{name: "Plain word is a string", input: "Foo", want: crdt.String("Foo")},
		{name: "Quoted string", input: `"42"`, want: crdt.String("42")},
		{name: "Number", input: "42", want: crdt.Number(42)},
		{name: "Bool", input: "true", want: crdt.Bool(true)},
		{name: "Null", input: "null", want: crdt.Null{}},
		{name: "Object", input: `{"x-trace":"1"}`, want: crdt.Map{"x-trace": crdt.String("1")}},
		{name: "List", input: `[1,"a"]`, want: crdt.List{crdt.Number(1), crdt.String("a")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseValue(tt.input)
			assert.True(t, crdt.Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestPrintJSON(t *testing.T) {
	doc := []byte(`{"a":{"b":1}}`)

	t.Run("Pipe keeps compact form", func(t *testing.T) {
		out := &output{}
		c := New(newMockIO(out, false), nil, nil)
		c.printJSON(doc)
		assert.Equal(t, "{\"a\":{\"b\":1}}\n", out.String())
	})

	t.Run("Terminal indents", func(t *testing.T) {
		out := &output{}
		c := New(newMockIO(out, true), nil, nil)
		c.printJSON(doc)
		assert.Equal(t, "{\n  \"a\": {\n    \"b\": 1\n  }\n}\n", out.String())
	})
}
