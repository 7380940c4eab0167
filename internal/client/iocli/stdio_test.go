package iocli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Проверяем что NewStdio возвращает валидный объект
func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

func TestPrintlnAndPrintf(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(strings.NewReader(""), &out)

	s.Println("hello", "world")
	s.Printf("test %d %s", 1, "abc")
	_, err := s.Write([]byte("!"))
	require.NoError(t, err)

	assert.Equal(t, "hello world\ntest 1 abc!", out.String())
}

func TestReadInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "Trimmed line",
			input: "  accept \n",
			want:  []string{"accept"},
		},
		{
			name:  "Several lines",
			input: "one\ntwo\n",
			want:  []string{"one", "two"},
		},
		{
			name:  "Last line without newline",
			input: "skip",
			want:  []string{"skip"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			s := NewStream(strings.NewReader(tt.input), &out)
			for _, want := range tt.want {
				got, err := s.ReadInput("> ")
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
			assert.Equal(t, strings.Repeat("> ", len(tt.want)), out.String())

			_, err := s.ReadInput("> ")
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestIsTerminal_Stream(t *testing.T) {
	s := NewStream(strings.NewReader(""), io.Discard)
	assert.False(t, s.IsTerminal())
}
