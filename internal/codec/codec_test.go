package codec

import (
	"bytes"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompress_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	random := make([]byte, 64<<10)
	rng.Read(random)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "nil", data: nil},
		{name: "single byte", data: []byte{0x00}},
		{name: "text", data: []byte(`{"name":"Foo","headers":{"x-trace":"1"}}`)},
		{name: "repetitive", data: bytes.Repeat([]byte("change-record;"), 10000)},
		{name: "random", data: random},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := Compress(tt.data)
			require.NoError(t, err)
			require.NotEmpty(t, compressed)

			restored, err := Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, len(tt.data), len(restored))
			assert.True(t, bytes.Equal(tt.data, restored))
		})
	}
}

func TestCompress_ShrinksRepetitiveInput(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 4096)

	compressed, err := Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data)/10)
}

func TestDecompress_Corrupt(t *testing.T) {
	valid, err := Compress(bytes.Repeat([]byte("payload"), 512))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "garbage", data: []byte("definitely not zstd")},
		{name: "truncated", data: valid[:len(valid)/2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decompress(tt.data)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrCorrupt)

			var codecErr *Error
			require.ErrorAs(t, err, &codecErr)
			assert.Equal(t, "decompress", codecErr.Op)
		})
	}
}

func TestCompressJSON_RoundTrip(t *testing.T) {
	type entry struct {
		Key    string `json:"key"`
		Action string `json:"action"`
		At     int64  `json:"at"`
	}
	in := map[string]entry{
		"ws:req-1:dev-a": {Key: "ws:req-1:dev-a", Action: "accept", At: 1700000000000},
		"ws:req-2:dev-a": {Key: "ws:req-2:dev-a", Action: "rebase", At: 1700000005000},
	}

	compressed, err := CompressJSON(in)
	require.NoError(t, err)

	var out map[string]entry
	require.NoError(t, DecompressJSON(compressed, &out))
	assert.Equal(t, in, out)
}

func TestDecompressJSON_InvalidJSON(t *testing.T) {
	compressed, err := Compress([]byte("{not json"))
	require.NoError(t, err)

	var out map[string]any
	err = DecompressJSON(compressed, &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCorrupt)

	var codecErr *Error
	require.ErrorAs(t, err, &codecErr)
	assert.Equal(t, "decompress json", codecErr.Op)
}

func TestStreaming_RoundTrip(t *testing.T) {
	payload := strings.Repeat(`{"scopeId":"req-1","payload":"AAEC"}`, 200)

	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	_, err = io.WriteString(w, payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	frame := append([]byte(nil), buf.Bytes()...)

	r, err := NewReader(&buf)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, string(got))

	// streamed output is a regular frame
	restored, err := Decompress(frame)
	require.NoError(t, err)
	assert.Equal(t, payload, string(restored))
}
