package crdt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLamportClock(t *testing.T) {
	clock := NewLamportClock()

	require.NotNil(t, clock)
	assert.Equal(t, uint64(0), clock.GetTimestamp())
	assert.Len(t, clock.GetActor(), 32)
}

func TestLamportClock_Tick(t *testing.T) {
	clock := NewLamportClockWithActor("actor-a")

	tests := []struct {
		name     string
		expected OpID
	}{
		{"first tick", OpID{Counter: 1, Actor: "actor-a"}},
		{"second tick", OpID{Counter: 2, Actor: "actor-a"}},
		{"third tick", OpID{Counter: 3, Actor: "actor-a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clock.Tick())
			assert.Equal(t, tt.expected.Counter, clock.GetTimestamp())
		})
	}
}

func TestLamportClock_Update(t *testing.T) {
	tests := []struct {
		name     string
		initial  uint64
		remote   uint64
		expected uint64
	}{
		{"remote ahead", 3, 10, 10},
		{"remote behind", 10, 3, 10},
		{"equal", 5, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewLamportClockWithActor("a")
			clock.SetTimestamp(tt.initial)

			assert.Equal(t, tt.expected, clock.Update(tt.remote))
			assert.Equal(t, tt.expected+1, clock.Tick().Counter)
		})
	}
}

func TestLamportClock_Concurrent(t *testing.T) {
	clock := NewLamportClockWithActor("a")
	const workers, ticks = 10, 100

	seen := make(chan uint64, workers*ticks)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < ticks; j++ {
				seen <- clock.Tick().Counter
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool)
	for c := range seen {
		assert.False(t, unique[c], "counter %d issued twice", c)
		unique[c] = true
	}
	assert.Len(t, unique, workers*ticks)
	assert.Equal(t, uint64(workers*ticks), clock.GetTimestamp())
}

func TestOpID_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b OpID
		want int
	}{
		{"counter decides", OpID{1, "z"}, OpID{2, "a"}, -1},
		{"actor breaks ties", OpID{2, "b"}, OpID{2, "a"}, 1},
		{"equal", OpID{2, "a"}, OpID{2, "a"}, 0},
		{"root sorts first", rootID, OpID{1, "a"}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.a))
		})
	}
}

func TestParseOpID(t *testing.T) {
	id := OpID{Counter: 42, Actor: "deadbeef"}
	parsed, err := ParseOpID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	root, err := ParseOpID("_root")
	require.NoError(t, err)
	assert.True(t, root.IsZero())

	for _, bad := range []string{"", "42", "x@a", "0@a", "42@"} {
		_, err := ParseOpID(bad)
		assert.Error(t, err, bad)
	}
}
