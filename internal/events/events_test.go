package events

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobagent-engine/internal/domain"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelB()
	require.Equal(t, 2, h.Subscribers())

	h.Publish("x")
	assert.Equal(t, "x", <-a)
	assert.Equal(t, "x", <-b)

	cancelA()
	cancelA()
	_, ok := <-a
	assert.False(t, ok)
	assert.Equal(t, 1, h.Subscribers())
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < h.buf+5; i++ {
		h.Publish("e")
	}
	assert.Len(t, ch, h.buf)
}

func TestMakeEvent(t *testing.T) {
	var e Event
	require.NoError(t, json.Unmarshal([]byte(MakeEvent("req-1", TypeProgress, map[string]int{"n": 3})), &e))
	assert.Equal(t, TypeProgress, e.Type)
	assert.Equal(t, SchemaVersion, e.Version)
	assert.Equal(t, "req-1", e.RequestID)
	assert.JSONEq(t, `{"n":3}`, string(e.Data))
	assert.False(t, e.At.IsZero())
}

func TestStatusLatestWins(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	var forwarded []uint64
	s := NewStatus(h, func(p domain.RunProgress) { forwarded = append(forwarded, p.Version) })
	assert.Equal(t, "Idle", s.Snapshot().Message)

	assert.True(t, s.Update(domain.RunProgress{Version: 2, Active: true, Message: "b"}))
	assert.False(t, s.Update(domain.RunProgress{Version: 1, Active: true, Message: "a"}))
	assert.False(t, s.Update(domain.RunProgress{Version: 2, Message: "dup"}))
	assert.Equal(t, "b", s.Snapshot().Message)
	assert.Equal(t, []uint64{2}, forwarded)

	var e Event
	require.NoError(t, json.Unmarshal([]byte(<-ch), &e))
	var p domain.RunProgress
	require.NoError(t, json.Unmarshal(e.Data, &p))
	assert.Equal(t, "b", p.Message)
	assert.True(t, p.Active)
}

func TestStatusConcurrentUpdates(t *testing.T) {
	s := NewStatus(nil)

	var wg sync.WaitGroup
	for i := 1; i <= 200; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			s.Update(domain.RunProgress{Version: v, Progress: int(v % 101), Message: "m"})
		}(uint64(i))
	}
	wg.Wait()

	got := s.Snapshot()
	assert.Equal(t, uint64(200), got.Version)
	assert.Equal(t, 200%101, got.Progress)
}
