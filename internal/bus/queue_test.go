package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/schema"
)

func TestQueueFullAndClosed(t *testing.T) {
	q := NewQueue(1)
	ev := schema.NewEvent(schema.EventTrade, "acc", 1, time.Now())
	require.NoError(t, q.TryPublish(ev))
	assert.ErrorIs(t, q.TryPublish(ev), ErrQueueFull)
	assert.Equal(t, 1, q.Len())

	q.Close()
	q.Close()
	assert.ErrorIs(t, q.TryPublish(ev), ErrQueueClosed)
}

func TestQueueRunDrainsAfterClose(t *testing.T) {
	q := NewQueue(8)
	for i := 1; i <= 3; i++ {
		require.NoError(t, q.TryPublish(schema.NewEvent(schema.EventTrade, "acc", uint64(i), time.Now())))
	}
	q.Close()

	var got []uint64
	q.Run(t.Context(), func(e schema.LedgerEvent) {
		got = append(got, e.Seq)
	})
	assert.Equal(t, []uint64{1, 2, 3}, got)
}

func TestQueueConcurrentPublishAndClose(t *testing.T) {
	q := NewQueue(4)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = q.TryPublish(schema.LedgerEvent{Type: schema.EventTransfer})
			}
		}()
	}
	go q.Run(t.Context(), func(schema.LedgerEvent) {})
	q.Close()
	wg.Wait()
}
