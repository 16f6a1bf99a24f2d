package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nop() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

func TestSerial_FIFOOrder(t *testing.T) {
	q := NewSerial(0, nop())

	var mu sync.Mutex
	var order []int
	block := make(chan struct{})

	// First task blocks so the rest queue up behind it.
	require.NoError(t, q.Enqueue("t0", func(ctx context.Context) {
		<-block
		mu.Lock()
		order = append(order, 0)
		mu.Unlock()
	}))
	for i := 1; i < 5; i++ {
		i := i
		require.NoError(t, q.Enqueue("t", func(ctx context.Context) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	close(block)
	q.Close()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestSerial_PanicDoesNotKillWorker(t *testing.T) {
	q := NewSerial(0, nop())
	require.NoError(t, q.Enqueue("boom", func(ctx context.Context) {
		panic("boom")
	}))

	done := make(chan struct{})
	require.NoError(t, q.Enqueue("after", func(ctx context.Context) {
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task after panic never ran")
	}
	q.Close()
}

func TestSerial_CloseDrainsAndRejects(t *testing.T) {
	q := NewSerial(0, nop())

	ran := false
	require.NoError(t, q.Enqueue("last", func(ctx context.Context) {
		time.Sleep(10 * time.Millisecond)
		ran = true
	}))
	q.Close()

	assert.True(t, ran, "Close waits for queued work")
	assert.True(t, q.Idle())
	assert.ErrorIs(t, q.Enqueue("late", func(ctx context.Context) {}), ErrClosed)
}

func TestSerial_Depth(t *testing.T) {
	q := NewSerial(0, nop())
	block := make(chan struct{})

	require.NoError(t, q.Enqueue("blocker", func(ctx context.Context) { <-block }))
	// Give the worker a moment to pick the blocker up.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue("waiting", func(ctx context.Context) {}))

	assert.Equal(t, 1, q.Depth())
	assert.False(t, q.Idle())

	close(block)
	q.Close()
	assert.Equal(t, 0, q.Depth())
}
