package buffer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPushDrainOrder(t *testing.T) {
	buf := NewMemory()
	ctx := context.Background()

	require.NoError(t, buf.Push(ctx, "rb2405", "row1"))
	require.NoError(t, buf.Push(ctx, "rb2405", "row2"))
	require.NoError(t, buf.Push(ctx, "ag2406", "rowA"))

	drained, err := buf.DrainAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"row1", "row2"}, drained["rb2405"])
	assert.Equal(t, []string{"rowA"}, drained["ag2406"])

	// A second drain finds nothing.
	drained, err = buf.DrainAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, drained)
}

func TestMemoryInstruments(t *testing.T) {
	buf := NewMemory()
	ctx := context.Background()

	require.NoError(t, buf.Push(ctx, "rb2405", "row"))
	require.NoError(t, buf.Push(ctx, "ag2406", "row"))

	_, err := buf.DrainAll(ctx)
	require.NoError(t, err)

	// Instruments stay known after their queues empty.
	symbols, err := buf.Instruments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ag2406", "rb2405"}, symbols)
}

func TestMemoryConcurrentPushAndDrain(t *testing.T) {
	buf := NewMemory()
	ctx := context.Background()

	const pushers = 4
	const perPusher = 250

	var wg sync.WaitGroup
	for p := 0; p < pushers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			symbol := fmt.Sprintf("sym%d", p)
			for i := 0; i < perPusher; i++ {
				_ = buf.Push(ctx, symbol, fmt.Sprintf("row%d", i))
			}
		}(p)
	}

	// Drain concurrently with the pushers; nothing may be lost or doubled.
	collected := make(map[string]int)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			drained, err := buf.DrainAll(ctx)
			assert.NoError(t, err)
			for symbol, rows := range drained {
				collected[symbol] += len(rows)
			}
			if allDone(collected, pushers, perPusher) {
				return
			}
		}
	}()

	wg.Wait()
	<-done

	for p := 0; p < pushers; p++ {
		assert.Equal(t, perPusher, collected[fmt.Sprintf("sym%d", p)])
	}
}

func allDone(collected map[string]int, pushers, perPusher int) bool {
	if len(collected) < pushers {
		return false
	}
	for _, n := range collected {
		if n < perPusher {
			return false
		}
	}
	return true
}
