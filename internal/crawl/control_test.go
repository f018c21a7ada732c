package crawl

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControl_InitialState(t *testing.T) {
	t.Parallel()

	c := NewControl()
	assert.False(t, c.Paused())
	assert.False(t, c.Stopped())
	assert.True(t, c.Await())
}

func TestControl_PauseBlocksAwait(t *testing.T) {
	t.Parallel()

	c := NewControl()
	c.Pause()
	require.True(t, c.Paused())

	released := make(chan bool, 1)
	go func() {
		released <- c.Await()
	}()

	select {
	case <-released:
		t.Fatal("Await returned while paused")
	case <-time.After(50 * time.Millisecond):
	}

	c.Resume()
	select {
	case ok := <-released:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Await did not release after Resume")
	}
}

func TestControl_StopWinsOverPause(t *testing.T) {
	t.Parallel()

	c := NewControl()
	c.Pause()

	released := make(chan bool, 1)
	go func() {
		released <- c.Await()
	}()

	c.Stop()
	select {
	case ok := <-released:
		assert.False(t, ok, "Await must report stop even while paused")
	case <-time.After(time.Second):
		t.Fatal("Await did not release after Stop")
	}
}

func TestControl_StopReleasesAllWaiters(t *testing.T) {
	t.Parallel()

	c := NewControl()
	c.Pause()

	const waiters = 4
	var wg sync.WaitGroup
	results := make(chan bool, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.Await()
		}()
	}

	c.Stop()
	wg.Wait()
	close(results)
	for ok := range results {
		assert.False(t, ok)
	}
}
