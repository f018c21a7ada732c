package crawl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_DrainsInOrder(t *testing.T) {
	t.Parallel()

	urls := []string{"https://a.test", "https://b.test", "https://c.test"}
	q := NewQueue(urls)
	require.Equal(t, len(urls), q.Len())

	for _, want := range urls {
		task, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, task.URL)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok)
	assert.Zero(t, q.Len())
}

func TestQueue_Empty(t *testing.T) {
	t.Parallel()

	q := NewQueue(nil)
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}
