package booking

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderNoFormat(t *testing.T) {
	gen := NewOrderNoGenerator()
	gen.now = func() time.Time {
		return time.Date(2025, 6, 1, 9, 30, 45, 0, time.UTC)
	}

	assert.Equal(t, "ORDER202506010930450001", gen.Next())
	assert.Equal(t, "ORDER202506010930450002", gen.Next())
}

func TestOrderNoUniqueUnderConcurrency(t *testing.T) {
	gen := NewOrderNoGenerator()
	gen.now = func() time.Time {
		return time.Date(2025, 6, 1, 9, 30, 45, 0, time.UTC)
	}

	const workers = 8
	const perWorker = 100

	var wg sync.WaitGroup
	results := make([][]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nos := make([]string, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				nos = append(nos, gen.Next())
			}
			results[i] = nos
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, workers*perWorker)
	for _, nos := range results {
		for _, no := range nos {
			_, dup := seen[no]
			require.False(t, dup, "duplicate order number %s", no)
			seen[no] = struct{}{}
		}
	}
	assert.Len(t, seen, workers*perWorker)
}
