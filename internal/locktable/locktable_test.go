package locktable

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertRemove(t *testing.T) {
	table := New()

	assert.True(t, table.Insert("/db/LOCK"))
	assert.True(t, table.Contains("/db/LOCK"))
	assert.False(t, table.Insert("/db/LOCK"))

	table.Remove("/db/LOCK")
	assert.False(t, table.Contains("/db/LOCK"))
	assert.True(t, table.Insert("/db/LOCK"))

	// Removing an absent name is a no-op.
	table.Remove("/other/LOCK")
}

func TestConcurrentInsertSingleWinner(t *testing.T) {
	table := New()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if table.Insert("/db/LOCK") {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, winners.Load())
}
