package taskqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFO(t *testing.T) {
	q := New()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		q.Schedule(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	wg.Wait()

	require.Len(t, order, 100)
	for i, got := range order {
		assert.Equal(t, i+1, got)
	}
}

func TestScheduleDoesNotBlock(t *testing.T) {
	q := New()

	release := make(chan struct{})
	q.Schedule(func() { <-release })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.Schedule(func() {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Schedule blocked behind a running task")
	}
	assert.GreaterOrEqual(t, q.Len(), 1000)
	close(release)
}

func TestReentrantSchedule(t *testing.T) {
	q := New()

	var order []string
	done := make(chan struct{})
	q.Schedule(func() {
		order = append(order, "outer")
		q.Schedule(func() {
			order = append(order, "inner")
			close(done)
		})
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task scheduled from a task never ran")
	}
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestNilTaskIgnored(t *testing.T) {
	q := New()
	q.Schedule(nil)
	assert.Equal(t, 0, q.Len())
}

func TestGo(t *testing.T) {
	done := make(chan struct{})
	Go(func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("started goroutine never ran")
	}
}
