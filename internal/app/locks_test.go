package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTradeLocks_ExclusivePerTrade(t *testing.T) {
	l := newTradeLocks()

	unlock := l.lock(1)
	acquired := make(chan struct{})
	go func() {
		u := l.lock(1)
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock on the same trade acquired while held")
	case <-time.After(50 * time.Millisecond):
	}

	// Another trade is not blocked.
	other := l.lock(2)
	other()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestTradeLocks_EntriesAreReleased(t *testing.T) {
	l := newTradeLocks()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			l.lock(id)()
		}(int64(i % 5))
	}
	wg.Wait()
	assert.Equal(t, 0, l.size())
}
