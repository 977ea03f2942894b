package app

import "sync"

// tradeLocks hands out one mutex per trade ID. Entries are dropped once no
// goroutine holds or waits on them.
type tradeLocks struct {
	mu    sync.Mutex
	locks map[int64]*tradeLock
}

type tradeLock struct {
	mu   sync.Mutex
	refs int
}

func newTradeLocks() *tradeLocks {
	return &tradeLocks{locks: make(map[int64]*tradeLock)}
}

// lock blocks until the caller owns tradeID and returns the matching unlock.
func (l *tradeLocks) lock(tradeID int64) (unlock func()) {
	l.mu.Lock()
	tl, ok := l.locks[tradeID]
	if !ok {
		tl = &tradeLock{}
		l.locks[tradeID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.mu.Lock()
	return func() {
		tl.mu.Unlock()
		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, tradeID)
		}
		l.mu.Unlock()
	}
}

// size reports how many trades currently have a lock entry.
func (l *tradeLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
