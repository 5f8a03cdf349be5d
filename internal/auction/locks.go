package auction

import "sync"

// exchangeLocks hands out one mutex per exchange id. Bid submission is a
// scan-then-write leader determination; without per-exchange serialization two
// concurrent submissions can both observe the old leader and clobber each
// other's updates.
type exchangeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newExchangeLocks() *exchangeLocks {
	return &exchangeLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *exchangeLocks) get(exchangeID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[exchangeID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[exchangeID] = lock
	}
	return lock
}

// release drops the mutex for an exchange that can no longer receive bids.
func (l *exchangeLocks) release(exchangeID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, exchangeID)
}
