package service

import "sync"

// accountLocks serializes login attempts per account so the count-then-insert
// sequence cannot interleave for the same account. Different accounts never
// contend. Mutexes are kept for the life of the process; the working set is
// bounded by the number of distinct accounts seen.
type accountLocks struct {
	locks sync.Map // account id -> *sync.Mutex
}

func (l *accountLocks) lock(accountID string) *sync.Mutex {
	v, _ := l.locks.LoadOrStore(accountID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}
