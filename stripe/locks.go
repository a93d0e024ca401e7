package stripe

import (
	"sync"
)

// LockManager manages per-customer locks so webhook deliveries for the same
// customer are processed one at a time while different customers proceed in
// parallel.
type LockManager struct {
	locks sync.Map // map[string]*sync.Mutex
}

// NewLockManager creates a new lock manager
func NewLockManager() *LockManager {
	return &LockManager{}
}

// LockCustomer acquires the lock of the given customer id.
// Returns a function that must be called to release the lock
func (lm *LockManager) LockCustomer(customerID string) func() {
	lockInterface, _ := lm.locks.LoadOrStore(customerID, &sync.Mutex{})
	lock, ok := lockInterface.(*sync.Mutex)
	if !ok {
		panic("unexpected type in lock manager")
	}

	lock.Lock()
	return lock.Unlock
}

// CleanupLocks removes the locks that are not currently held.
func (lm *LockManager) CleanupLocks() {
	lm.locks.Range(func(key, value any) bool {
		lock, ok := value.(*sync.Mutex)
		if !ok {
			return true
		}
		if lock.TryLock() {
			lm.locks.Delete(key)
			lock.Unlock()
		}
		return true
	})
}
