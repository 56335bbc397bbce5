package mapview

import "sync"

// guard is a mutex that remembers being abandoned by a panic. Once poisoned, every later acquisition reports
// ErrLockPoisoned instead of handing out state that may be half-updated.
//
type guard struct {
	mu       sync.Mutex
	poisoned bool
}

// tryLock never blocks. ok is false when the lock is contended.
func (self *guard) tryLock() (ok bool, err error) {
	if !self.mu.TryLock() {
		return false, nil
	}
	if self.poisoned {
		self.mu.Unlock()
		return false, ErrLockPoisoned
	}
	return true, nil
}

func (self *guard) lock() error {
	self.mu.Lock()
	if self.poisoned {
		self.mu.Unlock()
		return ErrLockPoisoned
	}
	return nil
}

// unlock must be deferred directly so that recover observes a panic raised while the lock is held.
func (self *guard) unlock() {
	if r := recover(); r != nil {
		self.poisoned = true
		self.mu.Unlock()
		panic(r)
	}
	self.mu.Unlock()
}

func (self *guard) poison() {
	self.mu.Lock()
	self.poisoned = true
	self.mu.Unlock()
}
