package mapview

// ReuseQueue carries slot indices the consumer has finished with back to the worker.
//
type ReuseQueue struct {
	g       guard
	indices []int
}

func newReuseQueue(capacity int) *ReuseQueue {
	return &ReuseQueue{indices: make([]int, 0, capacity)}
}

// push blocks briefly on the lock; a release must never be lost. The worker holds the lock only long enough to swap
// the slice out.
func (self *ReuseQueue) push(index int) error {
	if err := self.g.lock(); err != nil {
		return err
	}
	defer self.g.unlock()

	self.indices = append(self.indices, index)
	return nil
}

// tryDrain hands every queued index to f. ok is false when the lock was contended and nothing was drained.
func (self *ReuseQueue) tryDrain(f func(index int)) (ok bool, err error) {
	ok, err = self.g.tryLock()
	if !ok {
		return false, err
	}
	drained := self.indices
	self.indices = make([]int, 0, cap(drained))
	self.g.unlock()

	for _, index := range drained {
		f(index)
	}
	return true, nil
}

func (self *ReuseQueue) Len() int {
	if err := self.g.lock(); err != nil {
		return 0
	}
	defer self.g.unlock()

	return len(self.indices)
}
