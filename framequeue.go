package mapview

import (
	"github.com/emirpasic/gods/lists/singlylinkedlist"
)

// FrameQueue holds completed frames in production order until the consumer claims them. Its backlog is bounded by
// the pool's slot count, since the worker stalls once every slot is in use.
//
type FrameQueue struct {
	g      guard
	frames *singlylinkedlist.List
	reuse  *ReuseQueue
	closed bool
	ii     InstrumentInstance
}

func newFrameQueue(reuse *ReuseQueue, ii InstrumentInstance) *FrameQueue {
	return &FrameQueue{
		frames: singlylinkedlist.New(),
		reuse:  reuse,
		ii:     ii,
	}
}

// GetBuffer claims the oldest completed frame without blocking. It returns (nil, nil) when no frame is ready or the
// queue is momentarily locked by the worker; the caller keeps displaying whatever handle it already holds.
func (self *FrameQueue) GetBuffer() (*FrameHandle, error) {
	ok, err := self.g.tryLock()
	if !ok {
		return nil, err
	}
	defer self.g.unlock()

	v, found := self.frames.Get(0)
	if !found {
		return nil, nil
	}
	self.frames.Remove(0)
	frame := v.(*CompletedFrame)
	self.ii.FrameAcquired(frame.Slot, frame.Seq)
	return newFrameHandle(frame, self.reuse, self.ii), nil
}

// tryLen reports the backlog without blocking. ok is false when the lock was contended.
func (self *FrameQueue) tryLen() (n int, ok bool, err error) {
	ok, err = self.g.tryLock()
	if !ok {
		return 0, false, err
	}
	defer self.g.unlock()

	return self.frames.Size(), true, nil
}

func (self *FrameQueue) Len() int {
	if err := self.g.lock(); err != nil {
		return 0
	}
	defer self.g.unlock()

	return self.frames.Size()
}

// Close disconnects the consumer side. The worker stops with ErrChannelClosed on its next publish.
func (self *FrameQueue) Close() {
	if err := self.g.lock(); err != nil {
		return
	}
	defer self.g.unlock()

	self.closed = true
}

// Discard drops every pending frame, returning its slot and its reference on the pool.
func (self *FrameQueue) Discard() int {
	if err := self.g.lock(); err != nil {
		return 0
	}
	values := self.frames.Values()
	self.frames.Clear()
	self.g.unlock()

	for _, v := range values {
		frame := v.(*CompletedFrame)
		expireLease(lease{frame.Slot, self.reuse, frame.release, self.ii})
	}
	return len(values)
}

// tryPush publishes a frame. ok is false when the lock was contended; the caller keeps the frame and retries.
func (self *FrameQueue) tryPush(frame *CompletedFrame) (ok bool, err error) {
	ok, err = self.g.tryLock()
	if !ok {
		return false, err
	}
	defer self.g.unlock()

	if self.closed {
		return false, ErrChannelClosed
	}
	self.frames.Add(frame)
	return true, nil
}
