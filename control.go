package mapview

import (
	"sync/atomic"

	"github.com/openziti/mapview/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ControlHandle is the consumer's handle on a running pipeline. Frames are claimed through Frames().GetBuffer; the
// worker is stopped with Join.
//
type ControlHandle struct {
	id       string
	width    int
	height   int
	shutdown chan struct{}
	done     chan struct{}
	err      error
	joined   int32
	frames   *FrameQueue
	reuse    *ReuseQueue
	current  *currentParameters
	stats    *workerStats
	seq      *util.Sequence
	backlog  int32
	pool     *RenderTargetPool
}

func (self *ControlHandle) Id() string {
	return self.id
}

func (self *ControlHandle) Width() int {
	return self.width
}

func (self *ControlHandle) Height() int {
	return self.height
}

func (self *ControlHandle) Frames() *FrameQueue {
	return self.frames
}

// GetBuffer is shorthand for Frames().GetBuffer().
func (self *ControlHandle) GetBuffer() (*FrameHandle, error) {
	return self.frames.GetBuffer()
}

// Parameters returns the snapshot the worker most recently applied.
func (self *ControlHandle) Parameters() (*ViewParameters, error) {
	return self.current.get()
}

func (self *ControlHandle) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&self.stats.state))
}

// Stats never blocks on the worker. When the frame queue is contended the last observed backlog is reported.
func (self *ControlHandle) Stats() Stats {
	s := self.stats.snapshot()
	s.LastSeq = self.seq.Last()
	if n, ok, _ := self.frames.tryLen(); ok {
		atomic.StoreInt32(&self.backlog, int32(n))
	}
	s.Backlog = int(atomic.LoadInt32(&self.backlog))
	return s
}

// Done is closed once the worker has exited and released its resources.
func (self *ControlHandle) Done() <-chan struct{} {
	return self.done
}

// Released reports whether the pool's surfaces have been freed. They outlive the worker while frames are still held.
func (self *ControlHandle) Released() bool {
	return self.pool.Released()
}

// Join signals shutdown and waits for the worker to exit. A render in progress completes first. The worker's
// terminal error is returned; a second Join returns ErrAlreadyJoined.
func (self *ControlHandle) Join() error {
	if !atomic.CompareAndSwapInt32(&self.joined, 0, 1) {
		return ErrAlreadyJoined
	}
	self.stats.setState(Running, Draining)
	close(self.shutdown)
	<-self.done
	if n := self.frames.Discard(); n > 0 {
		logrus.Debugf("[%s] discarded [%d] unclaimed frames", self.id, n)
	}
	return self.err
}

// Close joins the worker and logs any terminal error. It is for teardown paths that cannot report an error.
func (self *ControlHandle) Close() {
	if err := self.Join(); err != nil && !errors.Is(err, ErrAlreadyJoined) {
		logrus.Errorf("[%s] error stopping pipeline (%v)", self.id, err)
	}
}
