package mapview

import (
	"sync/atomic"
	"time"

	"github.com/openziti/mapview/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// currentParameters is the latest snapshot applied by the worker, readable by the consumer.
//
type currentParameters struct {
	g guard
	p *ViewParameters
}

func (self *currentParameters) set(p *ViewParameters) error {
	if err := self.g.lock(); err != nil {
		return err
	}
	defer self.g.unlock()

	self.p = p
	return nil
}

func (self *currentParameters) get() (*ViewParameters, error) {
	if err := self.g.lock(); err != nil {
		return nil, err
	}
	defer self.g.unlock()

	return self.p, nil
}

// renderWorker owns the renderer and the slot state. Everything here except the queues runs on the worker
// goroutine only.
//
type renderWorker struct {
	id        string
	pool      *RenderTargetPool
	renderer  Renderer
	params    <-chan *ViewParameters
	shutdown  <-chan struct{}
	reuse     *ReuseQueue
	frames    *FrameQueue
	current   *currentParameters
	onUpdate  ParameterUpdateFunc
	iteration time.Duration
	seq       *util.Sequence
	cursor    int
	pending   *CompletedFrame
	stats     *workerStats
	ii        InstrumentInstance
}

func (self *renderWorker) run() (err error) {
	logrus.Infof("[%s] started", self.id)
	defer logrus.Infof("[%s] exited", self.id)

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("worker panic (%v)", r)
		}
		if err != nil {
			self.ii.WorkerError(err)
		}
		self.stats.forceState(Stopped)
	}()

	for {
		select {
		case <-self.shutdown:
			self.stats.setState(Running, Draining)
			return nil
		default:
		}

		if err := self.iterate(); err != nil {
			return err
		}

		time.Sleep(self.iteration)
	}
}

func (self *renderWorker) iterate() error {
	if err := self.drainParameters(); err != nil {
		return err
	}
	if err := self.drainReuse(); err != nil {
		return err
	}

	if self.pending != nil {
		published, err := self.publish(self.pending)
		if err != nil {
			return err
		}
		if !published {
			return nil
		}
		self.pending = nil
	}

	s := self.pool.slots[self.cursor]
	self.cursor = (self.cursor + 1) % len(self.pool.slots)
	if s.inUse {
		if self.allInUse() {
			atomic.AddUint64(&self.stats.slotsExhausted, 1)
			self.ii.SlotsExhausted()
		}
		return nil
	}

	self.renderer.BindTarget(s.target)
	start := time.Now()
	if err := self.renderer.Render(); err != nil {
		return &RenderError{Slot: s.index, Err: err}
	}
	rendered := time.Since(start)
	atomic.AddUint64(&self.stats.framesRendered, 1)
	self.ii.FrameRendered(s.index, rendered)

	params, err := self.current.get()
	if err != nil {
		return err
	}
	s.inUse = true
	atomic.AddInt32(&self.stats.inFlight, 1)
	self.pool.release.ref()
	frame := &CompletedFrame{
		Slot:     s.index,
		Seq:      self.seq.Next(),
		Width:    s.surface.Width(),
		Height:   s.surface.Height(),
		Stride:   s.surface.Stride(),
		Params:   params,
		Rendered: rendered,
		bytes:    s.surface.Bytes(),
		release:  self.pool.release,
	}

	published, err := self.publish(frame)
	if err != nil {
		return err
	}
	if !published {
		self.pending = frame
		self.ii.PublishDeferred(frame.Slot)
	}
	return nil
}

func (self *renderWorker) drainParameters() error {
	for {
		select {
		case p, ok := <-self.params:
			if !ok {
				return errors.Wrap(ErrChannelClosed, "parameter channel")
			}
			if err := self.current.set(p); err != nil {
				return err
			}
			if err := self.onUpdate(self.renderer, p); err != nil {
				return &RenderError{Slot: -1, Err: errors.Wrapf(err, "parameter update %s", p)}
			}
			atomic.AddUint64(&self.stats.parametersApplied, 1)
			self.ii.ParametersApplied(p)

		default:
			return nil
		}
	}
}

// drainReuse skips the drain when the consumer holds the lock; recycling is retried on the next iteration.
func (self *renderWorker) drainReuse() error {
	ok, err := self.reuse.tryDrain(func(index int) {
		if index < 0 || index >= len(self.pool.slots) {
			logrus.Errorf("[%s] ignoring invalid recycled slot #%d", self.id, index)
			return
		}
		s := self.pool.slots[index]
		if !s.inUse {
			logrus.Errorf("[%s] slot #%d recycled while free", self.id, index)
			return
		}
		s.inUse = false
		atomic.AddInt32(&self.stats.inFlight, -1)
		atomic.AddUint64(&self.stats.slotsRecycled, 1)
		self.ii.SlotRecycled(index)
	})
	if err != nil {
		return errors.Wrap(err, "reuse queue")
	}
	if !ok {
		atomic.AddUint64(&self.stats.reuseSkipped, 1)
		self.ii.ReuseSkipped()
	}
	return nil
}

func (self *renderWorker) publish(frame *CompletedFrame) (bool, error) {
	ok, err := self.frames.tryPush(frame)
	if err != nil {
		return false, errors.Wrap(err, "frame queue")
	}
	if ok {
		atomic.AddUint64(&self.stats.framesPublished, 1)
		self.ii.FramePublished(frame.Slot, frame.Seq)
	}
	return ok, nil
}

func (self *renderWorker) allInUse() bool {
	for _, s := range self.pool.slots {
		if !s.inUse {
			return false
		}
	}
	return true
}

// abandon drops a frame that was rendered but never published.
func (self *renderWorker) abandon() {
	if self.pending != nil {
		self.pool.release.unref()
		self.pending = nil
	}
}
