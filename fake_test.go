package mapview

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

type fakeEngine struct {
	renderDelay time.Duration
	failAfter   int
	panicAfter  int
	createErr   error
	started     chan int
	held        *heldSlots

	lock     sync.Mutex
	renderer *fakeRenderer
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{held: newHeldSlots()}
}

func (self *fakeEngine) Create(_, _ int, _ string, target *Target, _ string) (Renderer, error) {
	if self.createErr != nil {
		return nil, self.createErr
	}
	self.lock.Lock()
	defer self.lock.Unlock()
	self.renderer = &fakeRenderer{engine: self, target: target}
	return self.renderer, nil
}

func (self *fakeEngine) current() *fakeRenderer {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.renderer
}

// fakeRenderer fills the bound surface with the low byte of its render count, so a frame's content identifies the
// render that produced it.
//
type fakeRenderer struct {
	engine     *fakeEngine
	target     *Target
	lock       sync.Mutex
	views      []BoundingBox
	renders    int
	violations int
	closed     bool
}

func (self *fakeRenderer) BindTarget(target *Target) {
	self.target = target
}

func (self *fakeRenderer) SetView(bbox BoundingBox) {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.views = append(self.views, bbox)
}

func (self *fakeRenderer) Render() error {
	self.lock.Lock()
	n := self.renders
	self.lock.Unlock()

	if self.engine.failAfter > 0 && n >= self.engine.failAfter {
		return errors.New("engine failure")
	}
	if self.engine.panicAfter > 0 && n >= self.engine.panicAfter {
		panic("engine panic")
	}
	if self.engine.started != nil {
		select {
		case self.engine.started <- self.target.Slot():
		default:
		}
	}
	if self.engine.held.isHeld(self.target.Slot()) {
		self.lock.Lock()
		self.violations++
		self.lock.Unlock()
	}
	if self.engine.renderDelay > 0 {
		time.Sleep(self.engine.renderDelay)
	}
	data := self.target.Surface().Bytes()
	for i := range data {
		data[i] = byte(n)
	}

	self.lock.Lock()
	self.renders++
	self.lock.Unlock()
	return nil
}

func (self *fakeRenderer) Close() error {
	self.lock.Lock()
	defer self.lock.Unlock()
	self.closed = true
	return nil
}

func (self *fakeRenderer) renderCount() int {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.renders
}

func (self *fakeRenderer) violationCount() int {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.violations
}

func (self *fakeRenderer) isClosed() bool {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.closed
}

func (self *fakeRenderer) viewCount() int {
	self.lock.Lock()
	defer self.lock.Unlock()
	return len(self.views)
}

// heldSlots tracks which slots the test consumer currently holds a handle for.
//
type heldSlots struct {
	lock  sync.Mutex
	slots map[int]bool
}

func newHeldSlots() *heldSlots {
	return &heldSlots{slots: make(map[int]bool)}
}

func (self *heldSlots) acquire(fh *FrameHandle) bool {
	self.lock.Lock()
	defer self.lock.Unlock()
	if self.slots[fh.Slot()] {
		return false
	}
	self.slots[fh.Slot()] = true
	return true
}

func (self *heldSlots) release(fh *FrameHandle) {
	self.lock.Lock()
	delete(self.slots, fh.Slot())
	self.lock.Unlock()
	fh.Release()
}

func (self *heldSlots) isHeld(slot int) bool {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.slots[slot]
}

type countingInstrument struct {
	ii *countingInstrumentInstance
}

func newCountingInstrument() *countingInstrument {
	return &countingInstrument{ii: &countingInstrumentInstance{}}
}

func (self *countingInstrument) NewInstance(string) InstrumentInstance {
	return self.ii
}

type countingInstrumentInstance struct {
	NilInstrumentInstance
	allocations int32
	releases    int32
	errors      int32
	shutdowns   int32
}

func (self *countingInstrumentInstance) Allocate(string) {
	atomic.AddInt32(&self.allocations, 1)
}

func (self *countingInstrumentInstance) Released(string) {
	atomic.AddInt32(&self.releases, 1)
}

func (self *countingInstrumentInstance) WorkerError(error) {
	atomic.AddInt32(&self.errors, 1)
}

func (self *countingInstrumentInstance) Shutdown() {
	atomic.AddInt32(&self.shutdowns, 1)
}

func testProfile(slots int) *Profile {
	p := NewBaselineProfile()
	p.SlotCount = slots
	p.Width = 16
	p.Height = 8
	p.IterationMs = 2
	return p
}
