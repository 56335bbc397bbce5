package mapview

import (
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RenderTargetPool owns N fixed-size surfaces and the N targets bound to them. The surfaces are released only when
// the pool and every outstanding frame have dropped their reference on the pool's release token.
//
type RenderTargetPool struct {
	id      string
	width   int
	height  int
	slots   []*slot
	release *releaseToken
	closed  int32
	ii      InstrumentInstance
}

type slot struct {
	index   int
	surface *Surface
	target  *Target
	inUse   bool
}

func NewRenderTargetPool(id string, width, height, count, maxSurfaceBytes int, ii InstrumentInstance) (*RenderTargetPool, error) {
	if count < 1 {
		return nil, newAllocationError("pool", errors.Errorf("invalid slot count [%d]", count))
	}
	if ii == nil {
		ii = &NilInstrumentInstance{}
	}
	pool := &RenderTargetPool{
		id:     id,
		width:  width,
		height: height,
		ii:     ii,
	}
	for i := 0; i < count; i++ {
		surface, err := newSurface(width, height, maxSurfaceBytes)
		if err != nil {
			pool.free()
			return nil, newAllocationError(fmt.Sprintf("surface #%d", i), err)
		}
		pool.slots = append(pool.slots, &slot{
			index:   i,
			surface: surface,
			target:  newTarget(i, surface),
		})
		ii.Allocate(id)
	}
	pool.release = &releaseToken{refs: 1, pool: pool}
	logrus.Debugf("[%s] allocated [%d] surfaces of [%dx%d]", id, count, width, height)
	return pool, nil
}

func (self *RenderTargetPool) Width() int {
	return self.width
}

func (self *RenderTargetPool) Height() int {
	return self.height
}

func (self *RenderTargetPool) Size() int {
	return len(self.slots)
}

// Target returns the render target for slot i.
func (self *RenderTargetPool) Target(i int) *Target {
	return self.slots[i].target
}

// Close drops the pool's own reference. Surfaces still viewed by frames stay allocated until those frames are
// released.
func (self *RenderTargetPool) Close() {
	if atomic.CompareAndSwapInt32(&self.closed, 0, 1) {
		self.release.unref()
	}
}

// Released reports whether the surfaces have been freed.
func (self *RenderTargetPool) Released() bool {
	return atomic.LoadInt32(&self.release.refs) < 1
}

func (self *RenderTargetPool) free() {
	for _, s := range self.slots {
		if err := s.target.close(); err != nil {
			logrus.Errorf("[%s] error closing target #%d (%v)", self.id, s.index, err)
		}
		s.surface.free()
		self.ii.Released(self.id)
	}
	if len(self.slots) > 0 {
		logrus.Debugf("[%s] released [%d] surfaces", self.id, len(self.slots))
	}
}

// releaseToken is the shared deallocation token for a pool's surfaces.
//
type releaseToken struct {
	refs int32
	pool *RenderTargetPool
}

func (self *releaseToken) ref() {
	atomic.AddInt32(&self.refs, 1)
}

func (self *releaseToken) unref() {
	refs := atomic.AddInt32(&self.refs, -1)
	if refs == 0 {
		self.pool.free()
	} else if refs < 0 {
		panic(fmt.Sprintf("release token for [%s] unreferenced below zero", self.pool.id))
	}
}
