package mapview

import (
	"image"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// CompletedFrame is a view into a rendered slot. It owns no pixel memory and is valid only while the slot stays
// reserved; each published frame holds one reference on its pool's release token.
//
type CompletedFrame struct {
	Slot     int
	Seq      int32
	Width    int
	Height   int
	Stride   int
	Params   *ViewParameters
	Rendered time.Duration
	bytes    []byte
	release  *releaseToken
}

// FrameHandle leases one completed frame to the consumer. Release returns the slot to the worker exactly once. A
// handle that becomes unreachable without being released is released by the garbage collector.
//
type FrameHandle struct {
	frame    *CompletedFrame
	lease    lease
	released int32
	cleanup  runtime.Cleanup
}

type lease struct {
	slot    int
	reuse   *ReuseQueue
	release *releaseToken
	ii      InstrumentInstance
}

func newFrameHandle(frame *CompletedFrame, reuse *ReuseQueue, ii InstrumentInstance) *FrameHandle {
	fh := &FrameHandle{
		frame: frame,
		lease: lease{frame.Slot, reuse, frame.release, ii},
	}
	fh.cleanup = runtime.AddCleanup(fh, expireLease, fh.lease)
	return fh
}

func (self *FrameHandle) Bytes() []byte {
	if atomic.LoadInt32(&self.released) != 0 {
		return nil
	}
	return self.frame.bytes
}

func (self *FrameHandle) Parameters() *ViewParameters {
	return self.frame.Params
}

func (self *FrameHandle) Slot() int {
	return self.frame.Slot
}

func (self *FrameHandle) Seq() int32 {
	return self.frame.Seq
}

func (self *FrameHandle) Width() int {
	return self.frame.Width
}

func (self *FrameHandle) Height() int {
	return self.frame.Height
}

func (self *FrameHandle) Stride() int {
	return self.frame.Stride
}

// Image copies the frame into a new image, which stays valid after Release.
func (self *FrameHandle) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, self.frame.Width, self.frame.Height))
	copy(img.Pix, self.Bytes())
	return img
}

func (self *FrameHandle) Released() bool {
	return atomic.LoadInt32(&self.released) != 0
}

// Release returns the slot to the worker. Calls after the first are no-ops.
func (self *FrameHandle) Release() {
	if !atomic.CompareAndSwapInt32(&self.released, 0, 1) {
		return
	}
	self.cleanup.Stop()
	expireLease(self.lease)
}

func expireLease(l lease) {
	if err := l.reuse.push(l.slot); err != nil {
		logrus.Errorf("error returning slot #%d (%v)", l.slot, err)
	}
	if l.ii != nil {
		l.ii.FrameReleased(l.slot)
	}
	l.release.unref()
}
