package mapview

import (
	"fmt"
	"math"
	"sync"

	"github.com/pkg/errors"
)

// ViewParameters is an immutable snapshot of the renderer's drawing parameters. X and Y are the view center in map
// units, Zoom is pixels per map unit. Share it by pointer and never modify it after construction.
//
type ViewParameters struct {
	X    float64
	Y    float64
	Zoom float64
}

func NewViewParameters(x, y, zoom float64) *ViewParameters {
	if zoom <= 0 {
		zoom = 1.0
	}
	return &ViewParameters{X: x, Y: y, Zoom: zoom}
}

// BoundingBox returns the map-space box visible in a viewport of width x height pixels. Without a positive zoom the
// box collapses onto the center and is Empty.
func (self *ViewParameters) BoundingBox(width, height int) BoundingBox {
	if !(self.Zoom > 0) || math.IsInf(self.Zoom, 0) {
		return BoundingBox{MinX: self.X, MinY: self.Y, MaxX: self.X, MaxY: self.Y}
	}
	halfW := float64(width) / 2.0 / self.Zoom
	halfH := float64(height) / 2.0 / self.Zoom
	return BoundingBox{
		MinX: self.X - halfW,
		MinY: self.Y - halfH,
		MaxX: self.X + halfW,
		MaxY: self.Y + halfH,
	}
}

// PanDelta returns the display-space offset (in pixels) to apply to a frame rendered with these parameters while the
// display is already showing current. Map y grows upward, display y grows downward.
func (self *ViewParameters) PanDelta(current *ViewParameters) (dx, dy float64) {
	if current == nil || current == self {
		return 0, 0
	}
	dx = (self.X - current.X) * current.Zoom
	dy = (current.Y - self.Y) * current.Zoom
	return
}

// Validate rejects snapshots that cannot describe a view, such as a literal with no zoom.
func (self *ViewParameters) Validate() error {
	if self == nil {
		return errors.New("missing view parameters")
	}
	if !(self.Zoom > 0) || math.IsInf(self.Zoom, 0) {
		return errors.Errorf("invalid zoom [%f]", self.Zoom)
	}
	if math.IsNaN(self.X) || math.IsNaN(self.Y) || math.IsInf(self.X, 0) || math.IsInf(self.Y, 0) {
		return errors.Errorf("invalid center [%f, %f]", self.X, self.Y)
	}
	return nil
}

func (self *ViewParameters) Equal(other *ViewParameters) bool {
	if self == nil || other == nil {
		return self == other
	}
	return self.X == other.X && self.Y == other.Y && self.Zoom == other.Zoom
}

func (self *ViewParameters) String() string {
	return fmt.Sprintf("{x=%.2f, y=%.2f, zoom=%.3f}", self.X, self.Y, self.Zoom)
}

type BoundingBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

func (self BoundingBox) Width() float64 {
	return self.MaxX - self.MinX
}

func (self BoundingBox) Height() float64 {
	return self.MaxY - self.MinY
}

// Empty reports a box with no finite, positive area.
func (self BoundingBox) Empty() bool {
	w, h := self.Width(), self.Height()
	return !(w > 0 && h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0)
}

// ParameterSender is the producer side of the bounded parameter channel. It is safe for use by multiple goroutines.
//
type ParameterSender struct {
	ch     chan *ViewParameters
	done   <-chan struct{}
	lock   sync.RWMutex
	closed bool
}

func newParameterSender(queueLen int, done <-chan struct{}) *ParameterSender {
	return &ParameterSender{
		ch:   make(chan *ViewParameters, queueLen),
		done: done,
	}
}

// Send enqueues a snapshot. It only blocks when the channel is full, and returns ErrChannelClosed once the worker
// has exited. Invalid snapshots are rejected before they reach the worker.
func (self *ParameterSender) Send(p *ViewParameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	self.lock.RLock()
	defer self.lock.RUnlock()

	if self.closed {
		return ErrChannelClosed
	}
	select {
	case <-self.done:
		return ErrChannelClosed
	default:
	}
	select {
	case self.ch <- p:
		return nil
	case <-self.done:
		return ErrChannelClosed
	}
}

// TrySend enqueues a snapshot without blocking, returning false when the channel is full.
func (self *ParameterSender) TrySend(p *ViewParameters) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	self.lock.RLock()
	defer self.lock.RUnlock()

	if self.closed {
		return false, ErrChannelClosed
	}
	select {
	case <-self.done:
		return false, ErrChannelClosed
	default:
	}
	select {
	case self.ch <- p:
		return true, nil
	default:
		return false, nil
	}
}

// Close disconnects the sender. The worker treats the disconnect as a termination signal.
func (self *ParameterSender) Close() {
	self.lock.Lock()
	defer self.lock.Unlock()

	if !self.closed {
		self.closed = true
		close(self.ch)
	}
}
