package mapview

import (
	"github.com/gogpu/gg"
	"github.com/pkg/errors"
)

const bytesPerPixel = 4

// Surface is a fixed-size RGBA pixel buffer owned by a RenderTargetPool.
//
type Surface struct {
	pixmap *gg.Pixmap
	width  int
	height int
}

func newSurface(width, height, maxBytes int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid surface dimensions [%dx%d]", width, height)
	}
	if maxBytes > 0 && width > maxBytes/bytesPerPixel/height {
		return nil, errors.Errorf("surface [%dx%d] exceeds [%d] bytes", width, height, maxBytes)
	}
	return &Surface{
		pixmap: gg.NewPixmap(width, height),
		width:  width,
		height: height,
	}, nil
}

func (self *Surface) Width() int {
	return self.width
}

func (self *Surface) Height() int {
	return self.height
}

func (self *Surface) Stride() int {
	return self.width * bytesPerPixel
}

// Bytes returns the live pixel memory (stride x height). Only the current owner of the slot may read or write it.
func (self *Surface) Bytes() []byte {
	if self.pixmap == nil {
		return nil
	}
	return self.pixmap.Data()
}

func (self *Surface) free() {
	self.pixmap = nil
}

// Target is a drawing context bound to exactly one Surface. Engines draw into the surface through it.
//
type Target struct {
	slot    int
	surface *Surface
	dc      *gg.Context
}

func newTarget(slot int, surface *Surface) *Target {
	return &Target{
		slot:    slot,
		surface: surface,
		dc:      gg.NewContext(surface.width, surface.height, gg.WithPixmap(surface.pixmap)),
	}
}

func (self *Target) Slot() int {
	return self.slot
}

func (self *Target) Surface() *Surface {
	return self.surface
}

func (self *Target) Context() *gg.Context {
	return self.dc
}

func (self *Target) close() error {
	if self.dc == nil {
		return nil
	}
	err := self.dc.Close()
	self.dc = nil
	return err
}
