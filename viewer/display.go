package viewer

import (
	"image"
	"image/draw"
	"math"
	"path/filepath"

	"github.com/openziti/mapview"
	"github.com/openziti/mapview/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
)

// Display is the consumer side of a pipeline, as driven by a window's event loop. Every method must be called from
// the same goroutine.
//
type Display struct {
	cfg     mapview.Config
	profile mapview.Profile
	scale   float64
	ch      *mapview.ControlHandle
	ps      *mapview.ParameterSender
	current *mapview.ViewParameters
	frame   *mapview.FrameHandle
	watcher *MapWatcher
}

// Frame describes what a refresh left on screen: the held frame and the offset, in display pixels, that lines it up
// with the current parameters.
//
type Frame struct {
	Handle *mapview.FrameHandle
	Fresh  bool
	DX     float64
	DY     float64
}

func NewDisplay(cfg *mapview.Config) (*Display, error) {
	if cfg == nil {
		return nil, errors.New("missing config")
	}
	d := &Display{cfg: *cfg, scale: 1.0}
	if cfg.Profile != nil {
		d.profile = *cfg.Profile
	} else {
		d.profile = *mapview.NewBaselineProfile()
	}
	d.cfg.Profile = &d.profile
	d.current = cfg.Initial
	if d.current == nil {
		d.current = mapview.NewViewParameters(0, 0, 1)
	}
	if err := d.start(); err != nil {
		return nil, err
	}
	return d, nil
}

// Watch reloads the map whenever its definition file changes.
func (self *Display) Watch() error {
	if self.watcher != nil {
		return nil
	}
	path := self.cfg.MapDefinition
	if !filepath.IsAbs(path) && self.cfg.BasePath != "" {
		path = filepath.Join(self.cfg.BasePath, path)
	}
	w, err := NewMapWatcher(path)
	if err != nil {
		return err
	}
	self.watcher = w
	return nil
}

// SetScale sets the display's pixel density factor applied by Present.
func (self *Display) SetScale(scale float64) {
	if scale > 0 {
		self.scale = scale
	}
}

func (self *Display) Width() int {
	return self.profile.Width
}

func (self *Display) Height() int {
	return self.profile.Height
}

func (self *Display) Parameters() *mapview.ViewParameters {
	return self.current
}

func (self *Display) Handle() *mapview.ControlHandle {
	return self.ch
}

// Refresh claims the oldest ready frame, if any, and releases the one it replaces. Without a ready frame the held
// frame stays on screen. It never blocks on the worker.
func (self *Display) Refresh() (*Frame, error) {
	if self.watcher != nil && self.watcher.Changed() {
		logrus.Infof("[%s] map definition changed, reloading", self.cfg.Id)
		if err := self.Reload(); err != nil {
			return nil, err
		}
	}
	if self.ch == nil {
		return nil, errors.New("no pipeline")
	}

	fh, err := self.ch.GetBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "error claiming frame")
	}
	if fh != nil {
		if self.frame != nil {
			self.frame.Release()
		}
		self.frame = fh
	}
	if self.frame == nil {
		return nil, nil
	}

	dx, dy := 0.0, 0.0
	if fp := self.frame.Parameters(); fp != nil {
		dx, dy = fp.PanDelta(self.current)
	}
	return &Frame{Handle: self.frame, Fresh: fh != nil, DX: dx, DY: dy}, nil
}

// Pan moves the view by a display-space offset in pixels.
func (self *Display) Pan(dx, dy float64) error {
	c := self.current
	return self.update(mapview.NewViewParameters(c.X-dx/c.Zoom, c.Y+dy/c.Zoom, c.Zoom))
}

func (self *Display) CenterOn(x, y float64) error {
	return self.update(mapview.NewViewParameters(x, y, self.current.Zoom))
}

func (self *Display) ZoomTo(zoom float64) error {
	if zoom <= 0 {
		return errors.Errorf("invalid zoom [%f]", zoom)
	}
	return self.update(mapview.NewViewParameters(self.current.X, self.current.Y, zoom))
}

func (self *Display) update(p *mapview.ViewParameters) error {
	if self.ps == nil {
		return errors.New("no pipeline")
	}
	if err := self.ps.Send(p); err != nil {
		return errors.Wrapf(err, "error sending %s", p)
	}
	self.current = p
	return nil
}

// Resize rebuilds the pipeline at a new size. Frames of the old size are dropped. When the new pipeline cannot be
// built, the display is left without one and the error is returned; a later Resize may succeed.
func (self *Display) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Errorf("invalid display size [%dx%d]", width, height)
	}
	self.stop()
	self.profile.Width = width
	self.profile.Height = height
	return self.start()
}

// Reload rebuilds the pipeline at the current size, reading the map definition again.
func (self *Display) Reload() error {
	self.stop()
	return self.start()
}

// Present draws the held frame into dst, scaled by the display density and shifted so that it lines up with the
// current parameters. Areas the frame does not cover are cleared.
func (self *Display) Present(dst draw.Image) {
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
	if self.frame == nil {
		return
	}
	w, h := float64(self.frame.Width()), float64(self.frame.Height())
	ratio := 1.0
	dx, dy := 0.0, 0.0
	if fp := self.frame.Parameters(); fp != nil {
		ratio = self.current.Zoom / fp.Zoom
		dx, dy = fp.PanDelta(self.current)
	}
	minX := (w/2*(1-ratio) + dx) * self.scale
	minY := (h/2*(1-ratio) + dy) * self.scale
	r := image.Rect(
		int(math.Round(minX)), int(math.Round(minY)),
		int(math.Round(minX+w*ratio*self.scale)), int(math.Round(minY+h*ratio*self.scale)),
	)
	src := &image.RGBA{
		Pix:    self.frame.Bytes(),
		Stride: self.frame.Stride(),
		Rect:   image.Rect(0, 0, self.frame.Width(), self.frame.Height()),
	}
	if r.Dx() == src.Rect.Dx() && r.Dy() == src.Rect.Dy() {
		draw.Draw(dst, r, src, image.Point{}, draw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(dst, r, src, src.Rect, draw.Src, nil)
	}
}

// Upload copies the held frame into a staging buffer whose rows are stride bytes apart, as texture uploads with
// aligned rows require. It returns the number of bytes spanned.
func (self *Display) Upload(dst []byte, stride int) (int, error) {
	if self.frame == nil {
		return 0, nil
	}
	data := self.frame.Bytes()
	row := self.frame.Stride()
	if stride < row {
		return 0, errors.Errorf("stride [%d] shorter than row [%d]", stride, row)
	}
	bw := util.NewByteWriter(dst)
	for y := 0; y < self.frame.Height(); y++ {
		if y > 0 {
			if err := bw.Skip(stride - row); err != nil {
				return bw.Len(), err
			}
		}
		if _, err := bw.Write(data[y*row : (y+1)*row]); err != nil {
			return bw.Len(), err
		}
	}
	return bw.Len(), nil
}

// Close releases the held frame and stops the pipeline, logging rather than returning any error.
func (self *Display) Close() {
	if self.watcher != nil {
		if err := self.watcher.Close(); err != nil {
			logrus.Errorf("[%s] error closing watcher (%v)", self.cfg.Id, err)
		}
		self.watcher = nil
	}
	self.stop()
}

func (self *Display) start() error {
	self.cfg.Initial = self.current
	ch, ps, err := mapview.Start(&self.cfg)
	if err != nil {
		return err
	}
	self.ch = ch
	self.ps = ps
	return nil
}

func (self *Display) stop() {
	if self.frame != nil {
		self.frame.Release()
		self.frame = nil
	}
	if self.ch != nil {
		self.ch.Close()
		self.ch = nil
		self.ps = nil
	}
}
