package carto

import (
	"github.com/gogpu/gg"
	"github.com/openziti/mapview"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Engine draws Definitions with gg. It satisfies mapview.Engine.
//
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (self *Engine) Create(width, height int, mapDefinition string, target *mapview.Target, basePath string) (mapview.Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid renderer dimensions [%dx%d]", width, height)
	}
	def, err := LoadDefinition(mapDefinition, basePath)
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		def:    def,
		width:  width,
		height: height,
		target: target,
	}
	if minX, minY, maxX, maxY, ok := def.Extent(); ok && maxX > minX && maxY > minY {
		r.view = mapview.BoundingBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	} else {
		r.view = mapview.BoundingBox{MaxX: float64(width), MaxY: float64(height)}
	}
	logrus.Debugf("created renderer for [%s] with [%d] layers", def.Name, len(def.Layers))
	return r, nil
}

// Renderer is one engine instance. It is not safe for concurrent use.
//
type Renderer struct {
	def    *Definition
	width  int
	height int
	target *mapview.Target
	view   mapview.BoundingBox
	closed bool
}

func (self *Renderer) BindTarget(target *mapview.Target) {
	self.target = target
}

func (self *Renderer) SetView(bbox mapview.BoundingBox) {
	self.view = bbox
}

func (self *Renderer) View() mapview.BoundingBox {
	return self.view
}

func (self *Renderer) Definition() *Definition {
	return self.def
}

func (self *Renderer) Render() error {
	if self.closed {
		return errors.New("renderer closed")
	}
	if self.target == nil || self.target.Context() == nil {
		return errors.New("no target bound")
	}
	if self.view.Empty() {
		return errors.Errorf("degenerate view [%v]", self.view)
	}

	dc := self.target.Context()
	dc.ClearWithColor(gg.Hex(self.def.Background))
	for _, l := range self.def.Layers {
		if err := self.drawLayer(dc, l); err != nil {
			return errors.Wrapf(err, "error drawing layer [%s]", l.Name)
		}
	}
	return nil
}

func (self *Renderer) Close() error {
	self.closed = true
	self.target = nil
	return nil
}

func (self *Renderer) drawLayer(dc *gg.Context, l *Layer) error {
	dc.SetLineWidth(l.Width)
	for _, polygon := range l.Polygons {
		self.path(dc, polygon)
		dc.ClosePath()
		if err := self.paint(dc, l); err != nil {
			return err
		}
	}
	for _, line := range l.Lines {
		self.path(dc, line)
		if l.Stroke != "" {
			dc.SetHexColor(l.Stroke)
		} else {
			dc.SetHexColor(l.Fill)
		}
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	for _, p := range l.Points {
		x, y := self.project(p)
		dc.DrawCircle(x, y, l.Radius)
		if err := self.paint(dc, l); err != nil {
			return err
		}
	}
	return nil
}

func (self *Renderer) paint(dc *gg.Context, l *Layer) error {
	if l.Fill != "" && l.Stroke != "" {
		dc.SetHexColor(l.Fill)
		if err := dc.FillPreserve(); err != nil {
			return err
		}
		dc.SetHexColor(l.Stroke)
		return dc.Stroke()
	}
	if l.Fill != "" {
		dc.SetHexColor(l.Fill)
		return dc.Fill()
	}
	dc.SetHexColor(l.Stroke)
	return dc.Stroke()
}

func (self *Renderer) path(dc *gg.Context, points [][]float64) {
	for i, p := range points {
		x, y := self.project(p)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
}

// project maps a map-space point into pixel space. Map y grows upward.
func (self *Renderer) project(p []float64) (float64, float64) {
	sx := float64(self.width) / self.view.Width()
	sy := float64(self.height) / self.view.Height()
	return (p[0] - self.view.MinX) * sx, (self.view.MaxY - p[1]) * sy
}
