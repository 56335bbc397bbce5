package carto

import (
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Definition is a parsed map definition: a background color and layers drawn in order.
//
type Definition struct {
	Name       string   `yaml:"name" toml:"name"`
	Background string   `yaml:"background" toml:"background"`
	Layers     []*Layer `yaml:"layers" toml:"layers"`
}

type Layer struct {
	Name     string        `yaml:"name" toml:"name"`
	Fill     string        `yaml:"fill" toml:"fill"`
	Stroke   string        `yaml:"stroke" toml:"stroke"`
	Width    float64       `yaml:"width" toml:"width"`
	Radius   float64       `yaml:"radius" toml:"radius"`
	Polygons [][][]float64 `yaml:"polygons" toml:"polygons"`
	Lines    [][][]float64 `yaml:"lines" toml:"lines"`
	Points   [][]float64   `yaml:"points" toml:"points"`
}

// LoadDefinition reads a map definition file. Relative paths resolve against basePath; files ending in .toml are
// parsed as TOML, everything else as YAML.
func LoadDefinition(path, basePath string) (*Definition, error) {
	if !filepath.IsAbs(path) && basePath != "" {
		path = filepath.Join(basePath, path)
	}
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading map definition [%s]", path)
	}
	def := &Definition{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(raw, def)
	} else {
		err = yaml.Unmarshal(raw, def)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing map definition [%s]", path)
	}
	if err := def.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid map definition [%s]", path)
	}
	return def, nil
}

func (self *Definition) Validate() error {
	if self.Background == "" {
		self.Background = "#ffffff"
	}
	if !validColor(self.Background) {
		return errors.Errorf("invalid background color [%s]", self.Background)
	}
	for i, l := range self.Layers {
		if l.Name == "" {
			l.Name = "layer"
		}
		if l.Fill == "" && l.Stroke == "" {
			return errors.Errorf("layer #%d [%s] has neither fill nor stroke", i, l.Name)
		}
		if l.Fill != "" && !validColor(l.Fill) {
			return errors.Errorf("layer #%d [%s] has invalid fill [%s]", i, l.Name, l.Fill)
		}
		if l.Stroke != "" && !validColor(l.Stroke) {
			return errors.Errorf("layer #%d [%s] has invalid stroke [%s]", i, l.Name, l.Stroke)
		}
		if l.Width <= 0 {
			l.Width = 1
		}
		if l.Radius <= 0 {
			l.Radius = 2
		}
		for j, polygon := range l.Polygons {
			if len(polygon) < 3 {
				return errors.Errorf("layer #%d [%s] polygon #%d has fewer than 3 points", i, l.Name, j)
			}
			if err := validPoints(polygon); err != nil {
				return errors.Wrapf(err, "layer #%d [%s] polygon #%d", i, l.Name, j)
			}
		}
		for j, line := range l.Lines {
			if len(line) < 2 {
				return errors.Errorf("layer #%d [%s] line #%d has fewer than 2 points", i, l.Name, j)
			}
			if err := validPoints(line); err != nil {
				return errors.Wrapf(err, "layer #%d [%s] line #%d", i, l.Name, j)
			}
		}
		if err := validPoints(l.Points); err != nil {
			return errors.Wrapf(err, "layer #%d [%s] points", i, l.Name)
		}
	}
	return nil
}

// Extent returns the bounding box of every coordinate in the definition.
func (self *Definition) Extent() (minX, minY, maxX, maxY float64, ok bool) {
	visit := func(p []float64) {
		if !ok {
			minX, minY, maxX, maxY, ok = p[0], p[1], p[0], p[1], true
			return
		}
		if p[0] < minX {
			minX = p[0]
		}
		if p[0] > maxX {
			maxX = p[0]
		}
		if p[1] < minY {
			minY = p[1]
		}
		if p[1] > maxY {
			maxY = p[1]
		}
	}
	for _, l := range self.Layers {
		for _, polygon := range l.Polygons {
			for _, p := range polygon {
				visit(p)
			}
		}
		for _, line := range l.Lines {
			for _, p := range line {
				visit(p)
			}
		}
		for _, p := range l.Points {
			visit(p)
		}
	}
	return
}

func validPoints(points [][]float64) error {
	for i, p := range points {
		if len(p) != 2 {
			return errors.Errorf("point #%d has [%d] coordinates", i, len(p))
		}
	}
	return nil
}

func validColor(hex string) bool {
	hex = strings.TrimPrefix(hex, "#")
	switch len(hex) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for _, c := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
