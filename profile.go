package mapview

import (
	"io/ioutil"

	"github.com/openziti/mapview/cf"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const profileVersion = 1

type Profile struct {
	SlotCount         int `cf:"slot_count"`
	Width             int `cf:"width"`
	Height            int `cf:"height"`
	IterationMs       int `cf:"iteration_ms"`
	ParameterQueueLen int `cf:"parameter_queue_len"`
	MaxSurfaceBytes   int `cf:"max_surface_bytes"`
	i                 Instrument
}

func NewBaselineProfile() *Profile {
	return &Profile{
		SlotCount:         3,
		Width:             1024,
		Height:            768,
		IterationMs:       20,
		ParameterQueueLen: 100,
		MaxSurfaceBytes:   256 * 1024 * 1024,
	}
}

// Load applies a decoded profile document on top of the current values.
func (self *Profile) Load(data map[string]interface{}) error {
	if v, found := data["profile_version"]; found {
		if i, ok := v.(int); ok {
			if i != profileVersion {
				return errors.Errorf("invalid profile version [%d != %d]", i, profileVersion)
			}
		} else {
			return errors.New("invalid 'profile_version' value")
		}
	} else {
		return errors.New("missing 'profile_version'")
	}
	if err := cf.Load(data, self); err != nil {
		return errors.Wrap(err, "error loading profile")
	}
	if v, found := data["instrument"]; found {
		submap, ok := cf.CleanUpMapValue(v).(map[string]interface{})
		if !ok {
			return errors.New("invalid 'instrument' value")
		}
		name, ok := submap["name"].(string)
		if !ok {
			return errors.New("missing instrument 'name'")
		}
		var config map[string]interface{}
		if v, found := submap["config"]; found {
			if config, ok = cf.CleanUpMapValue(v).(map[string]interface{}); !ok {
				return errors.New("invalid instrument 'config' value")
			}
		}
		i, err := NewInstrument(name, config)
		if err != nil {
			return errors.Wrapf(err, "error creating instrument [%s]", name)
		}
		self.i = i
	}
	return self.Validate()
}

func (self *Profile) Validate() error {
	if self.SlotCount < 1 {
		return errors.Errorf("invalid 'slot_count' [%d]", self.SlotCount)
	}
	if self.IterationMs < 0 {
		return errors.Errorf("invalid 'iteration_ms' [%d]", self.IterationMs)
	}
	if self.ParameterQueueLen < 1 {
		return errors.Errorf("invalid 'parameter_queue_len' [%d]", self.ParameterQueueLen)
	}
	return nil
}

func (self *Profile) SetInstrument(i Instrument) {
	self.i = i
}

func (self *Profile) Instrument() Instrument {
	if self.i == nil {
		return NewNilInstrument()
	}
	return self.i
}

func (self *Profile) Dump() string {
	return cf.Dump("profile", self)
}

func LoadProfile(path string) (*Profile, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading profile [%s]", path)
	}
	data := make(map[string]interface{})
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrapf(err, "error parsing profile [%s]", path)
	}
	p := NewBaselineProfile()
	if err := p.Load(data); err != nil {
		return nil, err
	}
	return p, nil
}
