package cf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

type testConfig struct {
	Slots    int           `cf:"slots"`
	Scale    float64       `cf:"scale"`
	Enabled  bool          `cf:"enabled"`
	Name     string        `cf:"name"`
	Layers   []string      `cf:"layers"`
	Interval time.Duration `cf:"interval"`
	Untagged int
	hidden   int
}

func TestLoad(t *testing.T) {
	c := &testConfig{Slots: 2, Scale: 0.5, hidden: 7}
	data := map[string]interface{}{
		"slots":    4,
		"scale":    2,
		"enabled":  true,
		"name":     "demo",
		"layers":   []interface{}{"water", "roads"},
		"interval": "150ms",
		"Untagged": 9,
		"hidden":   99,
	}
	assert.NoError(t, Load(data, c))
	assert.Equal(t, 4, c.Slots)
	assert.Equal(t, 2.0, c.Scale)
	assert.True(t, c.Enabled)
	assert.Equal(t, "demo", c.Name)
	assert.Equal(t, []string{"water", "roads"}, c.Layers)
	assert.Equal(t, 150*time.Millisecond, c.Interval)
	assert.Equal(t, 9, c.Untagged)
	assert.Equal(t, 7, c.hidden)
}

func TestLoadMismatch(t *testing.T) {
	c := &testConfig{}
	err := Load(map[string]interface{}{"slots": "four"}, c)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "slots")
}

func TestLoadNotPointer(t *testing.T) {
	assert.Error(t, Load(map[string]interface{}{}, testConfig{}))
}

func TestLoadYaml(t *testing.T) {
	doc := `
slots: 3
scale: 1.25
interval: 40
nested:
  1: one
`
	data := make(map[string]interface{})
	assert.NoError(t, yaml.Unmarshal([]byte(doc), &data))
	c := &testConfig{}
	assert.NoError(t, Load(data, c))
	assert.Equal(t, 3, c.Slots)
	assert.Equal(t, 1.25, c.Scale)
	assert.Equal(t, 40*time.Millisecond, c.Interval)

	nested, ok := CleanUpMapValue(data["nested"]).(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "one", nested["1"])
}

func TestDump(t *testing.T) {
	out := Dump("test", &testConfig{Slots: 5, Name: "x"})
	assert.Contains(t, out, "test {")
	assert.Contains(t, out, "slots")
	assert.NotContains(t, out, "hidden")
}
