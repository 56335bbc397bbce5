package mapview

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileLoad(t *testing.T) {
	p := NewBaselineProfile()
	err := p.Load(map[string]interface{}{
		"profile_version": 1,
		"slot_count":      4,
		"width":           640,
		"iteration_ms":    5,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, p.SlotCount)
	assert.Equal(t, 640, p.Width)
	assert.Equal(t, 768, p.Height)
	assert.Equal(t, 5, p.IterationMs)
	assert.Equal(t, 100, p.ParameterQueueLen)
}

func TestProfileLoadVersion(t *testing.T) {
	assert.Error(t, NewBaselineProfile().Load(map[string]interface{}{"slot_count": 4}))
	assert.Error(t, NewBaselineProfile().Load(map[string]interface{}{"profile_version": 2}))
	assert.Error(t, NewBaselineProfile().Load(map[string]interface{}{"profile_version": "1"}))
}

func TestProfileValidate(t *testing.T) {
	p := NewBaselineProfile()
	assert.NoError(t, p.Validate())
	p.SlotCount = 0
	assert.Error(t, p.Validate())

	p = NewBaselineProfile()
	p.ParameterQueueLen = 0
	assert.Error(t, p.Validate())

	p = NewBaselineProfile()
	p.IterationMs = -1
	assert.Error(t, p.Validate())
}

func TestLoadProfileYaml(t *testing.T) {
	root, err := ioutil.TempDir("", "profile")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(root) }()

	path := filepath.Join(root, "profile.yml")
	data := `
profile_version: 1
slot_count: 2
height: 480
instrument:
  name: trace
  config:
    frames: true
`
	require.NoError(t, ioutil.WriteFile(path, []byte(data), 0644))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, p.SlotCount)
	assert.Equal(t, 480, p.Height)
	ti, ok := p.Instrument().(*traceInstrument)
	require.True(t, ok)
	assert.True(t, ti.config.Frames)
	assert.False(t, ti.config.Slots)
	assert.True(t, ti.config.Error)
	assert.Contains(t, p.Dump(), "slot_count")
}

func TestLoadProfileUnknownInstrument(t *testing.T) {
	err := NewBaselineProfile().Load(map[string]interface{}{
		"profile_version": 1,
		"instrument":      map[string]interface{}{"name": "nope"},
	})
	assert.Error(t, err)
}

func TestLoadProfileMissing(t *testing.T) {
	_, err := LoadProfile(filepath.Join(os.TempDir(), "no-such-mapview-profile.yml"))
	assert.Error(t, err)
}
