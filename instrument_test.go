package mapview

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openziti/mapview/util"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInstrument(t *testing.T) {
	i, err := NewInstrument("nil", nil)
	assert.NoError(t, err)
	assert.NotNil(t, i.NewInstance("nil"))

	_, err = NewInstrument("unknown", nil)
	assert.Error(t, err)

	_, err = NewInstrument("metrics", map[string]interface{}{"snapshot_ms": 0})
	assert.Error(t, err)
}

func TestTraceInstrument(t *testing.T) {
	i, err := NewTraceInstrument(map[string]interface{}{"frames": true})
	require.NoError(t, err)
	out := new(bytes.Buffer)
	i.(*traceInstrument).out = out

	ii := i.NewInstance("trace")
	ii.Allocate("trace")
	ii.FramePublished(1, 7)
	ii.SlotRecycled(1)
	ii.WorkerError(errors.New("oops"))

	trace := out.String()
	assert.NotContains(t, trace, "ALLOCATE")
	assert.Contains(t, trace, "PUBLISHED")
	assert.Contains(t, trace, "seq #7")
	assert.NotContains(t, trace, "RECYCLED")
	assert.Contains(t, trace, "WORKER ERROR: oops")
}

func TestMetricsInstrumentSamples(t *testing.T) {
	root, err := ioutil.TempDir("", "metrics")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(root) }()

	i, err := NewMetricsInstrument(map[string]interface{}{"path": root, "snapshot_ms": 60000})
	require.NoError(t, err)
	mi := i.(*MetricsInstrument)

	ii := mi.NewInstance("metrics").(*metricsInstrumentInstance)
	ii.FrameRendered(0, 12*time.Millisecond)
	ii.FrameRendered(1, 8*time.Millisecond)
	ii.SlotRecycled(0)
	ii.Shutdown()
	ii.Shutdown()
	require.Eventually(t, func() bool {
		return len(ii.framesRendered.copySamples()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, mi.WriteAllSamples())
	metrics, err := util.DiscoverMetrics(root)
	require.NoError(t, err)
	require.Equal(t, 1, len(metrics))
	for dir, id := range metrics {
		assert.Equal(t, "metrics", id.Id)
		samples, err := util.ReadSamples(filepath.Join(dir, "frames_rendered.csv"))
		require.NoError(t, err)
		for _, v := range samples {
			assert.Equal(t, int64(2), v)
		}
		samples, err = util.ReadSamples(filepath.Join(dir, "render_ms.csv"))
		require.NoError(t, err)
		for _, v := range samples {
			assert.Equal(t, int64(8), v)
		}
	}

	mi.clean()
	assert.Equal(t, 0, len(mi.instances))
}

func TestMetricsInstrumentDisabled(t *testing.T) {
	i, err := NewMetricsInstrument(map[string]interface{}{"enabled": false})
	require.NoError(t, err)
	ii := i.NewInstance("disabled").(*metricsInstrumentInstance)
	defer ii.Shutdown()

	ii.FrameAcquired(0, 0)
	assert.Equal(t, int64(0), atomic.LoadInt64(&ii.framesAcquired.value))

	i.(*MetricsInstrument).setEnabled(true)
	ii.FrameAcquired(0, 0)
	assert.Equal(t, int64(1), atomic.LoadInt64(&ii.framesAcquired.value))
}
