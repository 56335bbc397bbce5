package mapview

import (
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openziti/mapview/cf"
	"github.com/openziti/mapview/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type MetricsInstrument struct {
	lock      sync.Mutex
	Config    *MetricsInstrumentConfig
	instances []*metricsInstrumentInstance
}

type MetricsInstrumentConfig struct {
	Path       string `cf:"path"`
	SnapshotMs int    `cf:"snapshot_ms"`
	Enabled    bool   `cf:"enabled"`
	Ctrl       bool   `cf:"ctrl"`
}

func NewMetricsInstrument(config map[string]interface{}) (Instrument, error) {
	i := &MetricsInstrument{
		Config: &MetricsInstrumentConfig{
			Path:       os.TempDir(),
			SnapshotMs: 1000,
			Enabled:    true,
		},
	}
	if config != nil {
		if err := cf.Load(config, i.Config); err != nil {
			return nil, errors.Wrap(err, "unable to load config")
		}
	}
	if i.Config.SnapshotMs < 1 {
		return nil, errors.Errorf("invalid 'snapshot_ms' [%d]", i.Config.SnapshotMs)
	}
	if i.Config.Ctrl {
		if err := addCtrlListener(i); err != nil {
			return nil, err
		}
	}
	logrus.Info(cf.Dump("metrics instrument", i.Config))
	return i, nil
}

func addCtrlListener(i *MetricsInstrument) error {
	cl, err := util.GetCtrlListener(i.Config.Path, "mapview")
	if err != nil {
		return errors.Wrap(err, "unable to get metrics ctrl listener")
	}
	cl.AddCallback("start", func(string, net.Conn) (int64, error) {
		i.setEnabled(true)
		return 0, nil
	})
	cl.AddCallback("stop", func(string, net.Conn) (int64, error) {
		i.setEnabled(false)
		return 0, nil
	})
	cl.AddCallback("write", func(string, net.Conn) (int64, error) {
		err := i.WriteAllSamples()
		if err != nil {
			logrus.Errorf("error writing samples (%v)", err)
		}
		return 0, err
	})
	cl.AddCallback("clean", func(string, net.Conn) (int64, error) {
		i.clean()
		return 0, nil
	})
	cl.Start()
	return nil
}

func (self *MetricsInstrument) NewInstance(id string) InstrumentInstance {
	self.lock.Lock()
	defer self.lock.Unlock()

	ii := newMetricsInstrumentInstance(id, self.Config.Enabled)
	go ii.snapshotter(self.Config.SnapshotMs)
	self.instances = append(self.instances, ii)
	return ii
}

func (self *MetricsInstrument) setEnabled(enabled bool) {
	self.lock.Lock()
	defer self.lock.Unlock()

	self.Config.Enabled = enabled
	for _, ii := range self.instances {
		ii.setEnabled(enabled)
	}
}

// WriteAllSamples writes one directory of CSV sample files per instance beneath Config.Path.
func (self *MetricsInstrument) WriteAllSamples() error {
	self.lock.Lock()
	defer self.lock.Unlock()

	if err := os.MkdirAll(self.Config.Path, os.ModePerm); err != nil {
		return err
	}
	for _, ii := range self.instances {
		prefix := strings.ReplaceAll(fmt.Sprintf("%s_", ii.id), ":", "-")
		outPath, err := ioutil.TempDir(self.Config.Path, prefix)
		if err != nil {
			return err
		}
		logrus.Infof("writing metrics to: %s", outPath)

		if err := util.WriteMetricsId(ii.id, outPath, map[string]string{"instrument": "metrics"}); err != nil {
			return err
		}
		for _, s := range ii.allSeries() {
			if err := util.WriteSamples(s.name, outPath, s.copySamples()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (self *MetricsInstrument) clean() {
	self.lock.Lock()
	defer self.lock.Unlock()

	live := self.instances[:0]
	for _, ii := range self.instances {
		if ii.isClosed() {
			logrus.Infof("removed metricsInstrumentInstance [%s]", ii.id)
			continue
		}
		live = append(live, ii)
	}
	self.instances = live
}

// series is one sampled metric. Counters are reset at every snapshot; gauges keep their last value.
//
type series struct {
	name    string
	gauge   bool
	value   int64
	lock    sync.Mutex
	samples []*util.Sample
}

func (self *series) add(v int64) {
	atomic.AddInt64(&self.value, v)
}

func (self *series) set(v int64) {
	atomic.StoreInt64(&self.value, v)
}

func (self *series) snapshot(now time.Time) {
	var v int64
	if self.gauge {
		v = atomic.LoadInt64(&self.value)
	} else {
		v = atomic.SwapInt64(&self.value, 0)
	}
	self.lock.Lock()
	self.samples = append(self.samples, &util.Sample{Ts: now, V: v})
	self.lock.Unlock()
}

func (self *series) copySamples() []*util.Sample {
	self.lock.Lock()
	defer self.lock.Unlock()
	return append([]*util.Sample(nil), self.samples...)
}

type metricsInstrumentInstance struct {
	id      string
	enabled int32
	close   chan struct{}
	closed  int32

	allocations     series
	releases        series
	parameters      series
	framesRendered  series
	renderMs        series
	framesPublished series
	publishDeferred series
	slotsExhausted  series
	reuseSkipped    series
	slotsRecycled   series
	framesAcquired  series
	framesReleased  series
	errors          series
}

func newMetricsInstrumentInstance(id string, enabled bool) *metricsInstrumentInstance {
	ii := &metricsInstrumentInstance{
		id:              id,
		close:           make(chan struct{}),
		allocations:     series{name: "allocations"},
		releases:        series{name: "releases"},
		parameters:      series{name: "parameters"},
		framesRendered:  series{name: "frames_rendered"},
		renderMs:        series{name: "render_ms", gauge: true},
		framesPublished: series{name: "frames_published"},
		publishDeferred: series{name: "publish_deferred"},
		slotsExhausted:  series{name: "slots_exhausted"},
		reuseSkipped:    series{name: "reuse_skipped"},
		slotsRecycled:   series{name: "slots_recycled"},
		framesAcquired:  series{name: "frames_acquired"},
		framesReleased:  series{name: "frames_released"},
		errors:          series{name: "errors"},
	}
	ii.setEnabled(enabled)
	return ii
}

func (self *metricsInstrumentInstance) allSeries() []*series {
	return []*series{
		&self.allocations, &self.releases, &self.parameters, &self.framesRendered, &self.renderMs,
		&self.framesPublished, &self.publishDeferred, &self.slotsExhausted, &self.reuseSkipped,
		&self.slotsRecycled, &self.framesAcquired, &self.framesReleased, &self.errors,
	}
}

func (self *metricsInstrumentInstance) setEnabled(enabled bool) {
	if enabled {
		atomic.StoreInt32(&self.enabled, 1)
	} else {
		atomic.StoreInt32(&self.enabled, 0)
	}
}

func (self *metricsInstrumentInstance) isEnabled() bool {
	return atomic.LoadInt32(&self.enabled) == 1
}

func (self *metricsInstrumentInstance) isClosed() bool {
	return atomic.LoadInt32(&self.closed) == 1
}

/*
 * pool
 */
func (self *metricsInstrumentInstance) Allocate(string) {
	if self.isEnabled() {
		self.allocations.add(1)
	}
}

func (self *metricsInstrumentInstance) Released(string) {
	if self.isEnabled() {
		self.releases.add(1)
	}
}

/*
 * worker
 */
func (self *metricsInstrumentInstance) ParametersApplied(*ViewParameters) {
	if self.isEnabled() {
		self.parameters.add(1)
	}
}

func (self *metricsInstrumentInstance) FrameRendered(_ int, d time.Duration) {
	if self.isEnabled() {
		self.framesRendered.add(1)
		self.renderMs.set(d.Milliseconds())
	}
}

func (self *metricsInstrumentInstance) FramePublished(int, int32) {
	if self.isEnabled() {
		self.framesPublished.add(1)
	}
}

func (self *metricsInstrumentInstance) PublishDeferred(int) {
	if self.isEnabled() {
		self.publishDeferred.add(1)
	}
}

func (self *metricsInstrumentInstance) SlotsExhausted() {
	if self.isEnabled() {
		self.slotsExhausted.add(1)
	}
}

func (self *metricsInstrumentInstance) ReuseSkipped() {
	if self.isEnabled() {
		self.reuseSkipped.add(1)
	}
}

func (self *metricsInstrumentInstance) SlotRecycled(int) {
	if self.isEnabled() {
		self.slotsRecycled.add(1)
	}
}

func (self *metricsInstrumentInstance) WorkerError(err error) {
	if self.isEnabled() {
		logrus.Errorf("[%s] worker error (%v)", self.id, err)
		self.errors.add(1)
	}
}

/*
 * consumer
 */
func (self *metricsInstrumentInstance) FrameAcquired(int, int32) {
	if self.isEnabled() {
		self.framesAcquired.add(1)
	}
}

func (self *metricsInstrumentInstance) FrameReleased(int) {
	if self.isEnabled() {
		self.framesReleased.add(1)
	}
}

/*
 * instrument lifecycle
 */
func (self *metricsInstrumentInstance) Shutdown() {
	if atomic.CompareAndSwapInt32(&self.closed, 0, 1) {
		close(self.close)
	}
}

func (self *metricsInstrumentInstance) snapshotter(ms int) {
	logrus.Debugf("[%s] snapshotter started", self.id)
	defer logrus.Debugf("[%s] snapshotter exited", self.id)

	ticker := time.NewTicker(time.Duration(ms) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if self.isEnabled() {
				self.snapshot()
			}
		case <-self.close:
			self.snapshot()
			return
		}
	}
}

func (self *metricsInstrumentInstance) snapshot() {
	now := time.Now()
	for _, s := range self.allSeries() {
		s.snapshot(now)
	}
}
