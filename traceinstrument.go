package mapview

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/openziti/mapview/cf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type traceInstrument struct {
	config *traceInstrumentConfig
	out    io.Writer
}

type traceInstrumentConfig struct {
	Pool       bool `cf:"pool"`
	Frames     bool `cf:"frames"`
	Slots      bool `cf:"slots"`
	Parameters bool `cf:"parameters"`
	Error      bool `cf:"error"`
}

type traceInstrumentInstance struct {
	id   string
	lock sync.Mutex
	i    *traceInstrument
}

func NewTraceInstrument(config map[string]interface{}) (Instrument, error) {
	i := &traceInstrument{
		config: &traceInstrumentConfig{Error: true},
		out:    os.Stdout,
	}
	if config != nil {
		if err := cf.Load(config, i.config); err != nil {
			return nil, errors.Wrap(err, "unable to load config")
		}
	}
	logrus.Info(cf.Dump("trace instrument", i.config))
	return i, nil
}

func (self *traceInstrument) NewInstance(id string) InstrumentInstance {
	return &traceInstrumentInstance{
		id: id,
		i:  self,
	}
}

func (self *traceInstrumentInstance) trace(format string, args ...interface{}) {
	self.lock.Lock()
	defer self.lock.Unlock()
	_, _ = fmt.Fprintf(self.i.out, "&& %-24s %s\n", self.id, fmt.Sprintf(format, args...))
}

/*
 * pool
 */

func (self *traceInstrumentInstance) Allocate(id string) {
	if self.i.config.Pool {
		self.trace("%-10s [%s]", "ALLOCATE", id)
	}
}

func (self *traceInstrumentInstance) Released(id string) {
	if self.i.config.Pool {
		self.trace("%-10s [%s]", "RELEASED", id)
	}
}

/*
 * worker
 */

func (self *traceInstrumentInstance) ParametersApplied(p *ViewParameters) {
	if self.i.config.Parameters {
		self.trace("%-10s %s", "PARAMS", p)
	}
}

func (self *traceInstrumentInstance) FrameRendered(slot int, d time.Duration) {
	if self.i.config.Frames {
		self.trace("%-10s slot #%-4d %s", "RENDERED", slot, d)
	}
}

func (self *traceInstrumentInstance) FramePublished(slot int, seq int32) {
	if self.i.config.Frames {
		self.trace("%-10s slot #%-4d seq #%d", "PUBLISHED", slot, seq)
	}
}

func (self *traceInstrumentInstance) PublishDeferred(slot int) {
	if self.i.config.Frames {
		self.trace("%-10s slot #%-4d", "DEFERRED", slot)
	}
}

func (self *traceInstrumentInstance) SlotsExhausted() {
	if self.i.config.Slots {
		self.trace("%-10s", "EXHAUSTED")
	}
}

func (self *traceInstrumentInstance) ReuseSkipped() {
	if self.i.config.Slots {
		self.trace("%-10s", "REUSE SKIP")
	}
}

func (self *traceInstrumentInstance) SlotRecycled(slot int) {
	if self.i.config.Slots {
		self.trace("%-10s slot #%-4d", "RECYCLED", slot)
	}
}

func (self *traceInstrumentInstance) WorkerError(err error) {
	if self.i.config.Error {
		self.trace("WORKER ERROR: %v", err)
	}
}

/*
 * consumer
 */

func (self *traceInstrumentInstance) FrameAcquired(slot int, seq int32) {
	if self.i.config.Frames {
		self.trace("%-10s slot #%-4d seq #%d", "ACQUIRED", slot, seq)
	}
}

func (self *traceInstrumentInstance) FrameReleased(slot int) {
	if self.i.config.Frames {
		self.trace("%-10s slot #%-4d", "RELEASED", slot)
	}
}

/*
 * instrument lifecycle
 */

func (self *traceInstrumentInstance) Shutdown() {
	self.trace("%-10s", "SHUTDOWN")
}
