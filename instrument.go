package mapview

import (
	"time"

	"github.com/pkg/errors"
)

type Instrument interface {
	NewInstance(id string) InstrumentInstance
}

type InstrumentInstance interface {
	// pool
	Allocate(id string)
	Released(id string)

	// worker
	ParametersApplied(p *ViewParameters)
	FrameRendered(slot int, d time.Duration)
	FramePublished(slot int, seq int32)
	PublishDeferred(slot int)
	SlotsExhausted()
	ReuseSkipped()
	SlotRecycled(slot int)
	WorkerError(err error)

	// consumer
	FrameAcquired(slot int, seq int32)
	FrameReleased(slot int)

	// instrument lifecycle
	Shutdown()
}

func NewInstrument(name string, config map[string]interface{}) (i Instrument, err error) {
	switch name {
	case "metrics":
		return NewMetricsInstrument(config)
	case "nil":
		return NewNilInstrument(), nil
	case "trace":
		return NewTraceInstrument(config)
	default:
		return nil, errors.Errorf("unknown instrument '%s'", name)
	}
}
