package mapview

import "time"

type nilInstrument struct{}

func NewNilInstrument() Instrument {
	return &nilInstrument{}
}

func (self *nilInstrument) NewInstance(_ string) InstrumentInstance {
	return &NilInstrumentInstance{}
}

type NilInstrumentInstance struct{}

func (n NilInstrumentInstance) Allocate(string) {}

func (n NilInstrumentInstance) Released(string) {}

func (n NilInstrumentInstance) ParametersApplied(*ViewParameters) {}

func (n NilInstrumentInstance) FrameRendered(int, time.Duration) {}

func (n NilInstrumentInstance) FramePublished(int, int32) {}

func (n NilInstrumentInstance) PublishDeferred(int) {}

func (n NilInstrumentInstance) SlotsExhausted() {}

func (n NilInstrumentInstance) ReuseSkipped() {}

func (n NilInstrumentInstance) SlotRecycled(int) {}

func (n NilInstrumentInstance) WorkerError(error) {}

func (n NilInstrumentInstance) FrameAcquired(int, int32) {}

func (n NilInstrumentInstance) FrameReleased(int) {}

func (n NilInstrumentInstance) Shutdown() {}
