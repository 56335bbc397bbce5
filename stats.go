package mapview

import "sync/atomic"

type WorkerState int32

const (
	Running WorkerState = iota
	Draining
	Stopped
)

func (self WorkerState) String() string {
	switch self {
	case Running:
		return "Running"
	case Draining:
		return "Draining"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Stats is a point-in-time snapshot of a pipeline's counters. LastSeq is the sequence of the most recently rendered
// frame, or -1 before the first.
//
type Stats struct {
	State             WorkerState
	InFlight          int
	FramesRendered    uint64
	FramesPublished   uint64
	SlotsRecycled     uint64
	ParametersApplied uint64
	ReuseSkipped      uint64
	SlotsExhausted    uint64
	Backlog           int
	LastSeq           int32
}

type workerStats struct {
	state             int32
	inFlight          int32
	framesRendered    uint64
	framesPublished   uint64
	slotsRecycled     uint64
	parametersApplied uint64
	reuseSkipped      uint64
	slotsExhausted    uint64
}

func (self *workerStats) setState(from, to WorkerState) bool {
	return atomic.CompareAndSwapInt32(&self.state, int32(from), int32(to))
}

func (self *workerStats) forceState(to WorkerState) {
	atomic.StoreInt32(&self.state, int32(to))
}

func (self *workerStats) snapshot() Stats {
	return Stats{
		State:             WorkerState(atomic.LoadInt32(&self.state)),
		InFlight:          int(atomic.LoadInt32(&self.inFlight)),
		FramesRendered:    atomic.LoadUint64(&self.framesRendered),
		FramesPublished:   atomic.LoadUint64(&self.framesPublished),
		SlotsRecycled:     atomic.LoadUint64(&self.slotsRecycled),
		ParametersApplied: atomic.LoadUint64(&self.parametersApplied),
		ReuseSkipped:      atomic.LoadUint64(&self.reuseSkipped),
		SlotsExhausted:    atomic.LoadUint64(&self.slotsExhausted),
	}
}
