package mapview

import (
	"fmt"
	"time"

	"github.com/openziti/mapview/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config describes one pipeline. Profile defaults to the baseline profile, Initial to the origin at zoom 1 and
// OnParameterUpdate to SetViewUpdate.
//
type Config struct {
	Id                string
	Profile           *Profile
	Engine            Engine
	MapDefinition     string
	BasePath          string
	Initial           *ViewParameters
	OnParameterUpdate ParameterUpdateFunc
}

// Start allocates the pool and the renderer on the calling goroutine, then hands both to a new render worker. Any
// allocation failure is returned as an AllocationError before the worker exists.
func Start(cfg *Config) (*ControlHandle, *ParameterSender, error) {
	if cfg == nil || cfg.Engine == nil {
		return nil, nil, errors.New("missing engine")
	}
	profile := cfg.Profile
	if profile == nil {
		profile = NewBaselineProfile()
	}
	if err := profile.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid profile")
	}
	initial := cfg.Initial
	if initial == nil {
		initial = NewViewParameters(0, 0, 1)
	}
	if err := initial.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid initial parameters")
	}
	id := cfg.Id
	if id == "" {
		id = fmt.Sprintf("mapview-%d", time.Now().UnixNano())
	}

	ii := profile.Instrument().NewInstance(id)
	pool, err := NewRenderTargetPool(id, profile.Width, profile.Height, profile.SlotCount, profile.MaxSurfaceBytes, ii)
	if err != nil {
		ii.Shutdown()
		return nil, nil, err
	}
	renderer, err := cfg.Engine.Create(profile.Width, profile.Height, cfg.MapDefinition, pool.Target(0), cfg.BasePath)
	if err != nil {
		pool.Close()
		ii.Shutdown()
		return nil, nil, newAllocationError("renderer", err)
	}

	onUpdate := cfg.OnParameterUpdate
	if onUpdate == nil {
		onUpdate = SetViewUpdate(profile.Width, profile.Height)
	}
	if err := onUpdate(renderer, initial); err != nil {
		closeRenderer(id, renderer)
		pool.Close()
		ii.Shutdown()
		return nil, nil, errors.Wrapf(err, "error applying initial parameters %s", initial)
	}
	current := &currentParameters{p: initial}
	ii.ParametersApplied(initial)

	reuse := newReuseQueue(profile.SlotCount)
	frames := newFrameQueue(reuse, ii)
	shutdown := make(chan struct{})
	done := make(chan struct{})
	sender := newParameterSender(profile.ParameterQueueLen, done)
	stats := &workerStats{}
	seq := util.NewSequence(0)

	w := &renderWorker{
		id:        id,
		pool:      pool,
		renderer:  renderer,
		params:    sender.ch,
		shutdown:  shutdown,
		reuse:     reuse,
		frames:    frames,
		current:   current,
		onUpdate:  onUpdate,
		iteration: time.Duration(profile.IterationMs) * time.Millisecond,
		seq:       seq,
		stats:     stats,
		ii:        ii,
	}
	ch := &ControlHandle{
		id:       id,
		width:    profile.Width,
		height:   profile.Height,
		shutdown: shutdown,
		done:     done,
		frames:   frames,
		reuse:    reuse,
		current:  current,
		stats:    stats,
		seq:      seq,
		pool:     pool,
	}

	go func() {
		ch.err = w.run()
		w.abandon()
		closeRenderer(id, renderer)
		pool.Close()
		ii.Shutdown()
		close(done)
	}()

	logrus.Infof("[%s] started pipeline with [%d] slots of [%dx%d]", id, profile.SlotCount, profile.Width, profile.Height)
	return ch, sender, nil
}

func closeRenderer(id string, r Renderer) {
	if err := r.Close(); err != nil {
		logrus.Errorf("[%s] error closing renderer (%v)", id, err)
	}
}
