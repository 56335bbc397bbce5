package mapview

// Engine creates renderer instances. It is the external cartographic engine's construction capability.
//
type Engine interface {
	Create(width, height int, mapDefinition string, target *Target, basePath string) (Renderer, error)
}

// Renderer is a single engine instance. After Start it is owned by the worker goroutine and must not be touched by
// any other goroutine; its internal state is not built for concurrent mutation.
//
type Renderer interface {
	BindTarget(target *Target)
	SetView(bbox BoundingBox)
	// Render draws into the bound target. It is synchronous and may take tens of milliseconds.
	Render() error
	Close() error
}

// ParameterUpdateFunc applies a new snapshot to the renderer. It is the only place renderer state changes in
// response to parameters; a returned error stops the worker.
//
type ParameterUpdateFunc func(r Renderer, p *ViewParameters) error

// SetViewUpdate is the default ParameterUpdateFunc: it moves the renderer's view to the snapshot's bounding box.
func SetViewUpdate(width, height int) ParameterUpdateFunc {
	return func(r Renderer, p *ViewParameters) error {
		r.SetView(p.BoundingBox(width, height))
		return nil
	}
}
