package mapview

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewParametersBoundingBox(t *testing.T) {
	p := NewViewParameters(10, 20, 2)
	bbox := p.BoundingBox(100, 50)
	assert.Equal(t, BoundingBox{MinX: -15, MinY: 7.5, MaxX: 35, MaxY: 32.5}, bbox)
	assert.Equal(t, 50.0, bbox.Width())
	assert.Equal(t, 25.0, bbox.Height())
	assert.False(t, bbox.Empty())
	assert.True(t, BoundingBox{}.Empty())
}

func TestViewParametersWithoutZoom(t *testing.T) {
	p := &ViewParameters{X: 10, Y: 20}
	bbox := p.BoundingBox(100, 50)
	assert.Equal(t, BoundingBox{MinX: 10, MinY: 20, MaxX: 10, MaxY: 20}, bbox)
	assert.True(t, bbox.Empty())
	assert.Error(t, p.Validate())

	assert.True(t, BoundingBox{MinX: math.Inf(-1), MinY: 0, MaxX: math.Inf(1), MaxY: 1}.Empty())
	assert.True(t, BoundingBox{MinX: 0, MinY: 0, MaxX: math.NaN(), MaxY: 1}.Empty())
	assert.Error(t, NewViewParameters(math.NaN(), 0, 1).Validate())
	assert.NoError(t, NewViewParameters(10, 20, 1).Validate())
	var missing *ViewParameters
	assert.Error(t, missing.Validate())
}

func TestParameterSenderRejectsInvalid(t *testing.T) {
	ps := newParameterSender(1, make(chan struct{}))

	assert.Error(t, ps.Send(&ViewParameters{X: 10, Y: 20}))
	assert.Error(t, ps.Send(nil))
	ok, err := ps.TrySend(&ViewParameters{Zoom: -1})
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Empty(t, ps.ch)

	assert.NoError(t, ps.Send(NewViewParameters(10, 20, 1)))
	assert.Len(t, ps.ch, 1)
}

func TestViewParametersDefaultZoom(t *testing.T) {
	assert.Equal(t, 1.0, NewViewParameters(0, 0, 0).Zoom)
	assert.Equal(t, 1.0, NewViewParameters(0, 0, -3).Zoom)
}

func TestViewParametersPanDelta(t *testing.T) {
	rendered := NewViewParameters(10, 20, 2)
	current := NewViewParameters(15, 18, 2)
	dx, dy := rendered.PanDelta(current)
	assert.Equal(t, -10.0, dx)
	assert.Equal(t, -4.0, dy)

	dx, dy = rendered.PanDelta(rendered)
	assert.Zero(t, dx)
	assert.Zero(t, dy)
	dx, dy = rendered.PanDelta(nil)
	assert.Zero(t, dx)
	assert.Zero(t, dy)
}

func TestViewParametersEqual(t *testing.T) {
	assert.True(t, NewViewParameters(1, 2, 3).Equal(NewViewParameters(1, 2, 3)))
	assert.False(t, NewViewParameters(1, 2, 3).Equal(NewViewParameters(1, 2, 4)))
	assert.False(t, NewViewParameters(1, 2, 3).Equal(nil))
	var p *ViewParameters
	assert.True(t, p.Equal(nil))
	assert.Equal(t, "{x=10.00, y=20.00, zoom=1.000}", NewViewParameters(10, 20, 1).String())
}

func TestParameterSenderTrySendFull(t *testing.T) {
	done := make(chan struct{})
	ps := newParameterSender(1, done)

	ok, err := ps.TrySend(NewViewParameters(0, 0, 1))
	assert.True(t, ok)
	assert.NoError(t, err)
	ok, err = ps.TrySend(NewViewParameters(1, 0, 1))
	assert.False(t, ok)
	assert.NoError(t, err)

	close(done)
	assert.Equal(t, ErrChannelClosed, ps.Send(NewViewParameters(2, 0, 1)))

	ps.Close()
	ps.Close()
	ok, err = ps.TrySend(NewViewParameters(3, 0, 1))
	assert.False(t, ok)
	assert.Equal(t, ErrChannelClosed, err)
}
