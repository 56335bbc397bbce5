package mapview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAllocate(t *testing.T) {
	pool, err := NewRenderTargetPool("pool", 4, 3, 2, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Size())
	assert.Equal(t, 4, pool.Width())
	assert.Equal(t, 3, pool.Height())

	for i := 0; i < pool.Size(); i++ {
		target := pool.Target(i)
		assert.Equal(t, i, target.Slot())
		assert.NotNil(t, target.Context())
		assert.Equal(t, 16, target.Surface().Stride())
		assert.Equal(t, 16*3, len(target.Surface().Bytes()))
	}
	assert.False(t, pool.Released())
	pool.Close()
	pool.Close()
	assert.True(t, pool.Released())
	assert.Nil(t, pool.Target(0).Surface().Bytes())
}

func TestPoolInvalidDimensions(t *testing.T) {
	i := &countingInstrumentInstance{}
	for _, dims := range [][3]int{{0, 10, 2}, {10, 0, 2}, {-1, 10, 2}, {10, 10, 0}} {
		pool, err := NewRenderTargetPool("invalid", dims[0], dims[1], dims[2], 0, i)
		assert.Nil(t, pool)
		assert.True(t, IsAllocationError(err), "%v", dims)
	}
	assert.Equal(t, int32(0), i.allocations)
	assert.Equal(t, int32(0), i.releases)
}

func TestPoolExceedsMaxBytes(t *testing.T) {
	i := &countingInstrumentInstance{}
	pool, err := NewRenderTargetPool("huge", 1024, 1024, 2, 1024*1024, i)
	assert.Nil(t, pool)
	require.True(t, IsAllocationError(err))
	assert.Contains(t, err.Error(), "surface #0")
	assert.Equal(t, int32(0), i.allocations)
}

func TestPoolReleaseDeferredToFrames(t *testing.T) {
	i := &countingInstrumentInstance{}
	pool, err := NewRenderTargetPool("deferred", 2, 2, 2, 0, i)
	require.NoError(t, err)

	pool.release.ref()
	pool.Close()
	assert.False(t, pool.Released())
	assert.NotNil(t, pool.Target(1).Surface().Bytes())
	assert.Equal(t, int32(0), i.releases)

	pool.release.unref()
	assert.True(t, pool.Released())
	assert.Equal(t, int32(2), i.releases)
	assert.Panics(t, func() { pool.release.unref() })
}

func TestGuardPoisonedByPanic(t *testing.T) {
	g := &guard{}
	assert.Panics(t, func() {
		_ = g.lock()
		defer g.unlock()
		panic("boom")
	})

	ok, err := g.tryLock()
	assert.False(t, ok)
	assert.Equal(t, ErrLockPoisoned, err)
	assert.Equal(t, ErrLockPoisoned, g.lock())
}

func TestGuardTryLockContended(t *testing.T) {
	g := &guard{}
	require.NoError(t, g.lock())

	ok, err := g.tryLock()
	assert.False(t, ok)
	assert.NoError(t, err)

	g.unlock()
	ok, err = g.tryLock()
	assert.True(t, ok)
	assert.NoError(t, err)
	g.unlock()
}

func TestReuseQueueDrain(t *testing.T) {
	rq := newReuseQueue(3)
	assert.NoError(t, rq.push(2))
	assert.NoError(t, rq.push(0))
	assert.Equal(t, 2, rq.Len())

	var drained []int
	ok, err := rq.tryDrain(func(index int) { drained = append(drained, index) })
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, []int{2, 0}, drained)
	assert.Equal(t, 0, rq.Len())

	require.NoError(t, rq.g.lock())
	ok, err = rq.tryDrain(func(int) { t.Fail() })
	assert.False(t, ok)
	assert.NoError(t, err)
	rq.g.unlock()
}

func newTestFrameQueue(t *testing.T, slots int) (*FrameQueue, *ReuseQueue, *RenderTargetPool) {
	pool, err := NewRenderTargetPool(t.Name(), 2, 2, slots, 0, nil)
	require.NoError(t, err)
	rq := newReuseQueue(slots)
	return newFrameQueue(rq, &NilInstrumentInstance{}), rq, pool
}

func publishTestFrame(t *testing.T, fq *FrameQueue, pool *RenderTargetPool, slot int, seq int32) {
	pool.release.ref()
	s := pool.slots[slot].surface
	ok, err := fq.tryPush(&CompletedFrame{
		Slot:    slot,
		Seq:     seq,
		Width:   s.Width(),
		Height:  s.Height(),
		Stride:  s.Stride(),
		bytes:   s.Bytes(),
		release: pool.release,
	})
	require.True(t, ok)
	require.NoError(t, err)
}

func TestFrameQueueOrder(t *testing.T) {
	fq, rq, pool := newTestFrameQueue(t, 3)
	publishTestFrame(t, fq, pool, 1, 0)
	publishTestFrame(t, fq, pool, 2, 1)
	publishTestFrame(t, fq, pool, 0, 2)
	assert.Equal(t, 3, fq.Len())

	for _, expected := range []int{1, 2, 0} {
		fh, err := fq.GetBuffer()
		require.NoError(t, err)
		require.NotNil(t, fh)
		assert.Equal(t, expected, fh.Slot())
		assert.Equal(t, 2, fh.Width())
		assert.Equal(t, 8, fh.Stride())
		assert.Equal(t, 8*2, len(fh.Bytes()))
		fh.Release()
		fh.Release()
	}
	assert.Equal(t, 3, rq.Len())

	fh, err := fq.GetBuffer()
	assert.NoError(t, err)
	assert.Nil(t, fh)

	pool.Close()
	assert.True(t, pool.Released())
}

func TestFrameQueueClosed(t *testing.T) {
	fq, _, pool := newTestFrameQueue(t, 1)
	fq.Close()
	ok, err := fq.tryPush(&CompletedFrame{release: pool.release})
	assert.False(t, ok)
	assert.Equal(t, ErrChannelClosed, err)
}

func TestFrameQueuePoisoned(t *testing.T) {
	fq, _, _ := newTestFrameQueue(t, 1)
	fq.g.poison()
	fh, err := fq.GetBuffer()
	assert.Nil(t, fh)
	assert.Equal(t, ErrLockPoisoned, err)
}

func TestFrameQueueDiscard(t *testing.T) {
	fq, rq, pool := newTestFrameQueue(t, 2)
	publishTestFrame(t, fq, pool, 0, 0)
	publishTestFrame(t, fq, pool, 1, 1)
	pool.Close()
	assert.False(t, pool.Released())

	assert.Equal(t, 2, fq.Discard())
	assert.Equal(t, 0, fq.Len())
	assert.Equal(t, 2, rq.Len())
	assert.True(t, pool.Released())
}

func TestFrameHandleImageCopy(t *testing.T) {
	fq, _, pool := newTestFrameQueue(t, 1)
	data := pool.slots[0].surface.Bytes()
	for i := range data {
		data[i] = 0x7f
	}
	publishTestFrame(t, fq, pool, 0, 0)

	fh, err := fq.GetBuffer()
	require.NoError(t, err)
	img := fh.Image()
	fh.Release()
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, uint8(0x7f), img.Pix[0])
	assert.Nil(t, fh.Bytes())
}
