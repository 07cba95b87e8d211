package glint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glint/pkg/store"
)

func TestContextMemoryPersistence(t *testing.T) {
	st := store.NewMemStore()

	ctx := NewContext(DefaultOptions(), st)
	ctx.Memory().Set("panel/open", []byte{1})
	require.NoError(t, ctx.SaveMemory())

	ctx2 := NewContext(DefaultOptions(), st)
	v, ok := ctx2.Memory().Get("panel/open")
	require.True(t, ok)
	assert.Equal(t, []byte{1}, v)
}

func TestContextCorruptMemoryStartsFresh(t *testing.T) {
	st := store.NewMemStore()
	require.NoError(t, st.Save(memoryKey, []byte("garbage")))

	ctx := NewContext(DefaultOptions(), st)
	assert.Zero(t, ctx.Memory().Len())
}

func TestContextPersistenceDisabled(t *testing.T) {
	st := store.NewMemStore()
	opts := DefaultOptions()
	opts.PersistMemory = false

	ctx := NewContext(opts, st)
	ctx.Memory().Set("k", []byte("v"))
	require.NoError(t, ctx.SaveMemory())

	_, ok := st.Load(memoryKey)
	assert.False(t, ok)
}

func TestContextRepaintDuringPass(t *testing.T) {
	ctx := NewContext(DefaultOptions(), nil)
	posted := 0
	ctx.post = func(any) { posted++ }

	ctx.beginPass(RootViewportID)
	ctx.RequestRepaint(RootViewportID)
	ctx.RequestRepaintAfter(RootViewportID, time.Second)
	out := ctx.endPass()

	// In-pass requests land in the pass output, never the queue, and the
	// shortest delay wins.
	assert.Zero(t, posted)
	assert.Equal(t, time.Duration(0), out.repaints[RootViewportID])
}

func TestContextBackgroundRepaintDuringPassPosts(t *testing.T) {
	ctx := NewContext(DefaultOptions(), nil)
	posted := 0
	ctx.post = func(any) { posted++ }

	// A request from another goroutine arriving mid-pass must not be
	// folded into that pass's output.
	ctx.beginPass(RootViewportID)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx.RequestRepaintAfter(RootViewportID, time.Hour)
	}()
	<-done
	out := ctx.endPass()

	assert.Equal(t, 1, posted)
	assert.Empty(t, out.repaints)
}

func TestContextRepaintOutsidePassPosts(t *testing.T) {
	ctx := NewContext(DefaultOptions(), nil)

	// Advance the frame counter past zero first.
	ctx.beginPass(RootViewportID)
	ctx.endPass()

	var got RepaintRequest
	ctx.post = func(p any) { got = p.(RepaintRequest) }

	before := time.Now()
	ctx.RequestRepaintAfter(RootViewportID, 50*time.Millisecond)

	assert.Equal(t, RootViewportID, got.Viewport)
	assert.Equal(t, uint64(1), got.Frame)
	assert.False(t, got.When.Before(before.Add(50*time.Millisecond)))
}

func TestContextPassAdvancesFrame(t *testing.T) {
	ctx := NewContext(DefaultOptions(), nil)
	assert.Zero(t, ctx.FrameNumber(RootViewportID))

	ctx.beginPass(RootViewportID)
	ctx.endPass()
	ctx.beginPass(RootViewportID)
	ctx.endPass()

	assert.Equal(t, uint64(2), ctx.FrameNumber(RootViewportID))
}

func TestContextQuitOnlyDuringPass(t *testing.T) {
	ctx := NewContext(DefaultOptions(), nil)

	ctx.Quit()
	ctx.beginPass(RootViewportID)
	out := ctx.endPass()
	assert.False(t, out.quit)

	ctx.beginPass(RootViewportID)
	ctx.Quit()
	out = ctx.endPass()
	assert.True(t, out.quit)
}

func TestContextEmbedDefaults(t *testing.T) {
	opts := DefaultOptions()
	opts.Device = DeviceDesktop
	assert.False(t, NewContext(opts, nil).EmbedViewports())

	opts.Device = DeviceMobile
	assert.True(t, NewContext(opts, nil).EmbedViewports())

	ctx := NewContext(opts, nil)
	ctx.SetEmbedViewports(false)
	assert.False(t, ctx.EmbedViewports())
}
