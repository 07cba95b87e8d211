package glint

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glint/internal/platform"
	"glint/internal/platform/headless"
	"glint/pkg/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAdapter(t *testing.T, opts Options, update UpdateFunc) (*Adapter, *headless.Backend) {
	t.Helper()
	if update == nil {
		update = func(*Context, *View) {}
	}
	back := headless.New()
	ctx := NewContext(opts, store.NewMemStore())
	a, err := NewAdapter(back, ctx, update, discardLogger())
	require.NoError(t, err)
	return a, back
}

func TestAdapterCreatesRootWindow(t *testing.T) {
	a, back := newTestAdapter(t, DefaultOptions(), nil)

	assert.Equal(t, 1, back.LiveWindows())
	winID, ok := a.WindowID(RootViewportID)
	require.True(t, ok)

	// The two lookups must agree in both directions.
	win := a.Window(winID)
	require.NotNil(t, win)
	assert.Equal(t, winID, win.ID())

	_, ok = a.WindowID(ViewportID("ghost"))
	assert.False(t, ok)
	assert.Nil(t, a.Window(9999))
}

func TestAdapterPaintAdvancesFrame(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), nil)
	winID, _ := a.WindowID(RootViewportID)

	assert.Zero(t, a.FrameNumber(RootViewportID))
	a.RunUIAndPaint(winID)
	a.RunUIAndPaint(winID)
	assert.Equal(t, uint64(2), a.FrameNumber(RootViewportID))

	pres := a.Window(winID).(interface{ Presented() uint64 })
	assert.Equal(t, uint64(2), pres.Presented())
}

func TestAdapterSkipsMinimizedWindow(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), nil)
	winID, _ := a.WindowID(RootViewportID)

	a.Window(winID).(interface{ SetMinimized(bool) }).SetMinimized(true)
	res := a.RunUIAndPaint(winID)

	assert.Equal(t, ResultWait, res.Kind)
	assert.Zero(t, a.FrameNumber(RootViewportID))
}

func TestAdapterFreshRepaintRequest(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), nil)
	winID, _ := a.WindowID(RootViewportID)
	a.RunUIAndPaint(winID)

	when := time.Now()
	res, err := a.OnEvent(platform.Event{
		Type: platform.EventUser,
		User: RepaintRequest{Viewport: RootViewportID, When: when, Frame: a.FrameNumber(RootViewportID)},
	})
	require.NoError(t, err)
	assert.Equal(t, ResultRepaintAt, res.Kind)
	assert.Equal(t, winID, res.Window)
	assert.Equal(t, when, res.At)
}

func TestAdapterStaleRepaintRequest(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), nil)
	winID, _ := a.WindowID(RootViewportID)
	a.RunUIAndPaint(winID)

	// Stamped before the last paint, deadline already past: spent.
	res, err := a.OnEvent(platform.Event{
		Type: platform.EventUser,
		User: RepaintRequest{Viewport: RootViewportID, When: time.Now().Add(-time.Millisecond), Frame: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, ResultWait, res.Kind)

	// Stale but aimed at the future: the deadline still matters.
	future := time.Now().Add(time.Hour)
	res, err = a.OnEvent(platform.Event{
		Type: platform.EventUser,
		User: RepaintRequest{Viewport: RootViewportID, When: future, Frame: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, ResultRepaintAt, res.Kind)
	assert.Equal(t, future, res.At)
}

func TestAdapterRepaintRequestUnknownViewport(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), nil)

	res, err := a.OnEvent(platform.Event{
		Type: platform.EventUser,
		User: RepaintRequest{Viewport: ViewportID("gone"), When: time.Now()},
	})
	require.NoError(t, err)
	assert.Equal(t, ResultWait, res.Kind)
}

func TestAdapterRootCloseExits(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), nil)
	winID, _ := a.WindowID(RootViewportID)

	res, err := a.OnEvent(platform.Event{Type: platform.EventClose, Window: winID})
	require.NoError(t, err)
	assert.Equal(t, ResultExit, res.Kind)
}

func TestAdapterUnknownWindowCloseIgnored(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), nil)

	res, err := a.OnEvent(platform.Event{Type: platform.EventClose, Window: 9999})
	require.NoError(t, err)
	assert.Equal(t, ResultWait, res.Kind)
}

func TestAdapterSecondaryViewportLifecycle(t *testing.T) {
	var open bool
	a, back := newTestAdapter(t, DefaultOptions(), func(ctx *Context, view *View) {
		if open && view.Viewport == RootViewportID {
			ctx.OpenViewport(ViewportConfig{ID: "inspector", Title: "Inspector", WidthPx: 300, HeightPx: 400})
		}
	})
	rootWin, _ := a.WindowID(RootViewportID)

	open = true
	a.RunUIAndPaint(rootWin)
	open = false

	require.Equal(t, 2, back.LiveWindows())
	secWin, ok := a.WindowID(ViewportID("inspector"))
	require.True(t, ok)
	assert.NotEqual(t, rootWin, secWin)

	// Painting the secondary window advances its counter, not the root's.
	a.RunUIAndPaint(secWin)
	assert.Equal(t, uint64(1), a.FrameNumber(ViewportID("inspector")))
	assert.Equal(t, uint64(1), a.FrameNumber(RootViewportID))

	// Closing the secondary window tears it down without exiting.
	res, err := a.OnEvent(platform.Event{Type: platform.EventClose, Window: secWin})
	require.NoError(t, err)
	assert.Equal(t, ResultWait, res.Kind)
	assert.Equal(t, 1, back.LiveWindows())
	_, ok = a.WindowID(ViewportID("inspector"))
	assert.False(t, ok)
	assert.Nil(t, a.Window(secWin))
	assert.Zero(t, a.FrameNumber(ViewportID("inspector")))
}

func TestAdapterEmbeddedViewportsShareRootWindow(t *testing.T) {
	var open bool
	a, back := newTestAdapter(t, DefaultOptions(), func(ctx *Context, view *View) {
		if open {
			ctx.OpenViewport(ViewportConfig{ID: "sheet"})
		}
	})
	a.Context().SetEmbedViewports(true)
	rootWin, _ := a.WindowID(RootViewportID)

	open = true
	a.RunUIAndPaint(rootWin)
	open = false

	assert.Equal(t, 1, back.LiveWindows())
	embWin, ok := a.WindowID(ViewportID("sheet"))
	require.True(t, ok)
	assert.Equal(t, rootWin, embWin)
}

func TestAdapterSaveAndDestroyIdempotent(t *testing.T) {
	a, back := newTestAdapter(t, DefaultOptions(), nil)
	a.Context().Memory().Set("k", []byte("v"))

	a.SaveAndDestroy()
	a.SaveAndDestroy()
	assert.Zero(t, back.LiveWindows())

	// Events after teardown are ignored.
	res, err := a.OnEvent(platform.Event{Type: platform.EventClose, Window: 1})
	require.NoError(t, err)
	assert.Equal(t, ResultWait, res.Kind)

	res = a.RunUIAndPaint(1)
	assert.Equal(t, ResultWait, res.Kind)
}

func TestAdapterInputReachesNextPass(t *testing.T) {
	var got []platform.Event
	a, _ := newTestAdapter(t, DefaultOptions(), func(ctx *Context, view *View) {
		got = append(got, view.Input...)
	})
	winID, _ := a.WindowID(RootViewportID)

	res, err := a.OnEvent(platform.Event{Type: platform.EventKeyDown, Window: winID, Key: "enter"})
	require.NoError(t, err)
	assert.Equal(t, ResultRepaintNext, res.Kind)

	a.RunUIAndPaint(winID)
	require.Len(t, got, 1)
	assert.Equal(t, "enter", got[0].Key)

	// Input is drained, not replayed.
	got = nil
	a.RunUIAndPaint(winID)
	assert.Empty(t, got)
}

func TestAdapterResizePaintsNow(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), nil)
	winID, _ := a.WindowID(RootViewportID)

	res, err := a.OnEvent(platform.Event{Type: platform.EventResize, Window: winID, Width: 640, Height: 480})
	require.NoError(t, err)
	assert.Equal(t, ResultRepaintNow, res.Kind)
	assert.Equal(t, winID, res.Window)
}

func TestAdapterAccessActionRouting(t *testing.T) {
	var got []platform.AccessAction
	a, _ := newTestAdapter(t, DefaultOptions(), func(ctx *Context, view *View) {
		got = append(got, view.Actions...)
	})
	winID, _ := a.WindowID(RootViewportID)

	res, err := a.OnEvent(platform.Event{
		Type:   platform.EventAccess,
		Window: winID,
		Access: platform.AccessActionRequested,
		Action: platform.AccessAction{Name: "click", Target: 42},
	})
	require.NoError(t, err)
	assert.Equal(t, ResultRepaintNext, res.Kind)

	a.RunUIAndPaint(winID)
	require.Len(t, got, 1)
	assert.Equal(t, "click", got[0].Name)
	assert.Equal(t, uint64(42), got[0].Target)
}

func TestAdapterAccessNotificationsIgnored(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), nil)
	winID, _ := a.WindowID(RootViewportID)

	for _, kind := range []platform.AccessKind{platform.AccessInitialTreeRequested, platform.AccessDeactivated} {
		res, err := a.OnEvent(platform.Event{Type: platform.EventAccess, Window: winID, Access: kind})
		require.NoError(t, err)
		assert.Equal(t, ResultWait, res.Kind)
	}
}

func TestAdapterAccessDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.Accessibility = false
	a, _ := newTestAdapter(t, opts, nil)
	winID, _ := a.WindowID(RootViewportID)

	res, err := a.OnEvent(platform.Event{
		Type:   platform.EventAccess,
		Window: winID,
		Access: platform.AccessActionRequested,
		Action: platform.AccessAction{Name: "click"},
	})
	require.NoError(t, err)
	assert.Equal(t, ResultWait, res.Kind)
}

func TestAdapterThemeChangeGated(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), nil)
	winID, _ := a.WindowID(RootViewportID)

	res, err := a.OnEvent(platform.Event{Type: platform.EventThemeChanged, Window: winID})
	require.NoError(t, err)
	assert.Equal(t, ResultRepaintNext, res.Kind)

	opts := DefaultOptions()
	opts.FollowSystemTheme = false
	a2, _ := newTestAdapter(t, opts, nil)
	winID2, _ := a2.WindowID(RootViewportID)

	res, err = a2.OnEvent(platform.Event{Type: platform.EventThemeChanged, Window: winID2})
	require.NoError(t, err)
	assert.Equal(t, ResultWait, res.Kind)
}

func TestAdapterContinuousRepaint(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), func(ctx *Context, view *View) {
		ctx.RequestRepaint(view.Viewport)
	})
	winID, _ := a.WindowID(RootViewportID)

	// A pass that asks for another frame gets one scheduled every time,
	// frame after frame.
	for i := 0; i < 3; i++ {
		res := a.RunUIAndPaint(winID)
		assert.Equal(t, ResultRepaintNext, res.Kind)
		assert.Equal(t, winID, res.Window)
	}
	assert.Equal(t, uint64(3), a.FrameNumber(RootViewportID))
}

func TestAdapterDelayedRepaintFromPass(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), func(ctx *Context, view *View) {
		ctx.RequestRepaintAfter(view.Viewport, time.Hour)
	})
	winID, _ := a.WindowID(RootViewportID)

	before := time.Now()
	res := a.RunUIAndPaint(winID)
	assert.Equal(t, ResultRepaintAt, res.Kind)
	assert.False(t, res.At.Before(before.Add(time.Hour)))
}

func TestAdapterQuitFromPass(t *testing.T) {
	a, _ := newTestAdapter(t, DefaultOptions(), func(ctx *Context, view *View) {
		ctx.Quit()
	})
	winID, _ := a.WindowID(RootViewportID)

	res := a.RunUIAndPaint(winID)
	assert.Equal(t, ResultExit, res.Kind)
}
