package glint

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"glint/internal/platform"
	"glint/internal/render"
)

// App is what a loop drives: one frame-counted UI pass per window plus event
// dispatch. Adapter is the standard implementation; tests substitute their
// own.
type App interface {
	// FrameNumber returns the live frame counter for a viewport.
	FrameNumber(vp ViewportID) uint64

	// Window returns the live window with the given identifier, nil if
	// it was destroyed or never existed.
	Window(win platform.WindowID) platform.Window

	// WindowID maps a viewport to its window's identifier. Must agree
	// with Window at all times.
	WindowID(vp ViewportID) (platform.WindowID, bool)

	// SaveAndDestroy persists state and tears down every window. Safe to
	// call more than once.
	SaveAndDestroy()

	// RunUIAndPaint runs one UI pass for the viewport owning the window
	// and presents the result.
	RunUIAndPaint(win platform.WindowID) EventResult

	// OnEvent dispatches one native event and reports how the loop
	// should proceed.
	OnEvent(ev platform.Event) (EventResult, error)
}

// View is the per-pass slice of state handed to the update function.
type View struct {
	Viewport ViewportID
	Window   platform.Window
	Frame    *render.FrameBuffer
	Scale    float32

	Theme      Theme
	ThemeKnown bool

	Input   []platform.Event
	Actions []platform.AccessAction
}

// UpdateFunc builds one frame of UI into view.Frame.
type UpdateFunc func(ctx *Context, view *View)

// Adapter binds a Context and an update function to a platform backend. It
// owns the viewport-to-window registry and is the App a Loop runs.
type Adapter struct {
	mu sync.Mutex

	plat   platform.Platform
	ctx    *Context
	update UpdateFunc
	log    *slog.Logger

	viewports map[ViewportID]platform.Window
	byWindow  map[platform.WindowID]ViewportID
	frames    map[ViewportID]*render.FrameBuffer
	rootWin   platform.WindowID

	destroyed  bool
	pendingErr error
}

// NewAdapter creates the root window and wires the context's posting path
// into the platform queue.
func NewAdapter(plat platform.Platform, ctx *Context, update UpdateFunc, log *slog.Logger) (*Adapter, error) {
	if log == nil {
		log = slog.Default()
	}
	opts := ctx.Options()
	win, err := plat.CreateWindow(platform.WindowConfig{
		Title:     opts.Title,
		WidthPx:   opts.WidthPx,
		HeightPx:  opts.HeightPx,
		Resizable: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create root window: %w", err)
	}

	a := &Adapter{
		plat:      plat,
		ctx:       ctx,
		update:    update,
		log:       log,
		viewports: map[ViewportID]platform.Window{RootViewportID: win},
		byWindow:  map[platform.WindowID]ViewportID{win.ID(): RootViewportID},
		frames:    make(map[ViewportID]*render.FrameBuffer),
		rootWin:   win.ID(),
	}
	ctx.post = plat.Post
	return a, nil
}

func (a *Adapter) Context() *Context { return a.ctx }

func (a *Adapter) FrameNumber(vp ViewportID) uint64 {
	return a.ctx.FrameNumber(vp)
}

func (a *Adapter) Window(win platform.WindowID) platform.Window {
	a.mu.Lock()
	defer a.mu.Unlock()
	vp, ok := a.byWindow[win]
	if !ok {
		return nil
	}
	return a.viewports[vp]
}

func (a *Adapter) WindowID(vp ViewportID) (platform.WindowID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	win, ok := a.viewports[vp]
	if !ok {
		return 0, false
	}
	return win.ID(), true
}

func (a *Adapter) SaveAndDestroy() {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return
	}
	a.destroyed = true
	wins := make([]platform.Window, 0, len(a.viewports))
	for _, w := range a.viewports {
		wins = append(wins, w)
	}
	a.viewports = map[ViewportID]platform.Window{}
	a.byWindow = map[platform.WindowID]ViewportID{}
	a.mu.Unlock()

	if err := a.ctx.SaveMemory(); err != nil {
		a.log.Warn("persisting memory failed", "err", err)
	}
	seen := make(map[platform.WindowID]bool)
	for _, w := range wins {
		if seen[w.ID()] {
			continue
		}
		seen[w.ID()] = true
		w.Close()
	}
}

func (a *Adapter) OnEvent(ev platform.Event) (EventResult, error) {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return Wait(), nil
	}
	err := a.pendingErr
	a.pendingErr = nil
	a.mu.Unlock()
	if err != nil {
		return Wait(), err
	}

	opts := a.ctx.Options()

	switch ev.Type {
	case platform.EventClose:
		return a.onClose(ev.Window), nil

	case platform.EventResize:
		// Live resize paints synchronously so the content tracks the
		// frame.
		return RepaintNow(ev.Window), nil

	case platform.EventRedrawRequested:
		return RepaintNow(ev.Window), nil

	case platform.EventScaleChanged:
		return RepaintNext(ev.Window), nil

	case platform.EventFocusGained, platform.EventFocusLost:
		return RepaintNext(ev.Window), nil

	case platform.EventThemeChanged:
		if !opts.FollowSystemTheme {
			return Wait(), nil
		}
		return RepaintNext(ev.Window), nil

	case platform.EventKeyDown, platform.EventKeyUp, platform.EventTextInput,
		platform.EventMouseMove, platform.EventMouseDown, platform.EventMouseUp,
		platform.EventMouseWheel:
		a.ctx.pushInput(ev)
		return RepaintNext(ev.Window), nil

	case platform.EventUser:
		return a.onUserEvent(ev)

	case platform.EventAccess:
		if !opts.Accessibility {
			return Wait(), nil
		}
		ue, ok := TranslateAccessEvent(ev)
		if !ok {
			a.log.Debug("accessibility notification ignored", "event", DescribeEvent(ev))
			return Wait(), nil
		}
		req := ue.(AccessActionRequest)
		a.ctx.queueAccessAction(req.Action)
		return RepaintNext(req.Window), nil

	default:
		return Wait(), nil
	}
}

func (a *Adapter) onClose(winID platform.WindowID) EventResult {
	if winID == a.rootWin {
		return Exit()
	}

	a.mu.Lock()
	vp, ok := a.byWindow[winID]
	if !ok {
		a.mu.Unlock()
		return Wait()
	}
	win := a.viewports[vp]
	delete(a.byWindow, winID)
	delete(a.viewports, vp)
	delete(a.frames, vp)
	a.mu.Unlock()

	a.ctx.dropViewport(vp)
	win.Close()
	return Wait()
}

func (a *Adapter) onUserEvent(ev platform.Event) (EventResult, error) {
	switch req := ev.User.(type) {
	case RepaintRequest:
		winID, ok := a.WindowID(req.Viewport)
		if !ok {
			return Wait(), nil
		}
		if a.ctx.FrameNumber(req.Viewport) <= req.Frame {
			// Still the frame that asked. Wake at the requested
			// instant; the loop fires due times immediately.
			return RepaintAt(winID, req.When), nil
		}
		// A newer frame has already painted. A future deadline may
		// still matter; a past one is spent.
		if req.When.After(time.Now()) {
			return RepaintAt(winID, req.When), nil
		}
		return Wait(), nil

	case AccessActionRequest:
		if !a.ctx.Options().Accessibility {
			return Wait(), nil
		}
		a.ctx.queueAccessAction(req.Action)
		return RepaintNext(req.Window), nil

	default:
		a.log.Debug("unknown user event ignored")
		return Wait(), nil
	}
}

func (a *Adapter) RunUIAndPaint(winID platform.WindowID) EventResult {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return Wait()
	}
	vp, ok := a.byWindow[winID]
	if !ok {
		a.mu.Unlock()
		return Wait()
	}
	win := a.viewports[vp]
	a.mu.Unlock()

	if win.Minimized() {
		return Wait()
	}

	fb := a.framebufferFor(vp, win)
	theme, known := SystemTheme(win, a.ctx.Options())

	a.ctx.beginPass(vp)
	view := &View{
		Viewport:   vp,
		Window:     win,
		Frame:      fb,
		Scale:      win.Scale(),
		Theme:      theme,
		ThemeKnown: known,
		Input:      a.ctx.takeInput(),
		Actions:    a.ctx.takeAccessActions(),
	}
	a.update(a.ctx, view)
	out := a.ctx.endPass()

	for _, cfg := range out.viewports {
		if err := a.materialize(cfg); err != nil {
			a.log.Error("viewport creation failed", "viewport", cfg.ID, "err", err)
			a.mu.Lock()
			a.pendingErr = err
			a.mu.Unlock()
		}
	}

	if err := win.Present(fb); err != nil {
		a.log.Warn("present failed", "viewport", vp, "err", err)
		return Wait()
	}

	if out.quit {
		return Exit()
	}

	return a.applyRepaints(vp, winID, out.repaints)
}

// applyRepaints turns the pass's repaint demands into one result for the
// painted viewport and posted requests for everyone else.
func (a *Adapter) applyRepaints(vp ViewportID, winID platform.WindowID, repaints map[ViewportID]time.Duration) EventResult {
	res := Wait()
	for other, d := range repaints {
		if other == vp {
			if d <= 0 {
				res = RepaintNext(winID)
			} else {
				res = RepaintAt(winID, time.Now().Add(d))
			}
			continue
		}
		a.ctx.RequestRepaintAfter(other, d)
	}
	return res
}

func (a *Adapter) materialize(cfg ViewportConfig) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.viewports[cfg.ID]; exists {
		return nil
	}

	if a.ctx.EmbedViewports() {
		// Embedded viewports share the root window; the window registry
		// keeps mapping the root window to the root viewport.
		root := a.viewports[RootViewportID]
		if root == nil {
			return fmt.Errorf("materialize %q: no root window", cfg.ID)
		}
		a.viewports[cfg.ID] = root
		return nil
	}

	win, err := a.plat.CreateWindow(platform.WindowConfig{
		Title:     cfg.Title,
		WidthPx:   cfg.WidthPx,
		HeightPx:  cfg.HeightPx,
		Resizable: true,
	})
	if err != nil {
		return fmt.Errorf("materialize %q: %w", cfg.ID, err)
	}
	a.viewports[cfg.ID] = win
	a.byWindow[win.ID()] = cfg.ID
	return nil
}

func (a *Adapter) framebufferFor(vp ViewportID, win platform.Window) *render.FrameBuffer {
	w, h := win.SizePx()
	a.mu.Lock()
	defer a.mu.Unlock()
	fb := a.frames[vp]
	if fb == nil {
		fb = render.NewFrameBuffer(w, h)
		a.frames[vp] = fb
	} else {
		fb.Resize(w, h)
	}
	return fb
}
