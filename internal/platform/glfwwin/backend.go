// Package glfwwin is the desktop windowing backend, built on GLFW. Window
// callbacks translate native events into platform events on a shared queue;
// PostEmptyEvent bridges cross-goroutine posts into the blocked event wait.
package glfwwin

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"glint/internal/platform"
	"glint/internal/render"
)

type Backend struct {
	queue *platform.EventQueue

	mu      sync.Mutex
	windows map[platform.WindowID]*window
	nextID  platform.WindowID

	glOnce sync.Once
	glErr  error
}

// New initializes GLFW. The caller must have locked the main OS thread
// (runtime.LockOSThread) and keep the event loop on it; GLFW window and
// event calls are not valid from any other thread.
func New() (*Backend, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfwwin: init: %w", err)
	}
	b := &Backend{
		queue:   platform.NewEventQueue(),
		windows: map[platform.WindowID]*window{},
	}
	startThemeMonitor(b)
	return b, nil
}

func (b *Backend) Name() string { return "glfw" }

func (b *Backend) CreateWindow(cfg platform.WindowConfig) (platform.Window, error) {
	resizable := glfw.False
	if cfg.Resizable {
		resizable = glfw.True
	}
	glfw.WindowHint(glfw.Resizable, resizable)
	glfw.WindowHint(glfw.Visible, glfw.True)

	width, height := cfg.WidthPx, cfg.HeightPx
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}

	native, err := glfw.CreateWindow(width, height, cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("glfwwin: create window: %w", err)
	}
	if cfg.MinWidthPx > 0 || cfg.MinHeightPx > 0 {
		native.SetSizeLimits(cfg.MinWidthPx, cfg.MinHeightPx, glfw.DontCare, glfw.DontCare)
	}

	// GL function loading needs a current context; the first window's is
	// as good as any.
	native.MakeContextCurrent()
	b.glOnce.Do(func() { b.glErr = gl.Init() })
	if b.glErr != nil {
		native.Destroy()
		return nil, fmt.Errorf("glfwwin: init gl: %w", b.glErr)
	}

	b.mu.Lock()
	b.nextID++
	w := &window{backend: b, id: b.nextID, native: native}
	b.windows[w.id] = w
	b.mu.Unlock()

	w.installCallbacks()
	// Some window managers never deliver a refresh for a fresh window, so
	// queue the first frame explicitly.
	b.queue.Push(platform.Event{Type: platform.EventRedrawRequested, Window: w.id})
	return w, nil
}

func (b *Backend) NextEvent(timeout time.Duration) (platform.Event, bool) {
	if ev, ok := b.queue.Pop(); ok {
		return ev, true
	}
	switch {
	case timeout < 0:
		glfw.WaitEvents()
	case timeout == 0:
		glfw.PollEvents()
	default:
		glfw.WaitEventsTimeout(timeout.Seconds())
	}
	return b.queue.Pop()
}

func (b *Backend) Post(payload any) {
	b.queue.Push(platform.Event{Type: platform.EventUser, User: payload})
	glfw.PostEmptyEvent()
}

func (b *Backend) Terminate() {
	b.mu.Lock()
	for id, w := range b.windows {
		w.native.Destroy()
		delete(b.windows, id)
	}
	b.mu.Unlock()
	glfw.Terminate()
}

// push is used by theme monitors and window callbacks.
func (b *Backend) push(ev platform.Event) {
	b.queue.Push(ev)
	glfw.PostEmptyEvent()
}

type window struct {
	backend *Backend
	id      platform.WindowID
	native  *glfw.Window

	mu     sync.Mutex
	closed bool
}

func (w *window) installCallbacks() {
	q := w.backend.queue
	id := w.id

	w.native.SetCloseCallback(func(_ *glfw.Window) {
		q.Push(platform.Event{Type: platform.EventClose, Window: id})
	})
	w.native.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		q.Push(platform.Event{Type: platform.EventResize, Window: id, Width: width, Height: height})
	})
	w.native.SetRefreshCallback(func(_ *glfw.Window) {
		q.Push(platform.Event{Type: platform.EventRedrawRequested, Window: id})
	})
	w.native.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		t := platform.EventFocusLost
		if focused {
			t = platform.EventFocusGained
		}
		q.Push(platform.Event{Type: t, Window: id})
	})
	w.native.SetContentScaleCallback(func(_ *glfw.Window, x, _ float32) {
		q.Push(platform.Event{Type: platform.EventScaleChanged, Window: id, Scale: x})
	})
	w.native.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		var t platform.EventType
		switch action {
		case glfw.Press, glfw.Repeat:
			t = platform.EventKeyDown
		case glfw.Release:
			t = platform.EventKeyUp
		default:
			return
		}
		q.Push(platform.Event{Type: t, Window: id, Key: keyName(key)})
	})
	w.native.SetCharCallback(func(_ *glfw.Window, r rune) {
		q.Push(platform.Event{Type: platform.EventTextInput, Window: id, Rune: r})
	})
	w.native.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		q.Push(platform.Event{Type: platform.EventMouseMove, Window: id, X: int(x), Y: int(y)})
	})
	w.native.SetMouseButtonCallback(func(win *glfw.Window, _ glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		t := platform.EventMouseUp
		if action == glfw.Press {
			t = platform.EventMouseDown
		}
		x, y := win.GetCursorPos()
		q.Push(platform.Event{Type: t, Window: id, X: int(x), Y: int(y)})
	})
	w.native.SetScrollCallback(func(_ *glfw.Window, dx, dy float64) {
		q.Push(platform.Event{Type: platform.EventMouseWheel, Window: id, DeltaX: dx, DeltaY: dy})
	})
}

func (w *window) ID() platform.WindowID { return w.id }

func (w *window) SizePx() (int, int) {
	return w.native.GetSize()
}

func (w *window) Scale() float32 {
	x, _ := w.native.GetContentScale()
	if x <= 0 {
		return 1
	}
	return x
}

func (w *window) SetTitle(title string) {
	w.native.SetTitle(title)
}

func (w *window) Focused() bool {
	return w.native.GetAttrib(glfw.Focused) == glfw.True
}

func (w *window) Minimized() bool {
	return w.native.GetAttrib(glfw.Iconified) == glfw.True
}

func (w *window) ColorScheme() platform.ColorScheme {
	return systemColorScheme()
}

// Present uploads the finished frame into the window's back buffer and
// flips. DrawPixels with a negative vertical zoom writes the top-down
// framebuffer rows into GL's bottom-up raster.
func (w *window) Present(fb *render.FrameBuffer) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return fmt.Errorf("glfwwin: present on closed window %d", w.id)
	}
	w.mu.Unlock()

	w.native.MakeContextCurrent()
	dstW, dstH := w.native.GetFramebufferSize()
	gl.Viewport(0, 0, int32(dstW), int32(dstH))
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.RasterPos2f(-1, 1)
	zx, zy := presentZoom(fb.W, fb.H, dstW, dstH)
	gl.PixelZoom(zx, zy)
	gl.DrawPixels(int32(fb.W), int32(fb.H), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(fb.Pixels))
	w.native.SwapBuffers()
	return nil
}

// presentZoom scales framebuffer pixels onto the native framebuffer, which
// may differ in size on high-DPI displays. The vertical factor is negative
// so rows land top-down from the raster position at the top-left corner.
func presentZoom(srcW, srcH, dstW, dstH int) (zx, zy float32) {
	if srcW <= 0 || srcH <= 0 {
		return 1, -1
	}
	return float32(dstW) / float32(srcW), -float32(dstH) / float32(srcH)
}

func (w *window) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.backend.mu.Lock()
	delete(w.backend.windows, w.id)
	w.backend.mu.Unlock()
	w.native.Destroy()
}

// keyName maps the keys the shell cares about to stable labels. Unmapped
// keys report empty; printable input arrives through the char callback.
func keyName(key glfw.Key) string {
	switch key {
	case glfw.KeyEscape:
		return "escape"
	case glfw.KeyEnter, glfw.KeyKPEnter:
		return "enter"
	case glfw.KeyBackspace:
		return "backspace"
	case glfw.KeyDelete:
		return "delete"
	case glfw.KeyTab:
		return "tab"
	case glfw.KeyUp:
		return "up"
	case glfw.KeyDown:
		return "down"
	case glfw.KeyLeft:
		return "left"
	case glfw.KeyRight:
		return "right"
	case glfw.KeyHome:
		return "home"
	case glfw.KeyEnd:
		return "end"
	case glfw.KeyPageUp:
		return "pageup"
	case glfw.KeyPageDown:
		return "pagedown"
	case glfw.KeyF1:
		return "f1"
	case glfw.KeySpace:
		return "space"
	default:
		if key >= glfw.KeyA && key <= glfw.KeyZ {
			return string(rune('a' + (key - glfw.KeyA)))
		}
		if key >= glfw.Key0 && key <= glfw.Key9 {
			return string(rune('0' + (key - glfw.Key0)))
		}
		return ""
	}
}
