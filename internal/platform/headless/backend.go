// Package headless is an offscreen windowing backend. It backs tests and the
// offscreen device class: windows exist only as bookkeeping, frames presented
// to them are retained for inspection, and native events are injected by the
// caller through Push.
package headless

import (
	"errors"
	"sync"
	"time"

	"glint/internal/platform"
	"glint/internal/render"
)

var ErrWindowClosed = errors.New("headless: window closed")

type Backend struct {
	queue *platform.EventQueue

	mu      sync.Mutex
	windows map[platform.WindowID]*window
	nextID  platform.WindowID
	scheme  platform.ColorScheme
}

func New() *Backend {
	return &Backend{
		queue:   platform.NewEventQueue(),
		windows: map[platform.WindowID]*window{},
		scheme:  platform.SchemeUnknown,
	}
}

func (b *Backend) Name() string { return "headless" }

func (b *Backend) CreateWindow(cfg platform.WindowConfig) (platform.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	w := &window{
		backend: b,
		id:      b.nextID,
		title:   cfg.Title,
		w:       cfg.WidthPx,
		h:       cfg.HeightPx,
		scale:   1.0,
		focused: true,
	}
	if w.w <= 0 {
		w.w = 800
	}
	if w.h <= 0 {
		w.h = 600
	}
	b.windows[w.id] = w
	// A new window owes its first frame.
	b.queue.Push(platform.Event{Type: platform.EventRedrawRequested, Window: w.id})
	return w, nil
}

func (b *Backend) NextEvent(timeout time.Duration) (platform.Event, bool) {
	return b.queue.Next(timeout)
}

func (b *Backend) Post(payload any) {
	b.queue.Push(platform.Event{Type: platform.EventUser, User: payload})
}

func (b *Backend) Terminate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, w := range b.windows {
		w.closed = true
		delete(b.windows, id)
	}
}

// Push injects a native event, standing in for the OS event source.
func (b *Backend) Push(ev platform.Event) {
	b.queue.Push(ev)
}

// SetColorScheme sets the appearance every window will report.
func (b *Backend) SetColorScheme(s platform.ColorScheme) {
	b.mu.Lock()
	b.scheme = s
	b.mu.Unlock()
}

// LiveWindows reports how many windows have not been closed.
func (b *Backend) LiveWindows() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.windows)
}

type window struct {
	backend *Backend
	id      platform.WindowID

	mu        sync.Mutex
	title     string
	w, h      int
	scale     float32
	focused   bool
	minimized bool
	closed    bool
	presented uint64
	lastFrame *render.FrameBuffer
}

func (w *window) ID() platform.WindowID { return w.id }

func (w *window) SizePx() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w, w.h
}

func (w *window) Scale() float32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scale
}

func (w *window) SetTitle(title string) {
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
}

func (w *window) Focused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

func (w *window) Minimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

func (w *window) ColorScheme() platform.ColorScheme {
	w.backend.mu.Lock()
	defer w.backend.mu.Unlock()
	return w.backend.scheme
}

func (w *window) Present(fb *render.FrameBuffer) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWindowClosed
	}
	w.presented++
	w.lastFrame = fb.Clone()
	return nil
}

func (w *window) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.backend.mu.Lock()
	delete(w.backend.windows, w.id)
	w.backend.mu.Unlock()
}

// Presented reports how many frames this window has received.
func (w *window) Presented() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.presented
}

// SetMinimized toggles the minimized flag.
func (w *window) SetMinimized(min bool) {
	w.mu.Lock()
	w.minimized = min
	w.mu.Unlock()
}

// Resize changes the window size and emits the matching native event.
func (w *window) Resize(width, height int) {
	w.mu.Lock()
	w.w, w.h = width, height
	w.mu.Unlock()
	w.backend.Push(platform.Event{Type: platform.EventResize, Window: w.id, Width: width, Height: height})
}
