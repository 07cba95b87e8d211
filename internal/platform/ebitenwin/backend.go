// Package ebitenwin is the embedded single-window backend. Ebiten owns the
// real OS loop; the game adapter pumps input into the platform queue each
// update and blits the most recently presented framebuffer each draw. The
// shell's own loop runs on a second goroutine started by Run.
package ebitenwin

import (
	"errors"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"glint/internal/platform"
	"glint/internal/render"
)

var ErrSingleWindow = errors.New("ebitenwin: backend supports exactly one window")

type Backend struct {
	queue *platform.EventQueue

	mu         sync.Mutex
	win        *window
	terminated bool
}

func New() *Backend {
	return &Backend{queue: platform.NewEventQueue()}
}

func (b *Backend) Name() string { return "ebiten" }

func (b *Backend) CreateWindow(cfg platform.WindowConfig) (platform.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.win != nil {
		return nil, ErrSingleWindow
	}

	width, height := cfg.WidthPx, cfg.HeightPx
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(width, height)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if cfg.MinWidthPx > 0 || cfg.MinHeightPx > 0 {
		ebiten.SetWindowSizeLimits(cfg.MinWidthPx, cfg.MinHeightPx, -1, -1)
	}

	b.win = &window{backend: b, id: 1, w: width, h: height, focused: true}
	b.queue.Push(platform.Event{Type: platform.EventRedrawRequested, Window: b.win.id})
	return b.win, nil
}

func (b *Backend) NextEvent(timeout time.Duration) (platform.Event, bool) {
	return b.queue.Next(timeout)
}

func (b *Backend) Post(payload any) {
	b.queue.Push(platform.Event{Type: platform.EventUser, User: payload})
}

func (b *Backend) Terminate() {
	b.mu.Lock()
	b.terminated = true
	b.mu.Unlock()
}

// Run starts the shell loop on its own goroutine and hands the calling
// goroutine to ebiten, which must own it. Window closing is intercepted and
// delivered to the shell loop as a close event, so shutdown persistence
// runs before RunGame returns; the game only terminates once the loop has
// exited and called Terminate.
func (b *Backend) Run(start func()) error {
	ebiten.SetWindowClosingHandled(true)
	go start()
	if err := ebiten.RunGame(&game{backend: b}); err != nil {
		return err
	}
	return nil
}

type window struct {
	backend *Backend
	id      platform.WindowID

	mu        sync.Mutex
	w, h      int
	scale     float32
	focused   bool
	minimized bool
	closed    bool
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
	if w.scale <= 0 {
		return 1
	}
	return w.scale
}

func (w *window) SetTitle(title string) { ebiten.SetWindowTitle(title) }

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

// Ebiten has no appearance query.
func (w *window) ColorScheme() platform.ColorScheme { return platform.SchemeUnknown }

func (w *window) Present(fb *render.FrameBuffer) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("ebitenwin: present on closed window")
	}
	w.lastFrame = fb.Clone()
	return nil
}

func (w *window) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.backend.Terminate()
}

// game adapts the backend to ebiten's update/draw loop.
type game struct {
	backend *Backend

	canvas   *ebiten.Image
	keys     []ebiten.Key
	runes    []rune
	cursorX   int
	cursorY   int
	hasMouse  bool
	closeSent bool
}

func (g *game) Update() error {
	b := g.backend
	b.mu.Lock()
	terminated := b.terminated
	win := b.win
	b.mu.Unlock()
	if terminated {
		return ebiten.Termination
	}
	if win == nil {
		return nil
	}
	id := win.id

	if ebiten.IsWindowBeingClosed() && !g.closeSent {
		g.closeSent = true
		b.queue.Push(platform.Event{Type: platform.EventClose, Window: id})
	}

	g.runes = ebiten.AppendInputChars(g.runes[:0])
	for _, r := range g.runes {
		if r < 0x20 {
			continue
		}
		b.queue.Push(platform.Event{Type: platform.EventTextInput, Window: id, Rune: r})
	}

	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		b.queue.Push(platform.Event{Type: platform.EventKeyDown, Window: id, Key: keyName(k)})
	}

	x, y := ebiten.CursorPosition()
	if !g.hasMouse || x != g.cursorX || y != g.cursorY {
		g.cursorX, g.cursorY = x, y
		g.hasMouse = true
		b.queue.Push(platform.Event{Type: platform.EventMouseMove, Window: id, X: x, Y: y})
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		b.queue.Push(platform.Event{Type: platform.EventMouseDown, Window: id, X: x, Y: y})
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		b.queue.Push(platform.Event{Type: platform.EventMouseUp, Window: id, X: x, Y: y})
	}
	if dx, dy := ebiten.Wheel(); dx != 0 || dy != 0 {
		b.queue.Push(platform.Event{Type: platform.EventMouseWheel, Window: id, DeltaX: dx, DeltaY: dy})
	}

	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	b := g.backend
	b.mu.Lock()
	win := b.win
	b.mu.Unlock()
	if win == nil {
		return
	}

	win.mu.Lock()
	frame := win.lastFrame
	win.mu.Unlock()
	if frame == nil {
		return
	}

	if g.canvas == nil || g.canvas.Bounds().Dx() != frame.W || g.canvas.Bounds().Dy() != frame.H {
		g.canvas = ebiten.NewImage(frame.W, frame.H)
	}
	g.canvas.WritePixels(frame.Pixels)
	screen.DrawImage(g.canvas, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	b := g.backend
	b.mu.Lock()
	win := b.win
	b.mu.Unlock()
	if win == nil {
		return outsideWidth, outsideHeight
	}

	win.mu.Lock()
	changed := win.w != outsideWidth || win.h != outsideHeight
	win.w, win.h = outsideWidth, outsideHeight
	id := win.id
	win.mu.Unlock()
	if changed {
		b.queue.Push(platform.Event{Type: platform.EventResize, Window: id, Width: outsideWidth, Height: outsideHeight})
	}
	return outsideWidth, outsideHeight
}

func keyName(k ebiten.Key) string {
	switch k {
	case ebiten.KeyEscape:
		return "escape"
	case ebiten.KeyEnter, ebiten.KeyKPEnter:
		return "enter"
	case ebiten.KeyBackspace:
		return "backspace"
	case ebiten.KeyDelete:
		return "delete"
	case ebiten.KeyTab:
		return "tab"
	case ebiten.KeyArrowUp:
		return "up"
	case ebiten.KeyArrowDown:
		return "down"
	case ebiten.KeyArrowLeft:
		return "left"
	case ebiten.KeyArrowRight:
		return "right"
	case ebiten.KeyHome:
		return "home"
	case ebiten.KeyEnd:
		return "end"
	case ebiten.KeyPageUp:
		return "pageup"
	case ebiten.KeyPageDown:
		return "pagedown"
	case ebiten.KeyF1:
		return "f1"
	case ebiten.KeySpace:
		return "space"
	default:
		if k >= ebiten.KeyA && k <= ebiten.KeyZ {
			return string(rune('a' + (k - ebiten.KeyA)))
		}
		if k >= ebiten.KeyDigit0 && k <= ebiten.KeyDigit9 {
			return string(rune('0' + (k - ebiten.KeyDigit0)))
		}
		return ""
	}
}
