package glint

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"glint/internal/platform"
	"glint/pkg/store"
)

const memoryKey = "glint/memory"

// Context is the state shared between the application's update function and
// the owning loop: persistent memory, frame counters, queued input, and the
// channel for repaint requests. A Context is safe for concurrent use; repaint
// requests from other goroutines are posted through the platform queue.
type Context struct {
	mu sync.Mutex

	opts    Options
	storage store.Storage
	memory  *Memory

	// embed forces every viewport into the root window instead of a
	// native window of its own.
	embed bool

	frames map[ViewportID]uint64

	// post delivers a UserEvent into the platform queue. Wired by the
	// adapter at startup.
	post func(payload any)

	inPass  bool
	passVP  ViewportID
	passGID uint64
	out     passOutput

	input   []platform.Event
	actions []platform.AccessAction
}

// passOutput is what one UI pass hands back to the loop: repaint demands
// raised during the pass, viewports to materialize, and a quit flag.
type passOutput struct {
	repaints  map[ViewportID]time.Duration
	viewports []ViewportConfig
	quit      bool
}

// NewContext builds a context over the given storage, restoring persistent
// memory if the options ask for it. A corrupt memory blob is discarded and
// replaced with a fresh one; storage problems are not fatal here.
func NewContext(opts Options, storage store.Storage) *Context {
	c := &Context{
		opts:    opts,
		storage: storage,
		memory:  NewMemory(),
		embed:   opts.Device != DeviceDesktop,
		frames:  make(map[ViewportID]uint64),
	}
	if opts.PersistMemory && storage != nil {
		if blob, ok := storage.Load(memoryKey); ok {
			if m, err := DecodeMemory(blob); err == nil {
				c.memory = m
			}
		}
	}
	return c
}

func (c *Context) Options() Options { return c.opts }
func (c *Context) Memory() *Memory  { return c.memory }

// EmbedViewports reports whether viewports collapse into the root window.
func (c *Context) EmbedViewports() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.embed
}

// SetEmbedViewports overrides the device-class default. Backends that can
// only ever drive one native window force this on.
func (c *Context) SetEmbedViewports(embed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embed = embed
}

// FrameNumber returns the live frame counter for a viewport. Unknown
// viewports report zero.
func (c *Context) FrameNumber(vp ViewportID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[vp]
}

// RequestRepaint asks for an immediate redraw of a viewport. During a pass
// the request lands in the pass output; from anywhere else it is posted into
// the platform queue stamped with the current frame number.
func (c *Context) RequestRepaint(vp ViewportID) {
	c.RequestRepaintAfter(vp, 0)
}

// RequestRepaintAfter asks for a redraw of a viewport no sooner than d from
// now. Only the goroutine running the current pass folds into the pass
// output; a concurrent caller posts through the queue like any outsider, so
// its request carries its own frame stamp.
func (c *Context) RequestRepaintAfter(vp ViewportID, d time.Duration) {
	c.mu.Lock()
	if c.inPass && goid() == c.passGID {
		if prev, ok := c.out.repaints[vp]; !ok || d < prev {
			c.out.repaints[vp] = d
		}
		c.mu.Unlock()
		return
	}
	frame := c.frames[vp]
	post := c.post
	c.mu.Unlock()

	if post != nil {
		post(RepaintRequest{Viewport: vp, When: time.Now().Add(d), Frame: frame})
	}
}

// OpenViewport schedules a new viewport for materialization after the
// current pass. Outside a pass it is a no-op.
func (c *Context) OpenViewport(cfg ViewportConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inPass {
		return
	}
	c.out.viewports = append(c.out.viewports, cfg)
}

// Quit asks the loop to shut down after the current pass.
func (c *Context) Quit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inPass {
		c.out.quit = true
	}
}

// ClipboardText returns the system clipboard contents.
func (c *Context) ClipboardText() (string, error) {
	s, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return s, nil
}

// SetClipboardText replaces the system clipboard contents.
func (c *Context) SetClipboardText(s string) error {
	if err := clipboard.WriteAll(s); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// SaveMemory writes the persistent memory through the storage layer. Called
// on shutdown; a nil storage or disabled persistence is a no-op.
func (c *Context) SaveMemory() error {
	if !c.opts.PersistMemory || c.storage == nil {
		return nil
	}
	if err := c.storage.Save(memoryKey, c.memory.Encode()); err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	if err := c.storage.Flush(); err != nil {
		return fmt.Errorf("flush memory: %w", err)
	}
	return nil
}

// pushInput buffers an input event for the next pass over its viewport.
func (c *Context) pushInput(ev platform.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = append(c.input, ev)
}

// takeInput drains the buffered input.
func (c *Context) takeInput() []platform.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	in := c.input
	c.input = nil
	return in
}

// queueAccessAction buffers a host accessibility action for the next pass.
func (c *Context) queueAccessAction(a platform.AccessAction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, a)
}

// takeAccessActions drains the buffered accessibility actions.
func (c *Context) takeAccessActions() []platform.AccessAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	as := c.actions
	c.actions = nil
	return as
}

// beginPass marks the start of a UI pass for a viewport. Repaint requests
// raised until endPass are collected into the pass output instead of the
// platform queue.
func (c *Context) beginPass(vp ViewportID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inPass = true
	c.passVP = vp
	c.passGID = goid()
	c.out = passOutput{repaints: make(map[ViewportID]time.Duration)}
}

// endPass closes the pass, advances the viewport's frame counter, and
// returns what the pass demanded.
func (c *Context) endPass() passOutput {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames[c.passVP]++
	c.inPass = false
	out := c.out
	c.out = passOutput{}
	return out
}

// goid reads the current goroutine's id out of its stack header
// ("goroutine <id> [running]:"). There is no API for this; the parse is the
// accepted workaround and only identity, never ordering, is derived from it.
func goid() uint64 {
	var buf [32]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for _, c := range buf[len("goroutine "):n] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}

// dropViewport forgets a viewport's frame counter once its window is gone.
func (c *Context) dropViewport(vp ViewportID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.frames, vp)
}
