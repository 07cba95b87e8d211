package platform

import (
	"time"

	"glint/internal/render"
)

// WindowID identifies a native window for the lifetime of its backend.
// IDs are never reused, so a destroyed window's ID stays dangling rather
// than aliasing a newer window.
type WindowID uint64

type WindowConfig struct {
	Title       string
	WidthPx     int
	HeightPx    int
	MinWidthPx  int
	MinHeightPx int
	Resizable   bool
}

type EventType int

const (
	EventUnknown EventType = iota
	EventClose
	EventResize
	EventScaleChanged
	EventRedrawRequested
	EventFocusGained
	EventFocusLost
	EventThemeChanged
	EventKeyDown
	EventKeyUp
	EventTextInput
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
	EventUser
	EventAccess
)

// ColorScheme is the OS-reported appearance of a window.
type ColorScheme int

const (
	SchemeUnknown ColorScheme = iota
	SchemeLight
	SchemeDark
)

// AccessKind distinguishes the host accessibility event subtypes.
type AccessKind int

const (
	AccessActionRequested AccessKind = iota
	AccessInitialTreeRequested
	AccessDeactivated
)

// AccessAction is an action request forwarded by the host accessibility
// layer, addressed at a node in the UI pass's tree.
type AccessAction struct {
	Name   string
	Target uint64
}

// Event is the one event shape all backends produce. Fields beyond Type
// and Window are populated per type; unused fields stay zero.
type Event struct {
	Type   EventType
	Window WindowID

	Width  int
	Height int
	Scale  float32

	Rune rune
	Key  string

	X      int
	Y      int
	DeltaX float64
	DeltaY float64

	// User carries the payload of an EventUser posted through Platform.Post.
	User any

	// Access and Action describe an EventAccess.
	Access AccessKind
	Action AccessAction
}

// Platform is the native windowing backend. All methods except Post must
// be called from the event-loop goroutine.
type Platform interface {
	Name() string

	CreateWindow(cfg WindowConfig) (Window, error)

	// NextEvent returns the next pending event. With a negative timeout it
	// blocks until an event arrives; with a zero timeout it polls; otherwise
	// it waits at most the given duration. The second return is false when
	// no event was available before the deadline.
	NextEvent(timeout time.Duration) (Event, bool)

	// Post enqueues a user payload as an EventUser and wakes a blocked
	// NextEvent. Safe to call from any goroutine; this is the only
	// cross-goroutine entry point into a backend.
	Post(payload any)

	Terminate()
}

// Window is a native window handle. It is shared between the event-loop
// adapter and the render backend; the handle dies when its last holder
// drops it, and only the loop goroutine mutates window state.
type Window interface {
	ID() WindowID
	SizePx() (int, int)
	Scale() float32
	SetTitle(title string)
	Focused() bool
	Minimized() bool

	// ColorScheme reports the OS appearance for this window, or
	// SchemeUnknown when the platform cannot tell.
	ColorScheme() ColorScheme

	// Present hands a finished frame to the window. The framebuffer is
	// only read, never retained past the call.
	Present(fb *render.FrameBuffer) error

	Close()
}
