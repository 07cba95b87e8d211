package glint

import (
	"time"

	"glint/internal/platform"
)

// UserEvent is a payload posted into the platform's event queue. Posting is
// the only cross-goroutine path into the loop.
type UserEvent interface {
	isUserEvent()
}

// RepaintRequest asks for a redraw of a viewport no earlier than When.
// Frame records the viewport's frame number at request time; once the live
// counter moves past it the request is stale and must not force a redraw.
type RepaintRequest struct {
	Viewport ViewportID
	When     time.Time
	Frame    uint64
}

// AccessActionRequest forwards a host accessibility action to the UI pass
// owning the window.
type AccessActionRequest struct {
	Action platform.AccessAction
	Window platform.WindowID
}

func (RepaintRequest) isUserEvent()      {}
func (AccessActionRequest) isUserEvent() {}

var (
	_ UserEvent = RepaintRequest{}
	_ UserEvent = AccessActionRequest{}
)

// EventResultKind enumerates the scheduling outcomes an event or UI pass
// can yield.
type EventResultKind int

const (
	// ResultWait parks the loop until the next native event.
	ResultWait EventResultKind = iota

	// ResultRepaintNow redraws synchronously inside the current event
	// handling. Reserved for platform-forced redraws such as live resize;
	// everything else defers.
	ResultRepaintNow

	// ResultRepaintNext queues a redraw for after the event queue drains,
	// so a burst of input becomes one frame.
	ResultRepaintNext

	// ResultRepaintAt wakes the loop at a given instant.
	ResultRepaintAt

	// ResultExit tears the loop down.
	ResultExit
)

// EventResult is the decision returned to the owning loop after every
// dispatched event or completed UI pass.
type EventResult struct {
	Kind   EventResultKind
	Window platform.WindowID
	At     time.Time
}

func Wait() EventResult { return EventResult{Kind: ResultWait} }

func RepaintNow(id platform.WindowID) EventResult {
	return EventResult{Kind: ResultRepaintNow, Window: id}
}

func RepaintNext(id platform.WindowID) EventResult {
	return EventResult{Kind: ResultRepaintNext, Window: id}
}

func RepaintAt(id platform.WindowID, at time.Time) EventResult {
	return EventResult{Kind: ResultRepaintAt, Window: id, At: at}
}

func Exit() EventResult { return EventResult{Kind: ResultExit} }

// DescribeEvent returns a short fixed label for an event, for logs and
// profiling. It is total over every event type and never allocates.
func DescribeEvent(ev platform.Event) string {
	switch ev.Type {
	case platform.EventClose:
		return "window: close"
	case platform.EventResize:
		return "window: resize"
	case platform.EventScaleChanged:
		return "window: scale-changed"
	case platform.EventRedrawRequested:
		return "window: redraw-requested"
	case platform.EventFocusGained:
		return "window: focus-gained"
	case platform.EventFocusLost:
		return "window: focus-lost"
	case platform.EventThemeChanged:
		return "window: theme-changed"
	case platform.EventKeyDown:
		return "input: key-down"
	case platform.EventKeyUp:
		return "input: key-up"
	case platform.EventTextInput:
		return "input: text"
	case platform.EventMouseMove:
		return "input: mouse-move"
	case platform.EventMouseDown:
		return "input: mouse-down"
	case platform.EventMouseUp:
		return "input: mouse-up"
	case platform.EventMouseWheel:
		return "input: mouse-wheel"
	case platform.EventUser:
		switch ev.User.(type) {
		case RepaintRequest:
			return "user: repaint-request"
		case AccessActionRequest:
			return "user: access-action-request"
		default:
			return "user: unknown"
		}
	case platform.EventAccess:
		switch ev.Access {
		case platform.AccessActionRequested:
			return "access: action-requested"
		case platform.AccessInitialTreeRequested:
			return "access: initial-tree-requested"
		case platform.AccessDeactivated:
			return "access: deactivated"
		default:
			return "access: unknown"
		}
	default:
		return "unknown"
	}
}
